package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}
}

func TestScanDir(t *testing.T) {
	root := t.TempDir()

	writeFile(t, root, "guide.md", "# Guide")
	writeFile(t, root, "reports/q1.PDF", "%PDF")
	writeFile(t, root, "reports/notes.txt", "notes")
	writeFile(t, root, "reports/deep/readme.markdown", "readme")
	writeFile(t, root, "image.png", "png")
	writeFile(t, root, ".hidden.md", "hidden")
	writeFile(t, root, ".git/config.md", "git")

	files, err := ScanDir(context.Background(), root)
	if err != nil {
		t.Fatalf("ScanDir() error = %v", err)
	}

	want := []string{"guide.md", "reports/deep/readme.markdown", "reports/notes.txt", "reports/q1.PDF"}
	if len(files) != len(want) {
		t.Fatalf("ScanDir() returned %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, f := range files {
		if f.Name != want[i] {
			t.Errorf("files[%d].Name = %q, want %q", i, f.Name, want[i])
		}
		if !filepath.IsAbs(f.Path) {
			t.Errorf("files[%d].Path = %q, want absolute", i, f.Path)
		}
		if f.Size == 0 {
			t.Errorf("files[%d].Size = 0", i)
		}
	}
}

func TestScanDir_Errors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "file.txt", "x")

	tests := []struct {
		name string
		path string
	}{
		{name: "missing directory", path: filepath.Join(root, "missing")},
		{name: "not a directory", path: filepath.Join(root, "file.txt")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ScanDir(context.Background(), tt.path); err == nil {
				t.Error("ScanDir() expected error, got nil")
			}
		})
	}
}

func TestScanDir_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "a")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ScanDir(ctx, root); err == nil {
		t.Error("ScanDir() with cancelled context expected error")
	}
}

func TestIsSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"doc.pdf", true},
		{"DOC.PDF", true},
		{"notes.txt", true},
		{"readme.md", true},
		{"readme.markdown", true},
		{"report.docx", true},
		{"page.HTM", true},
		{"sheet.xlsx", false},
		{"noext", false},
	}

	for _, tt := range tests {
		if got := IsSupported(tt.name); got != tt.want {
			t.Errorf("IsSupported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
