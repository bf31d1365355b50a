package extract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"docchat/internal/indexer"
	"docchat/internal/library"
)

func TestExtractor_Extract(t *testing.T) {
	tests := []struct {
		name       string
		filename   string
		content    string
		wantFormat indexer.Format
		wantText   string
		wantTitle  string
	}{
		{
			name:       "plain text keeps whitespace",
			filename:   "notes.txt",
			content:    "  first line\r\nsecond line\r\n\r\n",
			wantFormat: indexer.FormatText,
			wantText:   "  first line\nsecond line\n\n",
			wantTitle:  "Notes",
		},
		{
			name:       "byte order mark is dropped",
			filename:   "bom.TXT",
			content:    "\ufeffhello",
			wantFormat: indexer.FormatText,
			wantText:   "hello",
			wantTitle:  "Bom",
		},
		{
			name:       "markdown is verbatim with heading title",
			filename:   "guide.md",
			content:    "# User Guide\n\nSome *text*.\n",
			wantFormat: indexer.FormatMarkdown,
			wantText:   "# User Guide\n\nSome *text*.\n",
			wantTitle:  "User Guide",
		},
		{
			name:       "markdown without heading falls back to filename",
			filename:   "release-notes.markdown",
			content:    "Just text.",
			wantFormat: indexer.FormatMarkdown,
			wantText:   "Just text.",
			wantTitle:  "Release Notes",
		},
		{
			name:     "html becomes markdown",
			filename: "page.html",
			content: `<html><head><title>Docs Home</title><style>p{}</style></head>
<body><nav>skip me</nav><h2>Install</h2><p>Run   the
installer.</p><pre>make all
make test</pre><ul><li>one</li><li>two</li></ul><script>var x;</script></body></html>`,
			wantFormat: indexer.FormatMarkdown,
			wantText:   "## Install\n\nRun the installer.\n\n```\nmake all\nmake test\n```\n\none\n\ntwo\n",
			wantTitle:  "Docs Home",
		},
		{
			name:       "empty text file",
			filename:   "empty.txt",
			content:    "",
			wantFormat: indexer.FormatText,
			wantText:   "",
			wantTitle:  "Empty",
		},
	}

	extractor := New(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := extractor.Extract(context.Background(), tt.filename, strings.NewReader(tt.content))
			if err != nil {
				t.Fatalf("Extract() error = %v", err)
			}
			if doc.ID != tt.filename {
				t.Errorf("ID = %q, want %q", doc.ID, tt.filename)
			}
			if doc.Format != tt.wantFormat {
				t.Errorf("Format = %q, want %q", doc.Format, tt.wantFormat)
			}
			if doc.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", doc.Text, tt.wantText)
			}
			if doc.Structure == nil {
				t.Fatal("Structure should be computed")
			}
			if doc.Structure.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", doc.Structure.Title, tt.wantTitle)
			}
		})
	}
}

func TestExtractor_Extract_HTMLTitleFallback(t *testing.T) {
	doc, err := New("").Extract(context.Background(), "a.htm",
		strings.NewReader("<html><body><h1>Heading</h1><p>Body</p></body></html>"))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if doc.Structure.Title != "Heading" {
		t.Errorf("Title = %q, want first heading without <title>", doc.Structure.Title)
	}
}

func TestExtractor_Extract_HTMLPreWithBackticks(t *testing.T) {
	page := "<html><body><pre>```go\nfmt.Println(1)\n```</pre><p>After code.</p></body></html>"

	doc, err := New("").Extract(context.Background(), "snippet.html", strings.NewReader(page))
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	wantBlock := "````\n```go\nfmt.Println(1)\n```\n````"
	if !strings.Contains(doc.Text, wantBlock) {
		t.Fatalf("Extract() text = %q, want block %q", doc.Text, wantBlock)
	}

	if len(doc.Structure.Atomic) != 1 {
		t.Fatalf("Atomic = %+v, want one fenced span", doc.Structure.Atomic)
	}
	span := doc.Structure.Atomic[0]
	fenced := string([]rune(doc.Text)[span.Start:span.End])
	if !strings.Contains(fenced, "```\n````") || strings.Contains(fenced, "After code.") {
		t.Errorf("fenced span = %q, want the whole pre block only", fenced)
	}
}

func TestExtractor_Extract_Errors(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		content     string
		wantErr     error
		wantExtract bool
	}{
		{name: "unsupported extension", filename: "sheet.xlsx", content: "x", wantErr: ErrUnsupportedFormat},
		{name: "no extension", filename: "README", content: "x", wantErr: ErrUnsupportedFormat},
		{name: "invalid utf-8", filename: "bad.txt", content: "ok \xff\xfe bad", wantErr: ErrExtractionFailure, wantExtract: true},
		{name: "corrupt pdf", filename: "broken.pdf", content: "%PDF-1.4 not really", wantErr: ErrExtractionFailure, wantExtract: true},
		{name: "corrupt docx", filename: "broken.docx", content: "PK not a zip", wantErr: ErrExtractionFailure, wantExtract: true},
	}

	extractor := New(t.TempDir())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extractor.Extract(context.Background(), tt.filename, strings.NewReader(tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Extract() error = %v, want %v", err, tt.wantErr)
			}
			var extractErr *ExtractionError
			if errors.As(err, &extractErr) != tt.wantExtract {
				t.Errorf("Extract() error type = %T, want ExtractionError %v", err, tt.wantExtract)
			}
			if tt.wantExtract && extractErr.Source != tt.filename {
				t.Errorf("ExtractionError.Source = %q, want %q", extractErr.Source, tt.filename)
			}
		})
	}
}

func TestExtractor_Extract_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New("").Extract(ctx, "a.txt", strings.NewReader("a")); !errors.Is(err, context.Canceled) {
		t.Errorf("Extract() error = %v, want context.Canceled", err)
	}
}

func TestExtractor_ExtractFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "001-report.txt")
	if err := os.WriteFile(path, []byte("Quarterly report."), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	extractor := New(dir)
	doc, err := extractor.ExtractFile(context.Background(), library.File{Name: "report.txt", Path: path})
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if doc.ID != "report.txt" || doc.Text != "Quarterly report." {
		t.Errorf("ExtractFile() = %+v", doc)
	}

	_, err = extractor.ExtractFile(context.Background(), library.File{Name: "gone.txt", Path: filepath.Join(dir, "gone.txt")})
	if !errors.Is(err, ErrExtractionFailure) {
		t.Errorf("ExtractFile() missing file error = %v, want ErrExtractionFailure", err)
	}
}

func TestExtractor_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	_, _ = New(dir).Extract(context.Background(), "x.pdf", strings.NewReader("garbage"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("temp dir has %d leftover files", len(entries))
	}
}

func TestSupported_CoversLibraryExtensions(t *testing.T) {
	for _, ext := range library.Extensions {
		if !Supported("file" + ext) {
			t.Errorf("library extension %s has no extractor", ext)
		}
	}
}
