package library

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func TestStaging(t *testing.T) {
	s, err := NewStaging(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewStaging() error = %v", err)
	}

	first, err := s.Add("report.txt", strings.NewReader("first"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	second, err := s.Add("../../report.txt", strings.NewReader("second"))
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if first.Name != "report.txt" || second.Name != "report.txt" {
		t.Errorf("Add() names = %q, %q, want base names", first.Name, second.Name)
	}
	if first.Path == second.Path {
		t.Error("duplicate names should be staged to different paths")
	}
	if !strings.HasPrefix(second.Path, s.Dir()) {
		t.Errorf("staged path %q escapes %q", second.Path, s.Dir())
	}

	data, err := os.ReadFile(second.Path)
	if err != nil || string(data) != "second" {
		t.Errorf("staged content = %q, %v", data, err)
	}
	if len(s.Files()) != 2 {
		t.Errorf("Files() = %d, want 2", len(s.Files()))
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if _, err := os.Stat(s.Dir()); !os.IsNotExist(err) {
		t.Errorf("staging directory still exists after Cleanup")
	}
}

func TestStaging_Errors(t *testing.T) {
	s, err := NewStaging(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewStaging() error = %v", err)
	}
	defer func() {
		_ = s.Cleanup()
	}()

	if _, err := s.Add("big.txt", strings.NewReader("12345")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Add() oversized error = %v, want ErrTooLarge", err)
	}
	if _, err := s.Add("ok.txt", strings.NewReader("1234")); err != nil {
		t.Errorf("Add() at limit error = %v", err)
	}
	if _, err := s.Add("", strings.NewReader("x")); err == nil {
		t.Error("Add() with empty name expected error")
	}
	if len(s.Files()) != 1 {
		t.Errorf("Files() = %d, want 1", len(s.Files()))
	}
}
