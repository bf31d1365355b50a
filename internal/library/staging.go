package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrTooLarge is returned when an upload exceeds the staging size limit.
var ErrTooLarge = errors.New("file exceeds upload size limit")

// Staging holds uploaded files in a private temporary directory until they
// are ingested. Call Cleanup when done.
type Staging struct {
	dir      string
	maxBytes int64
	files    []File
}

// NewStaging creates a staging directory under parent (os.TempDir when empty).
// maxBytes limits each file; 0 means no limit.
func NewStaging(parent string, maxBytes int64) (*Staging, error) {
	dir, err := os.MkdirTemp(parent, "docchat-upload-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Staging{dir: dir, maxBytes: maxBytes}, nil
}

// Add copies r into the staging directory under the base name of name.
func (s *Staging) Add(name string, r io.Reader) (File, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return File{}, fmt.Errorf("invalid file name %q", name)
	}

	// Index prefix keeps duplicate names from overwriting each other.
	path := filepath.Join(s.dir, fmt.Sprintf("%03d-%s", len(s.files), base))
	f, err := os.Create(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if err != nil {
		return File{}, fmt.Errorf("failed to write %s: %w", base, err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		_ = os.Remove(path)
		return File{}, fmt.Errorf("%s: %w", base, ErrTooLarge)
	}

	file := File{Name: base, Path: path, Size: n}
	if fi, err := f.Stat(); err == nil {
		file.ModTime = fi.ModTime()
	}
	s.files = append(s.files, file)
	return file, nil
}

// Files returns the staged files in the order they were added.
func (s *Staging) Files() []File {
	return s.files
}

// Dir returns the staging directory.
func (s *Staging) Dir() string {
	return s.dir
}

// Cleanup removes the staging directory and everything in it.
func (s *Staging) Cleanup() error {
	return os.RemoveAll(s.dir)
}
