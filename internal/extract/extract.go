// Package extract converts uploaded files into indexer documents.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/library"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no extractor.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrExtractionFailure matches every *ExtractionError.
	ErrExtractionFailure = errors.New("text extraction failed")
)

// ExtractionError reports a file that could not be read or parsed.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() []error {
	return []error{ErrExtractionFailure, e.Err}
}

// parseFunc turns raw file content into text. The returned format tags how
// the text should be analyzed; title is optional.
type parseFunc func(r io.Reader, tempDir string) (txt string, format indexer.Format, title string, err error)

var parsers = map[string]parseFunc{
	".txt":      parseText,
	".md":       parseMarkdown,
	".markdown": parseMarkdown,
	".pdf":      parsePDF,
	".docx":     parseDOCX,
	".html":     parseHTML,
	".htm":      parseHTML,
}

// Supported reports whether name has an extension Extract can handle.
func Supported(name string) bool {
	_, ok := parsers[strings.ToLower(filepath.Ext(name))]
	return ok
}

// Extractor reads documents and computes their structure.
type Extractor struct {
	// TempDir holds scratch files for parsers that need random access.
	// Empty selects os.TempDir.
	TempDir string
}

// New creates an Extractor.
func New(tempDir string) *Extractor {
	return &Extractor{TempDir: tempDir}
}

// Extract reads r as the file called name. The document ID is name.
func (e *Extractor) Extract(ctx context.Context, name string, r io.Reader) (indexer.Document, error) {
	parse, ok := parsers[strings.ToLower(filepath.Ext(name))]
	if !ok {
		return indexer.Document{}, fmt.Errorf("%s: %w", name, ErrUnsupportedFormat)
	}
	if err := ctx.Err(); err != nil {
		return indexer.Document{}, err
	}

	txt, format, title, err := safeParse(parse, r, e.TempDir)
	if err != nil {
		return indexer.Document{}, &ExtractionError{Source: name, Err: err}
	}

	st := indexer.Analyze(format, txt)
	switch {
	case title != "":
		st.Title = title
	case st.Title == "":
		st.Title = indexer.TitleFromFilename(name)
	}

	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "extracted document",
		"source", name,
		"format", format,
		"characters", utf8.RuneCountInString(txt),
		"breakpoints", len(st.Breakpoints),
	)

	return indexer.Document{
		ID:        name,
		Format:    format,
		Text:      txt,
		Structure: &st,
	}, nil
}

// ExtractFile opens f.Path and extracts it under the source name f.Name.
func (e *Extractor) ExtractFile(ctx context.Context, f library.File) (indexer.Document, error) {
	if !Supported(f.Name) {
		return indexer.Document{}, fmt.Errorf("%s: %w", f.Name, ErrUnsupportedFormat)
	}

	file, err := os.Open(f.Path)
	if err != nil {
		return indexer.Document{}, &ExtractionError{Source: f.Name, Err: err}
	}
	defer func() {
		_ = file.Close()
	}()

	return e.Extract(ctx, f.Name, file)
}

// safeParse converts parser panics into errors. The PDF reader panics on
// some malformed inputs.
func safeParse(parse parseFunc, r io.Reader, tempDir string) (txt string, format indexer.Format, title string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("parser panic: %v", p)
		}
	}()
	return parse(r, tempDir)
}

// decodeText validates UTF-8, drops a byte order mark and normalizes line endings.
func decodeText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.New("content is not valid UTF-8")
	}
	s := strings.TrimPrefix(string(data), "\ufeff")
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return s, nil
}

// spool copies r into a temporary file for parsers that need io.ReaderAt.
// The caller must close and remove the file.
func spool(r io.Reader, tempDir, pattern string) (*os.File, int64, error) {
	tmp, err := os.CreateTemp(tempDir, pattern)
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}

	size, err := io.Copy(tmp, r)
	if err == nil {
		_, err = tmp.Seek(0, io.SeekStart)
	}
	if err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, 0, fmt.Errorf("write temp file: %w", err)
	}
	return tmp, size, nil
}
