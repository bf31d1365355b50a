package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_indexer.go -package=mocks docchat/internal/service Indexer
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_library_service.go -package=mocks docchat/internal/service LibraryService

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/library"
)

// Indexer is the part of the indexing pipeline the library service drives.
type Indexer interface {
	IndexFiles(ctx context.Context, files []library.File) (*indexer.BatchResult, error)
	ClearAll(ctx context.Context) error
	Stats(ctx context.Context) (*indexer.IndexStats, error)
	CoverageStats(ctx context.Context) (*indexer.IndexingCoverageStats, error)
}

// Upload is one file received from a client.
type Upload struct {
	Name    string
	Content io.Reader
}

// UploadResult summarizes an upload.
type UploadResult struct {
	// Status is "success", "partial" when some files failed, or "failed" when all did.
	Status         string                 `json:"status"`
	FilesProcessed int                    `json:"files_processed"`
	TotalChunks    int                    `json:"total_chunks"`
	Stats          indexer.ChunkStats     `json:"stats"`
	Files          []*indexer.IndexResult `json:"files"`
}

// LibraryStats describes the stored index.
type LibraryStats struct {
	Exists           bool                           `json:"exists"`
	TotalDocuments   int                            `json:"total_documents"`
	TotalChunks      int                            `json:"total_chunks"`
	VectorPoints     int                            `json:"vector_points"`
	PersistDirectory string                         `json:"persist_directory"`
	Coverage         *indexer.IndexingCoverageStats `json:"coverage,omitempty"`
}

// LibraryService manages the indexed document library.
type LibraryService interface {
	// Upload stages the files and indexes them. Unsupported or oversized files reject the whole upload.
	Upload(ctx context.Context, uploads []Upload) (*UploadResult, error)
	// IndexDirectory indexes every supported file under the docs directory. With force the index is cleared first.
	IndexDirectory(ctx context.Context, force bool) (*indexer.BatchResult, error)
	// StartIndexing runs IndexDirectory in the background. It returns ErrBusy while a run is in progress.
	StartIndexing(ctx context.Context, force bool) error
	// Reset removes every document, chunk and vector.
	Reset(ctx context.Context) error
	// Stats reports the index contents.
	Stats(ctx context.Context, coverage bool) (*LibraryStats, error)
}

// LibraryConfig holds the library locations and limits.
type LibraryConfig struct {
	DocsDir        string // Optional directory indexed by IndexDirectory
	PersistDir     string // Reported by Stats
	StagingDir     string // Parent of upload staging directories; empty uses the OS temp dir
	MaxUploadBytes int64  // Per file; 0 means no limit
}

// libraryService implements LibraryService.
type libraryService struct {
	indexer  Indexer
	cfg      LibraryConfig
	indexing atomic.Bool
}

// NewLibraryService creates a new LibraryService.
func NewLibraryService(idx Indexer, cfg LibraryConfig) LibraryService {
	return &libraryService{
		indexer: idx,
		cfg:     cfg,
	}
}

// Upload stages and indexes uploaded files.
func (s *libraryService) Upload(ctx context.Context, uploads []Upload) (*UploadResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if len(uploads) == 0 {
		return nil, &ValidationError{Field: "files", Message: "no files uploaded"}
	}
	for _, u := range uploads {
		if !library.IsSupported(u.Name) {
			logger.WarnContext(ctx, "unsupported upload", "file", u.Name)
			return nil, &ValidationError{Field: "files", Message: fmt.Sprintf("unsupported file type: %s", u.Name)}
		}
	}

	staging, err := library.NewStaging(s.cfg.StagingDir, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := staging.Cleanup(); err != nil {
			logger.WarnContext(ctx, "failed to remove staging directory", "dir", staging.Dir(), "error", err)
		}
	}()

	for _, u := range uploads {
		if _, err := staging.Add(u.Name, u.Content); err != nil {
			return nil, WrapError(err, "failed to stage upload")
		}
	}

	batch, err := s.indexer.IndexFiles(ctx, staging.Files())
	if err != nil {
		return nil, WrapError(err, "failed to index uploads")
	}

	result := &UploadResult{
		Status:         "success",
		FilesProcessed: batch.Processed + batch.Unchanged,
		TotalChunks:    batch.Chunks,
		Stats:          batch.Stats,
		Files:          batch.Files,
	}
	switch {
	case batch.Failed == len(uploads):
		result.Status = "failed"
	case batch.Failed > 0:
		result.Status = "partial"
	}

	logger.InfoContext(ctx, "upload processed", "files", len(uploads), "status", result.Status, "chunks", result.TotalChunks)
	return result, nil
}

// IndexDirectory scans the docs directory and indexes what it finds.
func (s *libraryService) IndexDirectory(ctx context.Context, force bool) (*indexer.BatchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if s.cfg.DocsDir == "" {
		return nil, &ValidationError{Field: "DOCS_DIR", Message: "no documents directory configured"}
	}

	files, err := library.ScanDir(ctx, s.cfg.DocsDir)
	if err != nil {
		return nil, WrapError(err, "failed to scan documents directory")
	}
	logger.InfoContext(ctx, "documents directory scanned", "dir", s.cfg.DocsDir, "files", len(files), "force", force)

	if force {
		if err := s.indexer.ClearAll(ctx); err != nil {
			return nil, WrapError(err, "failed to clear index")
		}
	}

	return s.indexer.IndexFiles(ctx, files)
}

// StartIndexing indexes the docs directory in the background, detached from
// the caller's cancellation.
func (s *libraryService) StartIndexing(ctx context.Context, force bool) error {
	if s.cfg.DocsDir == "" {
		return &ValidationError{Field: "DOCS_DIR", Message: "no documents directory configured"}
	}
	if !s.indexing.CompareAndSwap(false, true) {
		return ErrBusy
	}

	bg := context.WithoutCancel(ctx)
	go func() {
		defer s.indexing.Store(false)
		logger := contextutil.LoggerFromContext(bg)
		if _, err := s.IndexDirectory(bg, force); err != nil {
			logger.ErrorContext(bg, "background indexing failed", "error", err)
		}
	}()
	return nil
}

// Reset removes everything from the index.
func (s *libraryService) Reset(ctx context.Context) error {
	if err := s.indexer.ClearAll(ctx); err != nil {
		return WrapError(err, "failed to reset index")
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "index reset")
	return nil
}

// Stats reports document, chunk and vector counts, with coverage statistics on request.
func (s *libraryService) Stats(ctx context.Context, coverage bool) (*LibraryStats, error) {
	st, err := s.indexer.Stats(ctx)
	if err != nil {
		return nil, WrapError(err, "failed to get index stats")
	}

	stats := &LibraryStats{
		Exists:           st.Documents > 0 || st.VectorPoints > 0,
		TotalDocuments:   st.Documents,
		TotalChunks:      st.Chunks,
		VectorPoints:     st.VectorPoints,
		PersistDirectory: s.cfg.PersistDir,
	}

	if coverage {
		cov, err := s.indexer.CoverageStats(ctx)
		if err != nil {
			return nil, WrapError(err, "failed to get coverage stats")
		}
		stats.Coverage = cov
	}
	return stats, nil
}

