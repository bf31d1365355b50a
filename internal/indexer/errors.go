package indexer

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is returned by Split when the chunking
// configuration cannot produce valid chunks.
var ErrInvalidConfiguration = errors.New("invalid chunking configuration")

// InvalidConfigurationError describes which configuration field is invalid.
type InvalidConfigurationError struct {
	Field   string
	Message string
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("invalid chunking configuration: %s %s", e.Field, e.Message)
}

func (e *InvalidConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// Validate reports whether cfg satisfies 0 <= overlap < size.
func (cfg ChunkingConfig) Validate() error {
	if cfg.ChunkSize <= 0 {
		return &InvalidConfigurationError{
			Field:   "chunk_size",
			Message: fmt.Sprintf("must be greater than 0, got %d", cfg.ChunkSize),
		}
	}
	if cfg.ChunkOverlap < 0 {
		return &InvalidConfigurationError{
			Field:   "chunk_overlap",
			Message: fmt.Sprintf("must not be negative, got %d", cfg.ChunkOverlap),
		}
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		return &InvalidConfigurationError{
			Field:   "chunk_overlap",
			Message: fmt.Sprintf("must be less than chunk_size %d, got %d", cfg.ChunkSize, cfg.ChunkOverlap),
		}
	}
	if cfg.Tolerance < 0 || cfg.Tolerance >= 1 {
		return &InvalidConfigurationError{
			Field:   "tolerance",
			Message: fmt.Sprintf("must be in [0, 1), got %g", cfg.Tolerance),
		}
	}
	return nil
}
