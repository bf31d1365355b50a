package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks docchat/internal/storage DocumentStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetBySource gets a document by its source name.
	// Returns nil and ErrNotFound if not found.
	GetBySource(ctx context.Context, source string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one by source.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// List returns all documents ordered by source.
	List(ctx context.Context) ([]*DocumentRecord, error)
	// Delete removes a document and, through the foreign key, its chunks.
	Delete(ctx context.Context, id string) error
	// Count returns the number of documents.
	Count(ctx context.Context) (int, error)
	// DeleteAll removes every document and chunk.
	DeleteAll(ctx context.Context) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// DB returns the underlying database handle.
func (r *DocumentRepo) DB() *sql.DB {
	return r.db
}

const documentColumns = "id, source, title, format, hash, characters, chunk_count, index_version, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var title sql.NullString
	var updatedAtStr string

	if err := row.Scan(&doc.ID, &doc.Source, &title, &doc.Format, &doc.Hash,
		&doc.Characters, &doc.ChunkCount, &doc.IndexVersion, &updatedAtStr); err != nil {
		return nil, err
	}
	doc.Title = title.String

	updatedAt, err := parseTimestamp(updatedAtStr)
	if err != nil {
		return nil, err
	}
	doc.UpdatedAt = updatedAt

	return &doc, nil
}

// parseTimestamp parses DATETIME values, which SQLite may return in either layout.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse updated_at timestamp: %w", err)
	}
	return t, nil
}

// GetBySource gets a document by its source name.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetBySource(ctx context.Context, source string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE source = ?",
		source,
	)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}

	return doc, nil
}

// Upsert inserts a new document or updates an existing one.
// New documents get a generated UUID unless doc.ID is already set.
// Existing documents keep their ID; doc.ID is updated to match.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetBySource(ctx, doc.Source)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing != nil {
		doc.ID = existing.ID
	} else if doc.ID == "" {
		doc.ID = uuid.New().String()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source, title, format, hash, characters, chunk_count, index_version, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source) DO UPDATE SET
		 title = excluded.title, format = excluded.format, hash = excluded.hash,
		 characters = excluded.characters, chunk_count = excluded.chunk_count,
		 index_version = excluded.index_version, updated_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.Source, doc.Title, doc.Format, doc.Hash, doc.Characters, doc.ChunkCount, doc.IndexVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// List returns all documents ordered by source.
func (r *DocumentRepo) List(ctx context.Context) ([]*DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+documentColumns+" FROM documents ORDER BY source")
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []*DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return docs, nil
}

// Delete removes a document by ID. Returns ErrNotFound if no row matched.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents.
func (r *DocumentRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to query document count: %w", err)
	}
	return count, nil
}

// DeleteAll removes every document and chunk in one transaction.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}
