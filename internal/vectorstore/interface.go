package vectorstore

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_vector_store.go -package=mocks docchat/internal/vectorstore VectorStore

import (
	"context"
	"errors"
)

// ErrCollectionNotFound is returned when an operation targets a collection
// that does not exist.
var ErrCollectionNotFound = errors.New("collection not found")

// Point is one embedded chunk. ID is the chunk UUID and Meta carries the
// document_id, source, title and chunk_index payload used to resolve hits.
type Point struct {
	ID   string
	Vec  []float32
	Meta map[string]any
}

// SearchResult is a scored hit. Higher Score means more similar.
type SearchResult struct {
	PointID string
	Score   float32
	Meta    map[string]any
}

// VectorStore is implemented by the embedded chromem store and by Qdrant.
type VectorStore interface {
	// EnsureCollection creates the collection if missing and validates the vector size otherwise.
	EnsureCollection(ctx context.Context, collection string, vectorSize int) error

	// Upsert writes points, replacing any with the same ID.
	Upsert(ctx context.Context, collection string, points []Point) error

	// Search performs a similarity search with optional exact-match metadata filters.
	Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error)

	// Delete removes points by ID. Unknown IDs are ignored.
	Delete(ctx context.Context, collection string, ids []string) error

	// Count returns the number of points in the collection, 0 if it does not exist.
	Count(ctx context.Context, collection string) (int, error)

	// DropCollection deletes the collection and all its points.
	DropCollection(ctx context.Context, collection string) error

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
