package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/philippgille/chromem-go"

	"docchat/internal/contextutil"
)

// ChromemStore implements VectorStore on an embedded chromem-go database
// persisted under a local directory.
type ChromemStore struct {
	db   *chromem.DB
	path string

	mu   sync.Mutex
	dims map[string]int // expected vector size per collection
}

// errPrecomputed is returned by the collection embedding func. Points always
// carry their vectors, so chromem should never need to embed content itself.
var errPrecomputed = errors.New("chromem: embeddings must be precomputed")

func precomputedOnly(_ context.Context, _ string) ([]float32, error) {
	return nil, errPrecomputed
}

// NewChromemStore opens (or creates) a persistent chromem database at path.
func NewChromemStore(path string) (*ChromemStore, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database at %s: %w", path, err)
	}
	return &ChromemStore{
		db:   db,
		path: path,
		dims: make(map[string]int),
	}, nil
}

// Ping checks that the persistence directory is still present.
func (s *ChromemStore) Ping(_ context.Context) error {
	if _, err := os.Stat(s.path); err != nil {
		return fmt.Errorf("chromem persistence directory unavailable: %w", err)
	}
	return nil
}

// EnsureCollection creates the collection if missing. chromem does not record
// vector sizes, so the size is remembered and enforced on Upsert.
func (s *ChromemStore) EnsureCollection(ctx context.Context, collection string, vectorSize int) error {
	logger := contextutil.LoggerFromContext(ctx)

	if vectorSize <= 0 {
		return fmt.Errorf("vector size must be greater than 0")
	}

	existed := s.db.GetCollection(collection, precomputedOnly) != nil
	if _, err := s.db.GetOrCreateCollection(collection, nil, precomputedOnly); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	s.mu.Lock()
	s.dims[collection] = vectorSize
	s.mu.Unlock()

	if existed {
		logger.InfoContext(ctx, "collection loaded", "collection", collection, "vector_size", vectorSize)
	} else {
		logger.InfoContext(ctx, "creating collection", "collection", collection, "vector_size", vectorSize)
	}
	return nil
}

func (s *ChromemStore) collection(name string) (*chromem.Collection, error) {
	c := s.db.GetCollection(name, precomputedOnly)
	if c == nil {
		return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, name)
	}
	return c, nil
}

// Upsert inserts or replaces points in the collection.
func (s *ChromemStore) Upsert(ctx context.Context, collection string, points []Point) error {
	logger := contextutil.LoggerFromContext(ctx)

	if len(points) == 0 {
		return nil
	}

	c, err := s.collection(collection)
	if err != nil {
		return err
	}

	s.mu.Lock()
	want := s.dims[collection]
	s.mu.Unlock()

	docs := make([]chromem.Document, 0, len(points))
	for _, p := range points {
		if want > 0 && len(p.Vec) != want {
			return fmt.Errorf("point %s has vector size %d, collection expects %d", p.ID, len(p.Vec), want)
		}
		meta, err := encodeMeta(p.Meta)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for point %s: %w", p.ID, err)
		}
		docs = append(docs, chromem.Document{
			ID:        p.ID,
			Metadata:  meta,
			Embedding: p.Vec,
		})
	}

	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		logger.ErrorContext(ctx, "failed to upsert points", "collection", collection, "count", len(points), "error", err)
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	logger.DebugContext(ctx, "upserted points", "collection", collection, "count", len(points))
	return nil
}

// Search performs a cosine similarity search with optional exact-match filters.
func (s *ChromemStore) Search(ctx context.Context, collection string, query []float32, k int, filters map[string]any) ([]SearchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	if k <= 0 {
		return nil, fmt.Errorf("k must be greater than 0")
	}

	c, err := s.collection(collection)
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection
	n := min(k, c.Count())
	if n == 0 {
		return []SearchResult{}, nil
	}

	where, err := encodeMeta(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode filters: %w", err)
	}

	docs, err := c.QueryEmbedding(ctx, query, n, where, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search points", "collection", collection, "k", k, "error", err)
		return nil, fmt.Errorf("failed to search points: %w", err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, SearchResult{
			PointID: d.ID,
			Score:   d.Similarity,
			Meta:    decodeMeta(d.Metadata),
		})
	}

	logger.DebugContext(ctx, "search completed", "collection", collection, "k", k, "results", len(results))
	return results, nil
}

// Delete removes points by their IDs. Missing collections are a no-op.
func (s *ChromemStore) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	c := s.db.GetCollection(collection, precomputedOnly)
	if c == nil {
		return nil
	}

	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete points: %w", err)
	}
	return nil
}

// Count returns the number of points, 0 when the collection does not exist.
func (s *ChromemStore) Count(_ context.Context, collection string) (int, error) {
	c := s.db.GetCollection(collection, precomputedOnly)
	if c == nil {
		return 0, nil
	}
	return c.Count(), nil
}

// DropCollection deletes the collection and its persisted files.
func (s *ChromemStore) DropCollection(ctx context.Context, collection string) error {
	if err := s.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "collection dropped", "collection", collection)
	return nil
}

// encodeMeta stores each metadata value as JSON so types survive chromem's
// string-only metadata and filters compare the same encoding.
func encodeMeta(meta map[string]any) (map[string]string, error) {
	if len(meta) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", k, err)
		}
		out[k] = string(b)
	}
	return out, nil
}

func decodeMeta(meta map[string]string) map[string]any {
	out := make(map[string]any, len(meta))
	for k, raw := range meta {
		dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
		dec.UseNumber()

		var v any
		if err := dec.Decode(&v); err != nil {
			out[k] = raw
			continue
		}
		if num, ok := v.(json.Number); ok {
			if i, err := num.Int64(); err == nil {
				v = i
			} else if f, err := num.Float64(); err == nil {
				v = f
			}
		}
		out[k] = v
	}
	return out
}
