package indexer

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_embedder.go -package=mocks docchat/internal/indexer Embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"docchat/internal/contextutil"
	"docchat/internal/library"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

// chunkNamespace scopes the name-based UUIDs of chunk points.
var chunkNamespace = uuid.MustParse("8a4f1c52-3b7e-4f0a-9d61-2c5e7b9a0f13")

// Embedder turns texts into vectors, one per text, in input order.
type Embedder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Extractor reads a file from disk into a Document.
type Extractor interface {
	ExtractFile(ctx context.Context, f library.File) (Document, error)
}

// PipelineConfig holds the indexing parameters.
type PipelineConfig struct {
	Collection      string
	VectorSize      int
	EmbeddingModel  string // Recorded in the index version
	Chunking        ChunkingConfig
	Concurrency     int           // Documents indexed in parallel by IndexFiles; <= 0 means 1
	DocumentTimeout time.Duration // Per document in IndexFiles; 0 disables
}

// IndexStatus is the outcome of indexing one document.
type IndexStatus string

const (
	StatusIndexed   IndexStatus = "indexed"
	StatusUnchanged IndexStatus = "unchanged"
	StatusEmpty     IndexStatus = "empty"
	StatusFailed    IndexStatus = "failed"
)

// IndexResult describes one indexed document.
type IndexResult struct {
	DocumentID string      `json:"document_id,omitempty"`
	Source     string      `json:"source"`
	Title      string      `json:"title,omitempty"`
	Status     IndexStatus `json:"status"`
	Chunks     int         `json:"chunks"`
	Stats      ChunkStats  `json:"stats"`
	Error      string      `json:"error,omitempty"`
}

// BatchResult aggregates the outcome of IndexFiles.
type BatchResult struct {
	Processed int            `json:"processed"`
	Unchanged int            `json:"unchanged"`
	Failed    int            `json:"failed"`
	Chunks    int            `json:"chunks"`
	Stats     ChunkStats     `json:"stats"`
	Files     []*IndexResult `json:"files"`
}

// Pipeline orchestrates extraction, chunking, embedding and storage of
// documents in SQLite and the vector store.
type Pipeline struct {
	docs        storage.DocumentStore
	chunks      storage.ChunkStore
	embedder    Embedder
	extractor   Extractor
	vectorStore vectorstore.VectorStore
	cfg         PipelineConfig

	// clearMu lets indexing run concurrently while ClearAll waits for it.
	clearMu sync.RWMutex
	// sourceLocks serializes indexing of the same source.
	sourceLocks sync.Map
}

// NewPipeline creates a new indexing pipeline.
func NewPipeline(
	docs storage.DocumentStore,
	chunks storage.ChunkStore,
	embedder Embedder,
	extractor Extractor,
	vectorStore vectorstore.VectorStore,
	cfg PipelineConfig,
) *Pipeline {
	if cfg.Chunking == (ChunkingConfig{}) {
		cfg.Chunking = DefaultChunkingConfig()
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Pipeline{
		docs:        docs,
		chunks:      chunks,
		embedder:    embedder,
		extractor:   extractor,
		vectorStore: vectorStore,
		cfg:         cfg,
	}
}

// Collection returns the vector store collection the pipeline writes to.
func (p *Pipeline) Collection() string {
	return p.cfg.Collection
}

// EnsureCollection creates the vector collection if it does not exist.
func (p *Pipeline) EnsureCollection(ctx context.Context) error {
	if err := p.vectorStore.EnsureCollection(ctx, p.cfg.Collection, p.cfg.VectorSize); err != nil {
		return fmt.Errorf("failed to ensure collection %s: %w", p.cfg.Collection, err)
	}
	return nil
}

func (p *Pipeline) lockSource(source string) func() {
	v, _ := p.sourceLocks.LoadOrStore(source, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// ChunkID returns the stable point ID of a chunk.
func ChunkID(source string, index int, text string) string {
	name := source + "\x00" + strconv.Itoa(index) + "\x00" + text
	return uuid.NewSHA1(chunkNamespace, []byte(name)).String()
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// IndexDocument splits, embeds and stores doc, replacing any previous
// version of the same source. Documents whose text hash and index version
// are both unchanged are skipped.
func (p *Pipeline) IndexDocument(ctx context.Context, doc Document) (*IndexResult, error) {
	p.clearMu.RLock()
	defer p.clearMu.RUnlock()
	defer p.lockSource(doc.ID)()

	logger := contextutil.LoggerFromContext(ctx)
	result := &IndexResult{Source: doc.ID}

	hash := hashText(doc.Text)
	existing, err := p.docs.GetBySource(ctx, doc.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing document: %w", err)
	}

	version := p.IndexVersion()
	if existing != nil && existing.Hash == hash && existing.IndexVersion == version {
		logger.DebugContext(ctx, "skipping unchanged document", "source", doc.ID, "hash", hash)
		result.DocumentID = existing.ID
		result.Title = existing.Title
		result.Status = StatusUnchanged
		result.Chunks = existing.ChunkCount
		return result, nil
	}

	if doc.Structure == nil {
		st := Analyze(doc.Format, doc.Text)
		doc.Structure = &st
	}
	title := doc.Structure.Title
	if title == "" {
		title = TitleFromFilename(doc.ID)
	}
	result.Title = title

	chunks, err := Split(doc, p.cfg.Chunking)
	if err != nil {
		return nil, fmt.Errorf("failed to chunk document: %w", err)
	}

	// Embed before touching storage so a failed call leaves the old version intact.
	var embeddings [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		embeddings, err = p.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("failed to generate embeddings: %w", err)
		}
		if len(embeddings) != len(chunks) {
			return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(chunks), len(embeddings))
		}
	}

	record := &storage.DocumentRecord{
		Source:       doc.ID,
		Title:        title,
		Format:       string(doc.Format),
		Hash:         hash,
		Characters:   utf8.RuneCountInString(doc.Text),
		ChunkCount:   len(chunks),
		IndexVersion: version,
	}

	if existing != nil {
		record.ID = existing.ID
		if err := p.removeChunks(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	if err := p.docs.Upsert(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to upsert document: %w", err)
	}
	result.DocumentID = record.ID

	if err := p.storeChunks(ctx, record, chunks, embeddings); err != nil {
		// Forget the document so the next attempt does not see a matching hash.
		if delErr := p.docs.Delete(ctx, record.ID); delErr != nil && !errors.Is(delErr, storage.ErrNotFound) {
			logger.WarnContext(ctx, "failed to roll back document", "source", doc.ID, "error", delErr)
		}
		return nil, err
	}

	result.Chunks = len(chunks)
	result.Stats = Summarize(chunks)
	result.Status = StatusIndexed
	if len(chunks) == 0 {
		result.Status = StatusEmpty
		logger.WarnContext(ctx, "no chunks generated", "source", doc.ID)
		return result, nil
	}

	logger.InfoContext(ctx, "indexed document", "source", doc.ID, "chunks", len(chunks), "title", title)
	return result, nil
}

// removeChunks deletes a document's chunks from the vector store and SQLite.
func (p *Pipeline) removeChunks(ctx context.Context, documentID string) error {
	oldIDs, err := p.chunks.ListIDsByDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("failed to list old chunk IDs: %w", err)
	}
	if len(oldIDs) == 0 {
		return nil
	}

	if err := p.vectorStore.Delete(ctx, p.cfg.Collection, oldIDs); err != nil {
		// Points are keyed by content, so leftovers are only stale, never wrong.
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to delete old vectors", "error", err, "count", len(oldIDs))
	}

	if err := p.chunks.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete old chunks: %w", err)
	}
	return nil
}

func (p *Pipeline) storeChunks(ctx context.Context, doc *storage.DocumentRecord, chunks []Chunk, embeddings [][]float32) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]*storage.ChunkRecord, len(chunks))
	points := make([]vectorstore.Point, len(chunks))
	for i, c := range chunks {
		id := ChunkID(doc.Source, c.Index, c.Text)
		records[i] = &storage.ChunkRecord{
			ID:          id,
			DocumentID:  doc.ID,
			ChunkIndex:  c.Index,
			StartOffset: c.Start,
			EndOffset:   c.End,
			Text:        c.Text,
		}
		points[i] = vectorstore.Point{
			ID:  id,
			Vec: embeddings[i],
			Meta: map[string]any{
				"document_id": doc.ID,
				"source":      doc.Source,
				"title":       doc.Title,
				"format":      doc.Format,
				"chunk_index": c.Index,
				"start":       c.Start,
				"end":         c.End,
			},
		}
	}

	if err := p.chunks.InsertBatch(ctx, records); err != nil {
		return fmt.Errorf("failed to insert chunks: %w", err)
	}
	if err := p.vectorStore.Upsert(ctx, p.cfg.Collection, points); err != nil {
		return fmt.Errorf("failed to upsert vectors: %w", err)
	}
	return nil
}

// IndexFiles extracts and indexes files concurrently. A failing file is
// logged and recorded in the result without stopping the others. The
// returned error is non-nil only when ctx ends before all files are done.
func (p *Pipeline) IndexFiles(ctx context.Context, files []library.File) (*BatchResult, error) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "starting indexing", "total_files", len(files), "concurrency", p.cfg.Concurrency)

	results := make([]*IndexResult, len(files))

	var g errgroup.Group
	g.SetLimit(p.cfg.Concurrency)
	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = p.indexFile(ctx, f)
			return nil
		})
	}
	_ = g.Wait()

	batch := &BatchResult{Files: make([]*IndexResult, 0, len(files))}
	for i, r := range results {
		if r == nil {
			r = &IndexResult{Source: files[i].Name, Status: StatusFailed, Error: context.Cause(ctx).Error()}
		}
		batch.Files = append(batch.Files, r)
		switch r.Status {
		case StatusFailed:
			batch.Failed++
		case StatusUnchanged:
			batch.Unchanged++
		default:
			batch.Processed++
			batch.Chunks += r.Chunks
			batch.Stats = batch.Stats.Merge(r.Stats)
		}
	}

	logger.InfoContext(ctx, "indexing completed",
		"total_files", len(files),
		"processed", batch.Processed,
		"unchanged", batch.Unchanged,
		"errors", batch.Failed,
		"chunks", batch.Chunks,
	)

	if err := ctx.Err(); err != nil {
		return batch, err
	}
	return batch, nil
}

func (p *Pipeline) indexFile(ctx context.Context, f library.File) *IndexResult {
	ctx = contextutil.WithLogAttrs(ctx, "source", f.Name)
	if p.cfg.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.DocumentTimeout)
		defer cancel()
	}

	fail := func(err error) *IndexResult {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to index file", "error", err)
		return &IndexResult{Source: f.Name, Status: StatusFailed, Error: err.Error()}
	}

	doc, err := p.extractor.ExtractFile(ctx, f)
	if err != nil {
		return fail(err)
	}

	result, err := p.IndexDocument(ctx, doc)
	if err != nil {
		return fail(err)
	}
	return result
}

// ClearAll drops the vector collection and every stored document, then
// recreates the empty collection. It waits for running indexing to finish.
func (p *Pipeline) ClearAll(ctx context.Context) error {
	p.clearMu.Lock()
	defer p.clearMu.Unlock()

	if err := p.vectorStore.DropCollection(ctx, p.cfg.Collection); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if err := p.docs.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if err := p.EnsureCollection(ctx); err != nil {
		return err
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "cleared index", "collection", p.cfg.Collection)
	return nil
}
