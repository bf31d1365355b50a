package indexer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"unicode/utf8"
)

const (
	// ChunkerVersion identifies the chunking algorithm.
	// Update this when chunking logic changes significantly.
	ChunkerVersion = "v2.1"
	// TokensPerRune is an approximation for token counting (4 chars per token).
	TokensPerRune = 4.0
)

// ChunkStats summarizes a set of chunks.
type ChunkStats struct {
	TotalChunks     int     `json:"total_chunks"`
	TotalCharacters int     `json:"total_characters"`
	AvgChunkSize    float64 `json:"avg_chunk_size"`
}

// Summarize computes chunk count, total characters and mean chunk length.
func Summarize(chunks []Chunk) ChunkStats {
	var s ChunkStats
	for _, c := range chunks {
		s.TotalChunks++
		s.TotalCharacters += c.Length
	}
	s.AvgChunkSize = average(s.TotalCharacters, s.TotalChunks)
	return s
}

// Merge combines two summaries.
func (s ChunkStats) Merge(o ChunkStats) ChunkStats {
	m := ChunkStats{
		TotalChunks:     s.TotalChunks + o.TotalChunks,
		TotalCharacters: s.TotalCharacters + o.TotalCharacters,
	}
	m.AvgChunkSize = average(m.TotalCharacters, m.TotalChunks)
	return m
}

func average(total, n int) float64 {
	if n == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(n)*100) / 100
}

// IndexStats describes the current contents of the index.
type IndexStats struct {
	Documents    int `json:"total_documents"`
	Chunks       int `json:"total_chunks"`
	VectorPoints int `json:"vector_points"`
}

// Stats counts stored documents, chunks and vector points.
func (p *Pipeline) Stats(ctx context.Context) (*IndexStats, error) {
	docs, err := p.docs.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	chunks, err := p.chunks.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	points, err := p.vectorStore.Count(ctx, p.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}

	return &IndexStats{Documents: docs, Chunks: chunks, VectorPoints: points}, nil
}

// IndexingCoverageStats contains statistics about the indexed corpus.
type IndexingCoverageStats struct {
	// DocsProcessed is the total number of documents stored.
	DocsProcessed int `json:"docs_processed"`
	// DocsWith0Chunks is the number of documents that produced 0 chunks.
	DocsWith0Chunks int `json:"docs_with_0_chunks"`
	// ChunksEmbedded is the number of chunks stored.
	ChunksEmbedded int `json:"chunks_embedded"`
	// ChunkTokenStats contains statistics about estimated token counts per chunk.
	ChunkTokenStats ChunkTokenStats `json:"chunk_token_stats"`
	// ChunkerVersion is the version of the chunker used.
	ChunkerVersion string `json:"chunker_version"`
	// IndexVersion identifies the index build (chunker, embedding model and chunking params).
	IndexVersion string `json:"index_version"`
}

// ChunkTokenStats contains statistics about token counts in chunks.
type ChunkTokenStats struct {
	Min  int     `json:"min"`
	Max  int     `json:"max"`
	Mean float64 `json:"mean"`
	P95  int     `json:"p95"`
}

// IndexVersion returns a short hash of everything that changes chunk vectors.
func (p *Pipeline) IndexVersion() string {
	input := fmt.Sprintf("%s|%s|chunkSize=%d|chunkOverlap=%d",
		ChunkerVersion, p.cfg.EmbeddingModel, p.cfg.Chunking.ChunkSize, p.cfg.Chunking.ChunkOverlap)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])[:16]
}

// CoverageStats walks every stored document and chunk to compute coverage
// and token statistics.
func (p *Pipeline) CoverageStats(ctx context.Context) (*IndexingCoverageStats, error) {
	stats := &IndexingCoverageStats{
		ChunkerVersion: ChunkerVersion,
		IndexVersion:   p.IndexVersion(),
	}

	docs, err := p.docs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	stats.DocsProcessed = len(docs)

	var tokenCounts []int
	for _, doc := range docs {
		chunks, err := p.chunks.ListByDocument(ctx, doc.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list chunks of %s: %w", doc.Source, err)
		}
		if len(chunks) == 0 {
			stats.DocsWith0Chunks++
			continue
		}
		for _, c := range chunks {
			tokenCounts = append(tokenCounts, estimateTokens(c.Text))
		}
	}

	stats.ChunksEmbedded = len(tokenCounts)
	stats.ChunkTokenStats = computeTokenStats(tokenCounts)
	return stats, nil
}

// estimateTokens approximates the token count from the rune count, minimum 1.
func estimateTokens(text string) int {
	return max(int(math.Round(float64(utf8.RuneCountInString(text))/TokensPerRune)), 1)
}

// computeTokenStats computes min, max, mean, and p95 from token counts.
func computeTokenStats(tokenCounts []int) ChunkTokenStats {
	if len(tokenCounts) == 0 {
		return ChunkTokenStats{}
	}

	sorted := make([]int, len(tokenCounts))
	copy(sorted, tokenCounts)
	sort.Ints(sorted)

	sum := 0
	for _, count := range sorted {
		sum += count
	}
	mean := float64(sum) / float64(len(sorted))

	p95Index := min(int(math.Ceil(float64(len(sorted))*0.95)), len(sorted)-1)

	return ChunkTokenStats{
		Min:  sorted[0],
		Max:  sorted[len(sorted)-1],
		Mean: math.Round(mean*100) / 100,
		P95:  sorted[p95Index],
	}
}
