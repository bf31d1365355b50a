package storage

import "time"

// DocumentRecord represents an ingested document in the database.
type DocumentRecord struct {
	ID         string // UUID
	Source     string // Filename or path the document was ingested from (unique)
	Title      string
	Format     string // One of the indexer.Format values
	Hash       string // SHA256 hex string of the extracted text
	Characters int    // Rune count of the extracted text
	ChunkCount int
	// IndexVersion identifies the chunking and embedding settings the chunks were built with.
	IndexVersion string
	UpdatedAt    time.Time
}

// ChunkRecord represents a chunk of a document, indexed for vector search.
type ChunkRecord struct {
	ID          string // UUID (same as vector store point ID)
	DocumentID  string // Foreign key to documents.id
	ChunkIndex  int    // Index within document (starts at 0)
	StartOffset int    // Rune offset into the document text
	EndOffset   int    // Exclusive rune offset
	Text        string
}
