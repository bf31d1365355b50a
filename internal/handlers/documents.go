package handlers

import (
	"net/http"
	"time"

	"docchat/internal/storage"
)

// DocumentsHandler lists the indexed documents.
type DocumentsHandler struct {
	docRepo storage.DocumentStore
}

// NewDocumentsHandler creates a new DocumentsHandler.
func NewDocumentsHandler(docRepo storage.DocumentStore) *DocumentsHandler {
	return &DocumentsHandler{docRepo: docRepo}
}

// DocumentResponse describes one indexed document.
//
// swagger:model DocumentResponse
type DocumentResponse struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Title      string    `json:"title,omitempty"`
	Format     string    `json:"format"`
	Characters int       `json:"characters"`
	ChunkCount int       `json:"chunk_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// DocumentsResponse is the document listing.
type DocumentsResponse struct {
	Documents []DocumentResponse `json:"documents"`
}

func (h *DocumentsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	docs, err := h.docRepo.List(ctx)
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to list documents")
		return
	}

	resp := DocumentsResponse{Documents: make([]DocumentResponse, 0, len(docs))}
	for _, d := range docs {
		resp.Documents = append(resp.Documents, DocumentResponse{
			ID:         d.ID,
			Source:     d.Source,
			Title:      d.Title,
			Format:     d.Format,
			Characters: d.Characters,
			ChunkCount: d.ChunkCount,
			UpdatedAt:  d.UpdatedAt,
		})
	}
	writeJSON(ctx, w, http.StatusOK, resp)
}
