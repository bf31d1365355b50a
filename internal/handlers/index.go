package handlers

import (
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/service"
)

// IndexHandler handles HTTP requests for re-indexing the documents directory.
type IndexHandler struct {
	library service.LibraryService
}

// NewIndexHandler creates a new IndexHandler.
func NewIndexHandler(library service.LibraryService) *IndexHandler {
	return &IndexHandler{
		library: library,
	}
}

// IndexResponse acknowledges a background indexing run.
type IndexResponse struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

// ServeHTTP starts indexing in the background and returns immediately.
// With ?force=true the index is cleared first.
func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	force := r.URL.Query().Get("force") == "true"
	if err := h.library.StartIndexing(ctx, force); err != nil {
		handleServiceError(w, ctx, err, "Failed to start indexing")
		return
	}
	logger.InfoContext(ctx, "indexing triggered via API", "force", force)

	resp := IndexResponse{Status: "accepted", Message: "Indexing of the documents directory started"}
	if force {
		resp.Message = "Index cleared; re-indexing of the documents directory started"
	}
	writeJSON(ctx, w, http.StatusAccepted, resp)
}
