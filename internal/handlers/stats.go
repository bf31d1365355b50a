package handlers

import (
	"net/http"

	"docchat/internal/service"
)

// StatsHandler reports what the index holds.
type StatsHandler struct {
	library service.LibraryService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(library service.LibraryService) *StatsHandler {
	return &StatsHandler{library: library}
}

// ServeHTTP returns the library stats. ?coverage=true adds indexing coverage.
func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.library.Stats(ctx, r.URL.Query().Get("coverage") == "true")
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to get stats")
		return
	}
	writeJSON(ctx, w, http.StatusOK, stats)
}
