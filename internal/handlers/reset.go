package handlers

import (
	"net/http"

	"docchat/internal/service"
)

// ResetHandler clears the index.
type ResetHandler struct {
	library service.LibraryService
}

// NewResetHandler creates a new ResetHandler.
func NewResetHandler(library service.LibraryService) *ResetHandler {
	return &ResetHandler{library: library}
}

// StatusResponse is a status with a human readable message.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func (h *ResetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.library.Reset(ctx); err != nil {
		handleServiceError(w, ctx, err, "Failed to reset vector store")
		return
	}
	writeJSON(ctx, w, http.StatusOK, StatusResponse{
		Status:  "success",
		Message: "Vector store reset",
	})
}
