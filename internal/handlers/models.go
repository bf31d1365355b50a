package handlers

import (
	"net/http"

	"docchat/internal/rag"
)

// ModelsResponse lists the selectable chat models.
type ModelsResponse struct {
	Models  []string `json:"models"`
	Default string   `json:"default"`
}

// ModelsHandler lists the chat models a question may select.
type ModelsHandler struct {
	ragEngine rag.Engine
}

// NewModelsHandler creates a new ModelsHandler.
func NewModelsHandler(ragEngine rag.Engine) *ModelsHandler {
	return &ModelsHandler{ragEngine: ragEngine}
}

func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	models, def := h.ragEngine.Models()
	writeJSON(r.Context(), w, http.StatusOK, ModelsResponse{Models: models, Default: def})
}
