package handlers

import "net/http"

// RootResponse describes the API.
type RootResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

// RootHandler serves the API description at /.
type RootHandler struct {
	version string
}

// NewRootHandler creates a new RootHandler.
func NewRootHandler(version string) *RootHandler {
	return &RootHandler{version: version}
}

func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, RootResponse{
		Message: "Document chat API",
		Version: h.version,
		Endpoints: map[string]string{
			"health":     "GET /health",
			"upload":     "POST /upload",
			"ask":        "POST /ask",
			"ask_stream": "POST /ask/stream",
			"stats":      "GET /stats",
			"documents":  "GET /documents",
			"index":      "POST /index",
			"reset":      "DELETE /reset",
			"models":     "GET /models",
		},
	})
}
