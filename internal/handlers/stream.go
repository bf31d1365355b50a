package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/rag"
)

// AskStreamHandler answers questions as a Server-Sent Events stream.
type AskStreamHandler struct {
	ragEngine rag.Engine
}

// NewAskStreamHandler creates a new AskStreamHandler.
func NewAskStreamHandler(ragEngine rag.Engine) *AskStreamHandler {
	return &AskStreamHandler{
		ragEngine: ragEngine,
	}
}

// StreamEvent is the payload of one SSE data line.
type StreamEvent struct {
	Token   string           `json:"token,omitempty"`
	Model   string           `json:"model,omitempty"`
	Sources []SourceResponse `json:"sources,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// sseWriter writes SSE events, sending the headers with the first event.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (s *sseWriter) start() {
	if s.started {
		return
	}
	s.started = true
	s.w.Header().Set("Content-Type", "text/event-stream")
	s.w.Header().Set("Cache-Control", "no-cache")
	s.w.Header().Set("Connection", "keep-alive")
	s.w.WriteHeader(http.StatusOK)
}

func (s *sseWriter) send(data string) error {
	s.start()
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) sendEvent(ev StreamEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.send(string(payload))
}

// ServeHTTP streams the answer token by token, then the sources, then [DONE].
// Errors raised before the first token are returned as regular JSON errors.
func (h *AskStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body for streaming", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		logger.ErrorContext(ctx, "streaming not supported by response writer")
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}
	sse := &sseWriter{w: w, flusher: flusher}

	ragResp, err := h.ragEngine.AskStream(ctx, req.toRAGRequest(false), func(chunk string) error {
		return sse.sendEvent(StreamEvent{Token: chunk})
	})
	if err != nil {
		if !sse.started {
			handleServiceError(w, ctx, err, "Failed to answer question")
			return
		}
		logger.ErrorContext(ctx, "error streaming answer", "error", err)
		_ = sse.sendEvent(StreamEvent{Error: "stream interrupted"})
		return
	}

	resp := fromRAGResponse(ragResp)
	if err := sse.sendEvent(StreamEvent{Model: resp.Model, Sources: resp.Sources}); err != nil {
		logger.WarnContext(ctx, "failed to send sources", "error", err)
		return
	}
	_ = sse.send("[DONE]")
}
