package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"docchat/internal/contextutil"
	"docchat/internal/rag"
)

// AskHandler handles HTTP requests for questions over the indexed documents.
type AskHandler struct {
	ragEngine rag.Engine
}

// NewAskHandler creates a new AskHandler.
func NewAskHandler(ragEngine rag.Engine) *AskHandler {
	return &AskHandler{
		ragEngine: ragEngine,
	}
}

// AskRequest represents the HTTP request payload for questions.
// It mirrors rag.AskRequest but is defined here for HTTP layer separation.
//
// swagger:model AskRequest
type AskRequest struct {
	// The question to answer
	Query string `json:"query"`

	// Chat model to answer with; empty selects the default model
	Model string `json:"model,omitempty"`

	// Sampling temperature between 0 and 2
	Temperature *float32 `json:"temperature,omitempty"`

	// Previous conversation turns, oldest first
	History []HistoryMessage `json:"history,omitempty"`

	// Number of chunks to retrieve
	K int `json:"k,omitempty"`

	// Replacement system prompt; "{context}" marks where retrieved chunks go
	SystemPrompt string `json:"system_prompt,omitempty"`
}

// HistoryMessage is one previous conversation turn.
//
// swagger:model HistoryMessage
type HistoryMessage struct {
	// "user" or "ai"
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskResponse represents the HTTP response payload for questions.
//
// swagger:model AskResponse
type AskResponse struct {
	// The generated answer
	Answer string `json:"answer"`

	// The chat model that produced the answer
	Model string `json:"model"`

	// Chunks the answer was grounded on, best match first
	Sources []SourceResponse `json:"sources"`

	// Debug contains retrieval details when requested via ?debug=true.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// SourceResponse represents a source chunk in the HTTP response.
//
// swagger:model SourceResponse
type SourceResponse struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	Preview    string  `json:"preview"`
}

// DebugInfo contains retrieval details.
//
// swagger:model DebugInfo
type DebugInfo struct {
	RetrievedChunks []DebugRetrievedChunk `json:"retrieved_chunks"`
	// SystemPrompt is the prompt sent to the model, context included.
	SystemPrompt string `json:"system_prompt"`
}

// DebugRetrievedChunk represents a retrieved chunk with scoring information.
//
// swagger:model DebugRetrievedChunk
type DebugRetrievedChunk struct {
	ChunkID      string  `json:"chunk_id"`
	Source       string  `json:"source"`
	ScoreVector  float32 `json:"score_vector"`
	ScoreLexical float32 `json:"score_lexical,omitempty"`
	ScoreFinal   float32 `json:"score_final"`
	Text         string  `json:"text"`
	// Rank is 1-based.
	Rank int `json:"rank"`
}

// toRAGRequest converts the HTTP request to an engine request.
func (req AskRequest) toRAGRequest(debug bool) rag.AskRequest {
	history := make([]rag.HistoryMessage, 0, len(req.History))
	for _, m := range req.History {
		history = append(history, rag.HistoryMessage{Role: m.Role, Content: m.Content})
	}
	return rag.AskRequest{
		Question:     req.Query,
		Model:        req.Model,
		Temperature:  req.Temperature,
		History:      history,
		K:            req.K,
		SystemPrompt: req.SystemPrompt,
		Debug:        debug,
	}
}

// fromRAGResponse converts an engine response to the HTTP response.
func fromRAGResponse(resp rag.AskResponse) AskResponse {
	out := AskResponse{
		Answer:  resp.Answer,
		Model:   resp.Model,
		Sources: make([]SourceResponse, len(resp.Sources)),
	}
	for i, s := range resp.Sources {
		out.Sources[i] = SourceResponse{
			DocumentID: s.DocumentID,
			Source:     s.Source,
			Title:      s.Title,
			ChunkIndex: s.ChunkIndex,
			Score:      s.Score,
			Preview:    s.Preview,
		}
	}

	if resp.Debug != nil {
		chunks := make([]DebugRetrievedChunk, 0, len(resp.Debug.RetrievedChunks))
		for _, c := range resp.Debug.RetrievedChunks {
			chunks = append(chunks, DebugRetrievedChunk{
				ChunkID:      c.ChunkID,
				Source:       c.Source,
				ScoreVector:  c.ScoreVector,
				ScoreLexical: c.ScoreLexical,
				ScoreFinal:   c.ScoreFinal,
				Text:         c.Text,
				Rank:         c.Rank,
			})
		}
		out.Debug = &DebugInfo{
			RetrievedChunks: chunks,
			SystemPrompt:    resp.Debug.SystemPrompt,
		}
	}
	return out
}

// debugRequested reports whether the debug query parameter is set.
func debugRequested(r *http.Request) bool {
	v := strings.ToLower(r.URL.Query().Get("debug"))
	return v == "true" || v == "1"
}

// ServeHTTP handles HTTP requests for questions.
//
// swagger:route POST /ask askQuestion
//
// # Ask a question about the uploaded documents
//
// Retrieves the chunks most similar to the query and answers from them.
// Use the `debug=true` query parameter to include the retrieved chunks with
// their scores and the final system prompt.
//
// ---
// consumes:
// - application/json
// produces:
// - application/json
// responses:
//
//	'200':
//	  description: Answer with its sources
//	  schema:
//	    "$ref": "#/definitions/AskResponse"
//	'400':
//	  description: Invalid request or no documents indexed
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
//	'502':
//	  description: Embedding or chat service unavailable
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ragResp, err := h.ragEngine.Ask(ctx, req.toRAGRequest(debugRequested(r)))
	if err != nil {
		handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}

	writeJSON(ctx, w, http.StatusOK, fromRAGResponse(ragResp))
}
