package rag

// Roles accepted in conversation history.
const (
	RoleUser = "user"
	RoleAI   = "ai"
)

// HistoryMessage is one previous turn of the conversation.
type HistoryMessage struct {
	// Role is "user" or "ai". Other roles are ignored.
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest represents a question over the indexed documents.
type AskRequest struct {
	// Question is the user's question to answer.
	Question string `json:"question"`
	// Model selects the chat model. Empty selects the default model.
	Model string `json:"model,omitempty"`
	// Temperature overrides the configured temperature when set.
	Temperature *float32 `json:"temperature,omitempty"`
	// History holds previous turns, oldest first.
	History []HistoryMessage `json:"history,omitempty"`
	// K is the number of chunks to retrieve. Zero selects DefaultK; values above MaxK are clamped.
	K int `json:"k,omitempty"`
	// SystemPrompt replaces the default prompt. "{context}" is replaced by the retrieved chunks.
	SystemPrompt string `json:"system_prompt,omitempty"`
	// Debug enables debug mode, returning detailed retrieval information.
	Debug bool `json:"debug,omitempty"`
}

// Source is a retrieved chunk the answer was grounded on.
type Source struct {
	DocumentID string  `json:"document_id"`
	Source     string  `json:"source"`
	Title      string  `json:"title,omitempty"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float32 `json:"score"`
	// Preview is the first 200 characters of the chunk followed by "...".
	Preview string `json:"preview"`
}

// AskResponse represents the response from a RAG query.
type AskResponse struct {
	// Answer is the generated answer from the LLM.
	Answer string `json:"answer"`
	// Model is the chat model that produced the answer.
	Model string `json:"model"`
	// Sources are the chunks placed in the prompt, best match first.
	Sources []Source `json:"sources"`
	// Debug contains debug information when debug mode is enabled.
	Debug *DebugInfo `json:"debug,omitempty"`
}

// DebugInfo contains detailed retrieval information for debugging and evaluation.
type DebugInfo struct {
	RetrievedChunks []RetrievedChunk `json:"retrieved_chunks"`
	// SystemPrompt is the prompt after context substitution.
	SystemPrompt string `json:"system_prompt"`
}

// RetrievedChunk represents a retrieved chunk with scoring information.
type RetrievedChunk struct {
	ChunkID      string  `json:"chunk_id"`
	Source       string  `json:"source"`
	ScoreVector  float32 `json:"score_vector"`
	ScoreLexical float32 `json:"score_lexical"`
	ScoreFinal   float32 `json:"score_final"`
	Text         string  `json:"text"`
	// Rank is the 1-based position after reranking.
	Rank int `json:"rank"`
}
