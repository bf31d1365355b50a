package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"docchat/internal/rag"
	"docchat/internal/service"
)

// mockRAGEngine is a hand-written rag.Engine that records the last request.
type mockRAGEngine struct {
	lastRequest rag.AskRequest
	response    rag.AskResponse
	err         error
	// chunks are passed to the AskStream callback before err is returned.
	chunks       []string
	models       []string
	defaultModel string
}

func (m *mockRAGEngine) Ask(_ context.Context, req rag.AskRequest) (rag.AskResponse, error) {
	m.lastRequest = req
	return m.response, m.err
}

func (m *mockRAGEngine) AskStream(_ context.Context, req rag.AskRequest, callback func(chunk string) error) (rag.AskResponse, error) {
	m.lastRequest = req
	for _, c := range m.chunks {
		if err := callback(c); err != nil {
			return rag.AskResponse{}, err
		}
	}
	return m.response, m.err
}

func (m *mockRAGEngine) Models() ([]string, string) {
	return m.models, m.defaultModel
}

func TestAskHandler_ServeHTTP(t *testing.T) {
	temp := float32(0.2)
	engine := &mockRAGEngine{
		response: rag.AskResponse{
			Answer: "Returns are accepted within 30 days.",
			Model:  "gpt-4o",
			Sources: []rag.Source{
				{DocumentID: "doc-1", Source: "policy.pdf", Title: "Policy", ChunkIndex: 2, Score: 0.91, Preview: "The refund policy..."},
			},
		},
	}
	handler := NewAskHandler(engine)

	body, _ := json.Marshal(AskRequest{
		Query:       "What is the refund policy?",
		Model:       "gpt-4o",
		Temperature: &temp,
		History:     []HistoryMessage{{Role: "user", Content: "hi"}, {Role: "ai", Content: "hello"}},
		K:           6,
	})
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewReader(body))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	got := engine.lastRequest
	if got.Question != "What is the refund policy?" || got.Model != "gpt-4o" || got.K != 6 || got.Debug {
		t.Errorf("engine request = %+v", got)
	}
	if got.Temperature == nil || *got.Temperature != temp {
		t.Errorf("Temperature = %v, want %v", got.Temperature, temp)
	}
	if len(got.History) != 2 || got.History[1].Role != rag.RoleAI {
		t.Errorf("History = %+v", got.History)
	}

	var resp AskResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != "Returns are accepted within 30 days." || resp.Model != "gpt-4o" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Source != "policy.pdf" || resp.Sources[0].ChunkIndex != 2 {
		t.Errorf("Sources = %+v", resp.Sources)
	}
	if resp.Debug != nil {
		t.Error("Debug should be omitted without ?debug")
	}
}

func TestAskHandler_DebugMode(t *testing.T) {
	tests := []struct {
		name        string
		debugParam  string
		expectDebug bool
	}{
		{name: "debug mode enabled via true", debugParam: "true", expectDebug: true},
		{name: "debug mode enabled via 1", debugParam: "1", expectDebug: true},
		{name: "debug mode disabled via false", debugParam: "false", expectDebug: false},
		{name: "debug mode not set", debugParam: "", expectDebug: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &mockRAGEngine{
				response: rag.AskResponse{Answer: "answer", Model: "gpt-3.5-turbo", Sources: []rag.Source{}},
			}
			if tt.expectDebug {
				engine.response.Debug = &rag.DebugInfo{
					RetrievedChunks: []rag.RetrievedChunk{
						{ChunkID: "abc123", Source: "notes.md", ScoreVector: 0.8, ScoreLexical: 0.1, ScoreFinal: 0.9, Text: "text", Rank: 1},
					},
					SystemPrompt: "Context: text",
				}
			}
			handler := NewAskHandler(engine)

			url := "/ask"
			if tt.debugParam != "" {
				url += "?debug=" + tt.debugParam
			}
			req := httptest.NewRequest(http.MethodPost, url, bytes.NewBufferString(`{"query":"q"}`))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d: %s", w.Code, w.Body.String())
			}
			if engine.lastRequest.Debug != tt.expectDebug {
				t.Errorf("Debug = %v, want %v", engine.lastRequest.Debug, tt.expectDebug)
			}

			var resp AskResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if (resp.Debug != nil) != tt.expectDebug {
				t.Fatalf("Debug present = %v, want %v", resp.Debug != nil, tt.expectDebug)
			}
			if tt.expectDebug {
				if len(resp.Debug.RetrievedChunks) != 1 || resp.Debug.RetrievedChunks[0].Rank != 1 {
					t.Errorf("RetrievedChunks = %+v", resp.Debug.RetrievedChunks)
				}
				if resp.Debug.SystemPrompt != "Context: text" {
					t.Errorf("SystemPrompt = %q", resp.Debug.SystemPrompt)
				}
			}
		})
	}
}

func TestAskHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		body       string
		engineErr  error
		wantStatus int
	}{
		{name: "method not allowed", method: http.MethodGet, wantStatus: http.StatusMethodNotAllowed},
		{name: "invalid body", method: http.MethodPost, body: "{", wantStatus: http.StatusBadRequest},
		{
			name:       "validation error",
			method:     http.MethodPost,
			body:       `{"query":""}`,
			engineErr:  &service.ValidationError{Field: "query", Message: "query is required"},
			wantStatus: http.StatusBadRequest,
		},
		{name: "no documents", method: http.MethodPost, body: `{"query":"q"}`, engineErr: rag.ErrNoDocuments, wantStatus: http.StatusBadRequest},
		{
			name:       "external service",
			method:     http.MethodPost,
			body:       `{"query":"q"}`,
			engineErr:  fmt.Errorf("failed to embed query: %w: %w", service.ErrExternalService, errors.New("timeout")),
			wantStatus: http.StatusBadGateway,
		},
		{name: "internal", method: http.MethodPost, body: `{"query":"q"}`, engineErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewAskHandler(&mockRAGEngine{err: tt.engineErr})

			req := httptest.NewRequest(tt.method, "/ask", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusMethodNotAllowed {
				var errResp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&errResp); err != nil || errResp.Error == "" {
					t.Errorf("error body = %q, %v", errResp.Error, err)
				}
			}
		})
	}
}
