package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func noDelay(int) time.Duration { return 0 }

func embeddingsHandler(t *testing.T, size int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req EmbeddingsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		resp := EmbeddingsResponse{}
		for i, text := range req.Input {
			vec := make([]float64, size)
			vec[0] = float64(len(text))
			resp.Data = append(resp.Data, EmbeddingData{Index: i, Embedding: vec})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func TestNewEmbeddingsClient(t *testing.T) {
	client := NewEmbeddingsClient("http://localhost:8080", "test-key", "test-model", 768)
	if client.BaseURL != "http://localhost:8080" {
		t.Errorf("NewEmbeddingsClient() BaseURL = %v, want http://localhost:8080", client.BaseURL)
	}
	if client.ExpectedSize != 768 {
		t.Errorf("NewEmbeddingsClient() ExpectedSize = %v, want 768", client.ExpectedSize)
	}
	if client.BatchSize != defaultEmbeddingBatchSize || client.MaxRetries != defaultEmbeddingRetries {
		t.Errorf("NewEmbeddingsClient() defaults = %d/%d", client.BatchSize, client.MaxRetries)
	}
}

func TestEmbeddingsClient_EmbedTexts(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		serverResp http.HandlerFunc
		wantErr    bool
		wantCount  int
	}{
		{
			name:  "successful embedding",
			texts: []string{"Hello", "World"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/v1/embeddings" {
					t.Errorf("expected /v1/embeddings, got %s", r.URL.Path)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q", got)
				}
				embeddingsHandler(t, 4)(w, r)
			},
			wantCount: 2,
		},
		{
			name:       "empty input",
			texts:      []string{},
			serverResp: func(w http.ResponseWriter, r *http.Request) {},
			wantErr:    true,
		},
		{
			name:  "wrong embedding count",
			texts: []string{"Hello", "World"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 4)}},
				})
			},
			wantErr: true,
		},
		{
			name:  "wrong vector size",
			texts: []string{"Hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
					Data: []EmbeddingData{{Embedding: make([]float64, 3)}},
				})
			},
			wantErr: true,
		},
		{
			name:  "client error is not retried",
			texts: []string{"Hello"},
			serverResp: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "bad request", http.StatusBadRequest)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.serverResp)
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "test-key", "test-model", 4)
			client.retryDelay = noDelay

			got, err := client.EmbedTexts(context.Background(), tt.texts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(got) != tt.wantCount {
				t.Errorf("EmbedTexts() returned %d vectors, want %d", len(got), tt.wantCount)
			}
		})
	}
}

func TestEmbeddingsClient_Batching(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		embeddingsHandler(t, 4)(w, r)
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "k", "m", 4)
	client.BatchSize = 2

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	got, err := client.EmbedTexts(context.Background(), texts)
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("server calls = %d, want 3", calls.Load())
	}
	for i, vec := range got {
		if int(vec[0]) != len(texts[i]) {
			t.Errorf("vector %d out of order: marker %v, want %d", i, vec[0], len(texts[i]))
		}
	}
}

func TestEmbeddingsClient_OutOfOrderIndices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first := make([]float64, 2)
		first[0] = 1
		second := make([]float64, 2)
		second[0] = 2
		_ = json.NewEncoder(w).Encode(EmbeddingsResponse{
			Data: []EmbeddingData{{Index: 1, Embedding: second}, {Index: 0, Embedding: first}},
		})
	}))
	defer server.Close()

	client := NewEmbeddingsClient(server.URL, "k", "m", 2)
	got, err := client.EmbedTexts(context.Background(), []string{"x", "y"})
	if err != nil {
		t.Fatalf("EmbedTexts() error = %v", err)
	}
	if got[0][0] != 1 || got[1][0] != 2 {
		t.Errorf("EmbedTexts() = %v, want vectors reordered by index", got)
	}
}

func TestEmbeddingsClient_RetriesServerErrors(t *testing.T) {
	tests := []struct {
		name      string
		failures  int32
		retries   int
		wantErr   bool
		wantCalls int32
	}{
		{name: "recovers after transient failures", failures: 2, retries: 3, wantCalls: 3},
		{name: "gives up after max retries", failures: 10, retries: 2, wantErr: true, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if calls.Add(1) <= tt.failures {
					http.Error(w, "overloaded", http.StatusServiceUnavailable)
					return
				}
				embeddingsHandler(t, 4)(w, r)
			}))
			defer server.Close()

			client := NewEmbeddingsClient(server.URL, "k", "m", 4)
			client.MaxRetries = tt.retries
			client.retryDelay = noDelay

			_, err := client.EmbedTexts(context.Background(), []string{"hello"})
			if (err != nil) != tt.wantErr {
				t.Errorf("EmbedTexts() error = %v, wantErr %v", err, tt.wantErr)
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("server calls = %d, want %d", calls.Load(), tt.wantCalls)
			}
		})
	}
}

func TestBackoff(t *testing.T) {
	if backoff(0) != 200*time.Millisecond {
		t.Errorf("backoff(0) = %v", backoff(0))
	}
	if backoff(1) != 400*time.Millisecond {
		t.Errorf("backoff(1) = %v", backoff(1))
	}
	if backoff(10) != 5*time.Second {
		t.Errorf("backoff(10) = %v, want cap of 5s", backoff(10))
	}
}
