package vectorstore

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
)

func TestGRPCAddress(t *testing.T) {
	tests := []struct {
		name     string
		urlStr   string
		wantErr  bool
		wantHost string
		wantPort int
	}{
		{
			name:     "valid URL",
			urlStr:   "http://localhost:6333",
			wantHost: "localhost",
			wantPort: 6334, // gRPC port is HTTP port + 1
		},
		{
			name:     "URL with custom port",
			urlStr:   "http://qdrant:9000",
			wantHost: "qdrant",
			wantPort: 9001,
		},
		{
			name:     "URL without port",
			urlStr:   "http://localhost",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:     "URL without hostname",
			urlStr:   "http://:6333",
			wantHost: "localhost",
			wantPort: 6334,
		},
		{
			name:    "invalid URL",
			urlStr:  "://invalid",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host, port, err := grpcAddress(tt.urlStr)
			if tt.wantErr {
				if err == nil {
					t.Errorf("grpcAddress(%q) expected error", tt.urlStr)
				}
				return
			}
			if err != nil {
				t.Fatalf("grpcAddress(%q) error = %v", tt.urlStr, err)
			}
			if host != tt.wantHost {
				t.Errorf("host = %v, want %v", host, tt.wantHost)
			}
			if port != tt.wantPort {
				t.Errorf("port = %v, want %v", port, tt.wantPort)
			}
		})
	}
}

func TestNewQdrantStore_InvalidURL(t *testing.T) {
	if _, err := NewQdrantStore("://invalid"); err == nil {
		t.Error("NewQdrantStore() with invalid URL should return error")
	}
}

func TestBuildFilter(t *testing.T) {
	tests := []struct {
		name        string
		filters     map[string]any
		wantNil     bool
		wantMust    int
		wantSkipped int
	}{
		{name: "no filters", filters: nil, wantNil: true},
		{name: "string filter", filters: map[string]any{"source": "a.pdf"}, wantMust: 1},
		{name: "int filters", filters: map[string]any{"chunk_index": 2, "start": int64(10)}, wantMust: 2},
		{name: "unsupported type only", filters: map[string]any{"score": 0.5}, wantNil: true, wantSkipped: 1},
		{name: "mixed", filters: map[string]any{"format": "pdf", "score": 0.5}, wantMust: 1, wantSkipped: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, skipped := buildFilter(tt.filters)
			if len(skipped) != tt.wantSkipped {
				t.Errorf("skipped = %v, want %d entries", skipped, tt.wantSkipped)
			}
			if tt.wantNil {
				if filter != nil {
					t.Errorf("buildFilter() = %v, want nil", filter)
				}
				return
			}
			if filter == nil || len(filter.Must) != tt.wantMust {
				t.Errorf("buildFilter() = %v, want %d must conditions", filter, tt.wantMust)
			}
		})
	}
}

func TestPayloadToMap(t *testing.T) {
	payload := qdrant.NewValueMap(map[string]any{
		"source":      "guide.md",
		"chunk_index": 3,
		"score":       0.5,
		"ok":          true,
	})

	got := payloadToMap(payload)

	if got["source"] != "guide.md" {
		t.Errorf("source = %v", got["source"])
	}
	if got["chunk_index"] != int64(3) {
		t.Errorf("chunk_index = %v (%T), want int64(3)", got["chunk_index"], got["chunk_index"])
	}
	if got["score"] != 0.5 {
		t.Errorf("score = %v", got["score"])
	}
	if got["ok"] != true {
		t.Errorf("ok = %v", got["ok"])
	}
}

func TestQdrantStore_EmptyInputs(t *testing.T) {
	// Both calls return before touching the client
	store := &QdrantStore{}
	ctx := context.Background()

	if err := store.Upsert(ctx, "test-collection", []Point{}); err != nil {
		t.Errorf("Upsert() with empty points error = %v", err)
	}
	if err := store.Delete(ctx, "test-collection", []string{}); err != nil {
		t.Errorf("Delete() with empty IDs error = %v", err)
	}
	if _, err := store.Search(ctx, "test-collection", []float32{1}, 0, nil); err == nil {
		t.Error("Search() with k=0 should return error")
	}
}
