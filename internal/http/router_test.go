package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"docchat/internal/handlers"
	"docchat/internal/rag"
	"docchat/internal/service"
	service_mocks "docchat/internal/service/mocks"
	"docchat/internal/storage"
	storage_mocks "docchat/internal/storage/mocks"

	"go.uber.org/mock/gomock"
)

// stubEngine answers every question with a fixed response.
type stubEngine struct{}

func (stubEngine) Ask(context.Context, rag.AskRequest) (rag.AskResponse, error) {
	return rag.AskResponse{Answer: "ok", Model: "gpt-3.5-turbo"}, nil
}

func (stubEngine) AskStream(_ context.Context, _ rag.AskRequest, callback func(string) error) (rag.AskResponse, error) {
	if err := callback("ok"); err != nil {
		return rag.AskResponse{}, err
	}
	return rag.AskResponse{Answer: "ok", Model: "gpt-3.5-turbo"}, nil
}

func (stubEngine) Models() ([]string, string) {
	return []string{"gpt-3.5-turbo"}, "gpt-3.5-turbo"
}

func newTestRouter(t *testing.T) (http.Handler, *service_mocks.MockLibraryService, *storage_mocks.MockDocumentStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLibrary := service_mocks.NewMockLibraryService(ctrl)
	mockDocs := storage_mocks.NewMockDocumentStore(ctrl)

	router := NewRouter(&Deps{
		Engine:    stubEngine{},
		Library:   mockLibrary,
		Documents: mockDocs,
		HealthChecks: map[string]handlers.Pinger{
			"vector_store": handlers.PingFunc(func(context.Context) error { return nil }),
		},
		MaxUploadBytes: 1024,
		Version:        "test",
	})
	return router, mockLibrary, mockDocs
}

func TestNewRouter(t *testing.T) {
	router, _, _ := newTestRouter(t)
	if router == nil {
		t.Fatal("NewRouter() returned nil")
	}
}

func TestRouter_Routes(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(lib *service_mocks.MockLibraryService, docs *storage_mocks.MockDocumentStore)
		wantStatus int
	}{
		{name: "GET root", method: http.MethodGet, path: "/", wantStatus: http.StatusOK},
		{name: "GET health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "GET models", method: http.MethodGet, path: "/models", wantStatus: http.StatusOK},
		{name: "POST ask", method: http.MethodPost, path: "/ask", body: `{"query":"q"}`, wantStatus: http.StatusOK},
		{name: "POST ask stream", method: http.MethodPost, path: "/ask/stream", body: `{"query":"q"}`, wantStatus: http.StatusOK},
		{
			name:       "POST upload without files",
			method:     http.MethodPost,
			path:       "/upload",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "POST index",
			method: http.MethodPost,
			path:   "/index",
			setup: func(lib *service_mocks.MockLibraryService, _ *storage_mocks.MockDocumentStore) {
				lib.EXPECT().StartIndexing(gomock.Any(), false).Return(nil)
			},
			wantStatus: http.StatusAccepted,
		},
		{
			name:   "GET stats",
			method: http.MethodGet,
			path:   "/stats",
			setup: func(lib *service_mocks.MockLibraryService, _ *storage_mocks.MockDocumentStore) {
				lib.EXPECT().Stats(gomock.Any(), false).Return(&service.LibraryStats{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "DELETE reset",
			method: http.MethodDelete,
			path:   "/reset",
			setup: func(lib *service_mocks.MockLibraryService, _ *storage_mocks.MockDocumentStore) {
				lib.EXPECT().Reset(gomock.Any()).Return(nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "GET documents",
			method: http.MethodGet,
			path:   "/documents",
			setup: func(_ *service_mocks.MockLibraryService, docs *storage_mocks.MockDocumentStore) {
				docs.EXPECT().List(gomock.Any()).Return([]*storage.DocumentRecord{}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{name: "GET ask method not allowed", method: http.MethodGet, path: "/ask", wantStatus: http.StatusMethodNotAllowed},
		{name: "POST reset method not allowed", method: http.MethodPost, path: "/reset", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/api/chat", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, lib, docs := newTestRouter(t)
			if tt.setup != nil {
				tt.setup(lib, docs)
			}

			req := httptest.NewRequest(tt.method, tt.path, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("Router %s %s status = %v, want %v", tt.method, tt.path, w.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_MiddlewareApplied(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/models", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Error("Router should apply CORS middleware")
	}
}

func TestRouter_Preflight(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/ask", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %v, want %v", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:8501" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
