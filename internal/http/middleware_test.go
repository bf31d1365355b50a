package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"docchat/internal/contextutil"
)

func TestLoggerMiddleware(t *testing.T) {
	var capturedCtx context.Context
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCtx = r.Context()
		w.WriteHeader(http.StatusOK)
	})

	mw := LoggerMiddleware(handler)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	mw.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("LoggerMiddleware() status = %v, want %v", w.Code, http.StatusOK)
	}

	if capturedCtx == nil {
		t.Fatal("LoggerMiddleware() should capture context")
	}
	if contextutil.LoggerFromContext(capturedCtx) == slog.Default() {
		t.Error("LoggerMiddleware() should add a request logger to context")
	}
}

func TestLoggerMiddleware_RequestID(t *testing.T) {
	var capturedCtx context.Context
	handler := middleware.RequestID(LoggerMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCtx = r.Context()
	})))

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := middleware.GetReqID(capturedCtx); got != "req-42" {
		t.Errorf("request id = %q, want req-42", got)
	}
}

func TestRequestLogger(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		path       string
		statusCode int
		shouldLog  bool
	}{
		{
			name:       "regular request",
			method:     http.MethodPost,
			path:       "/ask",
			statusCode: http.StatusOK,
			shouldLog:  true,
		},
		{
			name:       "health check skipped",
			method:     http.MethodGet,
			path:       "/health",
			statusCode: http.StatusOK,
			shouldLog:  false,
		},
		{
			name:       "root probe skipped",
			method:     http.MethodGet,
			path:       "/",
			statusCode: http.StatusOK,
			shouldLog:  false,
		},
		{
			name:       "failing health check logged",
			method:     http.MethodGet,
			path:       "/health",
			statusCode: http.StatusServiceUnavailable,
			shouldLog:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			})

			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, nil))

			mw := RequestLogger(handler)
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(contextutil.WithLogger(req.Context(), logger))
			w := httptest.NewRecorder()

			mw.ServeHTTP(w, req)

			if w.Code != tt.statusCode {
				t.Errorf("RequestLogger() status = %v, want %v", w.Code, tt.statusCode)
			}
			logged := strings.Contains(buf.String(), "request completed")
			if logged != tt.shouldLog {
				t.Errorf("RequestLogger() logged = %v, want %v: %s", logged, tt.shouldLog, buf.String())
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusRequestEntityTooLarge)
	rw.Flush()

	if rw.statusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("recorded status = %d, want %d", rw.statusCode, http.StatusRequestEntityTooLarge)
	}
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("forwarded status = %d, want %d", rec.Code, http.StatusRequestEntityTooLarge)
	}
	if !rec.Flushed {
		t.Error("Flush() should reach the underlying writer for SSE responses")
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantHandled bool
	}{
		{
			name:       "preflight is answered directly",
			method:     http.MethodOptions,
			origin:     "http://localhost:5173",
			wantStatus: http.StatusNoContent,
			wantOrigin: "http://localhost:5173",
		},
		{
			name:        "origin is echoed",
			method:      http.MethodPost,
			origin:      "http://localhost:5173",
			wantStatus:  http.StatusOK,
			wantOrigin:  "http://localhost:5173",
			wantHandled: true,
		},
		{
			name:        "no origin allows any",
			method:      http.MethodDelete,
			wantStatus:  http.StatusOK,
			wantOrigin:  "*",
			wantHandled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handled := false
			mw := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handled = true
			}))

			req := httptest.NewRequest(tt.method, "/reset", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			mw.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods"); got != "GET, POST, DELETE, OPTIONS" {
				t.Errorf("Access-Control-Allow-Methods = %q", got)
			}
			if handled != tt.wantHandled {
				t.Errorf("next handler called = %v, want %v", handled, tt.wantHandled)
			}
		})
	}
}
