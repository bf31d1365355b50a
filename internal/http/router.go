package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"docchat/internal/handlers"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/storage"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	Engine         rag.Engine
	Library        service.LibraryService
	Documents      storage.DocumentStore
	HealthChecks   map[string]handlers.Pinger
	MaxUploadBytes int64
	Version        string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(LoggerMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Method(http.MethodGet, "/", handlers.NewRootHandler(deps.Version))
	r.Method(http.MethodGet, "/health", handlers.NewHealthHandler(deps.HealthChecks))
	r.Method(http.MethodGet, "/models", handlers.NewModelsHandler(deps.Engine))

	r.Method(http.MethodPost, "/ask", handlers.NewAskHandler(deps.Engine))
	r.Method(http.MethodPost, "/ask/stream", handlers.NewAskStreamHandler(deps.Engine))

	r.Method(http.MethodPost, "/upload", handlers.NewUploadHandler(deps.Library, deps.MaxUploadBytes))
	r.Method(http.MethodPost, "/index", handlers.NewIndexHandler(deps.Library))
	r.Method(http.MethodGet, "/stats", handlers.NewStatsHandler(deps.Library))
	r.Method(http.MethodDelete, "/reset", handlers.NewResetHandler(deps.Library))
	r.Method(http.MethodGet, "/documents", handlers.NewDocumentsHandler(deps.Documents))

	return r
}
