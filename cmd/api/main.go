package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"docchat/internal/config"
	"docchat/internal/extract"
	"docchat/internal/handlers"
	"docchat/internal/http"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/rag"
	"docchat/internal/service"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// Upload documents and ask questions answered from their content.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Document Chat API
//   description: |
//     Ingests PDF, text, Markdown, DOCX and HTML documents, splits them into
//     overlapping chunks, embeds them and answers questions from the most
//     similar chunks.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

const version = "1.0.0"

func main() {
	// Load configuration first (needed for log level)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		log.Fatalf("Invalid LOG_LEVEL %q: %v", cfg.LogLevel, err)
	}
	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", level.String(), "format", cfg.LogFormat, "config_file", cfg.ConfigFile)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	db, err := storage.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() {
		_ = db.Close()
	}()

	if err := storage.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	slog.Info("Database initialized", "path", cfg.DBPath)

	docRepo := storage.NewDocumentRepo(db)
	chunkRepo := storage.NewChunkRepo(db)

	var vectorStore vectorstore.VectorStore
	switch cfg.VectorBackend {
	case config.BackendQdrant:
		qs, err := vectorstore.NewQdrantStore(cfg.QdrantURL)
		if err != nil {
			log.Fatalf("Failed to create Qdrant client: %v", err)
		}
		defer func() {
			_ = qs.Close()
		}()
		vectorStore = qs
		slog.Info("Using Qdrant vector store", "url", cfg.QdrantURL)
	default:
		cs, err := vectorstore.NewChromemStore(cfg.PersistDir)
		if err != nil {
			log.Fatalf("Failed to open vector store: %v", err)
		}
		vectorStore = cs
		slog.Info("Using embedded vector store", "persist_dir", cfg.PersistDir)
	}

	embedder := llm.NewEmbeddingsClient(cfg.EmbeddingBaseURL, cfg.OpenAIAPIKey, cfg.EmbeddingModel, cfg.EmbeddingVectorSize)
	embedder.MaxRetries = cfg.EmbeddingMaxRetries

	llmClient := llm.NewClient(cfg.LLMBaseURL, cfg.OpenAIAPIKey, cfg.DefaultModel)
	checkModels(ctx, llmClient, cfg.AvailableModels)

	indexerPipeline := indexer.NewPipeline(
		docRepo,
		chunkRepo,
		embedder,
		extract.New(""),
		vectorStore,
		indexer.PipelineConfig{
			Collection:     cfg.Collection,
			VectorSize:     cfg.EmbeddingVectorSize,
			EmbeddingModel: cfg.EmbeddingModel,
			Chunking: indexer.ChunkingConfig{
				ChunkSize:    cfg.ChunkSize,
				ChunkOverlap: cfg.ChunkOverlap,
			},
			Concurrency:     cfg.IndexConcurrency,
			DocumentTimeout: cfg.IndexDocumentTimeout,
		},
	)
	if err := indexerPipeline.EnsureCollection(ctx); err != nil {
		log.Fatalf("Failed to ensure vector collection: %v", err)
	}
	slog.Info("Vector collection ready", "collection", cfg.Collection, "vector_size", cfg.EmbeddingVectorSize)

	ragEngine := rag.NewEngine(
		embedder,
		vectorStore,
		chunkRepo,
		llmClient,
		rag.EngineConfig{
			Collection:   cfg.Collection,
			Models:       cfg.AvailableModels,
			DefaultModel: cfg.DefaultModel,
			Temperature:  cfg.Temperature,
		},
	)
	slog.Info("RAG engine initialized", "default_model", cfg.DefaultModel)

	stagingDir := filepath.Join(filepath.Dir(cfg.DBPath), "uploads")
	if err := os.MkdirAll(stagingDir, 0755); err != nil {
		log.Fatalf("Failed to create upload staging directory: %v", err)
	}

	library := service.NewLibraryService(indexerPipeline, service.LibraryConfig{
		DocsDir:        cfg.DocsDir,
		PersistDir:     cfg.PersistDir,
		StagingDir:     stagingDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})

	router := http.NewRouter(&http.Deps{
		Engine:    ragEngine,
		Library:   library,
		Documents: docRepo,
		HealthChecks: map[string]handlers.Pinger{
			"vector_store": vectorStore,
			"database":     handlers.PingFunc(db.PingContext),
		},
		MaxUploadBytes: cfg.MaxUploadBytes,
		Version:        version,
	})

	// Index the documents directory in the background after the router is ready
	if cfg.DocsDir != "" {
		slog.Info("Starting background indexing", "docs_dir", cfg.DocsDir)
		if err := library.StartIndexing(ctx, false); err != nil {
			slog.Error("Failed to start background indexing", "error", err)
		}
	}

	server := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", server.Addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "models", cfg.AvailableModels)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		log.Fatalf("API server failed: %v", err)
	}
}

// checkModels warns about configured models the chat endpoint does not list.
// Endpoints without a models listing are tolerated.
func checkModels(ctx context.Context, client *llm.Client, models []string) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	served, err := client.ListModels(checkCtx)
	if err != nil {
		slog.Warn("Could not list chat models", "error", err)
		return
	}
	for _, m := range models {
		if !slices.Contains(served, m) {
			slog.Warn("Configured model not served by endpoint", "model", m)
		}
	}
}
