package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chat_client.go -package=mocks docchat/internal/rag ChatClient

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"docchat/internal/contextutil"
	"docchat/internal/indexer"
	"docchat/internal/llm"
	"docchat/internal/service"
	"docchat/internal/storage"
	"docchat/internal/vectorstore"
)

const (
	// DefaultK is the number of chunks retrieved when a request does not set K.
	DefaultK = 4
	// MaxK caps the number of retrieved chunks.
	MaxK = 20
)

// ErrNoDocuments is returned when a question is asked before anything was indexed.
var ErrNoDocuments = errors.New("no documents indexed")

// ChatClient is the chat completion API the engine answers with.
type ChatClient interface {
	ChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams) (string, error)
	StreamChatWithMessages(ctx context.Context, messages []llm.Message, params llm.ChatParams, callback func(chunk string) error) error
}

// Engine provides RAG (Retrieval-Augmented Generation) functionality.
type Engine interface {
	// Ask answers a question using RAG by retrieving relevant chunks and generating an answer.
	Ask(ctx context.Context, req AskRequest) (AskResponse, error)
	// AskStream is Ask with the answer streamed through callback as it is generated.
	// The returned response carries the full answer and the sources.
	AskStream(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error)
	// Models returns the selectable chat models and the default one.
	Models() (available []string, defaultModel string)
}

// EngineConfig holds the answering defaults.
type EngineConfig struct {
	Collection   string
	Models       []string
	DefaultModel string
	Temperature  float32
	SystemPrompt string
}

// ragEngine implements the Engine interface.
type ragEngine struct {
	embedder    indexer.Embedder
	vectorStore vectorstore.VectorStore
	chunkRepo   storage.ChunkStore
	chat        ChatClient
	cfg         EngineConfig
}

// NewEngine creates a new RAG engine.
func NewEngine(
	embedder indexer.Embedder,
	vectorStore vectorstore.VectorStore,
	chunkRepo storage.ChunkStore,
	chat ChatClient,
	cfg EngineConfig,
) Engine {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.DefaultModel == "" && len(cfg.Models) > 0 {
		cfg.DefaultModel = cfg.Models[0]
	}
	return &ragEngine{
		embedder:    embedder,
		vectorStore: vectorStore,
		chunkRepo:   chunkRepo,
		chat:        chat,
		cfg:         cfg,
	}
}

func (e *ragEngine) Models() ([]string, string) {
	return slices.Clone(e.cfg.Models), e.cfg.DefaultModel
}

// prepared is a validated request with its context retrieved.
type prepared struct {
	messages []llm.Message
	params   llm.ChatParams
	cands    []candidate
}

// Ask answers a question using RAG.
func (e *ragEngine) Ask(ctx context.Context, req AskRequest) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	answer, err := e.chat.ChatWithMessages(ctx, p.messages, p.params)
	if err != nil {
		logger.ErrorContext(ctx, "failed to get LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to get LLM response: %w: %w", service.ErrExternalService, err)
	}

	logger.InfoContext(ctx, "RAG query completed", "model", p.params.Model, "chunks_used", len(p.cands), "answer_length", len(answer))
	return e.response(req, p, answer), nil
}

// AskStream answers a question using RAG, streaming the answer.
func (e *ragEngine) AskStream(ctx context.Context, req AskRequest, callback func(chunk string) error) (AskResponse, error) {
	logger := contextutil.LoggerFromContext(ctx)

	p, err := e.prepare(ctx, req)
	if err != nil {
		return AskResponse{}, err
	}

	var answer strings.Builder
	err = e.chat.StreamChatWithMessages(ctx, p.messages, p.params, func(chunk string) error {
		answer.WriteString(chunk)
		return callback(chunk)
	})
	if err != nil {
		logger.ErrorContext(ctx, "failed to stream LLM response", "error", err)
		return AskResponse{}, fmt.Errorf("failed to stream LLM response: %w: %w", service.ErrExternalService, err)
	}

	logger.InfoContext(ctx, "streaming RAG query completed", "model", p.params.Model, "chunks_used", len(p.cands), "answer_length", answer.Len())
	return e.response(req, p, answer.String()), nil
}

// prepare validates the request, retrieves the context and builds the LLM messages.
func (e *ragEngine) prepare(ctx context.Context, req AskRequest) (*prepared, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, &service.ValidationError{Field: "query", Message: "cannot be empty"}
	}

	model := req.Model
	if model == "" {
		model = e.cfg.DefaultModel
	}
	if !slices.Contains(e.cfg.Models, model) {
		return nil, &service.ValidationError{
			Field:   "model",
			Message: fmt.Sprintf("unknown model %q, available: %s", model, strings.Join(e.cfg.Models, ", ")),
		}
	}

	temperature := e.cfg.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	if temperature < 0 || temperature > 2 {
		return nil, &service.ValidationError{Field: "temperature", Message: "must be between 0 and 2"}
	}

	k := req.K
	switch {
	case k < 0:
		return nil, &service.ValidationError{Field: "k", Message: "cannot be negative"}
	case k == 0:
		k = DefaultK
	case k > MaxK:
		k = MaxK
	}

	logger.InfoContext(ctx, "RAG query started", "question_length", len(question), "model", model, "k", k, "history", len(req.History))

	points, err := e.vectorStore.Count(ctx, e.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}
	if points == 0 {
		return nil, ErrNoDocuments
	}

	embeddings, err := e.embedder.EmbedTexts(ctx, []string{question})
	if err != nil {
		logger.ErrorContext(ctx, "failed to embed question", "error", err)
		return nil, fmt.Errorf("failed to embed question: %w: %w", service.ErrExternalService, err)
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned for question: %w", service.ErrExternalService)
	}

	results, err := e.vectorStore.Search(ctx, e.cfg.Collection, embeddings[0], k, nil)
	if err != nil {
		logger.ErrorContext(ctx, "failed to search vector store", "error", err)
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}

	cands := make([]candidate, 0, len(results))
	for _, result := range results {
		chunk, err := e.chunkRepo.GetByID(ctx, result.PointID)
		if err != nil {
			logger.WarnContext(ctx, "failed to fetch chunk text", "chunk_id", result.PointID, "error", err)
			continue
		}
		source, _ := result.Meta["source"].(string)
		title, _ := result.Meta["title"].(string)
		cands = append(cands, candidate{
			id:          chunk.ID,
			documentID:  chunk.DocumentID,
			source:      source,
			title:       title,
			chunkIndex:  chunk.ChunkIndex,
			text:        chunk.Text,
			scoreVector: result.Score,
		})
	}
	rerank(question, cands)

	systemPrompt := e.cfg.SystemPrompt
	if req.SystemPrompt != "" {
		systemPrompt = req.SystemPrompt
	}

	logger.DebugContext(ctx, "chunks retrieved", "search_results", len(results), "chunks", len(cands))

	return &prepared{
		messages: buildMessages(systemPrompt, joinContext(cands), req.History, question),
		params:   llm.ChatParams{Model: model, Temperature: &temperature},
		cands:    cands,
	}, nil
}

func (e *ragEngine) response(req AskRequest, p *prepared, answer string) AskResponse {
	resp := AskResponse{
		Answer:  answer,
		Model:   p.params.Model,
		Sources: make([]Source, 0, len(p.cands)),
	}
	for _, c := range p.cands {
		resp.Sources = append(resp.Sources, Source{
			DocumentID: c.documentID,
			Source:     c.source,
			Title:      c.title,
			ChunkIndex: c.chunkIndex,
			Score:      c.score(),
			Preview:    preview(c.text),
		})
	}

	if req.Debug {
		debug := &DebugInfo{
			RetrievedChunks: make([]RetrievedChunk, 0, len(p.cands)),
			SystemPrompt:    p.messages[0].Content,
		}
		for i, c := range p.cands {
			debug.RetrievedChunks = append(debug.RetrievedChunks, RetrievedChunk{
				ChunkID:      c.id,
				Source:       c.source,
				ScoreVector:  c.scoreVector,
				ScoreLexical: c.scoreLexical,
				ScoreFinal:   c.score(),
				Text:         c.text,
				Rank:         i + 1,
			})
		}
		resp.Debug = debug
	}
	return resp
}
