package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"docchat/internal/contextutil"
	"docchat/internal/extract"
	"docchat/internal/library"
	"docchat/internal/rag"
	"docchat/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes v as a JSON response with the given status code.
func writeJSON(ctx context.Context, w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)

	var validationErr *service.ValidationError
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.As(err, &validationErr):
		logger.WarnContext(ctx, "validation error", "error", err)
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, rag.ErrNoDocuments):
		logger.WarnContext(ctx, "no documents indexed")
		writeError(w, http.StatusBadRequest, "No documents loaded. Upload documents first.")
	case errors.Is(err, extract.ErrUnsupportedFormat):
		logger.WarnContext(ctx, "unsupported format", "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidInput):
		logger.WarnContext(ctx, "invalid input", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid input")
	case errors.Is(err, library.ErrTooLarge), errors.As(err, &maxBytesErr):
		logger.WarnContext(ctx, "upload too large", "error", err)
		writeError(w, http.StatusRequestEntityTooLarge, "Upload exceeds the size limit")
	case errors.Is(err, service.ErrBusy):
		logger.WarnContext(ctx, "operation in progress", "error", err)
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, service.ErrExternalService):
		logger.ErrorContext(ctx, "external service error", "error", err)
		writeError(w, http.StatusBadGateway, "External service error")
	default:
		logger.ErrorContext(ctx, "service error", "error", err)
		writeError(w, http.StatusInternalServerError, defaultMsg)
	}
}
