package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const (
	headerContentType = "Content-Type"
	mimeJSON          = "application/json"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set(headerContentType, mimeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeServiceError maps a domain error to its HTTP status. Server-side
// failures are logged; their details are not echoed to the client.
func writeServiceError(ctx context.Context, w http.ResponseWriter, logger *slog.Logger, err error) {
	// The client is gone or the timeout middleware owns the response.
	if ctxErr := ctx.Err(); ctxErr != nil {
		logger.WarnContext(ctx, "request ended before a response was written",
			slog.String("reason", ctxErr.Error()), slog.Any("error", err))
		return
	}
	status := statusFromError(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusServiceUnavailable {
		logger.ErrorContext(ctx, "request failed", slog.Int("status", status), slog.Any("error", err))
		if status == http.StatusInternalServerError {
			writeError(w, status, "internal server error")
			return
		}
	}
	writeError(w, status, err.Error())
}

// statusFromError maps domain errors to HTTP status codes.
func statusFromError(err error) int {
	var upErr *generation.UpstreamError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &upErr):
		return http.StatusBadGateway
	case errors.Is(err, generation.ErrMissingCredential):
		return http.StatusServiceUnavailable
	case errors.Is(err, generation.ErrNoContentGenerated):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrInvalidPrompt),
		errors.Is(err, generation.ErrUnsupportedProvider),
		errors.Is(err, generation.ErrUnsupportedModel),
		errors.Is(err, generation.ErrUnsupportedModality),
		errors.Is(err, generation.ErrNoInputImages),
		errors.Is(err, generation.ErrTooManyImages),
		errors.Is(err, generation.ErrUnsupportedImageType),
		errors.Is(err, generation.ErrUnsupportedEditModel),
		errors.Is(err, generation.ErrMissingConversation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
