// Package llm holds the provider adapters: OpenAI and Gemini.
// Each adapter implements generation.Adapter so the rest of the service is
// never coupled to a specific vendor SDK or wire format.
//
// Shared behavior lives here too: the conversation-turn driver used by both
// text paths (conversation.go) and image byte normalization (image.go).
package llm

import (
	"context"
	"errors"
	"log/slog"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const (
	mimeJSON            = "application/json"
	headerContentType   = "Content-Type"
	headerAuthorization = "Authorization"
)

// Compile-time interface checks.
var (
	_ generation.Adapter     = (*OpenAIProvider)(nil)
	_ generation.ImageEditor = (*OpenAIProvider)(nil)
	_ generation.Adapter     = (*GeminiProvider)(nil)
)

// Deps are the collaborators every adapter shares.
type Deps struct {
	Registry *generation.Registry
	History  generation.HistoryStore
	Logger   *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// isContextErr reports whether err comes from a cancelled or expired request
// context. Those are returned as-is instead of being wrapped as upstream errors.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// logUpstream records a failed provider call.
func logUpstream(ctx context.Context, logger *slog.Logger, provider generation.Provider, model, op string, err error) {
	logger.WarnContext(ctx, "provider call failed",
		slog.String("provider", string(provider)),
		slog.String("model", model),
		slog.String("op", op),
		slog.Any("error", err),
	)
}
