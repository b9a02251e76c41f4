// Package generation holds the provider-neutral model of the service: providers,
// model descriptors, conversation messages, normalized requests and results.
// Adapters in internal/infra/llm translate these to vendor wire calls.
package generation

import (
	"context"
	"fmt"
	"strings"
)

// Provider identifies one external generative-AI backend.
type Provider string

const (
	ProviderOpenAI Provider = "OpenAI"
	ProviderGemini Provider = "Gemini"
)

// Providers lists every supported provider in display order.
func Providers() []Provider {
	return []Provider{ProviderOpenAI, ProviderGemini}
}

// Slug is the lowercase form used in URL paths ("openai", "gemini").
func (p Provider) Slug() string {
	return strings.ToLower(string(p))
}

// ParseProvider resolves a provider from its display name or slug, case-insensitively.
func ParseProvider(s string) (Provider, error) {
	for _, p := range Providers() {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedProvider, s)
}

// ModelType is the output modality of a model.
type ModelType string

const (
	ModelTypeText  ModelType = "text"
	ModelTypeImage ModelType = "image"
)

// ModelDescriptor ties a model id to its provider and modality.
type ModelDescriptor struct {
	Provider Provider  `json:"provider" yaml:"-"`
	ID       string    `json:"id" yaml:"id"`
	Type     ModelType `json:"type" yaml:"type"`
}

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single stored conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// GenerationRequest is the normalized input handed to an adapter.
// Prompt is already sanitized.
type GenerationRequest struct {
	Prompt            string
	Model             ModelDescriptor
	ConversationID    string
	UseSummaryContext bool
}

// EditRequest is the normalized input for an image edit. Images are data URLs
// of the form data:<mime>;base64,<payload>.
type EditRequest struct {
	Prompt string
	Model  string
	Images []string
}

// GenerationResult carries exactly one of Content or Image on success.
type GenerationResult struct {
	Content       string
	Image         []byte
	ImageMIMEType string
	Model         string
	Provider      Provider
}

// IsImage reports whether the result carries image bytes.
func (r *GenerationResult) IsImage() bool {
	return len(r.Image) > 0
}

// HistoryStore is the conversation context store used by adapters.
// History must return a snapshot the caller may mutate freely.
type HistoryStore interface {
	History(conversationID string) []Message
	Append(conversationID string, messages ...Message)
	Clear(conversationID string)
}

// Adapter generates content against one provider.
type Adapter interface {
	Provider() Provider
	Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error)
}

// ImageEditor is implemented by adapters whose provider exposes image editing.
type ImageEditor interface {
	EditImage(ctx context.Context, req EditRequest) (*GenerationResult, error)
}
