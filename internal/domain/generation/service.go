package generation

import (
	"context"

	"github.com/matiasleandrokruk/neoguard/pkg/uuid"
)

// GenerateInput is what the transport hands over for a generation call.
type GenerateInput struct {
	Provider          Provider
	Model             string
	Prompt            string
	ConversationID    string
	UseSummaryContext bool
}

// EditInput is what the transport hands over for an image edit.
type EditInput struct {
	Provider Provider
	Model    string
	Prompt   string
	Images   []ImageUpload
}

// ProviderModels groups a provider's models for listing.
type ProviderModels struct {
	Provider Provider          `json:"provider"`
	Models   []ModelDescriptor `json:"models"`
}

// EditInfo describes the constraints of the edit endpoint.
type EditInfo struct {
	AllowedExtensions []string `json:"allowed_extensions"`
	AllowedFormats    string   `json:"allowed_formats"`
	MaxImages         int      `json:"max_images"`
	MinImages         int      `json:"min_images"`
	Models            []string `json:"models"`
}

// Service validates inbound requests and routes them to the right adapter.
type Service struct {
	registry   *Registry
	dispatcher *Dispatcher
	history    HistoryStore
}

// NewService wires the registry, dispatcher and the shared history store.
func NewService(registry *Registry, dispatcher *Dispatcher, history HistoryStore) *Service {
	return &Service{registry: registry, dispatcher: dispatcher, history: history}
}

// Generate sanitizes the prompt, checks the model belongs to the provider and
// delegates to the provider's adapter.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (*GenerationResult, error) {
	prompt, err := SanitizePrompt(in.Prompt)
	if err != nil {
		return nil, err
	}
	model, err := s.registry.Lookup(in.Provider, in.Model)
	if err != nil {
		return nil, err
	}
	adapter, err := s.dispatcher.Adapter(in.Provider)
	if err != nil {
		return nil, err
	}
	return adapter.Generate(ctx, GenerationRequest{
		Prompt:            prompt,
		Model:             model,
		ConversationID:    in.ConversationID,
		UseSummaryContext: in.UseSummaryContext,
	})
}

// EditImage validates the uploads, encodes them as data URLs and calls the
// provider's image editor.
func (s *Service) EditImage(ctx context.Context, in EditInput) (*GenerationResult, error) {
	urls, err := EncodeImageUploads(in.Images)
	if err != nil {
		return nil, err
	}
	prompt, err := SanitizePrompt(in.Prompt)
	if err != nil {
		return nil, err
	}
	editor, err := s.dispatcher.Editor(in.Provider)
	if err != nil {
		return nil, err
	}
	return editor.EditImage(ctx, EditRequest{Prompt: prompt, Model: in.Model, Images: urls})
}

// ListModels returns every provider with its models in table order.
func (s *Service) ListModels() []ProviderModels {
	out := make([]ProviderModels, 0, len(Providers()))
	for _, p := range Providers() {
		out = append(out, ProviderModels{Provider: p, Models: s.registry.ListModels(p)})
	}
	return out
}

// EditInfo reports the edit endpoint constraints.
func (s *Service) EditInfo() EditInfo {
	return EditInfo{
		AllowedExtensions: append([]string(nil), AllowedImageExtensions...),
		AllowedFormats:    AllowedImageFormats,
		MaxImages:         MaxEditImages,
		MinImages:         MinEditImages,
		Models:            s.registry.EditModels(),
	}
}

// NewConversation mints a fresh conversation id. Nothing is stored until the
// first turn is appended.
func (s *Service) NewConversation() string {
	return uuid.NewV7().String()
}

// History returns a snapshot of a conversation.
func (s *Service) History(conversationID string) ([]Message, error) {
	if conversationID == "" {
		return nil, ErrMissingConversation
	}
	return s.history.History(conversationID), nil
}

// ClearConversation drops a conversation's history. Unknown ids are a no-op.
func (s *Service) ClearConversation(conversationID string) {
	s.history.Clear(conversationID)
}
