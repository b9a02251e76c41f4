// Gemini adapter.
// Text goes through Models.GenerateContent, images through Imagen via
// Models.GenerateImages, both on the Gemini API backend with an API key.

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const (
	geminiAspectRatio = "1:1"
)

// geminiModels is the subset of *genai.Models the adapter calls.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// GeminiConfig configures the Gemini adapter.
type GeminiConfig struct {
	APIKey     string
	BaseURL    string // optional override of the SDK endpoint
	HTTPClient *http.Client
}

// GeminiProvider implements generation.Adapter.
type GeminiProvider struct {
	models geminiModels // nil when no API key is configured
	deps   Deps
	logger *slog.Logger
}

// NewGeminiProvider builds the adapter. With an empty API key no SDK client is
// created and every call fails with generation.ErrMissingCredential.
func NewGeminiProvider(ctx context.Context, cfg GeminiConfig, deps Deps) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return newGeminiProvider(nil, deps), nil
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return newGeminiProvider(client.Models, deps), nil
}

func newGeminiProvider(models geminiModels, deps Deps) *GeminiProvider {
	return &GeminiProvider{
		models: models,
		deps:   deps,
		logger: deps.logger().With(slog.String("provider", string(generation.ProviderGemini))),
	}
}

// Provider returns generation.ProviderGemini.
func (p *GeminiProvider) Provider() generation.Provider {
	return generation.ProviderGemini
}

// Generate routes to GenerateContent or GenerateImages by model type.
func (p *GeminiProvider) Generate(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error) {
	modelType, err := p.deps.Registry.ModelType(generation.ProviderGemini, req.Model.ID)
	if err != nil {
		return nil, err
	}
	if p.models == nil {
		return nil, fmt.Errorf("gemini: %w", generation.ErrMissingCredential)
	}

	p.logger.DebugContext(ctx, "generate",
		slog.String("model", req.Model.ID),
		slog.String("modality", string(modelType)),
		slog.String("conversation_id", req.ConversationID),
		slog.Bool("summary_context", req.UseSummaryContext),
	)

	switch modelType {
	case generation.ModelTypeText:
		content, textErr := runTextTurn(ctx, p.deps.History, p, req)
		if textErr != nil {
			return nil, textErr
		}
		return &generation.GenerationResult{Content: content, Model: req.Model.ID, Provider: generation.ProviderGemini}, nil
	case generation.ModelTypeImage:
		return p.generateImage(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q for Gemini", generation.ErrUnsupportedModality, modelType)
	}
}

func (p *GeminiProvider) summarize(ctx context.Context, model string, history []generation.Message) (string, error) {
	resp, err := p.models.GenerateContent(ctx, model, genai.Text(summaryPrompt(history)), nil)
	if err != nil {
		return "", p.upstreamErr(ctx, model, "summarize", err)
	}
	return strings.TrimSpace(responseText(resp)), nil
}

func (p *GeminiProvider) complete(ctx context.Context, model string, turn textTurn) (string, error) {
	contents, config := geminiContents(turn)
	resp, err := p.models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", p.upstreamErr(ctx, model, "generate_content", err)
	}
	text := responseText(resp)
	if text == "" {
		return "", fmt.Errorf("gemini %s: %w", model, generation.ErrNoContentGenerated)
	}
	return text, nil
}

// geminiContents lays out a turn. The summary travels as a system instruction
// with the bare prompt as contents; history is replayed with assistant turns
// tagged as "model".
func geminiContents(turn textTurn) ([]*genai.Content, *genai.GenerateContentConfig) {
	if turn.Summary != "" {
		config := &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(summaryNotePrefix + turn.Summary)}},
		}
		return genai.Text(turn.Prompt), config
	}
	if len(turn.History) == 0 {
		return genai.Text(turn.Prompt), nil
	}

	contents := make([]*genai.Content, 0, len(turn.History)+1)
	for _, m := range turn.History {
		role := genai.Role(genai.RoleUser)
		if m.Role == generation.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return append(contents, genai.NewContentFromText(turn.Prompt, genai.RoleUser)), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	return resp.Text()
}

func (p *GeminiProvider) generateImage(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error) {
	resp, err := p.models.GenerateImages(ctx, req.Model.ID, req.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages:    1,
		AspectRatio:       geminiAspectRatio,
		SafetyFilterLevel: genai.SafetyFilterLevelBlockLowAndAbove,
		PersonGeneration:  genai.PersonGenerationAllowAdult,
	})
	if err != nil {
		return nil, p.upstreamErr(ctx, req.Model.ID, "generate_images", err)
	}
	if resp == nil || len(resp.GeneratedImages) == 0 ||
		resp.GeneratedImages[0].Image == nil || len(resp.GeneratedImages[0].Image.ImageBytes) == 0 {
		return nil, fmt.Errorf("gemini %s: %w", req.Model.ID, generation.ErrNoContentGenerated)
	}

	raw := EnsureRawImage(resp.GeneratedImages[0].Image.ImageBytes)
	return &generation.GenerationResult{
		Image:         raw,
		ImageMIMEType: DetectImageMIME(raw),
		Model:         req.Model.ID,
		Provider:      generation.ProviderGemini,
	}, nil
}

// upstreamErr converts SDK failures into *generation.UpstreamError.
func (p *GeminiProvider) upstreamErr(ctx context.Context, model, op string, err error) error {
	if isContextErr(err) {
		return err
	}
	logUpstream(ctx, p.logger, generation.ProviderGemini, model, op, err)

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &generation.UpstreamError{Provider: generation.ProviderGemini, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &generation.UpstreamError{Provider: generation.ProviderGemini, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return &generation.UpstreamError{Provider: generation.ProviderGemini, Body: err.Error()}
}
