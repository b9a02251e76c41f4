// OpenAI adapter.
// Chat completions and image generations go through go-openai; image edits
// use the JSON form of POST /images/edits, which the SDK does not expose, so
// that call is made with net/http.
//
// Endpoints used (relative to the base URL, default https://api.openai.com/v1):
//   - POST /chat/completions
//   - POST /images/generations
//   - POST /images/edits

package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	openaiImageSize    = "1024x1024"
	openaiImageQuality = "high"

	chatTemperature    = 1
	summaryTemperature = 0.3
	summaryMaxTokens   = 500
)

// OpenAIConfig configures the OpenAI adapter.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string       // defaults to DefaultOpenAIBaseURL
	HTTPClient *http.Client // defaults to a client with a 120s timeout
}

// OpenAIProvider implements generation.Adapter and generation.ImageEditor.
type OpenAIProvider struct {
	apiKey     string
	baseURL    string
	client     *openai.Client
	httpClient *http.Client
	deps       Deps
	logger     *slog.Logger
}

// NewOpenAIProvider builds the adapter. An empty API key is accepted; every
// call then fails with generation.ErrMissingCredential.
func NewOpenAIProvider(cfg OpenAIConfig, deps Deps) *OpenAIProvider {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = baseURL
	clientCfg.HTTPClient = httpClient

	return &OpenAIProvider{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		client:     openai.NewClientWithConfig(clientCfg),
		httpClient: httpClient,
		deps:       deps,
		logger:     deps.logger().With(slog.String("provider", string(generation.ProviderOpenAI))),
	}
}

// Provider returns generation.ProviderOpenAI.
func (p *OpenAIProvider) Provider() generation.Provider {
	return generation.ProviderOpenAI
}

// Generate routes to chat completions or image generations by model type.
func (p *OpenAIProvider) Generate(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error) {
	modelType, err := p.deps.Registry.ModelType(generation.ProviderOpenAI, req.Model.ID)
	if err != nil {
		return nil, err
	}
	if p.apiKey == "" {
		return nil, fmt.Errorf("openai: %w", generation.ErrMissingCredential)
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
		return &generation.GenerationResult{Content: content, Model: req.Model.ID, Provider: generation.ProviderOpenAI}, nil
	case generation.ModelTypeImage:
		return p.generateImage(ctx, req)
	default:
		return nil, fmt.Errorf("%w: %q for OpenAI", generation.ErrUnsupportedModality, modelType)
	}
}

// ─── text ────────────────────────────────────────────────────────────────────

func (p *OpenAIProvider) summarize(ctx context.Context, model string, history []generation.Message) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: summaryPrompt(history)}},
	}
	// Reasoning models reject non-default sampling and max_tokens.
	if isReasoningModel(model) {
		req.Temperature = chatTemperature
	} else {
		req.Temperature = summaryTemperature
		req.MaxTokens = summaryMaxTokens
	}

	content, err := p.chat(ctx, req, "summarize")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

func (p *OpenAIProvider) complete(ctx context.Context, model string, turn textTurn) (string, error) {
	content, err := p.chat(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    openaiMessages(turn),
		Temperature: chatTemperature,
	}, "chat")
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("openai %s: %w", model, generation.ErrNoContentGenerated)
	}
	return content, nil
}

func (p *OpenAIProvider) chat(ctx context.Context, req openai.ChatCompletionRequest, op string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", p.upstreamErr(ctx, req.Model, op, err)
	}
	if len(resp.Choices) == 0 {
		return "", &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: "chat completion returned no choices"}
	}
	return resp.Choices[0].Message.Content, nil
}

// openaiMessages lays out a turn as chat messages.
func openaiMessages(turn textTurn) []openai.ChatCompletionMessage {
	if turn.Summary != "" {
		return []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: summaryNotePrefix + turn.Summary},
			{Role: openai.ChatMessageRoleUser, Content: turn.Prompt},
		}
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(turn.History)+1)
	for _, m := range turn.History {
		role := openai.ChatMessageRoleUser
		if m.Role == generation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: turn.Prompt})
}

// isReasoningModel matches the o-series and gpt-5 families.
func isReasoningModel(model string) bool {
	if strings.HasPrefix(model, "gpt-5") {
		return true
	}
	return len(model) > 1 && model[0] == 'o' && model[1] >= '0' && model[1] <= '9'
}

// ─── images ─────────────────────────────────────────────────────────────────

func (p *OpenAIProvider) generateImage(ctx context.Context, req generation.GenerationRequest) (*generation.GenerationResult, error) {
	resp, err := p.client.CreateImage(ctx, openai.ImageRequest{
		Model:   req.Model.ID,
		Prompt:  req.Prompt,
		Quality: openaiImageQuality,
		N:       1,
		Size:    openaiImageSize,
	})
	if err != nil {
		return nil, p.upstreamErr(ctx, req.Model.ID, "image_generate", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai %s: %w", req.Model.ID, generation.ErrNoContentGenerated)
	}
	return imageResult(resp.Data[0].B64JSON, req.Model.ID)
}

type openaiEditImage struct {
	ImageURL string `json:"image_url"`
}

type openaiEditRequest struct {
	Model   string            `json:"model"`
	Prompt  string            `json:"prompt"`
	Images  []openaiEditImage `json:"images"`
	N       int               `json:"n"`
	Size    string            `json:"size"`
	Quality string            `json:"quality"`
}

type openaiImageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

// EditImage edits one or more images (data URLs) with POST /images/edits.
func (p *OpenAIProvider) EditImage(ctx context.Context, req generation.EditRequest) (*generation.GenerationResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openai: %w", generation.ErrMissingCredential)
	}
	if len(req.Images) == 0 {
		return nil, generation.ErrNoInputImages
	}
	if !p.deps.Registry.IsEditModel(req.Model) {
		return nil, fmt.Errorf("%w: %q. Use one of: %s", generation.ErrUnsupportedEditModel,
			req.Model, strings.Join(p.deps.Registry.EditModels(), ", "))
	}

	images := make([]openaiEditImage, len(req.Images))
	for i, u := range req.Images {
		images[i] = openaiEditImage{ImageURL: u}
	}
	body, err := json.Marshal(openaiEditRequest{
		Model:   req.Model,
		Prompt:  req.Prompt,
		Images:  images,
		N:       1,
		Size:    openaiImageSize,
		Quality: openaiImageQuality,
	})
	if err != nil {
		return nil, err
	}

	p.logger.DebugContext(ctx, "edit image", slog.String("model", req.Model), slog.Int("images", len(images)))

	respBody, err := p.doPost(ctx, "/images/edits", body)
	if err != nil {
		if !isContextErr(err) {
			logUpstream(ctx, p.logger, generation.ProviderOpenAI, req.Model, "image_edit", err)
		}
		return nil, err
	}

	var parsed openaiImageResponse
	if decodeErr := json.Unmarshal(respBody, &parsed); decodeErr != nil {
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: fmt.Sprintf("decode edit response: %v", decodeErr)}
	}
	if len(parsed.Data) == 0 {
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: "edit response is missing data[0].b64_json"}
	}
	return imageResult(parsed.Data[0].B64JSON, req.Model)
}

// imageResult decodes a b64_json payload into a normalized image result.
func imageResult(b64 string, model string) (*generation.GenerationResult, error) {
	if b64 == "" {
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: "image response is missing data[0].b64_json"}
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: fmt.Sprintf("decode b64_json: %v", err)}
	}
	return &generation.GenerationResult{
		Image:         raw,
		ImageMIMEType: DetectImageMIME(raw),
		Model:         model,
		Provider:      generation.ProviderOpenAI,
	}, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

// doPost sends an authenticated JSON POST to baseURL+path and returns the
// response body. Non-2xx answers become *generation.UpstreamError carrying
// the raw body.
func (p *OpenAIProvider) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai post %s: build request: %w", path, err)
	}
	req.Header.Set(headerContentType, mimeJSON)
	req.Header.Set(headerAuthorization, "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if isContextErr(err) {
			return nil, err
		}
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: fmt.Sprintf("post %s: %v", path, err)}
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("openai post %s: read body: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &generation.UpstreamError{Provider: generation.ProviderOpenAI, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return respBody, nil
}

// upstreamErr converts go-openai failures into *generation.UpstreamError.
func (p *OpenAIProvider) upstreamErr(ctx context.Context, model, op string, err error) error {
	if isContextErr(err) {
		return err
	}
	logUpstream(ctx, p.logger, generation.ProviderOpenAI, model, op, err)

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &generation.UpstreamError{Provider: generation.ProviderOpenAI, StatusCode: apiErr.HTTPStatusCode, Body: apiErrorBody(apiErr)}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		body := reqErr.Error()
		if len(reqErr.Body) > 0 {
			body = string(reqErr.Body)
		}
		return &generation.UpstreamError{Provider: generation.ProviderOpenAI, StatusCode: reqErr.HTTPStatusCode, Body: body}
	}
	return &generation.UpstreamError{Provider: generation.ProviderOpenAI, Body: err.Error()}
}

// apiErrorBody re-encodes a decoded API error in the provider's
// {"error":{...}} envelope so type, code and param reach the caller.
func apiErrorBody(apiErr *openai.APIError) string {
	b, err := json.Marshal(openai.ErrorResponse{Error: apiErr})
	if err != nil {
		return apiErr.Message
	}
	return string(b)
}
