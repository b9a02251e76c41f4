package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/matiasleandrokruk/neoguard/internal/domain/generation"
)

type contentCall struct {
	Model    string
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

type imageCall struct {
	Model  string
	Prompt string
	Config *genai.GenerateImagesConfig
}

// stubGeminiModels records calls and replays canned responses in order.
type stubGeminiModels struct {
	mu            sync.Mutex
	contentCalls  []contentCall
	imageCalls    []imageCall
	texts         []string
	contentErr    error
	imageResponse *genai.GenerateImagesResponse
	imageErr      error
}

func (s *stubGeminiModels) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contentCalls = append(s.contentCalls, contentCall{Model: model, Contents: contents, Config: config})
	if s.contentErr != nil {
		return nil, s.contentErr
	}
	text := ""
	if i := len(s.contentCalls) - 1; i < len(s.texts) {
		text = s.texts[i]
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}, nil
}

func (s *stubGeminiModels) GenerateImages(_ context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imageCalls = append(s.imageCalls, imageCall{Model: model, Prompt: prompt, Config: config})
	return s.imageResponse, s.imageErr
}

func contentText(c *genai.Content) string {
	var b strings.Builder
	for _, p := range c.Parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func geminiTextRequest(prompt, conversationID string, summary bool) generation.GenerationRequest {
	return generation.GenerationRequest{
		Prompt:            prompt,
		Model:             generation.ModelDescriptor{Provider: generation.ProviderGemini, ID: "gemini-2.5-flash", Type: generation.ModelTypeText},
		ConversationID:    conversationID,
		UseSummaryContext: summary,
	}
}

func TestGeminiProvider_Generate_Text_Simple(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{texts: []string{"Hi!"}}
	deps, store := testDeps(t)
	p := newGeminiProvider(stub, deps)

	res, err := p.Generate(context.Background(), geminiTextRequest("hello", "", false))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Content != "Hi!" || res.Provider != generation.ProviderGemini {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(stub.contentCalls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(stub.contentCalls))
	}
	call := stub.contentCalls[0]
	if call.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected model %q", call.Model)
	}
	if len(call.Contents) != 1 || contentText(call.Contents[0]) != "hello" {
		t.Errorf("expected bare prompt, got %+v", call.Contents)
	}
	if call.Config != nil {
		t.Error("no system instruction expected without summary")
	}
	if store.Len() != 0 {
		t.Error("nothing should be stored without a conversation id")
	}
}

func TestGeminiProvider_Generate_Text_HistoryRoles(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{texts: []string{"sure"}}
	deps, store := testDeps(t)
	store.Append("c1",
		generation.Message{Role: generation.RoleUser, Content: "q1"},
		generation.Message{Role: generation.RoleAssistant, Content: "a1"},
	)
	p := newGeminiProvider(stub, deps)

	if _, err := p.Generate(context.Background(), geminiTextRequest("q2", "c1", false)); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	contents := stub.contentCalls[0].Contents
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %d", len(contents))
	}
	wantRoles := []string{genai.RoleUser, genai.RoleModel, genai.RoleUser}
	wantText := []string{"q1", "a1", "q2"}
	for i := range contents {
		if contents[i].Role != wantRoles[i] || contentText(contents[i]) != wantText[i] {
			t.Errorf("content %d = %s/%q; want %s/%q", i, contents[i].Role, contentText(contents[i]), wantRoles[i], wantText[i])
		}
	}

	stored := store.History("c1")
	if len(stored) != 4 || stored[3].Role != generation.RoleAssistant || stored[3].Content != "sure" {
		t.Errorf("unexpected stored history: %+v", stored)
	}
}

func TestGeminiProvider_Generate_Text_SummaryAsSystemInstruction(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{texts: []string{" talked about cats ", "cats again"}}
	deps, store := testDeps(t)
	store.Append("c1", generation.Message{Role: generation.RoleUser, Content: "I like cats"})
	p := newGeminiProvider(stub, deps)

	res, err := p.Generate(context.Background(), geminiTextRequest("remind me", "c1", true))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.Content != "cats again" {
		t.Errorf("unexpected content %q", res.Content)
	}
	if len(stub.contentCalls) != 2 {
		t.Fatalf("expected summary + main call, got %d", len(stub.contentCalls))
	}
	if got := contentText(stub.contentCalls[0].Contents[0]); !strings.HasPrefix(got, summaryInstruction) {
		t.Errorf("summary call should start with the instruction, got %q", got)
	}

	main := stub.contentCalls[1]
	if main.Config == nil || main.Config.SystemInstruction == nil {
		t.Fatal("expected system instruction on main call")
	}
	if got := contentText(main.Config.SystemInstruction); got != summaryNotePrefix+"talked about cats" {
		t.Errorf("unexpected system instruction %q", got)
	}
	if len(main.Contents) != 1 || contentText(main.Contents[0]) != "remind me" {
		t.Errorf("main call should carry only the prompt, got %+v", main.Contents)
	}
}

func TestGeminiProvider_Generate_Text_EmptyReply_NoContent(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{texts: []string{""}}
	deps, store := testDeps(t)
	p := newGeminiProvider(stub, deps)

	_, err := p.Generate(context.Background(), geminiTextRequest("hello", "c1", false))
	if !errors.Is(err, generation.ErrNoContentGenerated) {
		t.Fatalf("expected ErrNoContentGenerated, got %v", err)
	}
	if store.Len() != 0 {
		t.Error("failed turn must not be stored")
	}
}

func TestGeminiProvider_Generate_APIError(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{contentErr: genai.APIError{Code: 429, Message: "quota exceeded"}}
	deps, _ := testDeps(t)
	p := newGeminiProvider(stub, deps)

	_, err := p.Generate(context.Background(), geminiTextRequest("hello", "", false))
	var upErr *generation.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.StatusCode != 429 || upErr.Body != "quota exceeded" || upErr.Provider != generation.ProviderGemini {
		t.Errorf("unexpected upstream error: %+v", upErr)
	}
}

func TestGeminiProvider_Generate_Image(t *testing.T) {
	t.Parallel()

	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10}
	stub := &stubGeminiModels{imageResponse: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: jpeg}}},
	}}
	deps, _ := testDeps(t)
	p := newGeminiProvider(stub, deps)

	res, err := p.Generate(context.Background(), generation.GenerationRequest{
		Prompt: "a lighthouse",
		Model:  generation.ModelDescriptor{Provider: generation.ProviderGemini, ID: "imagen-4.0-generate-001", Type: generation.ModelTypeImage},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if res.ImageMIMEType != "image/jpeg" || string(res.Image) != string(jpeg) {
		t.Errorf("unexpected image result: %+v", res)
	}

	call := stub.imageCalls[0]
	if call.Model != "imagen-4.0-generate-001" || call.Prompt != "a lighthouse" {
		t.Errorf("unexpected call: %+v", call)
	}
	cfg := call.Config
	if cfg.NumberOfImages != 1 || cfg.AspectRatio != "1:1" ||
		cfg.SafetyFilterLevel != genai.SafetyFilterLevelBlockLowAndAbove ||
		cfg.PersonGeneration != genai.PersonGenerationAllowAdult {
		t.Errorf("unexpected image config: %+v", cfg)
	}
}

func TestGeminiProvider_Generate_Image_Base64Payload(t *testing.T) {
	t.Parallel()

	encoded := []byte(base64.StdEncoding.EncodeToString(pngBytes))
	stub := &stubGeminiModels{imageResponse: &genai.GenerateImagesResponse{
		GeneratedImages: []*genai.GeneratedImage{{Image: &genai.Image{ImageBytes: encoded}}},
	}}
	deps, _ := testDeps(t)
	p := newGeminiProvider(stub, deps)

	res, err := p.Generate(context.Background(), generation.GenerationRequest{
		Prompt: "x",
		Model:  generation.ModelDescriptor{Provider: generation.ProviderGemini, ID: "imagen-4.0-generate-001", Type: generation.ModelTypeImage},
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if string(res.Image) != string(pngBytes) || res.ImageMIMEType != "image/png" {
		t.Errorf("expected decoded PNG, got %v (%s)", res.Image, res.ImageMIMEType)
	}
}

func TestGeminiProvider_Generate_Image_NoImages(t *testing.T) {
	t.Parallel()

	stub := &stubGeminiModels{imageResponse: &genai.GenerateImagesResponse{}}
	deps, _ := testDeps(t)
	p := newGeminiProvider(stub, deps)

	_, err := p.Generate(context.Background(), generation.GenerationRequest{
		Prompt: "x",
		Model:  generation.ModelDescriptor{Provider: generation.ProviderGemini, ID: "imagen-4.0-generate-001", Type: generation.ModelTypeImage},
	})
	if !errors.Is(err, generation.ErrNoContentGenerated) {
		t.Fatalf("expected ErrNoContentGenerated, got %v", err)
	}
}

func TestGeminiProvider_Generate_MissingCredential(t *testing.T) {
	t.Parallel()

	deps, _ := testDeps(t)
	p, err := NewGeminiProvider(context.Background(), GeminiConfig{}, deps)
	if err != nil {
		t.Fatalf("NewGeminiProvider: %v", err)
	}
	_, err = p.Generate(context.Background(), geminiTextRequest("hello", "", false))
	if !errors.Is(err, generation.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestGeminiProvider_Generate_UnregisteredModel(t *testing.T) {
	t.Parallel()

	deps, _ := testDeps(t)
	p := newGeminiProvider(&stubGeminiModels{}, deps)
	req := geminiTextRequest("hello", "", false)
	req.Model.ID = "gpt-5"

	if _, err := p.Generate(context.Background(), req); !errors.Is(err, generation.ErrUnsupportedModel) {
		t.Fatalf("expected ErrUnsupportedModel, got %v", err)
	}
}
