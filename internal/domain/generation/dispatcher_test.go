package generation

import (
	"context"
	"errors"
	"testing"
)

type fakeAdapter struct {
	provider Provider
	lastReq  GenerationRequest
	result   *GenerationResult
	err      error
}

func (f *fakeAdapter) Provider() Provider { return f.provider }

func (f *fakeAdapter) Generate(_ context.Context, req GenerationRequest) (*GenerationResult, error) {
	f.lastReq = req
	return f.result, f.err
}

type fakeEditor struct {
	fakeAdapter
	lastEdit EditRequest
}

func (f *fakeEditor) EditImage(_ context.Context, req EditRequest) (*GenerationResult, error) {
	f.lastEdit = req
	return f.result, f.err
}

func TestDispatcher_Adapter(t *testing.T) {
	openai := &fakeAdapter{provider: ProviderOpenAI}
	gemini := &fakeAdapter{provider: ProviderGemini}
	d := NewDispatcher(openai, gemini)

	got, err := d.Adapter(ProviderGemini)
	if err != nil {
		t.Fatalf("Adapter error: %v", err)
	}
	if got != gemini {
		t.Error("Adapter(Gemini) returned the wrong adapter")
	}
	if _, err := NewDispatcher(openai).Adapter(ProviderGemini); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("err = %v; want ErrUnsupportedProvider", err)
	}
}

func TestDispatcher_Editor(t *testing.T) {
	editor := &fakeEditor{fakeAdapter: fakeAdapter{provider: ProviderOpenAI}}
	d := NewDispatcher(editor, &fakeAdapter{provider: ProviderGemini})

	if _, err := d.Editor(ProviderOpenAI); err != nil {
		t.Fatalf("Editor(OpenAI) error: %v", err)
	}
	if _, err := d.Editor(ProviderGemini); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("Editor(Gemini) err = %v; want ErrUnsupportedProvider", err)
	}
}
