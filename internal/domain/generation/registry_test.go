package generation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultRegistry_EveryListedModelResolves(t *testing.T) {
	reg, err := DefaultRegistry()
	if err != nil {
		t.Fatalf("DefaultRegistry error: %v", err)
	}
	for _, p := range Providers() {
		models := reg.ListModels(p)
		if len(models) == 0 {
			t.Fatalf("no models for %s", p)
		}
		for _, m := range models {
			got, err := reg.ModelType(p, m.ID)
			if err != nil {
				t.Fatalf("ModelType(%s, %s) error: %v", p, m.ID, err)
			}
			if got != m.Type {
				t.Errorf("ModelType(%s, %s) = %s; want %s", p, m.ID, got, m.Type)
			}
			if m.Provider != p {
				t.Errorf("descriptor provider = %s; want %s", m.Provider, p)
			}
		}
	}
}

func TestRegistry_ModelType_KnownPairs(t *testing.T) {
	reg, _ := DefaultRegistry()
	cases := []struct {
		provider Provider
		model    string
		want     ModelType
	}{
		{ProviderOpenAI, "gpt-image-1", ModelTypeImage},
		{ProviderOpenAI, "gpt-5", ModelTypeText},
		{ProviderGemini, "gemini-2.5-flash", ModelTypeText},
		{ProviderGemini, "imagen-4.0-generate-001", ModelTypeImage},
	}
	for _, tc := range cases {
		got, err := reg.ModelType(tc.provider, tc.model)
		if err != nil {
			t.Fatalf("ModelType(%s, %s) error: %v", tc.provider, tc.model, err)
		}
		if got != tc.want {
			t.Errorf("ModelType(%s, %s) = %s; want %s", tc.provider, tc.model, got, tc.want)
		}
	}
}

func TestRegistry_ModelType_UnknownPair(t *testing.T) {
	reg, _ := DefaultRegistry()
	for _, tc := range []struct {
		provider Provider
		model    string
	}{
		{ProviderOpenAI, "gemini-2.5-flash"},
		{ProviderGemini, "gpt-5"},
		{ProviderOpenAI, ""},
		{Provider("Mistral"), "gpt-5"},
	} {
		if _, err := reg.ModelType(tc.provider, tc.model); !errors.Is(err, ErrUnsupportedModel) {
			t.Errorf("ModelType(%s, %q) err = %v; want ErrUnsupportedModel", tc.provider, tc.model, err)
		}
	}
}

func TestRegistry_ListModels_OrderAndCopy(t *testing.T) {
	reg, err := ParseRegistry([]byte(`
providers:
  - name: OpenAI
    models:
      - {id: b-model, type: text}
      - {id: a-model, type: image}
`))
	if err != nil {
		t.Fatalf("ParseRegistry error: %v", err)
	}
	models := reg.ListModels(ProviderOpenAI)
	if len(models) != 2 || models[0].ID != "b-model" || models[1].ID != "a-model" {
		t.Fatalf("ListModels = %+v; want table order", models)
	}
	models[0].ID = "mutated"
	if reg.ListModels(ProviderOpenAI)[0].ID != "b-model" {
		t.Error("ListModels must return a copy")
	}
	if got := reg.ListModels(ProviderGemini); len(got) != 0 {
		t.Errorf("ListModels(Gemini) = %+v; want empty", got)
	}
}

func TestParseRegistry_Rejects(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
providers:
  - name: OpenAI
    models:
      - {id: gpt-5, type: text}
      - {id: gpt-5, type: image}
`,
		"unknown type": `
providers:
  - name: OpenAI
    models:
      - {id: tts-1, type: audio}
`,
		"unknown provider": `
providers:
  - name: Mistral
    models:
      - {id: large, type: text}
`,
		"empty id": `
providers:
  - name: Gemini
    models:
      - {id: "", type: text}
`,
		"malformed": "providers: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRegistry([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseRegistry_SameIDAcrossProviders(t *testing.T) {
	reg, err := ParseRegistry([]byte(`
providers:
  - name: OpenAI
    models: [{id: shared, type: text}]
  - name: Gemini
    models: [{id: shared, type: image}]
`))
	if err != nil {
		t.Fatalf("ParseRegistry error: %v", err)
	}
	if got, _ := reg.ModelType(ProviderGemini, "shared"); got != ModelTypeImage {
		t.Errorf("Gemini/shared = %s; want image", got)
	}
}

func TestRegistry_EditModels(t *testing.T) {
	reg, _ := DefaultRegistry()
	models := reg.EditModels()
	if len(models) == 0 {
		t.Fatal("expected edit models")
	}
	for i := 1; i < len(models); i++ {
		if models[i-1] > models[i] {
			t.Fatalf("EditModels not sorted: %v", models)
		}
	}
	if !reg.IsEditModel("gpt-image-1") {
		t.Error("gpt-image-1 should be edit-capable")
	}
	if reg.IsEditModel("gpt-5") {
		t.Error("gpt-5 should not be edit-capable")
	}
}

func TestLoadRegistry(t *testing.T) {
	t.Run("empty path uses embedded table", func(t *testing.T) {
		reg, err := LoadRegistry("")
		if err != nil {
			t.Fatalf("LoadRegistry error: %v", err)
		}
		if _, err := reg.ModelType(ProviderOpenAI, "gpt-5"); err != nil {
			t.Errorf("embedded table missing gpt-5: %v", err)
		}
	})
	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		doc := "providers:\n  - name: gemini\n    models: [{id: custom, type: text}]\n"
		if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
			t.Fatalf("write error: %v", err)
		}
		reg, err := LoadRegistry(path)
		if err != nil {
			t.Fatalf("LoadRegistry error: %v", err)
		}
		if got, _ := reg.ModelType(ProviderGemini, "custom"); got != ModelTypeText {
			t.Errorf("Gemini/custom = %q; want text", got)
		}
	})
	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestParseProvider(t *testing.T) {
	for in, want := range map[string]Provider{"openai": ProviderOpenAI, "OpenAI": ProviderOpenAI, "GEMINI": ProviderGemini} {
		got, err := ParseProvider(in)
		if err != nil || got != want {
			t.Errorf("ParseProvider(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseProvider("mistral"); !errors.Is(err, ErrUnsupportedProvider) {
		t.Errorf("ParseProvider(mistral) err = %v; want ErrUnsupportedProvider", err)
	}
	if ProviderGemini.Slug() != "gemini" {
		t.Errorf("Slug = %q", ProviderGemini.Slug())
	}
}
