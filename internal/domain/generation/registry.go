package generation

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed models.yaml
var defaultModelTable []byte

type modelTable struct {
	Providers []struct {
		Name   string            `yaml:"name"`
		Models []ModelDescriptor `yaml:"models"`
	} `yaml:"providers"`
	EditModels []string `yaml:"edit_models"`
}

// Registry maps (provider, model id) to a modality. It is built once and
// never mutated afterwards, so it is safe for concurrent use.
type Registry struct {
	byProvider map[Provider][]ModelDescriptor
	index      map[Provider]map[string]ModelType
	editModels []string
}

// DefaultRegistry builds the registry from the embedded model table.
func DefaultRegistry() (*Registry, error) {
	return ParseRegistry(defaultModelTable)
}

// LoadRegistry reads a model table from path, or the embedded table when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model table: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry builds a registry from YAML. A model id registered twice under
// one provider is rejected, as is any type other than text or image.
func ParseRegistry(data []byte) (*Registry, error) {
	var table modelTable
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse model table: %w", err)
	}

	r := &Registry{
		byProvider: make(map[Provider][]ModelDescriptor),
		index:      make(map[Provider]map[string]ModelType),
	}
	for _, entry := range table.Providers {
		provider, err := ParseProvider(entry.Name)
		if err != nil {
			return nil, fmt.Errorf("model table: %w", err)
		}
		if r.index[provider] == nil {
			r.index[provider] = make(map[string]ModelType)
		}
		for _, m := range entry.Models {
			if m.ID == "" {
				return nil, fmt.Errorf("model table: empty model id under %s", provider)
			}
			if m.Type != ModelTypeText && m.Type != ModelTypeImage {
				return nil, fmt.Errorf("model table: %s/%s has unknown type %q", provider, m.ID, m.Type)
			}
			if _, dup := r.index[provider][m.ID]; dup {
				return nil, fmt.Errorf("model table: %s/%s registered twice", provider, m.ID)
			}
			m.Provider = provider
			r.index[provider][m.ID] = m.Type
			r.byProvider[provider] = append(r.byProvider[provider], m)
		}
	}

	r.editModels = slices.Clone(table.EditModels)
	slices.Sort(r.editModels)
	return r, nil
}

// ModelType returns the modality of a registered model.
func (r *Registry) ModelType(provider Provider, modelID string) (ModelType, error) {
	t, ok := r.index[provider][modelID]
	if !ok {
		return "", fmt.Errorf("%w: %q is not registered for %s", ErrUnsupportedModel, modelID, provider)
	}
	return t, nil
}

// Lookup returns the full descriptor of a registered model.
func (r *Registry) Lookup(provider Provider, modelID string) (ModelDescriptor, error) {
	t, err := r.ModelType(provider, modelID)
	if err != nil {
		return ModelDescriptor{}, err
	}
	return ModelDescriptor{Provider: provider, ID: modelID, Type: t}, nil
}

// ListModels returns the provider's models in table order. The slice is a copy.
func (r *Registry) ListModels(provider Provider) []ModelDescriptor {
	return slices.Clone(r.byProvider[provider])
}

// EditModels returns the sorted allow-list of edit-capable models.
func (r *Registry) EditModels() []string {
	return slices.Clone(r.editModels)
}

// IsEditModel reports whether model may be used for image edits.
func (r *Registry) IsEditModel(model string) bool {
	_, found := slices.BinarySearch(r.editModels, model)
	return found
}
