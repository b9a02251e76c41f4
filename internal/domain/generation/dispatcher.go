package generation

import "fmt"

// Dispatcher maps a provider tag to its adapter. The set is fixed at construction.
type Dispatcher struct {
	adapters map[Provider]Adapter
}

// NewDispatcher registers adapters under their own Provider tag. A later
// adapter for the same tag replaces an earlier one.
func NewDispatcher(adapters ...Adapter) *Dispatcher {
	m := make(map[Provider]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Dispatcher{adapters: m}
}

// Adapter returns the adapter registered for provider.
func (d *Dispatcher) Adapter(provider Provider) (Adapter, error) {
	a, ok := d.adapters[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no adapter registered for %q", ErrUnsupportedProvider, provider)
	}
	return a, nil
}

// Editor returns the provider's adapter when it supports image editing.
func (d *Dispatcher) Editor(provider Provider) (ImageEditor, error) {
	a, err := d.Adapter(provider)
	if err != nil {
		return nil, err
	}
	editor, ok := a.(ImageEditor)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support image editing", ErrUnsupportedProvider, provider)
	}
	return editor, nil
}
