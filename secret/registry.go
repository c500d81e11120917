package secret

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// ProviderFactory builds a Provider from a free-form config map.
type ProviderFactory func(cfg map[string]any) (Provider, error)

// Registry maps provider names to factories. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]ProviderFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]ProviderFactory{}}
}

// Register adds factory under name. Names are trimmed; a name may be
// registered once.
func (r *Registry) Register(name string, factory ProviderFactory) error {
	if name = strings.TrimSpace(name); name == "" || factory == nil {
		return ErrInvalidProvider
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.factories[name]; dup {
		return fmt.Errorf("%w: %q", ErrProviderExists, name)
	}
	r.factories[name] = factory
	return nil
}

// Create runs the factory registered under name.
func (r *Registry) Create(name string, cfg map[string]any) (Provider, error) {
	r.mu.RLock()
	factory := r.factories[strings.TrimSpace(name)]
	r.mu.RUnlock()
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrProviderNotRegistered, name)
	}
	return factory(cfg)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// RegisterBuiltins adds the "env" and "file" factories to r. The file
// factory reads an optional "dir" string from its config.
func RegisterBuiltins(r *Registry) error {
	err := r.Register("env", func(map[string]any) (Provider, error) {
		return NewEnvProvider(nil), nil
	})
	if err != nil {
		return err
	}
	return r.Register("file", func(cfg map[string]any) (Provider, error) {
		dir, _ := cfg["dir"].(string)
		return NewFileProvider(dir), nil
	})
}

// DefaultRegistry holds the built-in providers.
var DefaultRegistry = newDefaultRegistry()

func newDefaultRegistry() *Registry {
	r := NewRegistry()
	if err := RegisterBuiltins(r); err != nil {
		panic(err)
	}
	return r
}
