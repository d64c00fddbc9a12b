package codec

import (
	"fmt"
	"sort"
	"sync"

	"github.com/weftworks/loom/core"
)

// Factory creates an empty message for decoding. It must return a
// pointer so the payload codec can unmarshal into it.
type Factory func() core.Message

// Registry maps kind strings to message factories. Kinds are the
// tagged-variant discriminators carried in frame headers.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register binds a kind string to a factory. Registering the same kind
// twice is an error; decode behavior would depend on registration order
// otherwise.
func (r *Registry) Register(kind string, factory Factory) error {
	if kind == "" {
		return fmt.Errorf("cannot register empty kind")
	}
	if factory == nil {
		return fmt.Errorf("cannot register nil factory for kind %q", kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[kind]; exists {
		return fmt.Errorf("kind %q already registered", kind)
	}
	r.factories[kind] = factory
	return nil
}

// MustRegister is Register that panics on error, for package init use.
func (r *Registry) MustRegister(kind string, factory Factory) {
	if err := r.Register(kind, factory); err != nil {
		panic(err)
	}
}

// New creates an empty message for the given kind.
func (r *Registry) New(kind string) (core.Message, error) {
	r.mu.RLock()
	factory, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown message kind: %q", kind)
	}
	return factory(), nil
}

// Known checks whether a kind is registered.
func (r *Registry) Known(kind string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[kind]
	return ok
}

// Kinds returns all registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.factories))
	for k := range r.factories {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
