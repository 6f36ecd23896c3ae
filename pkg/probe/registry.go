package probe

import (
	"fmt"
	"sort"
	"sync"
)

// Factory creates a probe for a target.
type Factory func(Target) (Probe, error)

// Registry maps service types to probe factories.
//
// Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces the factory for a service type.
func (r *Registry) Register(serviceType string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories[serviceType] = factory
}

// New creates a probe for t using the factory registered for t.Type.
func (r *Registry) New(t Target) (Probe, error) {
	r.mu.RLock()
	factory, ok := r.factories[t.Type]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("service %q: %w: %q (supported: %v)", t.Name, ErrUnsupportedType, t.Type, r.Types())
	}

	p, err := factory(t)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s probe for %q: %w", t.Type, t.Name, err)
	}
	return p, nil
}

// Types returns the registered service types in sorted order.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.factories))
	for t := range r.factories {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
