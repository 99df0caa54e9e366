package llm

import (
	"fmt"
	"sync"
)

// registry implements Registry
type registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

// NewRegistry creates a new generator registry
func NewRegistry() Registry {
	return &registry{
		generators: make(map[string]Generator),
	}
}

// Register registers a generator
func (r *registry) Register(g Generator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := g.Name()
	if _, exists := r.generators[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}

	r.generators[name] = g
	return nil
}

// Get retrieves a generator by name
func (r *registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, exists := r.generators[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}

	return g, nil
}

// List returns all registered provider names
func (r *registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}
