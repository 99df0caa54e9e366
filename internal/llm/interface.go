package llm

import (
	"context"
	"time"
)

// Options shape a single generation request.
type Options struct {
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
}

// Generator is an interface for text-generation providers. The service uses
// it for location extraction, intent classification and place suggestions;
// which provider backs it is decided at construction time, never globally.
type Generator interface {
	// Generate sends a system prompt and a user prompt to the provider and
	// returns the trimmed completion text.
	Generate(ctx context.Context, system, prompt string, opts Options) (string, error)

	// Name returns the provider name
	Name() string
}

// Registry manages generators by provider name.
type Registry interface {
	// Register registers a generator
	Register(g Generator) error

	// Get retrieves a generator by name
	Get(name string) (Generator, error)

	// List returns all registered provider names
	List() []string
}
