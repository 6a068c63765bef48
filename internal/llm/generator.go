// Package llm provides the text-generation backends behind the intent
// classifier. Every backend turns one prompt into one text blob; none of them
// stream or retry.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a backend answers without any text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Generator produces a completion for a single prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Named is implemented by generators that can report which backend they are.
type Named interface {
	Name() string
}

// NameOf returns the backend name of g, or "unknown".
func NameOf(g Generator) string {
	if n, ok := g.(Named); ok {
		return n.Name()
	}
	return "unknown"
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// HealthChecker is implemented by backends that can probe their remote end.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// HealthCheck returns the health probe of g, or nil when g has none.
func HealthCheck(g Generator) func(ctx context.Context) error {
	if hc, ok := g.(HealthChecker); ok {
		return hc.Health
	}
	return nil
}

// probe forwards Health to next when next supports it.
func probe(ctx context.Context, next Generator) error {
	if hc, ok := next.(HealthChecker); ok {
		return hc.Health(ctx)
	}
	return nil
}
