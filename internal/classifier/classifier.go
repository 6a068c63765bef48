// Package classifier turns a user message and recent history into a
// support decision, using a language model when available and fixed keyword
// rules otherwise.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/llm"
)

const (
	tracerName     = "github.com/janhvi2806/washing-machine-bot/internal/classifier"
	DefaultTimeout = 15 * time.Second
)

// Classifier produces a Decision for every message. It never returns an error.
type Classifier struct {
	gen     llm.Generator
	decoder *decoder
	timeout time.Duration
	logger  *slog.Logger
	tracer  trace.Tracer
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithTimeout bounds each backend call.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Classifier) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a classifier. A nil generator means every message goes
// through the keyword fallback.
func New(gen llm.Generator, opts ...Option) (*Classifier, error) {
	dec, err := newDecoder()
	if err != nil {
		return nil, fmt.Errorf("create classifier: %w", err)
	}
	c := &Classifier{
		gen:     gen,
		decoder: dec,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Classify returns the decision for message given the recent history.
func (c *Classifier) Classify(ctx context.Context, message string, history []domain.Turn) domain.Decision {
	ctx, span := c.tracer.Start(ctx, "classifier.classify")
	defer span.End()

	if c.gen == nil {
		d := Fallback(message)
		span.SetAttributes(attribute.String("decision.source", string(d.Source)))
		return d
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.Generate(callCtx, BuildPrompt(message, history))
	if err != nil {
		c.logger.Warn("classifier backend failed, using fallback",
			"backend", llm.NameOf(c.gen),
			"error", err)
		return c.fallback(span, message, "backend_error")
	}

	d, err := c.decoder.Decode(raw)
	if err != nil {
		c.logger.Warn("classifier response rejected, using fallback",
			"backend", llm.NameOf(c.gen),
			"error", err,
			"raw_len", len(raw))
		c.logger.Debug("rejected classifier response", "raw", raw)
		return c.fallback(span, message, "invalid_response")
	}

	span.SetAttributes(
		attribute.String("decision.source", string(d.Source)),
		attribute.String("decision.action", string(d.Action)),
	)
	return d
}

func (c *Classifier) fallback(span trace.Span, message, reason string) domain.Decision {
	d := Fallback(message)
	span.SetAttributes(
		attribute.String("decision.source", string(d.Source)),
		attribute.String("decision.fallback_reason", reason),
		attribute.String("decision.action", string(d.Action)),
	)
	return d
}
