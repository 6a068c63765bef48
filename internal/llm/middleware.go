package llm

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

const tracerName = "github.com/janhvi2806/washing-machine-bot/internal/llm"

type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// RateLimited bounds calls to next to perMinute requests per minute across
// all users. Callers wait for a token until their context ends. A
// non-positive perMinute disables limiting.
func RateLimited(next Generator, perMinute int) Generator {
	if perMinute <= 0 {
		return next
	}
	burst := perMinute / 6
	if burst < 1 {
		burst = 1
	}
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst),
	}
}

func (r *rateLimited) Name() string { return NameOf(r.next) }

func (r *rateLimited) Health(ctx context.Context) error { return probe(ctx, r.next) }

func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limit: %w", err)
	}
	return r.next.Generate(ctx, prompt)
}

type traced struct {
	next   Generator
	tracer trace.Tracer
}

// Traced wraps next with a client span per call using the global tracer provider.
func Traced(next Generator) Generator {
	return &traced{next: next, tracer: otel.Tracer(tracerName)}
}

func (t *traced) Name() string { return NameOf(t.next) }

func (t *traced) Health(ctx context.Context) error { return probe(ctx, t.next) }

func (t *traced) Generate(ctx context.Context, prompt string) (string, error) {
	ctx, span := t.tracer.Start(ctx, "llm.generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.backend", NameOf(t.next)),
			attribute.Int("llm.prompt_bytes", len(prompt)),
		),
	)
	defer span.End()

	text, err := t.next.Generate(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.Int("llm.response_bytes", len(text)))
	return text, nil
}
