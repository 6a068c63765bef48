package llm

import (
	"fmt"
	"log/slog"

	"github.com/janhvi2806/washing-machine-bot/internal/config"
)

// New builds the configured backend wrapped with rate limiting and tracing.
// It returns a nil Generator when the provider is "none", in which case the
// classifier relies on its keyword fallback. The returned cleanup func is
// never nil.
func New(cfg config.LLMConfig, logger *slog.Logger) (Generator, func(), error) {
	noop := func() {}

	var base Generator
	cleanup := noop
	switch cfg.Provider {
	case config.ProviderNone, "":
		return nil, noop, nil
	case config.ProviderOpenAI:
		g, err := NewOpenAIFromAPIKey(cfg.OpenAIKey, cfg.OpenAIModel)
		if err != nil {
			return nil, noop, err
		}
		base = g
	case config.ProviderAnthropic:
		g, err := NewAnthropicFromAPIKey(cfg.AnthropicKey, cfg.AnthropicModel)
		if err != nil {
			return nil, noop, err
		}
		base = g
	case config.ProviderGRPC:
		g, err := NewGRPC(DefaultGRPCConfig(cfg.GRPCAddr), logger)
		if err != nil {
			return nil, noop, err
		}
		base = g
		cleanup = g.Close
	default:
		return nil, noop, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	return Traced(RateLimited(base, cfg.RatePerMinute)), cleanup, nil
}
