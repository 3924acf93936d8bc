package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration, wrapped with retry
// and request logging middleware.
func NewProvider(ctx context.Context, cfg Config, log RequestLog) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown model provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Middleware order: caller → retry → logging → base.
	logged := WithLogging(base, log)
	return WithRetry(logged, cfg.Retry), nil
}

// NewProviderFromEnv builds a Provider from KIELO_* env configuration,
// falling back to DiscoverConfig when no explicit provider is configured.
func NewProviderFromEnv(ctx context.Context, log RequestLog) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := DiscoverConfig()
		if !ok {
			return nil, err
		}
		cfg = discovered
	}
	return NewProvider(ctx, cfg, log)
}
