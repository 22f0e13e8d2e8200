package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration. The returned
// provider is wrapped with logging and retry middleware. The credential
// is an explicit parameter of the construction path: a new provider is
// built whenever the active credential changes, never refreshed through
// hidden state.
func NewProvider(ctx context.Context, cfg Config, sink EventSink) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "anthropic":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → retry → logging → base
	wrapped := WithLogging(base, sink)
	return WithRetry(wrapped, cfg.Retry), nil
}

// NewProviderFromEnv builds a provider from TRIAMSOB_* env config,
// falling back to standard API key discovery.
func NewProviderFromEnv(ctx context.Context, sink EventSink) (Provider, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		if discovered, ok := DiscoverConfig(); ok {
			cfg = discovered
		} else {
			return nil, err
		}
	}
	return NewProvider(ctx, cfg, sink)
}
