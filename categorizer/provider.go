package categorizer

import (
	"context"

	"budgettracker/config"
)

// FromConfig builds the categorizer for the configured provider. Without a
// credential it uses the keyword table only. The returned close function
// releases the provider client.
func FromConfig(ctx context.Context, cfg *config.Config) (*Categorizer, func() error, error) {
	noop := func() error { return nil }

	if !cfg.CompletionEnabled() {
		return New(nil, ""), noop, nil
	}

	switch cfg.CategorizerProvider {
	case config.ProviderGemini:
		g, err := NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, err
		}
		return New(g, config.ProviderGemini), g.Close, nil
	default:
		o := NewOpenRouter(cfg.OpenRouterAPIKey, cfg.OpenRouterBaseURL, cfg.OpenRouterModel)
		return New(o, config.ProviderOpenRouter), noop, nil
	}
}
