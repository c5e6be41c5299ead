package ai

import (
	"context"

	"github.com/sirupsen/logrus"
)

// NewProvider creates an AI provider based on the configuration.
// "mock" selects the offline KeywordProvider; anthropic, openai and google
// are served through Genkit and need an API key.
func NewProvider(ctx context.Context, cfg *Config, logger *logrus.Entry) (Provider, error) {
	if cfg == nil {
		return nil, ErrProviderNotConfigured
	}

	switch cfg.Provider {
	case ProviderMock:
		return NewKeywordProvider(), nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
		if cfg.APIKey == "" {
			return nil, ErrAPIKeyMissing
		}
		return NewGenkitProvider(ctx, cfg, logger)
	default:
		return nil, ErrUnsupportedProvider
	}
}

// NewSummarizer creates the provider for cfg and wraps it in a ProviderSummarizer.
func NewSummarizer(ctx context.Context, cfg *Config, logger *logrus.Entry) (Summarizer, error) {
	if cfg == nil {
		return nil, ErrProviderNotConfigured
	}
	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, ProviderError(cfg.Provider, "initialize", err)
	}
	return NewProviderSummarizer(provider, cfg, logger), nil
}
