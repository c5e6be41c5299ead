package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	t.Run("mock selects the keyword provider", func(t *testing.T) {
		provider, err := NewProvider(context.Background(), DefaultConfig(), nil)

		require.NoError(t, err)
		assert.IsType(t, &KeywordProvider{}, provider)
		assert.Equal(t, ProviderMock, provider.Name())
		assert.True(t, provider.IsAvailable())
	})

	t.Run("hosted provider without key", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider = ProviderOpenAI

		provider, err := NewProvider(context.Background(), cfg, nil)

		assert.Nil(t, provider)
		require.ErrorIs(t, err, ErrAPIKeyMissing)
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Provider = "llama"

		_, err := NewProvider(context.Background(), cfg, nil)

		require.ErrorIs(t, err, ErrUnsupportedProvider)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewProvider(context.Background(), nil, nil)

		require.ErrorIs(t, err, ErrProviderNotConfigured)
	})
}

func TestNewSummarizer(t *testing.T) {
	s, err := NewSummarizer(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, s.Name())

	cfg := DefaultConfig()
	cfg.Provider = ProviderGoogle
	_, err = NewSummarizer(context.Background(), cfg, nil)
	require.ErrorIs(t, err, ErrAPIKeyMissing)
	assert.Contains(t, err.Error(), "initialize")
}
