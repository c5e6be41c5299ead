package ai

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTestGeneration = errors.New("generation failed")

func TestGenerationError_Helpers(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, GenerationError("anthropic", "test", nil))
	})

	t.Run("wraps error", func(t *testing.T) {
		t.Parallel()
		err := GenerationError("anthropic", "risk summary", errTestGeneration)
		require.Error(t, err)
		require.ErrorIs(t, err, errAIGenerationTemplate)
		require.ErrorIs(t, err, errTestGeneration)
		assert.Equal(t, "AI generation failed: anthropic 'risk summary': generation failed", err.Error())
	})
}

func TestProviderError_Helpers(t *testing.T) {
	t.Parallel()

	t.Run("nil error returns nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ProviderError("anthropic", "init", nil))
	})

	t.Run("wraps error", func(t *testing.T) {
		t.Parallel()
		err := ProviderError("openai", "connect", errTestGeneration)
		require.Error(t, err)
		require.ErrorIs(t, err, errAIProviderTemplate)
		assert.Contains(t, err.Error(), "openai")
		assert.Contains(t, err.Error(), "connect")
	})
}

func TestConfigError_Helpers(t *testing.T) {
	t.Parallel()

	err := ConfigError("temperature", "must be between 0.0 and 2.0")
	require.Error(t, err)
	require.ErrorIs(t, err, errAIConfigTemplate)
	assert.Equal(t, "AI configuration error: temperature: must be between 0.0 and 2.0", err.Error())
	assert.True(t, IsConfigError(err))
	assert.True(t, IsConfigError(fmt.Errorf("load: %w", err)))
	assert.False(t, IsConfigError(ErrAPIKeyMissing))
	assert.False(t, IsConfigError(nil))
}
