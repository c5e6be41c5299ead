package errors //nolint:revive,nolintlint // internal test package, name conflict intentional

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTest = errors.New("test error")

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrValidation", ErrValidation, "validation failed"},
		{"ErrInsufficientData", ErrInsufficientData, "insufficient data for risk extraction"},
		{"ErrSummarizationTimeout", ErrSummarizationTimeout, "summarization timed out"},
		{"ErrSummarizationUnavailable", ErrSummarizationUnavailable, "summarization backend unavailable"},
		{"ErrBackendContract", ErrBackendContract, "summarization backend contract violation"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrInvalidConfig", ErrInvalidConfig, "invalid configuration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.err)
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestValidationHelpersWrapErrValidation(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		contains string
	}{
		{"ValidationError", ValidationError("pull request", "title is required"), "validation failed for pull request: title is required"},
		{"InvalidFieldError", InvalidFieldError("source_kind", "WIKI"), "source_kind: WIKI"},
		{"EmptyFieldError", EmptyFieldError("title"), "field cannot be empty: title"},
		{"RequiredFieldError", RequiredFieldError("diff"), "field is required: diff"},
		{"FieldTooLongError", FieldTooLongError("body", 10000), "body exceeds 10000 characters"},
		{"UnsafeInputError", UnsafeInputError("potential XSS attempt detected"), "unsafe input: potential XSS attempt detected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.err, ErrValidation)
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.True(t, IsValidationClass(tt.err))
			assert.False(t, IsBackendClass(tt.err))
		})
	}
}

func TestInsufficientDataError(t *testing.T) {
	err := InsufficientDataError("record has no title")

	require.ErrorIs(t, err, ErrInsufficientData)
	assert.True(t, IsValidationClass(err))
	assert.Equal(t, "insufficient data for risk extraction: record has no title", err.Error())
}

func TestIsBackendClass(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"timeout", fmt.Errorf("attempt 3: %w", ErrSummarizationTimeout), true},
		{"unavailable", fmt.Errorf("mock: %w", ErrSummarizationUnavailable), true},
		{"contract", fmt.Errorf("unknown level: %w", ErrBackendContract), true},
		{"validation", ErrValidation, false},
		{"plain", errTest, false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBackendClass(tt.err))
		})
	}
}

func TestWrapWithContext(t *testing.T) {
	require.NoError(t, WrapWithContext(nil, "open store"))

	err := WrapWithContext(errTest, "open store")
	require.ErrorIs(t, err, errTest)
	assert.Equal(t, "failed to open store: test error", err.Error())
}

func TestConfigAndNotFoundErrors(t *testing.T) {
	cfgErr := ConfigError("cache_ttl", "must be positive")
	require.ErrorIs(t, cfgErr, ErrInvalidConfig)
	assert.Equal(t, "invalid configuration: cache_ttl: must be positive", cfgErr.Error())

	nf := NotFoundError("fingerprint", "abc123")
	require.ErrorIs(t, nf, ErrNotFound)
	assert.False(t, errors.Is(nf, ErrValidation))
	assert.Equal(t, "not found: fingerprint 'abc123'", nf.Error())
}
