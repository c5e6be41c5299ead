package ai

import (
	"errors"
	"fmt"
)

// Error templates for AI operations.
var (
	errAIGenerationTemplate = errors.New("AI generation failed")
	errAIProviderTemplate   = errors.New("AI provider error")
	errAIConfigTemplate     = errors.New("AI configuration error")
)

// Sentinel errors for AI operations.
var (
	ErrProviderNotConfigured = errors.New("AI provider not configured")
	ErrAPIKeyMissing         = errors.New("AI API key not provided")
	ErrUnsupportedProvider   = errors.New("unsupported AI provider")
	ErrGenerationTimeout     = errors.New("AI generation timed out")
	ErrEmptyResponse         = errors.New("AI returned empty response")
	// ErrInvalidFormat indicates the response could not be read as a risk summary.
	ErrInvalidFormat = errors.New("AI response was in invalid format")
)

// GenerationError creates a standardized AI generation error.
//
// Example usage:
//
//	return GenerationError("anthropic", "risk summary", err)
//	// Returns: "AI generation failed: anthropic 'risk summary': <original error>"
func GenerationError(provider, context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", errAIGenerationTemplate, provider, context, err)
}

// ProviderError creates a standardized AI provider error.
//
// Example usage:
//
//	return ProviderError("anthropic", "initialize", err)
//	// Returns: "AI provider error: anthropic 'initialize': <original error>"
func ProviderError(provider, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s '%s': %w", errAIProviderTemplate, provider, operation, err)
}

// ConfigError creates a standardized AI configuration error.
//
// Example usage:
//
//	return ConfigError("temperature", "must be between 0.0 and 2.0")
//	// Returns: "AI configuration error: temperature: must be between 0.0 and 2.0"
func ConfigError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", errAIConfigTemplate, field, reason)
}

// IsConfigError reports whether err was created by ConfigError.
func IsConfigError(err error) bool {
	return errors.Is(err, errAIConfigTemplate)
}
