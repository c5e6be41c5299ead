// Package ai turns a scored record into a written risk summary.
//
// It holds the language-model side of the pipeline: the Provider
// abstraction (Genkit-backed models and an offline keyword backend), the
// risk prompt, the response parser, and the Orchestrator that enforces
// per-attempt timeouts, bounded retries and the response contract.
package ai

import (
	"context"
	"time"
)

// Provider defines the interface for AI text generation services.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic", "openai", "google", "mock").
	Name() string

	// GenerateText generates text based on the given prompt.
	// Returns an error if generation fails or times out.
	GenerateText(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// IsAvailable checks if the provider is properly configured and ready.
	IsAvailable() bool
}

// TemperatureNotSet is a sentinel value indicating temperature should use provider default.
// Use this value in GenerateRequest.Temperature to defer to Config.Temperature.
const TemperatureNotSet float64 = -1.0

// GenerateRequest contains the input for text generation.
type GenerateRequest struct {
	// Prompt is the full text prompt to send to the AI.
	Prompt string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0-2.0).
	// Use TemperatureNotSet (-1.0) to use the provider's default.
	// Zero (0.0) is a valid temperature value (most deterministic).
	Temperature float64
}

// GenerateResponse contains the AI-generated output.
type GenerateResponse struct {
	// Content is the generated text.
	Content string

	// TokensUsed is the number of tokens consumed.
	TokensUsed int

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Duration is the time taken for generation.
	Duration time.Duration
}

// ProviderName constants for supported AI providers.
const (
	ProviderMock      = "mock"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGoogle    = "google"
)

// GetDefaultModel returns the default model for the given provider.
func GetDefaultModel(provider string) string {
	switch provider {
	case ProviderMock:
		return "keyword-v1"
	case ProviderAnthropic:
		return "claude-sonnet-4-20250514"
	case ProviderOpenAI:
		return "gpt-4o"
	case ProviderGoogle:
		return "gemini-2.5-flash"
	default:
		return ""
	}
}
