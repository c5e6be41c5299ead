package ai

import (
	"fmt"
	"strings"
	"time"

	"github.com/mrz1836/compliance-copilot/internal/env"
)

// Config holds summarization backend configuration loaded from environment variables.
type Config struct {
	// Provider specifies which backend to use: "mock", "anthropic", "openai", or "google".
	Provider string

	// APIKey is the API key for the selected provider. Not needed for "mock".
	APIKey string

	// Model specifies which model to use (provider-specific defaults apply if empty).
	Model string

	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness. Zero keeps summaries as repeatable as the backend allows.
	Temperature float64

	// Timeout is the hard limit for a single backend attempt.
	Timeout time.Duration

	// MaskPII masks personal data in prompts before they leave the process (default: true).
	MaskPII bool

	// DiffMaxChars bounds the diff or description text placed in a prompt (default: 8000).
	DiffMaxChars int

	// DiffMaxLinesPerFile bounds the lines kept per file section of a diff (default: 80).
	DiffMaxLinesPerFile int

	// RetryMaxAttempts is the maximum number of attempts (default: 3).
	RetryMaxAttempts int

	// RetryInitialDelay is the initial delay between retries (default: 1s).
	RetryInitialDelay time.Duration

	// RetryMaxDelay is the maximum delay between retries (default: 10s).
	RetryMaxDelay time.Duration
}

// DefaultConfig returns the configuration used when no environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		Provider:            ProviderMock,
		Model:               GetDefaultModel(ProviderMock),
		MaxTokens:           1000,
		Temperature:         0,
		Timeout:             30 * time.Second,
		MaskPII:             true,
		DiffMaxChars:        8000,
		DiffMaxLinesPerFile: 80,
		RetryMaxAttempts:    3,
		RetryInitialDelay:   1 * time.Second,
		RetryMaxDelay:       10 * time.Second,
	}
}

// LoadConfig reads backend configuration from COPILOT_AI_* environment variables.
// Values that fail to parse are reported through p.Warn and replaced by defaults.
func LoadConfig(p env.Parser) *Config {
	d := DefaultConfig()

	cfg := &Config{
		Provider:    strings.ToLower(p.String("COPILOT_AI_PROVIDER", d.Provider)),
		APIKey:      p.String("COPILOT_AI_API_KEY", ""),
		Model:       p.String("COPILOT_AI_MODEL", ""),
		MaxTokens:   p.Int("COPILOT_AI_MAX_TOKENS", d.MaxTokens),
		Temperature: p.Float("COPILOT_AI_TEMPERATURE", d.Temperature),
		Timeout:     p.Seconds("COPILOT_AI_TIMEOUT", d.Timeout),
		MaskPII:     p.Bool("COPILOT_MASK_PII", d.MaskPII),

		DiffMaxChars:        p.Int("COPILOT_AI_DIFF_MAX_CHARS", d.DiffMaxChars),
		DiffMaxLinesPerFile: p.Int("COPILOT_AI_DIFF_MAX_LINES_PER_FILE", d.DiffMaxLinesPerFile),

		RetryMaxAttempts:  p.Int("COPILOT_AI_RETRY_MAX_ATTEMPTS", d.RetryMaxAttempts),
		RetryInitialDelay: p.Seconds("COPILOT_AI_RETRY_INITIAL_DELAY", d.RetryInitialDelay),
		RetryMaxDelay:     p.Seconds("COPILOT_AI_RETRY_MAX_DELAY", d.RetryMaxDelay),
	}

	// Fall back to provider-specific API key env vars if COPILOT_AI_API_KEY is not set
	if cfg.APIKey == "" {
		switch cfg.Provider {
		case ProviderAnthropic:
			cfg.APIKey = env.GetEnvWithFallback("ANTHROPIC_API_KEY", "")
		case ProviderOpenAI:
			cfg.APIKey = env.GetEnvWithFallback("OPENAI_API_KEY", "")
		case ProviderGoogle:
			cfg.APIKey = env.GetEnvWithFallback("GEMINI_API_KEY", "")
		}
	}

	if cfg.Model == "" {
		cfg.Model = GetDefaultModel(cfg.Provider)
	}

	return cfg
}

// RetryConfig derives the retry policy from the configuration.
func (c *Config) RetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  c.RetryMaxAttempts,
		InitialDelay: c.RetryInitialDelay,
		MaxDelay:     c.RetryMaxDelay,
		Multiplier:   2.0,
	}
}

// Validate checks that all configuration values are within valid bounds.
// Returns nil if configuration is valid, or an error describing the first invalid value found.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
		if c.APIKey == "" {
			return ConfigError("api_key", fmt.Sprintf("required for provider %q", c.Provider))
		}
	default:
		return ConfigError("provider", fmt.Sprintf("unsupported provider %q", c.Provider))
	}

	// 0.0 to 2.0 is valid for most providers
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return ConfigError("temperature", fmt.Sprintf("%v must be between 0.0 and 2.0", c.Temperature))
	}

	if c.MaxTokens <= 0 {
		return ConfigError("max_tokens", fmt.Sprintf("%d must be positive", c.MaxTokens))
	}

	if c.Timeout <= 0 {
		return ConfigError("timeout", fmt.Sprintf("%v must be positive", c.Timeout))
	}

	if c.DiffMaxChars <= 0 {
		return ConfigError("diff_max_chars", fmt.Sprintf("%d must be positive", c.DiffMaxChars))
	}

	if c.DiffMaxLinesPerFile <= 0 {
		return ConfigError("diff_max_lines_per_file", fmt.Sprintf("%d must be positive", c.DiffMaxLinesPerFile))
	}

	if c.RetryMaxAttempts <= 0 {
		return ConfigError("retry_max_attempts", fmt.Sprintf("%d must be positive", c.RetryMaxAttempts))
	}

	if c.RetryInitialDelay <= 0 {
		return ConfigError("retry_initial_delay", fmt.Sprintf("%v must be positive", c.RetryInitialDelay))
	}

	if c.RetryMaxDelay < c.RetryInitialDelay {
		return ConfigError("retry_max_delay", fmt.Sprintf("%v must be >= retry_initial_delay (%v)", c.RetryMaxDelay, c.RetryInitialDelay))
	}

	return nil
}
