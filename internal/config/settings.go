// Package config assembles the service settings from the environment.
//
// Settings are built once at startup and handed to constructors; nothing in
// the service reads the environment after that.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/mrz1836/compliance-copilot/internal/ai"
	"github.com/mrz1836/compliance-copilot/internal/env"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

// Environment names accepted by COPILOT_ENVIRONMENT.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Settings holds every runtime setting of the service.
type Settings struct {
	AppName     string
	Environment string

	Host string
	Port int

	LogLevel  string
	LogFormat string

	// Input limits applied by the source adapters
	MaxInputLength int
	StrictInput    bool

	EnableCORS         bool
	EnableRateLimiting bool
	RateLimitPerMinute int
	RequestTimeout     time.Duration

	CacheTTL     time.Duration
	CacheMaxSize int

	// ScoringFile is an optional YAML file overriding the embedded scoring defaults.
	ScoringFile string

	// StorePath is the SQLite database path; ":memory:" keeps summaries for the process lifetime only.
	StorePath string

	BatchWorkers int

	AI *ai.Config
}

// Defaults returns the settings used when the environment is empty.
func Defaults() *Settings {
	return &Settings{
		AppName:            "Compliance Copilot",
		Environment:        EnvDevelopment,
		Host:               "0.0.0.0",
		Port:               8000,
		LogLevel:           "info",
		LogFormat:          logging.FormatJSON,
		MaxInputLength:     50000,
		StrictInput:        true,
		EnableCORS:         true,
		EnableRateLimiting: false,
		RateLimitPerMinute: 60,
		RequestTimeout:     30 * time.Second,
		CacheTTL:           time.Hour,
		CacheMaxSize:       1000,
		StorePath:          ":memory:",
		BatchWorkers:       4,
		AI:                 ai.DefaultConfig(),
	}
}

// Load reads COPILOT_* variables on top of Defaults.
// Unparsable values are reported through warn and replaced by their default.
func Load(warn env.WarnFunc) *Settings {
	p := env.Parser{Warn: warn}
	d := Defaults()

	return &Settings{
		AppName:            p.String("COPILOT_APP_NAME", d.AppName),
		Environment:        p.String("COPILOT_ENVIRONMENT", d.Environment),
		Host:               p.String("COPILOT_HOST", d.Host),
		Port:               p.Int("COPILOT_PORT", d.Port),
		LogLevel:           p.String("COPILOT_LOG_LEVEL", d.LogLevel),
		LogFormat:          p.String("COPILOT_LOG_FORMAT", d.LogFormat),
		MaxInputLength:     p.Int("COPILOT_MAX_INPUT_LENGTH", d.MaxInputLength),
		StrictInput:        p.Bool("COPILOT_STRICT_INPUT", d.StrictInput),
		EnableCORS:         p.Bool("COPILOT_ENABLE_CORS", d.EnableCORS),
		EnableRateLimiting: p.Bool("COPILOT_ENABLE_RATE_LIMITING", d.EnableRateLimiting),
		RateLimitPerMinute: p.Int("COPILOT_RATE_LIMIT_PER_MINUTE", d.RateLimitPerMinute),
		RequestTimeout:     p.Seconds("COPILOT_REQUEST_TIMEOUT", d.RequestTimeout),
		CacheTTL:           p.Seconds("COPILOT_CACHE_TTL", d.CacheTTL),
		CacheMaxSize:       p.Int("COPILOT_CACHE_MAX_SIZE", d.CacheMaxSize),
		ScoringFile:        p.String("COPILOT_SCORING_FILE", d.ScoringFile),
		StorePath:          p.String("COPILOT_STORE_PATH", d.StorePath),
		BatchWorkers:       p.Int("COPILOT_BATCH_WORKERS", d.BatchWorkers),
		AI:                 ai.LoadConfig(p),
	}
}

// Validate checks that all settings are within valid bounds.
// Returns the first invalid value found.
func (s *Settings) Validate() error {
	switch s.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		return appErrors.ConfigError("environment", fmt.Sprintf("unsupported environment %q", s.Environment))
	}

	if s.Port < 1 || s.Port > 65535 {
		return appErrors.ConfigError("port", fmt.Sprintf("%d must be between 1 and 65535", s.Port))
	}

	if s.LogFormat != logging.FormatJSON && s.LogFormat != logging.FormatText {
		return appErrors.ConfigError("log_format", fmt.Sprintf("%q must be %q or %q", s.LogFormat, logging.FormatJSON, logging.FormatText))
	}

	if s.MaxInputLength <= 0 {
		return appErrors.ConfigError("max_input_length", fmt.Sprintf("%d must be positive", s.MaxInputLength))
	}

	if s.EnableRateLimiting && s.RateLimitPerMinute <= 0 {
		return appErrors.ConfigError("rate_limit_per_minute", fmt.Sprintf("%d must be positive when rate limiting is enabled", s.RateLimitPerMinute))
	}

	if s.RequestTimeout <= 0 {
		return appErrors.ConfigError("request_timeout", fmt.Sprintf("%v must be positive", s.RequestTimeout))
	}

	if s.CacheTTL <= 0 {
		return appErrors.ConfigError("cache_ttl", fmt.Sprintf("%v must be positive", s.CacheTTL))
	}

	if s.CacheMaxSize <= 0 {
		return appErrors.ConfigError("cache_max_size", fmt.Sprintf("%d must be positive", s.CacheMaxSize))
	}

	if s.StorePath == "" {
		return appErrors.ConfigError("store_path", "cannot be empty")
	}

	if s.BatchWorkers <= 0 {
		return appErrors.ConfigError("batch_workers", fmt.Sprintf("%d must be positive", s.BatchWorkers))
	}

	if s.AI == nil {
		return appErrors.ConfigError("ai", "missing backend configuration")
	}
	if err := s.AI.Validate(); err != nil {
		if ai.IsConfigError(err) {
			return fmt.Errorf("%w: %w", appErrors.ErrInvalidConfig, err)
		}
		return err
	}

	return nil
}

// Addr returns the host:port the server listens on.
func (s *Settings) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// IsProduction reports whether the service runs in production mode.
func (s *Settings) IsProduction() bool {
	return s.Environment == EnvProduction
}

// LogConfig derives the logging configuration from the settings.
func (s *Settings) LogConfig() *logging.LogConfig {
	return &logging.LogConfig{
		LogLevel:  s.LogLevel,
		LogFormat: s.LogFormat,
	}
}

// Scoring loads the scoring configuration: the embedded defaults, or ScoringFile when set.
func (s *Settings) Scoring() (*risk.ScoringConfig, error) {
	if s.ScoringFile == "" {
		return risk.DefaultScoringConfig(), nil
	}
	return risk.LoadScoringConfig(s.ScoringFile)
}
