// Package env loads environment variables from .env files and parses typed values from the environment.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Env files read at startup, highest precedence first.
// Variables already present in the process environment always win.
const (
	localEnvFile = ".env.local"
	baseEnvFile  = ".env"
)

// LoadEnvFiles loads .env.local and .env from the working directory.
//
// Loading Strategy:
// 1. Real environment variables are never overwritten
// 2. .env.local (optional) - developer overrides, not committed
// 3. .env (optional) - project defaults
//
// Missing files are not an error; unreadable or malformed files are.
func LoadEnvFiles() error {
	return LoadEnvFilesFromDir(".")
}

// LoadEnvFilesFromDir loads the env files from a specific directory.
// This is useful for testing or when running from a different working directory.
func LoadEnvFilesFromDir(dir string) error {
	for _, name := range []string{localEnvFile, baseEnvFile} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// GetEnvWithFallback gets an environment variable with a fallback value.
// This is useful for configuration values that should have sensible defaults.
func GetEnvWithFallback(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// WarnFunc receives a message about an environment value that could not be parsed.
type WarnFunc func(format string, args ...interface{})

// Parser reads typed values from the environment, reporting bad values through Warn.
// A nil Warn silently falls back to defaults.
type Parser struct {
	Warn WarnFunc
}

func (p Parser) warn(format string, args ...interface{}) {
	if p.Warn != nil {
		p.Warn(format, args...)
	}
}

// String returns the value of key or the default.
func (p Parser) String(key, defaultValue string) string {
	return GetEnvWithFallback(key, defaultValue)
}

// Int parses key as an int with a default value.
func (p Parser) Int(key string, defaultValue int) int {
	value := GetEnvWithFallback(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		p.warn("config: invalid integer for %s=%q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// Float parses key as a float64 with a default value.
func (p Parser) Float(key string, defaultValue float64) float64 {
	value := GetEnvWithFallback(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.warn("config: invalid float for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// Bool parses key as a bool with a default value.
// Accepts the forms understood by strconv.ParseBool.
func (p Parser) Bool(key string, defaultValue bool) bool {
	value := GetEnvWithFallback(key, "")
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		p.warn("config: invalid boolean for %s=%q, using default %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

// Seconds parses key as a whole number of seconds.
// Go duration strings such as "1500ms" are accepted as well.
func (p Parser) Seconds(key string, defaultValue time.Duration) time.Duration {
	value := GetEnvWithFallback(key, "")
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	p.warn("config: invalid duration for %s=%q, using default %v", key, value, defaultValue)
	return defaultValue
}
