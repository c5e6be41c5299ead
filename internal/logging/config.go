// Package logging provides logging configuration types and utilities.
//
// This package defines the logging configuration used by the server and the
// CLI, the standard structured field names, a JSON formatter and a redaction
// service that keeps secrets and personal data out of log output and out of
// prompts sent to a language-model backend. It is a leaf dependency.
package logging

import (
	"crypto/rand"
	"encoding/hex"
)

// Log output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig holds all logging configuration.
//
// This configuration is passed via dependency injection throughout the
// application to avoid global state and enable better testing isolation.
type LogConfig struct {
	LogLevel      string
	Verbose       int    // -v, -vv support on the CLI
	LogFormat     string // "text" or "json"
	CorrelationID string // Unique ID for request correlation
	DisableRedact bool   // Only for local debugging; redaction is on by default
}

// GenerateCorrelationID creates a unique correlation ID for request tracing.
//
// Returns a 16 character hex-encoded string that can be used to correlate
// log entries across components for the same operation.
func GenerateCorrelationID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to a fixed ID if crypto/rand fails
		return "fallback-id"
	}
	return hex.EncodeToString(bytes)
}

// WithCorrelationID creates a new LogConfig with the specified correlation ID.
func (lc *LogConfig) WithCorrelationID(correlationID string) *LogConfig {
	if lc == nil {
		return &LogConfig{CorrelationID: correlationID}
	}

	newConfig := *lc
	newConfig.CorrelationID = correlationID
	return &newConfig
}
