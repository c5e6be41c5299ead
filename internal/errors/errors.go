// Package errors defines the error taxonomy shared by every stage of the risk pipeline.
//
// Stages return errors wrapped around one of the sentinel values below so that
// callers (the API layer, the CLI) can classify a failure with errors.Is without
// depending on the stage that produced it.
package errors

import (
	"errors"
	"fmt"
)

// Pipeline failure classes.
var (
	// ErrValidation marks malformed or incomplete input. It is the caller's fault and never retried.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientData marks a record that passed adaptation but cannot be scored.
	ErrInsufficientData = errors.New("insufficient data for risk extraction")

	// ErrSummarizationTimeout marks a backend call that exceeded its deadline.
	ErrSummarizationTimeout = errors.New("summarization timed out")

	// ErrSummarizationUnavailable marks a backend that kept failing after the retry budget.
	ErrSummarizationUnavailable = errors.New("summarization backend unavailable")

	// ErrBackendContract marks a backend response that cannot be mapped to a summary.
	ErrBackendContract = errors.New("summarization backend contract violation")

	// ErrNotFound marks a lookup that found nothing.
	ErrNotFound = errors.New("not found")

	// ErrInvalidConfig marks a configuration value outside its allowed range.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Error templates for static error definitions (satisfies err113 linter)
var (
	errInvalidFieldTemplate  = errors.New("invalid field")
	errEmptyFieldTemplate    = errors.New("field cannot be empty")
	errRequiredFieldTemplate = errors.New("field is required")
	errFieldTooLongTemplate  = errors.New("field too long")
	errUnsafeInputTemplate   = errors.New("unsafe input")
)

// WrapWithContext wraps an error with operation context using consistent formatting.
func WrapWithContext(err error, operation string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("failed to %s: %w", operation, err)
}

// ValidationError creates a validation-class error for the given item.
//
// Example usage:
//
//	return ValidationError("pull request", "title is required")
//	// Returns: "validation failed for pull request: title is required"
func ValidationError(item, reason string) error {
	return fmt.Errorf("%w for %s: %s", ErrValidation, item, reason)
}

// InvalidFieldError creates a validation-class error for a field with a bad value.
func InvalidFieldError(field, value string) error {
	return fmt.Errorf("%w: %w: %s: %s", ErrValidation, errInvalidFieldTemplate, field, value)
}

// EmptyFieldError creates a validation-class error for a blank field.
func EmptyFieldError(field string) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, errEmptyFieldTemplate, field)
}

// RequiredFieldError creates a validation-class error for a missing field.
func RequiredFieldError(field string) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, errRequiredFieldTemplate, field)
}

// FieldTooLongError creates a validation-class error for an oversized field.
func FieldTooLongError(field string, limit int) error {
	return fmt.Errorf("%w: %w: %s exceeds %d characters", ErrValidation, errFieldTooLongTemplate, field, limit)
}

// UnsafeInputError creates a validation-class error for content rejected by the input safety check.
func UnsafeInputError(reason string) error {
	return fmt.Errorf("%w: %w: %s", ErrValidation, errUnsafeInputTemplate, reason)
}

// InsufficientDataError creates an extraction error naming what was missing.
func InsufficientDataError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInsufficientData, reason)
}

// ConfigError creates a standardized configuration error.
//
// Example usage:
//
//	return ConfigError("cache_ttl", "must be positive")
//	// Returns: "invalid configuration: cache_ttl: must be positive"
func ConfigError(field, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, reason)
}

// NotFoundError creates a lookup error for the given key.
func NotFoundError(kind, key string) error {
	return fmt.Errorf("%w: %s '%s'", ErrNotFound, kind, key)
}

// IsValidationClass reports whether err is the caller's fault (validation or insufficient data).
func IsValidationClass(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInsufficientData)
}

// IsBackendClass reports whether err came from the summarization backend.
func IsBackendClass(err error) bool {
	return errors.Is(err, ErrSummarizationTimeout) ||
		errors.Is(err, ErrSummarizationUnavailable) ||
		errors.Is(err, ErrBackendContract)
}
