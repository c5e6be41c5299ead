package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

// RetryConfig configures retry behavior for AI API calls.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (default: 3).
	MaxAttempts int

	// InitialDelay is the initial delay between retries (default: 1s).
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries (default: 10s).
	MaxDelay time.Duration

	// Multiplier is the delay multiplier for exponential backoff (default: 2.0).
	Multiplier float64
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     10 * time.Second,
		Multiplier:   2.0,
	}
}

// WithRetry wraps a backend call with retry logic.
// It uses exponential backoff for transient failures and gives up at once
// on errors isRetryableError rejects. When every attempt fails the last
// error is returned wrapped, so errors.Is still sees its cause.
func WithRetry[T any](
	ctx context.Context,
	cfg *RetryConfig,
	logger *logrus.Entry,
	call func(ctx context.Context, attempt int) (T, error),
) (T, error) {
	var zero T
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	maxAttempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	delay := cfg.InitialDelay

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result, err := call(ctx, attempt)
		if err == nil {
			if attempt > 1 && logger != nil {
				logger.WithField("attempt", attempt).Info("AI generation succeeded after retry")
			}
			return result, nil
		}

		lastErr = err

		// Don't retry if context is done
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if !isRetryableError(err) {
			if logger != nil {
				logger.WithError(err).Debug("Non-retryable AI error, failing immediately")
			}
			return zero, err
		}

		// Don't wait after last attempt
		if attempt == maxAttempts {
			break
		}

		if logger != nil {
			logger.WithFields(logrus.Fields{
				"attempt":     attempt,
				"maxAttempts": maxAttempts,
				"delay":       delay.String(),
				"error":       err.Error(),
			}).Warn("AI generation failed, retrying")
		}

		// Use NewTimer instead of time.After to avoid goroutine leak on context cancellation
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}

	return zero, fmt.Errorf("AI generation failed after %d attempts: %w", maxAttempts, lastErr)
}

// isRetryableError determines if an error warrants a retry.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	// A malformed answer is a property of the backend, asking again does not fix it.
	if errors.Is(err, appErrors.ErrBackendContract) {
		return false
	}

	if errors.Is(err, ErrGenerationTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, ErrAPIKeyMissing) || errors.Is(err, ErrProviderNotConfigured) ||
		errors.Is(err, ErrUnsupportedProvider) {
		return false
	}

	errStr := strings.ToLower(err.Error())

	// Rate limits
	if strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "too many requests") {
		return true
	}

	// Server errors
	if strings.Contains(errStr, "503") ||
		strings.Contains(errStr, "502") ||
		strings.Contains(errStr, "500") ||
		strings.Contains(errStr, "service unavailable") ||
		strings.Contains(errStr, "internal server error") {
		return true
	}

	// Timeouts
	if strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		return true
	}

	// Network errors
	if strings.Contains(errStr, "connection") ||
		strings.Contains(errStr, "network") ||
		strings.Contains(errStr, "temporary") ||
		strings.Contains(errStr, "eof") {
		return true
	}

	// Overloaded
	if strings.Contains(errStr, "overloaded") ||
		strings.Contains(errStr, "capacity") {
		return true
	}

	return false
}

// IsRetryableError is exported for testing.
func IsRetryableError(err error) bool {
	return isRetryableError(err)
}
