// Package metrics provides operation timing logs and the Prometheus
// collectors of the service.
//
// Timing usage:
//
//	timer := metrics.StartTimer(ctx, logger, "analyze").
//	  AddField("identifier", rec.Identifier())
//	defer timer.Stop()
//
// Timer.Stop() or Timer.StopWithError() should always be called to
// complete the measurement.
package metrics

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/logging"
)

// DefaultSlowOperationThreshold is the duration above which an operation is logged as slow.
const DefaultSlowOperationThreshold = 30 * time.Second

// Timer tracks the duration of an operation with support for additional metadata.
type Timer struct {
	start     time.Time
	operation string
	threshold time.Duration
	logger    *logrus.Entry
	fields    logrus.Fields
	ctx       context.Context //nolint:containedctx // Context needed for cancellation checks during timer lifecycle
}

// StartTimer creates a new timer for an operation.
//
// The timer starts immediately. A nil logger falls back to the standard
// logger and a nil context to context.Background().
func StartTimer(ctx context.Context, logger *logrus.Entry, operation string) *Timer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if ctx == nil { //nolint:staticcheck // tolerate nil for callers outside a request
		ctx = context.Background()
	}

	return &Timer{
		start:     time.Now(),
		operation: operation,
		threshold: DefaultSlowOperationThreshold,
		logger:    logger.WithField(logging.StandardFields.Operation, operation),
		fields:    make(logrus.Fields),
		ctx:       ctx,
	}
}

// WithThreshold sets the slow-operation threshold.
func (t *Timer) WithThreshold(threshold time.Duration) *Timer {
	if threshold > 0 {
		t.threshold = threshold
	}
	return t
}

// AddField adds a field to be logged when the timer stops.
// Method chaining is supported for multiple field assignments.
func (t *Timer) AddField(key string, value interface{}) *Timer {
	t.fields[key] = value
	return t
}

// Stop stops the timer and logs the duration.
//
// Operations slower than the threshold log at WARN, others at DEBUG. All
// entries carry duration_ms and duration_human.
func (t *Timer) Stop() time.Duration {
	duration := time.Since(t.start)
	t.addDuration(duration)

	if duration > t.threshold {
		t.logger.WithFields(t.fields).Warn("Operation took longer than expected")
	} else {
		t.logger.WithFields(t.fields).Debug("Operation completed")
	}

	return duration
}

// StopWithError stops the timer and logs the duration with error context.
// Failed operations log at ERROR.
func (t *Timer) StopWithError(err error) time.Duration {
	duration := time.Since(t.start)
	t.addDuration(duration)

	if err != nil {
		t.fields[logging.StandardFields.Error] = err.Error()
		t.fields[logging.StandardFields.Status] = "failed"
		t.logger.WithFields(t.fields).Error("Operation failed")
		return duration
	}

	t.fields[logging.StandardFields.Status] = "completed"
	if duration > t.threshold {
		t.logger.WithFields(t.fields).Warn("Operation completed but took longer than expected")
	} else {
		t.logger.WithFields(t.fields).Debug("Operation completed successfully")
	}

	return duration
}

func (t *Timer) addDuration(d time.Duration) {
	t.fields[logging.StandardFields.DurationMs] = d.Milliseconds()
	t.fields["duration_human"] = d.String()
}

// CheckCancellation reports whether the operation context has been canceled.
func (t *Timer) CheckCancellation() bool {
	select {
	case <-t.ctx.Done():
		return true
	default:
		return false
	}
}

// GetElapsed returns the current elapsed time without stopping the timer.
func (t *Timer) GetElapsed() time.Duration {
	return time.Since(t.start)
}
