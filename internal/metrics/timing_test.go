package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrz1836/compliance-copilot/internal/logging"
)

var errBackendDown = errors.New("backend down")

func newHookedLogger() (*logrus.Entry, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return logrus.NewEntry(logger), hook
}

func TestStartTimer(t *testing.T) {
	entry, _ := newHookedLogger()
	timer := StartTimer(context.Background(), entry.WithField("existing", "value"), "analyze")

	assert.Equal(t, "analyze", timer.operation)
	assert.Equal(t, DefaultSlowOperationThreshold, timer.threshold)
	assert.Equal(t, "analyze", timer.logger.Data[logging.StandardFields.Operation])
	assert.Equal(t, "value", timer.logger.Data["existing"])
	assert.False(t, timer.start.IsZero())
}

func TestStartTimer_NilArguments(t *testing.T) {
	//nolint:staticcheck // nil context is tolerated on purpose
	timer := StartTimer(nil, nil, "nil_safe")

	require.NotNil(t, timer.logger)
	assert.False(t, timer.CheckCancellation())
	assert.GreaterOrEqual(t, timer.Stop(), time.Duration(0))
}

func TestTimer_Stop(t *testing.T) {
	entry, hook := newHookedLogger()

	StartTimer(context.Background(), entry, "score").AddField("identifier", "DOC-7").Stop()

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.DebugLevel, last.Level)
	assert.Equal(t, "Operation completed", last.Message)
	assert.Equal(t, "DOC-7", last.Data["identifier"])
	assert.Contains(t, last.Data, logging.StandardFields.DurationMs)
	assert.Contains(t, last.Data, "duration_human")
}

func TestTimer_SlowOperation(t *testing.T) {
	entry, hook := newHookedLogger()

	timer := StartTimer(context.Background(), entry, "summarize").WithThreshold(time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	timer.Stop()

	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Operation took longer than expected", hook.LastEntry().Message)
}

func TestTimer_WithThresholdIgnoresNonPositive(t *testing.T) {
	entry, _ := newHookedLogger()
	timer := StartTimer(context.Background(), entry, "x").WithThreshold(0)

	assert.Equal(t, DefaultSlowOperationThreshold, timer.threshold)
}

func TestTimer_StopWithError(t *testing.T) {
	t.Run("failure", func(t *testing.T) {
		entry, hook := newHookedLogger()

		StartTimer(context.Background(), entry, "summarize").StopWithError(errBackendDown)

		last := hook.LastEntry()
		assert.Equal(t, logrus.ErrorLevel, last.Level)
		assert.Equal(t, "backend down", last.Data[logging.StandardFields.Error])
		assert.Equal(t, "failed", last.Data[logging.StandardFields.Status])
	})

	t.Run("success", func(t *testing.T) {
		entry, hook := newHookedLogger()

		StartTimer(context.Background(), entry, "summarize").StopWithError(nil)

		last := hook.LastEntry()
		assert.Equal(t, logrus.DebugLevel, last.Level)
		assert.Equal(t, "completed", last.Data[logging.StandardFields.Status])
	})
}

func TestTimer_CheckCancellation(t *testing.T) {
	entry, _ := newHookedLogger()
	ctx, cancel := context.WithCancel(context.Background())
	timer := StartTimer(ctx, entry, "batch")

	assert.False(t, timer.CheckCancellation())
	cancel()
	assert.True(t, timer.CheckCancellation())
}

func TestTimer_GetElapsed(t *testing.T) {
	entry, hook := newHookedLogger()
	timer := StartTimer(context.Background(), entry, "x")

	time.Sleep(2 * time.Millisecond)

	assert.GreaterOrEqual(t, timer.GetElapsed(), 2*time.Millisecond)
	assert.Empty(t, hook.AllEntries(), "GetElapsed does not log")
}
