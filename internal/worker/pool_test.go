package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTaskFailed = errors.New("task failed")

// funcTask adapts a function to the Task interface
type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (f *funcTask) Execute(ctx context.Context) error {
	if f.fn == nil {
		return nil
	}
	return f.fn(ctx)
}

func (f *funcTask) Name() string {
	return f.name
}

func newTestPool(tb testing.TB, workers, queueSize int) *Pool {
	tb.Helper()
	p, err := NewPool(workers, queueSize)
	require.NoError(tb, err)
	return p
}

func collect(t *testing.T, p *Pool, n int) map[string]Result {
	t.Helper()
	results := make(map[string]Result, n)
	timeout := time.After(2 * time.Second)
	for len(results) < n {
		select {
		case r := <-p.Results():
			results[r.TaskName] = r
		case <-timeout:
			t.Fatalf("timeout waiting for results, got %d/%d", len(results), n)
		}
	}
	return results
}

func TestNewPool(t *testing.T) {
	pool, err := NewPool(4, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, pool.workers)

	_, err = NewPool(0, 10)
	require.ErrorIs(t, err, ErrInvalidWorkers)

	_, err = NewPool(4, 0)
	require.ErrorIs(t, err, ErrInvalidQueueSize)

	_, err = NewPool(-1, 1)
	require.ErrorIs(t, err, ErrInvalidWorkers)
}

func TestPoolRunsBatch(t *testing.T) {
	pool := newTestPool(t, 3, 20)
	pool.Start(context.Background())
	defer pool.Shutdown()

	tasks := make([]Task, 0, 10)
	for i := 0; i < 10; i++ {
		tasks = append(tasks, &funcTask{name: fmt.Sprintf("task-%d", i)})
	}
	tasks = append(tasks, &funcTask{name: "failing", fn: func(context.Context) error { return errTaskFailed }})

	require.NoError(t, pool.SubmitBatch(tasks))
	results := collect(t, pool, len(tasks))

	for i := 0; i < 10; i++ {
		require.NoError(t, results[fmt.Sprintf("task-%d", i)].Error)
	}
	require.ErrorIs(t, results["failing"].Error, errTaskFailed)

	require.Eventually(t, func() bool {
		processed, active, queued := pool.Stats()
		return processed == int64(len(tasks)) && active == 0 && queued == 0
	}, time.Second, 5*time.Millisecond)
}

func TestPoolBoundsConcurrency(t *testing.T) {
	const workers = 2
	pool := newTestPool(t, workers, 20)
	pool.Start(context.Background())
	defer pool.Shutdown()

	var mu sync.Mutex
	current, peak := 0, 0
	for i := 0; i < 8; i++ {
		require.NoError(t, pool.Submit(&funcTask{name: fmt.Sprintf("t%d", i), fn: func(context.Context) error {
			mu.Lock()
			current++
			peak = max(peak, current)
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			current--
			mu.Unlock()
			return nil
		}}))
	}

	collect(t, pool, 8)
	assert.LessOrEqual(t, peak, workers)
}

func TestPoolQueueFull(t *testing.T) {
	pool := newTestPool(t, 1, 1)
	pool.Start(context.Background())
	defer pool.Shutdown()

	started, release := make(chan struct{}), make(chan struct{})
	require.NoError(t, pool.Submit(&funcTask{name: "blocking", fn: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	require.NoError(t, pool.Submit(&funcTask{name: "queued"}))
	require.ErrorIs(t, pool.Submit(&funcTask{name: "rejected"}), ErrTaskQueueFull)

	err := pool.SubmitBatch([]Task{&funcTask{name: "batch"}})
	require.ErrorIs(t, err, ErrTaskQueueFull)
	assert.Contains(t, err.Error(), "submit task 1 of 1")

	close(release)
	collect(t, pool, 2)
}

func TestPoolPanicRecovery(t *testing.T) {
	pool := newTestPool(t, 2, 10)
	pool.Start(context.Background())
	defer pool.Shutdown()

	require.NoError(t, pool.Submit(&funcTask{name: "panic", fn: func(context.Context) error { panic("boom") }}))
	require.NoError(t, pool.Submit(&funcTask{name: "normal"}))

	results := collect(t, pool, 2)
	require.ErrorIs(t, results["panic"].Error, ErrTaskPanicked)
	assert.Contains(t, results["panic"].Error.Error(), "boom")
	require.NoError(t, results["normal"].Error)
}

func TestPoolContextCancellation(t *testing.T) {
	pool := newTestPool(t, 1, 10)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)
	defer pool.Shutdown()

	started := make(chan struct{})
	require.NoError(t, pool.Submit(&funcTask{name: "waiting", fn: func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}}))
	require.NoError(t, pool.Submit(&funcTask{name: "never-run", fn: func(context.Context) error {
		t.Error("task must not run after cancellation")
		return nil
	}}))

	<-started
	cancel()

	results := collect(t, pool, 2)
	require.ErrorIs(t, results["waiting"].Error, context.Canceled)
	require.ErrorIs(t, results["never-run"].Error, context.Canceled)
}

func TestPoolShutdown(t *testing.T) {
	t.Run("submit after shutdown", func(t *testing.T) {
		pool := newTestPool(t, 2, 10)
		pool.Start(context.Background())
		pool.Shutdown()

		require.ErrorIs(t, pool.Submit(&funcTask{name: "late"}), ErrPoolShuttingDown)
		_, open := <-pool.Results()
		assert.False(t, open)
	})

	t.Run("double shutdown and shutdown before start", func(t *testing.T) {
		pool := newTestPool(t, 2, 10)
		assert.NotPanics(t, func() {
			pool.Shutdown()
			pool.Shutdown()
		})
	})

	t.Run("nil task", func(t *testing.T) {
		pool := newTestPool(t, 1, 1)
		require.ErrorIs(t, pool.Submit(nil), ErrNilTask)
	})

	t.Run("double start spawns one set of workers", func(t *testing.T) {
		pool := newTestPool(t, 2, 10)
		pool.Start(context.Background())
		pool.Start(context.Background())

		require.NoError(t, pool.Submit(&funcTask{name: "once"}))
		collect(t, pool, 1)
		pool.Shutdown()

		processed, _, _ := pool.Stats()
		assert.Equal(t, int64(1), processed)
	})
}

func TestPoolShutdownDoesNotDeadlockOnUnreadResults(t *testing.T) {
	pool := newTestPool(t, 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	for i := 0; i < 6; i++ {
		_ = pool.Submit(&funcTask{name: fmt.Sprintf("t%d", i)})
	}
	time.Sleep(50 * time.Millisecond)
	cancel()

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown deadlocked on a full results channel")
	}
}
