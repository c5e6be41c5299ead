// Package worker provides a bounded worker pool for running tasks concurrently.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Worker pool errors
var (
	ErrPoolShuttingDown = errors.New("pool is shutting down")
	ErrTaskQueueFull    = errors.New("task queue is full")
	ErrTaskPanicked     = errors.New("task panicked")
	ErrNilTask          = errors.New("task is nil")
	ErrInvalidWorkers   = errors.New("workers must be at least 1")
	ErrInvalidQueueSize = errors.New("queue size must be at least 1")
)

// Task represents a unit of work
type Task interface {
	Execute(ctx context.Context) error
	Name() string
}

// Result wraps task execution results
type Result struct {
	TaskName string
	Error    error
	Duration time.Duration
}

// Pool manages a pool of workers.
//
// Results are buffered up to the queue size; callers must drain Results()
// or cancel the context passed to Start, otherwise workers block.
type Pool struct {
	workers   int
	taskQueue chan Task
	results   chan Result
	wg        sync.WaitGroup

	mu       sync.RWMutex
	closed   bool
	started  atomic.Bool
	shutdown sync.Once

	// Metrics
	tasksProcessed atomic.Int64
	tasksActive    atomic.Int32
}

// NewPool creates a new worker pool
func NewPool(workers, queueSize int) (*Pool, error) {
	if workers < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWorkers, workers)
	}
	if queueSize < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQueueSize, queueSize)
	}

	return &Pool{
		workers:   workers,
		taskQueue: make(chan Task, queueSize),
		results:   make(chan Result, queueSize),
	}, nil
}

// Start begins processing tasks. Calling Start again is a no-op.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Submit adds a task to the queue without blocking.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return ErrNilTask
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPoolShuttingDown
	}

	select {
	case p.taskQueue <- task:
		return nil
	default:
		return ErrTaskQueueFull
	}
}

// SubmitBatch submits multiple tasks, stopping at the first failure.
func (p *Pool) SubmitBatch(tasks []Task) error {
	for i, task := range tasks {
		if err := p.Submit(task); err != nil {
			return fmt.Errorf("submit task %d of %d: %w", i+1, len(tasks), err)
		}
	}
	return nil
}

// Results returns the results channel
func (p *Pool) Results() <-chan Result {
	return p.results
}

// Shutdown stops accepting tasks, waits for queued tasks to finish and
// closes the results channel. Safe to call more than once.
func (p *Pool) Shutdown() {
	p.shutdown.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.taskQueue)
		p.mu.Unlock()

		p.wg.Wait()
		close(p.results)
	})
}

// Stats returns current pool statistics
func (p *Pool) Stats() (processed int64, active int32, queued int) {
	return p.tasksProcessed.Load(), p.tasksActive.Load(), len(p.taskQueue)
}

// worker processes tasks from the queue
func (p *Pool) worker(ctx context.Context, _ int) {
	defer p.wg.Done()

	for task := range p.taskQueue {
		result := Result{TaskName: task.Name()}

		if err := ctx.Err(); err != nil {
			result.Error = err
		} else {
			p.tasksActive.Add(1)
			start := time.Now()
			result.Error = p.execute(ctx, task)
			result.Duration = time.Since(start)
			p.tasksActive.Add(-1)
		}
		p.tasksProcessed.Add(1)

		select {
		case p.results <- result:
		default:
			select {
			case p.results <- result:
			case <-ctx.Done():
				// nobody is listening any more; drop the result
			}
		}
	}
}

// execute runs task, turning a panic into ErrTaskPanicked.
func (p *Pool) execute(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrTaskPanicked, task.Name(), r)
		}
	}()
	return task.Execute(ctx)
}
