package analyzer

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/compliance-copilot/internal/cache"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/worker"
)

// MaxBatchSize is the largest number of submissions accepted by AnalyzeBatch.
const MaxBatchSize = 20

// BatchItem is the outcome of one submission of a batch.
// Exactly one of Summary and Err is set.
type BatchItem struct {
	Index   int
	Summary *risk.Summary
	Cache   cache.Outcome
	Err     error
}

// analyzeTask runs one batch submission on the worker pool.
type analyzeTask struct {
	svc   *Service
	index int
	sub   *Submission
	out   *BatchItem
}

func (t *analyzeTask) Name() string {
	return fmt.Sprintf("submission-%d", t.index)
}

func (t *analyzeTask) Execute(ctx context.Context) error {
	res, err := t.svc.Analyze(ctx, t.sub)
	if err != nil {
		return err
	}
	t.out.Summary = res.Summary
	t.out.Cache = res.Cache
	return nil
}

// AnalyzeBatch analyzes up to MaxBatchSize submissions concurrently.
//
// Items fail independently; the returned slice is in submission order. An
// error is returned only when the batch itself is rejected.
func (s *Service) AnalyzeBatch(ctx context.Context, subs []*Submission) ([]BatchItem, error) {
	if len(subs) == 0 {
		return nil, appErrors.EmptyFieldError("submissions")
	}
	if len(subs) > MaxBatchSize {
		return nil, appErrors.ValidationError("batch", fmt.Sprintf("at most %d submissions per batch, got %d", MaxBatchSize, len(subs)))
	}

	pool, err := worker.NewPool(min(s.batchWorkers, len(subs)), len(subs))
	if err != nil {
		return nil, err
	}
	pool.Start(ctx)

	items := make([]BatchItem, len(subs))
	tasks := make([]worker.Task, len(subs))
	for i, sub := range subs {
		items[i].Index = i
		tasks[i] = &analyzeTask{svc: s, index: i, sub: sub, out: &items[i]}
	}

	if err := pool.SubmitBatch(tasks); err != nil {
		pool.Shutdown()
		return nil, err
	}

	byName := make(map[string]int, len(tasks))
	for i, task := range tasks {
		byName[task.Name()] = i
	}

	for range tasks {
		res := <-pool.Results()
		if res.Error != nil {
			items[byName[res.TaskName]].Err = res.Error
		}
	}
	pool.Shutdown()

	s.logger.WithField("batch_size", len(subs)).WithField("failed", countFailed(items)).Info("Batch analyzed")
	return items, nil
}

func countFailed(items []BatchItem) int {
	n := 0
	for _, item := range items {
		if item.Err != nil {
			n++
		}
	}
	return n
}

// IsCallerAbort reports whether err means the caller went away rather than the pipeline failing.
func IsCallerAbort(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
