package ai

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// Backend call outcomes reported to a CallObserver.
const (
	CallSuccess  = "success"
	CallTimeout  = "timeout"
	CallError    = "error"
	CallContract = "contract_violation"
	CallCanceled = "canceled"
)

// CallObserver receives one event per backend attempt.
type CallObserver interface {
	ObserveBackendCall(backend, outcome string, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObserveBackendCall(string, string, time.Duration) {}

// Orchestrator produces a risk.Summary for a scored record.
//
// Every backend attempt runs in its own goroutine under a hard deadline, so
// a backend that ignores its context still cannot hold the caller past the
// timeout. Transient failures are retried with exponential backoff; a
// response that breaks the contract is returned at once.
// Thread-safe for concurrent use.
type Orchestrator struct {
	summarizer Summarizer
	scorer     *risk.Scorer
	timeout    time.Duration
	retry      *RetryConfig
	observer   CallObserver
	logger     *logrus.Entry
	now        func() time.Time
}

// NewOrchestrator creates an orchestrator for summarizer.
// A nil scorer uses the default scoring configuration.
func NewOrchestrator(summarizer Summarizer, scorer *risk.Scorer, cfg *Config, logger *logrus.Entry) *Orchestrator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if scorer == nil {
		scorer = risk.NewScorer(nil)
	}

	return &Orchestrator{
		summarizer: summarizer,
		scorer:     scorer,
		timeout:    cfg.Timeout,
		retry:      cfg.RetryConfig(),
		observer:   nopObserver{},
		logger:     logger.WithField(logging.StandardFields.Component, logging.ComponentNames.Orchestrator),
		now:        time.Now,
	}
}

// SetObserver registers the receiver of per-attempt events.
func (o *Orchestrator) SetObserver(observer CallObserver) {
	if observer == nil {
		observer = nopObserver{}
	}
	o.observer = observer
}

// Backend returns the summarizer name.
func (o *Orchestrator) Backend() string {
	return o.summarizer.Name()
}

// Summarize scores feats, asks the backend for a rationale and assembles the summary.
//
// Errors are classified for the caller:
//   - appErrors.ErrSummarizationTimeout when the last attempt hit the deadline
//   - appErrors.ErrSummarizationUnavailable when the backend kept failing or refused
//   - appErrors.ErrBackendContract when the response could not be mapped
//   - the context error when ctx ended first
func (o *Orchestrator) Summarize(ctx context.Context, rec *source.CanonicalRecord, feats *risk.Features) (*risk.Summary, error) {
	if rec == nil || feats == nil {
		return nil, appErrors.InsufficientDataError("record and features are required")
	}

	level, score := o.scorer.Level(feats)
	fingerprint := risk.Fingerprint(rec, feats)
	log := o.logger.WithFields(logrus.Fields{
		logging.StandardFields.Identifier:  rec.Identifier(),
		logging.StandardFields.Fingerprint: fingerprint,
		logging.StandardFields.Backend:     o.summarizer.Name(),
	})

	fields, err := WithRetry(ctx, o.retry, log, func(ctx context.Context, attempt int) (*SummaryFields, error) {
		return o.attempt(ctx, log, attempt, rec, feats, level)
	})
	if err != nil {
		err = o.classify(ctx, err)
		log.WithError(err).Warn("Summarization failed")
		return nil, err
	}

	return &risk.Summary{
		Identifier:         rec.Identifier(),
		SourceKind:         rec.Kind(),
		OverallRiskLevel:   level,
		RiskScore:          score,
		Rationale:          fields.Rationale,
		RecommendedActions: slices.Clone(fields.Actions),
		Features: risk.Features{
			SizeScore:             feats.SizeScore,
			SensitivityScore:      feats.SensitivityScore,
			HistoricalDefectScore: feats.HistoricalDefectScore,
			SeverityScore:         feats.SeverityScore,
			Degraded:              slices.Clone(feats.Degraded),
			MatchedSignals:        slices.Clone(feats.MatchedSignals),
		},
		ModelRiskLevel: fields.Level,
		Backend:        o.summarizer.Name(),
		Fingerprint:    fingerprint,
		GeneratedAt:    o.now().UTC(),
	}, nil
}

type attemptResult struct {
	fields *SummaryFields
	err    error
}

// attempt runs one backend call under the hard deadline.
func (o *Orchestrator) attempt(
	ctx context.Context,
	log *logrus.Entry,
	attempt int,
	rec *source.CanonicalRecord,
	feats *risk.Features,
	level risk.Level,
) (*SummaryFields, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan attemptResult, 1)
	go func() {
		fields, err := o.summarizer.Summarize(attemptCtx, rec, feats, level)
		if err == nil {
			err = fields.Validate()
		}
		done <- attemptResult{fields: fields, err: err}
	}()

	var res attemptResult
	select {
	case res = <-done:
		// a cooperative backend that gave up at the deadline
		if res.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) &&
			!errors.Is(res.err, appErrors.ErrBackendContract) {
			res.err = o.timeoutError(attempt)
		}
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			res.err = ctx.Err()
		} else {
			res.err = o.timeoutError(attempt)
		}
	}

	elapsed := time.Since(start)
	outcome := callOutcome(res.err)
	o.observer.ObserveBackendCall(o.summarizer.Name(), outcome, elapsed)
	log.WithFields(logrus.Fields{
		logging.StandardFields.Attempt:    attempt,
		logging.StandardFields.DurationMs: elapsed.Milliseconds(),
		"outcome":                         outcome,
	}).Debug("Backend attempt finished")

	if res.err != nil {
		return nil, res.err
	}
	return res.fields, nil
}

func (o *Orchestrator) timeoutError(attempt int) error {
	return fmt.Errorf("%w: %s attempt %d exceeded %v", ErrGenerationTimeout, o.summarizer.Name(), attempt, o.timeout)
}

// classify maps the final error onto the pipeline taxonomy.
func (o *Orchestrator) classify(ctx context.Context, err error) error {
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case errors.Is(err, appErrors.ErrBackendContract):
		return fmt.Errorf("%s: %w", o.summarizer.Name(), err)
	case errors.Is(err, ErrGenerationTimeout):
		return fmt.Errorf("%w: %s: %w", appErrors.ErrSummarizationTimeout, o.summarizer.Name(), err)
	default:
		return fmt.Errorf("%w: %s: %w", appErrors.ErrSummarizationUnavailable, o.summarizer.Name(), err)
	}
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return CallSuccess
	case errors.Is(err, ErrGenerationTimeout):
		return CallTimeout
	case errors.Is(err, appErrors.ErrBackendContract):
		return CallContract
	case errors.Is(err, context.Canceled):
		return CallCanceled
	default:
		return CallError
	}
}
