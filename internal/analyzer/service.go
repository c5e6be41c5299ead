// Package analyzer runs the risk pipeline for one submission: adapt the
// upstream payload, extract and score features, then summarize through the
// result cache and persist the summary.
package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/ai"
	"github.com/mrz1836/compliance-copilot/internal/cache"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
	"github.com/mrz1836/compliance-copilot/internal/store"
)

// Submission is one upstream artifact to analyze.
type Submission struct {
	// SourceKind is "PR" or "TICKET" (see source.ParseKind for accepted spellings).
	SourceKind string `json:"source_kind"`
	// Source is the upstream format; empty selects "generic".
	Source  string                  `json:"source,omitempty"`
	Payload json.RawMessage         `json:"payload"`
	History *risk.HistoricalContext `json:"history,omitempty"`
}

// Result is a served summary and how the cache produced it.
type Result struct {
	Summary *risk.Summary
	Cache   cache.Outcome
}

// Dependencies are the collaborators of a Service. Store and Metrics are optional.
type Dependencies struct {
	Adapters     *source.Registry
	Extractor    *risk.Extractor
	Orchestrator *ai.Orchestrator
	Cache        *cache.TTLCache[*risk.Summary]
	Store        store.SummaryRepository
	Metrics      *metrics.Collectors
	BatchWorkers int
	Logger       *logrus.Entry
}

// Service is the analysis pipeline. Thread-safe for concurrent use.
type Service struct {
	adapters     *source.Registry
	extractor    *risk.Extractor
	orchestrator *ai.Orchestrator
	cache        *cache.TTLCache[*risk.Summary]
	store        store.SummaryRepository
	metrics      *metrics.Collectors
	audit        *logging.AuditLogger
	batchWorkers int
	logger       *logrus.Entry
}

// DefaultBatchWorkers is used when Dependencies.BatchWorkers is not positive.
const DefaultBatchWorkers = 4

// New creates a Service from deps.
func New(deps Dependencies) (*Service, error) {
	switch {
	case deps.Adapters == nil:
		return nil, appErrors.ConfigError("analyzer", "source adapters are required")
	case deps.Extractor == nil:
		return nil, appErrors.ConfigError("analyzer", "feature extractor is required")
	case deps.Orchestrator == nil:
		return nil, appErrors.ConfigError("analyzer", "orchestrator is required")
	case deps.Cache == nil:
		return nil, appErrors.ConfigError("analyzer", "result cache is required")
	}

	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	workers := deps.BatchWorkers
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}

	s := &Service{
		adapters:     deps.Adapters,
		extractor:    deps.Extractor,
		orchestrator: deps.Orchestrator,
		cache:        deps.Cache,
		store:        deps.Store,
		metrics:      deps.Metrics,
		audit:        logging.NewAuditLogger(logger),
		batchWorkers: workers,
		logger:       logger.WithField(logging.StandardFields.Component, "analyzer"),
	}

	if s.metrics != nil {
		s.orchestrator.SetObserver(s.metrics)
		s.metrics.RegisterGauge("cache", "entries", "Summaries held in the result cache", func() float64 {
			return float64(s.cache.Size())
		})
	}

	return s, nil
}

// Backend returns the name of the summarization backend.
func (s *Service) Backend() string {
	return s.orchestrator.Backend()
}

// CacheStats returns the result cache counters.
func (s *Service) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Formats lists the accepted upstream formats per source kind.
func (s *Service) Formats() map[source.Kind][]string {
	return s.adapters.Formats()
}

// Analyze runs the pipeline for sub.
//
// Identical submissions share one summary: the first computes it, later or
// concurrent ones are served from the cache. When ctx ends first the caller
// gets ctx.Err() while the computation finishes and fills the cache.
func (s *Service) Analyze(ctx context.Context, sub *Submission) (*Result, error) {
	if sub == nil {
		return nil, appErrors.RequiredFieldError("submission")
	}

	kind, err := source.ParseKind(sub.SourceKind)
	if err != nil {
		return nil, err
	}
	if len(sub.Payload) == 0 {
		return nil, appErrors.RequiredFieldError("payload")
	}

	rec, err := s.adapters.Adapt(kind, sub.Source, sub.Payload)
	if err != nil {
		return nil, err
	}

	return s.AnalyzeRecord(ctx, rec, sub.History)
}

// AnalyzeRecord runs the pipeline from an already adapted record.
func (s *Service) AnalyzeRecord(ctx context.Context, rec *source.CanonicalRecord, hist *risk.HistoricalContext) (*Result, error) {
	feats, err := s.extractor.Extract(rec, hist)
	if err != nil {
		return nil, err
	}

	fingerprint := risk.Fingerprint(rec, feats)
	log := s.logger.WithFields(logrus.Fields{
		logging.StandardFields.Identifier:  rec.Identifier(),
		logging.StandardFields.SourceKind:  rec.Kind(),
		logging.StandardFields.Fingerprint: fingerprint,
	})

	summary, outcome, err := s.cache.GetOrCompute(ctx, fingerprint, func(cctx context.Context) (*risk.Summary, error) {
		return s.compute(cctx, log, rec, feats, fingerprint)
	})
	if err != nil {
		return nil, err
	}

	s.observe(summary, outcome)
	return &Result{Summary: summary, Cache: outcome}, nil
}

// compute returns a stored summary for fingerprint or produces and stores a new one.
func (s *Service) compute(
	ctx context.Context,
	log *logrus.Entry,
	rec *source.CanonicalRecord,
	feats *risk.Features,
	fingerprint string,
) (*risk.Summary, error) {
	if s.store != nil {
		stored, err := s.store.FindByFingerprint(ctx, fingerprint)
		if err == nil {
			log.Debug("Summary restored from store")
			return stored, nil
		}
		if !errors.Is(err, appErrors.ErrNotFound) {
			log.WithError(err).Warn("Summary store lookup failed")
		}
	}

	timer := metrics.StartTimer(ctx, log, "summarize").
		AddField(logging.StandardFields.Backend, s.orchestrator.Backend())
	summary, err := s.orchestrator.Summarize(ctx, rec, feats)
	timer.StopWithError(err)
	if err != nil {
		return nil, err
	}

	if s.store != nil {
		if err := s.store.Save(ctx, summary); err != nil {
			// the summary is still served from the cache
			log.WithError(err).Error("Failed to persist summary")
		}
	}

	return summary, nil
}

func (s *Service) observe(summary *risk.Summary, outcome cache.Outcome) {
	s.audit.LogSummary(
		summary.Identifier,
		summary.Fingerprint,
		summary.OverallRiskLevel.String(),
		summary.Backend,
		string(outcome),
	)
	if s.metrics != nil {
		s.metrics.ObserveCacheOutcome(string(outcome))
		s.metrics.ObserveSummary(summary.OverallRiskLevel.String(), string(summary.SourceKind))
	}
}

// Get returns the summary stored under fingerprint, from the cache or the store.
func (s *Service) Get(ctx context.Context, fingerprint string) (*risk.Summary, error) {
	if fingerprint == "" {
		return nil, appErrors.RequiredFieldError("fingerprint")
	}
	if summary, ok := s.cache.Get(fingerprint); ok {
		return summary, nil
	}
	if s.store == nil {
		return nil, appErrors.NotFoundError("summary", fingerprint)
	}

	summary, err := s.store.FindByFingerprint(ctx, fingerprint)
	if err != nil {
		return nil, err
	}
	s.cache.Put(fingerprint, summary)
	return summary, nil
}

// Latest returns the most recent summary generated for identifier.
func (s *Service) Latest(ctx context.Context, identifier string) (*risk.Summary, error) {
	if identifier == "" {
		return nil, appErrors.RequiredFieldError("identifier")
	}
	if s.store == nil {
		return nil, appErrors.NotFoundError("summary", identifier)
	}
	return s.store.FindLatestByIdentifier(ctx, identifier)
}

// Recent lists the latest stored summaries, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*risk.Summary, error) {
	if s.store == nil {
		return []*risk.Summary{}, nil
	}
	return s.store.ListRecent(ctx, limit)
}

// Prune removes stored summaries older than maxAge.
func (s *Service) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, appErrors.InvalidFieldError("max_age", maxAge.String())
	}
	if s.store == nil {
		return 0, nil
	}
	return s.store.Prune(ctx, time.Now().Add(-maxAge))
}
