package analyzer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/ai"
	"github.com/mrz1836/compliance-copilot/internal/cache"
	"github.com/mrz1836/compliance-copilot/internal/config"
	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
	"github.com/mrz1836/compliance-copilot/internal/store"
)

// Runtime is a Service together with the resources it owns.
type Runtime struct {
	Service *Service
	Metrics *metrics.Collectors

	cache *cache.TTLCache[*risk.Summary]
	db    store.Database
}

// Close stops the cache janitor and closes the store.
func (r *Runtime) Close() error {
	r.cache.Close()
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Build assembles the pipeline described by settings.
// collectors may be nil when metrics are not exported.
func Build(ctx context.Context, settings *config.Settings, collectors *metrics.Collectors, logger *logrus.Entry) (*Runtime, error) {
	if settings == nil {
		return nil, appErrors.ConfigError("settings", "missing")
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	scoring, err := settings.Scoring()
	if err != nil {
		return nil, fmt.Errorf("load scoring config: %w", err)
	}
	extractor, err := risk.NewExtractor(scoring)
	if err != nil {
		return nil, err
	}

	summarizer, err := ai.NewSummarizer(ctx, settings.AI, logger)
	if err != nil {
		return nil, err
	}
	orchestrator := ai.NewOrchestrator(summarizer, risk.NewScorer(scoring), settings.AI, logger)

	db, err := store.Open(store.OpenOptions{Path: settings.StorePath, AutoMigrate: true})
	if err != nil {
		return nil, fmt.Errorf("open summary store: %w", err)
	}

	resultCache := cache.NewTTLCache[*risk.Summary](settings.CacheTTL, settings.CacheMaxSize)
	svc, err := New(Dependencies{
		Adapters: source.NewRegistry(source.Options{
			MaxInputLength: settings.MaxInputLength,
			StrictInput:    settings.StrictInput,
		}, logger),
		Extractor:    extractor,
		Orchestrator: orchestrator,
		Cache:        resultCache,
		Store:        store.NewSummaryRepository(db.DB()),
		Metrics:      collectors,
		BatchWorkers: settings.BatchWorkers,
		Logger:       logger,
	})
	if err != nil {
		resultCache.Close()
		_ = db.Close()
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"backend":    svc.Backend(),
		"store_path": settings.StorePath,
		"cache_ttl":  settings.CacheTTL.String(),
	}).Info("Analyzer ready")

	return &Runtime{Service: svc, Metrics: collectors, cache: resultCache, db: db}, nil
}
