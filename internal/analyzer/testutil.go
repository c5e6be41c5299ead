package analyzer

import (
	"testing"
	"time"

	"github.com/mrz1836/compliance-copilot/internal/ai"
	"github.com/mrz1836/compliance-copilot/internal/cache"
	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/metrics"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
	"github.com/mrz1836/compliance-copilot/internal/store"
)

// TestOptions tune the Service built by NewTestService.
type TestOptions struct {
	// Timeout is the per-attempt backend deadline (default 2s).
	Timeout time.Duration
	// Attempts is the number of backend attempts (default 1).
	Attempts int
	// Repository replaces the in-memory store.
	Repository store.SummaryRepository
	Metrics    *metrics.Collectors
}

// NewTestService builds a Service around summarizer with the default
// scoring policy, a fresh cache and an in-memory store.
func NewTestService(t testing.TB, summarizer ai.Summarizer, opts TestOptions) *Service {
	t.Helper()

	extractor, err := risk.NewExtractor(risk.DefaultScoringConfig())
	if err != nil {
		t.Fatalf("create extractor: %v", err)
	}

	cfg := ai.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	if opts.Timeout > 0 {
		cfg.Timeout = opts.Timeout
	}
	cfg.RetryMaxAttempts = 1
	if opts.Attempts > 0 {
		cfg.RetryMaxAttempts = opts.Attempts
	}
	cfg.RetryInitialDelay = 5 * time.Millisecond
	cfg.RetryMaxDelay = 20 * time.Millisecond

	repo := opts.Repository
	if repo == nil {
		repo = store.NewSummaryRepository(store.TestDB(t))
	}

	resultCache := cache.NewTTLCache[*risk.Summary](time.Minute, 100)
	t.Cleanup(resultCache.Close)

	svc, err := New(Dependencies{
		Adapters:     source.NewRegistry(source.DefaultOptions(), nil),
		Extractor:    extractor,
		Orchestrator: ai.NewOrchestrator(summarizer, nil, cfg, logging.Discard()),
		Cache:        resultCache,
		Store:        repo,
		Metrics:      opts.Metrics,
		BatchWorkers: 4,
		Logger:       logging.Discard(),
	})
	if err != nil {
		t.Fatalf("create service: %v", err)
	}
	return svc
}

// CriticalPRPayload is a generic PR touching an auth package and labelled
// severity:critical; the default policy scores it CRITICAL.
const CriticalPRPayload = `{
	"identifier": "acme/api#1",
	"title": "Harden session handling",
	"body": "Shortens the session ttl.",
	"diff": "diff --git a/internal/auth/session.go b/internal/auth/session.go\nindex 83db48f..bf269f4 100644\n--- a/internal/auth/session.go\n+++ b/internal/auth/session.go\n@@ -1,2 +1,3 @@\n package auth\n-const ttl = 60\n+const ttl = 10\n+const secure = true\n",
	"labels": ["severity:critical"],
	"author": "octocat"
}`

// TrivialTicketPayload is a generic ticket the default policy scores LOW.
const TrivialTicketPayload = `{
	"identifier": "DOC-7",
	"summary": "Typo on welcome page",
	"description": "Second paragraph has a typo."
}`
