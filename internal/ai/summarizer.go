package ai

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/mrz1836/compliance-copilot/internal/logging"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// Summarizer writes the rationale and actions for a scored record.
// Implementations must be safe for concurrent use.
type Summarizer interface {
	// Name identifies the backend in summaries, logs and metrics.
	Name() string

	// Summarize returns the backend's view of the record. The level passed
	// in is the deterministic scored level, given to the backend as context.
	Summarize(ctx context.Context, rec *source.CanonicalRecord, feats *risk.Features, level risk.Level) (*SummaryFields, error)
}

// ProviderSummarizer is the Summarizer backed by a text-generation Provider.
// It masks personal data, renders the risk prompt and parses the answer.
type ProviderSummarizer struct {
	provider    Provider
	truncator   *DiffTruncator
	redactor    *logging.RedactionService
	audit       *logging.AuditLogger
	maskPII     bool
	maxTokens   int
	temperature float64
	logger      *logrus.Entry
}

// Ensure ProviderSummarizer implements Summarizer interface.
var _ Summarizer = (*ProviderSummarizer)(nil)

// NewProviderSummarizer creates a summarizer calling provider with settings from cfg.
func NewProviderSummarizer(provider Provider, cfg *Config, logger *logrus.Entry) *ProviderSummarizer {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}

	return &ProviderSummarizer{
		provider:    provider,
		truncator:   NewDiffTruncator(cfg),
		redactor:    logging.NewRedactionService(),
		audit:       logging.NewAuditLogger(logger),
		maskPII:     cfg.MaskPII,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Name returns the provider identifier.
func (s *ProviderSummarizer) Name() string {
	return s.provider.Name()
}

// Summarize renders the prompt, calls the provider once and parses the response.
// Retries and timeouts belong to the Orchestrator.
func (s *ProviderSummarizer) Summarize(ctx context.Context, rec *source.CanonicalRecord, feats *risk.Features, level risk.Level) (*SummaryFields, error) {
	if s.provider == nil || !s.provider.IsAvailable() {
		return nil, ErrProviderNotConfigured
	}

	prompt, err := BuildRiskPrompt(s.promptInput(rec, feats, level))
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.GenerateText(ctx, &GenerateRequest{
		Prompt:      prompt,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, GenerationError(s.provider.Name(), "risk summary", err)
	}

	s.logger.WithFields(logrus.Fields{
		logging.StandardFields.Backend:    s.provider.Name(),
		logging.StandardFields.Identifier: rec.Identifier(),
		"tokens_used":                     resp.TokensUsed,
		"finish_reason":                   resp.FinishReason,
	}).Debug("Backend responded")

	return ParseSummary(resp.Content)
}

// promptInput masks and truncates the record text for the prompt.
func (s *ProviderSummarizer) promptInput(rec *source.CanonicalRecord, feats *risk.Features, level risk.Level) *PromptInput {
	counts := make(map[string]int)
	mask := func(text string) string {
		if !s.maskPII {
			return text
		}
		masked, found := s.redactor.MaskPII(text, true)
		for label, n := range found {
			counts[label] += n
		}
		return masked
	}

	in := &PromptInput{
		Kind:       rec.Kind(),
		Identifier: rec.Identifier(),
		Title:      mask(rec.Title()),
		Body:       mask(rec.Body()),
		Labels:     rec.Labels(),
		Files:      rec.ChangedFiles(),
		Priority:   rec.Priority(),
		Level:      level,
		Features:   feats,
	}

	content := mask(rec.DiffOrDescription())
	if rec.Kind() == source.KindPR {
		var sections int
		in.Content, in.Truncated, sections = s.truncator.TruncateDiff(content)
		in.FileCount = max(sections, len(in.Files))
	} else {
		in.Content, in.Truncated = s.truncator.TruncateText(content)
	}

	if len(counts) > 0 {
		s.audit.LogRedaction(rec.Identifier(), counts)
	}
	return in
}
