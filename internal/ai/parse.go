package ai

import (
	"fmt"
	"regexp"
	"strings"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/jsonutil"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

// SummaryFields is what a backend contributes to a summary.
type SummaryFields struct {
	Level     risk.Level
	Rationale string
	Actions   []string
}

// Validate enforces the backend contract: a known level and a rationale.
func (f *SummaryFields) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: no summary returned", appErrors.ErrBackendContract)
	}
	if !f.Level.Valid() {
		return fmt.Errorf("%w: risk level %d is not LOW, MEDIUM, HIGH or CRITICAL", appErrors.ErrBackendContract, f.Level)
	}
	if strings.TrimSpace(f.Rationale) == "" {
		return fmt.Errorf("%w: empty rationale", appErrors.ErrBackendContract)
	}
	return nil
}

// wireSummary accepts the key spellings models commonly produce.
type wireSummary struct {
	RiskLevel          string   `json:"risk_level"`
	OverallRiskLevel   string   `json:"overall_risk_level"`
	Level              string   `json:"level"`
	Rationale          string   `json:"rationale"`
	Summary            string   `json:"summary"`
	RecommendedActions []string `json:"recommended_actions"`
	Actions            []string `json:"actions"`
}

//nolint:gochecknoglobals // compiled once
var (
	fencedJSONRe  = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
	levelLineRe   = regexp.MustCompile(`(?i)^\**\s*(?:(?:overall\s+)?risk\s+level\s*:?\s*\**\s*:?\s*([a-z]+)|([a-z]+)\s+risk\b)`)
	actionsHeadRe = regexp.MustCompile(`(?i)^\**\s*(?:top\s+\d+\s+)?(?:recommended\s+)?(?:actions|next\s+steps)\s*:?\s*\**\s*:?\s*$`)
	listItemRe    = regexp.MustCompile(`^\s*(?:\d+[.)]|[-*•])\s+(.+)$`)
)

// ParseSummary maps a backend response to SummaryFields.
//
// JSON answers (bare or in a fenced block) are preferred. Anything else is
// read as the markdown layout "**<LEVEL> RISK ...**", prose, then a
// numbered action list. A missing or unknown level and an empty rationale
// are contract violations; the level is never guessed.
func ParseSummary(content string) (*SummaryFields, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, fmt.Errorf("%w: %w", appErrors.ErrBackendContract, ErrEmptyResponse)
	}

	var fields *SummaryFields
	var err error
	if raw, ok := extractJSON(text); ok {
		fields, err = parseJSONSummary(raw)
	} else {
		fields, err = parseMarkdownSummary(text)
	}
	if err != nil {
		return nil, err
	}

	if err := fields.Validate(); err != nil {
		return nil, err
	}
	return fields, nil
}

// extractJSON finds a JSON object in a fenced block or as the whole answer.
func extractJSON(text string) (string, bool) {
	if m := fencedJSONRe.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	if strings.HasPrefix(text, "{") {
		return text, true
	}
	return "", false
}

func parseJSONSummary(raw string) (*SummaryFields, error) {
	wire, err := jsonutil.UnmarshalJSON[wireSummary]([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %w: %w", appErrors.ErrBackendContract, ErrInvalidFormat, err)
	}

	level, err := contractLevel(firstNonEmpty(wire.RiskLevel, wire.OverallRiskLevel, wire.Level))
	if err != nil {
		return nil, err
	}

	return &SummaryFields{
		Level:     level,
		Rationale: strings.TrimSpace(firstNonEmpty(wire.Rationale, wire.Summary)),
		Actions:   cleanActions(append(wire.RecommendedActions, wire.Actions...)),
	}, nil
}

func parseMarkdownSummary(text string) (*SummaryFields, error) {
	var (
		levelWord string
		found     bool
		prose     []string
		actions   []string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !found {
			if m := levelLineRe.FindStringSubmatch(line); m != nil {
				levelWord = firstNonEmpty(m[1], m[2])
				found = true
				continue
			}
		}
		if actionsHeadRe.MatchString(line) {
			continue
		}
		if m := listItemRe.FindStringSubmatch(line); m != nil {
			actions = append(actions, m[1])
			continue
		}
		prose = append(prose, strings.TrimSpace(strings.ReplaceAll(line, "**", "")))
	}

	if !found {
		return nil, fmt.Errorf("%w: %w: no risk level in response", appErrors.ErrBackendContract, ErrInvalidFormat)
	}
	level, err := contractLevel(levelWord)
	if err != nil {
		return nil, err
	}

	return &SummaryFields{
		Level:     level,
		Rationale: strings.Join(prose, " "),
		Actions:   cleanActions(actions),
	}, nil
}

// contractLevel parses a backend level; failures are contract violations, not input errors.
func contractLevel(raw string) (risk.Level, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, fmt.Errorf("%w: missing risk level", appErrors.ErrBackendContract)
	}
	level, err := risk.ParseLevel(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: unknown risk level %q", appErrors.ErrBackendContract, raw)
	}
	return level, nil
}

func cleanActions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, a := range in {
		a = strings.TrimSpace(strings.ReplaceAll(a, "**", ""))
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
