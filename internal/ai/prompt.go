package ai

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/mrz1836/compliance-copilot/internal/pool"
	"github.com/mrz1836/compliance-copilot/internal/risk"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// SystemPrompt frames every request sent to a summarization backend.
const SystemPrompt = "You are a security-aware assistant. Do not output secrets or PII. " +
	"Prefer actionable, auditable guidance with least-privilege principles. " +
	"Focus on risk assessment, compliance implications, and concrete remediation steps."

// recordMarker separates instructions from the record text in a prompt.
const recordMarker = "\nInput:\n"

// Per-kind task statements.
const (
	taskPR = "Analyze this pull request for security and compliance risks. " +
		"Provide a concise risk summary and top 3 recommended actions."
	taskTicket = "Analyze this ticket/issue for security and compliance implications. " +
		"Provide likely severity, blast radius assessment, and next steps."
)

// riskPromptTmpl is the cached parsed template for risk prompts.
//
//nolint:gochecknoglobals // Intentional caching for performance - parsed once per process
var (
	riskPromptTmpl     *template.Template
	riskPromptTmplOnce sync.Once
)

// PromptInput contains everything rendered into a risk prompt.
// Text fields are expected to be masked and truncated already.
type PromptInput struct {
	Kind       source.Kind
	Identifier string
	Title      string
	Body       string
	Content    string
	Labels     []string
	Files      []string
	Priority   string

	Level    risk.Level
	Features *risk.Features

	// Truncated is set when Content was shortened to fit the prompt budget.
	Truncated bool
	// FileCount is the number of files in the full diff.
	FileCount int
}

// Task returns the task statement for the input's kind.
func (p *PromptInput) Task() string {
	if p.Kind == source.KindTicket {
		return taskTicket
	}
	return taskPR
}

// System returns the system prompt.
func (p *PromptInput) System() string {
	return SystemPrompt
}

// Marker returns the record marker; the record text follows it.
func (p *PromptInput) Marker() string {
	return recordMarker
}

// riskPromptTemplate renders the deterministic assessment first so the
// backend explains the score instead of inventing its own.
const riskPromptTemplate = `{{ .System }}

Task: {{ .Task }}

## Deterministic assessment
Scored level: {{ .Level }}
{{ with .Features -}}
- size: {{ printf "%.2f" .SizeScore }}
- sensitivity: {{ printf "%.2f" .SensitivityScore }}
- historical defects: {{ printf "%.2f" .HistoricalDefectScore }}
- severity: {{ printf "%.2f" .SeverityScore }}
{{ range .MatchedSignals }}- matched {{ . }}
{{ end }}{{ range .Degraded }}- no data for {{ . }}, neutral score used
{{ end }}{{ end }}
## Response format
Respond with ONE JSON object and nothing else:
{"risk_level": "LOW|MEDIUM|HIGH|CRITICAL", "rationale": "<2-4 sentences>", "recommended_actions": ["<action>", "<action>", "<action>"]}
- risk_level must be one of the four values above
- rationale must not be empty and must not repeat secrets or personal data
- list at most 3 actions, most important first
{{ .Marker }}{{ if eq .Kind "TICKET" -}}
Summary: {{ .Title }}
{{ if .Priority }}Priority: {{ .Priority }}
{{ end }}{{ if .Labels }}Labels: {{ join .Labels }}
{{ end }}
Description:
{{ .Content }}
{{- else -}}
Title: {{ .Title }}
{{ if .Labels }}Labels: {{ join .Labels }}
{{ end }}{{ if .Files }}Files ({{ .FileCount }}): {{ join .Files }}
{{ end }}
Body:
{{ .Body }}

Diff{{ if .Truncated }} (truncated){{ end }}:
{{ .Content }}
{{- end }}
`

// getRiskPromptTmpl returns the cached parsed template for risk prompts.
func getRiskPromptTmpl() *template.Template {
	riskPromptTmplOnce.Do(func() {
		riskPromptTmpl = template.Must(template.New("risk_prompt").
			Funcs(template.FuncMap{"join": func(items []string) string { return strings.Join(items, ", ") }}).
			Parse(riskPromptTemplate))
	})
	return riskPromptTmpl
}

// BuildRiskPrompt renders the prompt for one record.
func BuildRiskPrompt(in *PromptInput) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: nil prompt input", ErrInvalidFormat)
	}

	size := pool.EstimatePromptSize(len(in.Title) + len(in.Body) + len(in.Content))
	return pool.WithBufferResult(size, func(buf *bytes.Buffer) (string, error) {
		if err := getRiskPromptTmpl().Execute(buf, in); err != nil {
			return "", fmt.Errorf("render risk prompt: %w", err)
		}
		return buf.String(), nil
	})
}
