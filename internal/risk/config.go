package risk

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

//go:embed scoring_default.yaml
var defaultScoringYAML []byte

// Weights are the relative contributions of each sub-score to the weighted mean.
type Weights struct {
	Size        float64 `yaml:"size" json:"size"`
	Sensitivity float64 `yaml:"sensitivity" json:"sensitivity"`
	History     float64 `yaml:"history" json:"history"`
	Severity    float64 `yaml:"severity" json:"severity"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Size + w.Sensitivity + w.History + w.Severity
}

// Thresholds are the lower bounds of the MEDIUM, HIGH and CRITICAL bands.
type Thresholds struct {
	Medium   float64 `yaml:"medium" json:"medium"`
	High     float64 `yaml:"high" json:"high"`
	Critical float64 `yaml:"critical" json:"critical"`
}

// Escalation raises the level when enough sub-scores are individually strong.
type Escalation struct {
	MinSignals      int     `yaml:"min_signals" json:"min_signals"`
	SignalThreshold float64 `yaml:"signal_threshold" json:"signal_threshold"`
	Level           Level   `yaml:"level" json:"level"`
}

// SensitiveEscalation raises the level of a PR that touches any sensitive
// path and carries a severity label scoring at least MinLabelSeverity.
// A zero MinLabelSeverity disables the rule.
type SensitiveEscalation struct {
	MinLabelSeverity float64 `yaml:"min_label_severity" json:"min_label_severity"`
	Level            Level   `yaml:"level" json:"level"`
}

// SizeConfig controls how change size saturates.
type SizeConfig struct {
	SaturationLines int     `yaml:"saturation_lines" json:"saturation_lines"`
	SaturationFiles int     `yaml:"saturation_files" json:"saturation_files"`
	SaturationChars int     `yaml:"saturation_chars" json:"saturation_chars"`
	FilesWeight     float64 `yaml:"files_weight" json:"files_weight"`
}

// PathWeight scores files matching a gitignore-style glob.
type PathWeight struct {
	Pattern string  `yaml:"pattern" json:"pattern"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// KeywordWeight scores free text containing a keyword.
type KeywordWeight struct {
	Keyword  string  `yaml:"keyword" json:"keyword"`
	Weight   float64 `yaml:"weight" json:"weight"`
	Category string  `yaml:"category" json:"category"`
}

// ScoringConfig is the complete, versionable scoring policy.
type ScoringConfig struct {
	Weights          Weights             `yaml:"weights" json:"weights"`
	Thresholds       Thresholds          `yaml:"thresholds" json:"thresholds"`
	Escalation       Escalation          `yaml:"escalation" json:"escalation"`
	SensitiveLabel   SensitiveEscalation `yaml:"sensitive_escalation" json:"sensitive_escalation"`
	NeutralScore     float64             `yaml:"neutral_score" json:"neutral_score"`
	Size             SizeConfig          `yaml:"size" json:"size"`
	SensitivePaths   []PathWeight        `yaml:"sensitive_paths" json:"sensitive_paths"`
	Keywords         []KeywordWeight     `yaml:"keywords" json:"keywords"`
	SeverityLabels   map[string]float64  `yaml:"severity_labels" json:"severity_labels"`
	Priorities       map[string]float64  `yaml:"priorities" json:"priorities"`
	SeverityKeywords map[string]float64  `yaml:"severity_keywords" json:"severity_keywords"`
}

// DefaultScoringConfig returns a fresh copy of the embedded default policy.
func DefaultScoringConfig() *ScoringConfig {
	cfg := &ScoringConfig{}
	if err := yaml.Unmarshal(defaultScoringYAML, cfg); err != nil {
		panic(fmt.Sprintf("embedded scoring config is invalid: %v", err))
	}
	return cfg
}

// ParseScoringConfig overlays data on the embedded defaults and validates the result.
func ParseScoringConfig(data []byte) (*ScoringConfig, error) {
	cfg := DefaultScoringConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, appErrors.ConfigError("scoring", fmt.Sprintf("invalid YAML: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadScoringConfig reads and parses a scoring file.
func LoadScoringConfig(path string) (*ScoringConfig, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
	if err != nil {
		return nil, appErrors.WrapWithContext(err, fmt.Sprintf("read scoring config %s", path))
	}
	return ParseScoringConfig(data)
}

// Validate checks that the policy is internally consistent.
func (c *ScoringConfig) Validate() error {
	for name, w := range map[string]float64{
		"weights.size":        c.Weights.Size,
		"weights.sensitivity": c.Weights.Sensitivity,
		"weights.history":     c.Weights.History,
		"weights.severity":    c.Weights.Severity,
	} {
		if w < 0 || math.IsNaN(w) {
			return appErrors.ConfigError(name, fmt.Sprintf("%v must not be negative", w))
		}
	}
	if c.Weights.Sum() <= 0 {
		return appErrors.ConfigError("weights", "at least one weight must be positive")
	}

	t := c.Thresholds
	if !(t.Medium > 0 && t.Medium < t.High && t.High < t.Critical && t.Critical <= 1) {
		return appErrors.ConfigError("thresholds",
			fmt.Sprintf("need 0 < medium (%v) < high (%v) < critical (%v) <= 1", t.Medium, t.High, t.Critical))
	}

	if c.Escalation.MinSignals < 0 || c.Escalation.MinSignals > 4 {
		return appErrors.ConfigError("escalation.min_signals", fmt.Sprintf("%d must be between 0 and 4", c.Escalation.MinSignals))
	}
	if c.Escalation.MinSignals > 0 {
		if !inUnit(c.Escalation.SignalThreshold) {
			return appErrors.ConfigError("escalation.signal_threshold", fmt.Sprintf("%v must be within [0,1]", c.Escalation.SignalThreshold))
		}
		if !c.Escalation.Level.Valid() {
			return appErrors.ConfigError("escalation.level", "must be LOW, MEDIUM, HIGH or CRITICAL")
		}
	}

	if se := c.SensitiveLabel; se.MinLabelSeverity != 0 {
		if !inUnit(se.MinLabelSeverity) {
			return appErrors.ConfigError("sensitive_escalation.min_label_severity", fmt.Sprintf("%v must be within [0,1]", se.MinLabelSeverity))
		}
		if !se.Level.Valid() {
			return appErrors.ConfigError("sensitive_escalation.level", "must be LOW, MEDIUM, HIGH or CRITICAL")
		}
	}

	if !inUnit(c.NeutralScore) {
		return appErrors.ConfigError("neutral_score", fmt.Sprintf("%v must be within [0,1]", c.NeutralScore))
	}

	if c.Size.SaturationLines <= 0 || c.Size.SaturationFiles <= 0 || c.Size.SaturationChars <= 0 {
		return appErrors.ConfigError("size", "saturation values must be positive")
	}
	if !inUnit(c.Size.FilesWeight) {
		return appErrors.ConfigError("size.files_weight", fmt.Sprintf("%v must be within [0,1]", c.Size.FilesWeight))
	}

	for _, p := range c.SensitivePaths {
		if p.Pattern == "" || !inUnit(p.Weight) {
			return appErrors.ConfigError("sensitive_paths", fmt.Sprintf("pattern %q needs a weight within [0,1]", p.Pattern))
		}
	}
	for _, k := range c.Keywords {
		if k.Keyword == "" || !inUnit(k.Weight) {
			return appErrors.ConfigError("keywords", fmt.Sprintf("keyword %q needs a weight within [0,1]", k.Keyword))
		}
	}
	for name, table := range map[string]map[string]float64{
		"severity_labels":   c.SeverityLabels,
		"priorities":        c.Priorities,
		"severity_keywords": c.SeverityKeywords,
	} {
		for key, v := range table {
			if !inUnit(v) {
				return appErrors.ConfigError(name, fmt.Sprintf("%q: %v must be within [0,1]", key, v))
			}
		}
	}

	return nil
}

func inUnit(v float64) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(v)
}

// clamp bounds v to [0,1].
func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
