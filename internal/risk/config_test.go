package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
)

func TestDefaultScoringConfig(t *testing.T) {
	cfg := DefaultScoringConfig()

	require.NoError(t, cfg.Validate())
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.InDelta(t, 0.75, cfg.Thresholds.Critical, 1e-9)
	assert.Equal(t, LevelCritical, cfg.Escalation.Level)
	assert.Len(t, cfg.Keywords, 25)
	assert.InDelta(t, 0.5, cfg.SeverityLabels["medium"], 1e-9)

	// every call returns an independent copy
	cfg.Weights.Size = 0.9
	assert.InDelta(t, 0.15, DefaultScoringConfig().Weights.Size, 1e-9)
}

func TestParseScoringConfigOverlay(t *testing.T) {
	cfg, err := ParseScoringConfig([]byte(`
weights:
  severity: 0.5
escalation:
  level: high
severity_labels:
  urgent: 0.95
`))
	require.NoError(t, err)

	assert.InDelta(t, 0.5, cfg.Weights.Severity, 1e-9)
	assert.InDelta(t, 0.35, cfg.Weights.Sensitivity, 1e-9)
	assert.Equal(t, LevelHigh, cfg.Escalation.Level)
	assert.InDelta(t, 0.95, cfg.SeverityLabels["urgent"], 1e-9)
	assert.InDelta(t, 1.0, cfg.SeverityLabels["critical"], 1e-9)
	assert.InDelta(t, 1.0, cfg.SensitiveLabel.MinLabelSeverity, 1e-9)
	assert.Equal(t, LevelCritical, cfg.SensitiveLabel.Level)
}

func TestParseScoringConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "weights: ["},
		{"negative weight", "weights:\n  size: -1\n"},
		{"zero weights", "weights:\n  size: 0\n  sensitivity: 0\n  history: 0\n  severity: 0\n"},
		{"unordered thresholds", "thresholds:\n  medium: 0.6\n  high: 0.5\n  critical: 0.7\n"},
		{"unknown level", "escalation:\n  level: SEVERE\n"},
		{"neutral out of range", "neutral_score: 1.5\n"},
		{"zero saturation", "size:\n  saturation_lines: 0\n"},
		{"keyword weight", "keywords:\n  - { keyword: x, weight: 2 }\n"},
		{"label weight", "severity_labels:\n  huge: 3\n"},
		{"sensitive escalation severity", "sensitive_escalation:\n  min_label_severity: 1.5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScoringConfig([]byte(tt.yaml))
			require.Error(t, err)
			assert.ErrorIs(t, err, appErrors.ErrInvalidConfig)
		})
	}
}

func TestLoadScoringConfig(t *testing.T) {
	_, err := LoadScoringConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "scoring.yaml")
	require.NoError(t, os.WriteFile(path, []byte("neutral_score: 0.4\n"), 0o600))

	cfg, err := LoadScoringConfig(path)
	require.NoError(t, err)
	assert.InDelta(t, 0.4, cfg.NeutralScore, 1e-9)
}

func TestNewExtractorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultScoringConfig()
	cfg.Thresholds.Medium = 0

	_, err := NewExtractor(cfg)
	require.ErrorIs(t, err, appErrors.ErrInvalidConfig)
}
