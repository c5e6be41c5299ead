package risk

// Scorer maps Features to a Level using the weighted mean and escalation
// rule of a ScoringConfig. It is a pure function of its inputs.
type Scorer struct {
	cfg *ScoringConfig
}

// NewScorer creates a scorer for cfg. A nil cfg uses the embedded defaults.
func NewScorer(cfg *ScoringConfig) *Scorer {
	if cfg == nil {
		cfg = DefaultScoringConfig()
	}
	return &Scorer{cfg: cfg}
}

// Score returns the weighted mean of the sub-scores, rounded to four decimals.
func (s *Scorer) Score(f *Features) float64 {
	w := s.cfg.Weights
	total := w.Sum()
	if f == nil || total <= 0 {
		return 0
	}
	sum := w.Size*clamp(f.SizeScore) +
		w.Sensitivity*clamp(f.SensitivityScore) +
		w.History*clamp(f.HistoricalDefectScore) +
		w.Severity*clamp(f.SeverityScore)
	return round4(clamp(sum / total))
}

// Level returns the risk level for f together with its weighted score.
func (s *Scorer) Level(f *Features) (Level, float64) {
	score := s.Score(f)
	t := s.cfg.Thresholds

	level := LevelLow
	switch {
	case score >= t.Critical:
		level = LevelCritical
	case score >= t.High:
		level = LevelHigh
	case score >= t.Medium:
		level = LevelMedium
	}

	if esc := s.cfg.Escalation; f != nil && esc.MinSignals > 0 {
		strong := 0
		for _, v := range f.Scores() {
			if v >= esc.SignalThreshold {
				strong++
			}
		}
		if strong >= esc.MinSignals {
			level = Max(level, esc.Level)
		}
	}

	if se := s.cfg.SensitiveLabel; f != nil && se.MinLabelSeverity > 0 &&
		f.SensitivePathMatched && f.LabelSeverity >= se.MinLabelSeverity {
		level = Max(level, se.Level)
	}

	return level, score
}
