package risk

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/source"
)

// Signal names used in Features.Degraded.
const (
	SignalSize        = "size"
	SignalSensitivity = "sensitivity"
	SignalHistory     = "history"
	SignalSeverity    = "severity"
)

// HistoricalContext carries defect rates observed for files and labels.
// Keys of FileDefectRates are exact paths or globs; rates are in [0,1].
type HistoricalContext struct {
	FileDefectRates  map[string]float64 `json:"file_defect_rates,omitempty"`
	LabelDefectRates map[string]float64 `json:"label_defect_rates,omitempty"`
}

// IsEmpty reports whether the context carries no data at all.
func (h *HistoricalContext) IsEmpty() bool {
	return h == nil || (len(h.FileDefectRates) == 0 && len(h.LabelDefectRates) == 0)
}

// Features are the deterministic risk signals of one record, each in [0,1].
type Features struct {
	SizeScore             float64 `json:"size_score"`
	SensitivityScore      float64 `json:"sensitivity_score"`
	HistoricalDefectScore float64 `json:"historical_defect_score"`
	SeverityScore         float64 `json:"severity_score"`

	// SensitivePathMatched is set when a touched file matched a sensitive path.
	SensitivePathMatched bool `json:"sensitive_path_matched"`

	// LabelSeverity is the highest severity read from severity labels, 0 without one.
	LabelSeverity float64 `json:"label_severity"`

	// Degraded names the signals that fell back to the neutral score.
	Degraded []string `json:"degraded,omitempty"`

	// MatchedSignals explains which paths, keywords and labels contributed.
	MatchedSignals []string `json:"matched_signals,omitempty"`
}

// Scores returns the four sub-scores in a fixed order: size, sensitivity, history, severity.
func (f *Features) Scores() [4]float64 {
	return [4]float64{f.SizeScore, f.SensitivityScore, f.HistoricalDefectScore, f.SeverityScore}
}

type compiledKeyword struct {
	keyword string
	re      *regexp.Regexp
	weight  float64
}

func compileKeyword(keyword string, weight float64) compiledKeyword {
	return compiledKeyword{
		keyword: keyword,
		re:      regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(keyword)),
		weight:  weight,
	}
}

// Extractor computes Features from a record. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	cfg              *ScoringConfig
	paths            []pathPattern
	keywords         []compiledKeyword
	severityKeywords []compiledKeyword
}

// NewExtractor compiles the path and keyword tables of cfg.
func NewExtractor(cfg *ScoringConfig) (*Extractor, error) {
	if cfg == nil {
		cfg = DefaultScoringConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Extractor{cfg: cfg}

	for _, p := range cfg.SensitivePaths {
		compiled, err := compilePathPattern(p.Pattern, p.Weight)
		if err != nil {
			return nil, appErrors.ConfigError("sensitive_paths", fmt.Sprintf("pattern %q: %v", p.Pattern, err))
		}
		e.paths = append(e.paths, compiled)
	}

	for _, k := range cfg.Keywords {
		e.keywords = append(e.keywords, compileKeyword(strings.ToLower(k.Keyword), k.Weight))
	}

	for _, kw := range sortedKeys(cfg.SeverityKeywords) {
		e.severityKeywords = append(e.severityKeywords, compileKeyword(kw, cfg.SeverityKeywords[kw]))
	}

	return e, nil
}

// Config returns the scoring configuration the extractor was built with.
func (e *Extractor) Config() *ScoringConfig {
	return e.cfg
}

// Extract computes the four sub-scores of rec.
//
// Only a record without kind, or without both title and diff/description,
// is an error. Any signal that cannot be computed falls back to the neutral
// score and is listed in Features.Degraded.
func (e *Extractor) Extract(rec *source.CanonicalRecord, hist *HistoricalContext) (*Features, error) {
	if rec == nil {
		return nil, appErrors.InsufficientDataError("no record")
	}
	if rec.Kind() != source.KindPR && rec.Kind() != source.KindTicket {
		return nil, appErrors.InsufficientDataError("record has no source kind")
	}
	if rec.Title() == "" && strings.TrimSpace(rec.DiffOrDescription()) == "" {
		return nil, appErrors.InsufficientDataError("record has neither title nor content")
	}

	f := &Features{Degraded: []string{}, MatchedSignals: []string{}}
	text := rec.Text()

	var files []string
	f.SizeScore, files = e.sizeScore(rec, f)
	f.SensitivityScore = e.sensitivityScore(files, text, f)
	f.HistoricalDefectScore = e.historyScore(files, rec.Labels(), hist, f)
	f.SeverityScore = e.severityScore(rec, text, f)

	f.SizeScore = round4(clamp(f.SizeScore))
	f.SensitivityScore = round4(clamp(f.SensitivityScore))
	f.HistoricalDefectScore = round4(clamp(f.HistoricalDefectScore))
	f.SeverityScore = round4(clamp(f.SeverityScore))

	return f, nil
}

// sizeScore returns the size sub-score and, for PRs, the touched paths.
func (e *Extractor) sizeScore(rec *source.CanonicalRecord, f *Features) (float64, []string) {
	sc := e.cfg.Size

	if rec.Kind() == source.KindTicket {
		chars := utf8.RuneCountInString(rec.DiffOrDescription())
		return saturate(float64(chars), float64(sc.SaturationChars)), nil
	}

	files := rec.ChangedFiles()
	stats, ok := source.ParseDiff(rec.DiffOrDescription())
	if !ok {
		f.Degraded = append(f.Degraded, SignalSize)
		return e.cfg.NeutralScore, files
	}

	fileCount := max(len(stats.Files), len(files))
	lines := saturate(float64(stats.ChangedLines()), float64(sc.SaturationLines))
	fileScore := saturate(float64(fileCount), float64(sc.SaturationFiles))

	return (1-sc.FilesWeight)*lines + sc.FilesWeight*fileScore, files
}

// saturate maps n onto [0,1] with a square-root curve reaching 1 at limit.
func saturate(n, limit float64) float64 {
	if n <= 0 || limit <= 0 {
		return 0
	}
	return math.Sqrt(math.Min(1, n/limit))
}

func (e *Extractor) sensitivityScore(files []string, text string, f *Features) float64 {
	pathScore := 0.0
	for _, file := range files {
		for _, p := range e.paths {
			if p.matches(file) {
				f.SensitivePathMatched = true
				if p.weight > pathScore {
					pathScore = p.weight
				}
				f.MatchedSignals = append(f.MatchedSignals, fmt.Sprintf("path:%s (%s)", file, p.original))
				break
			}
		}
	}

	keywordScore := 0.0
	for _, k := range e.keywords {
		if k.re.MatchString(text) {
			keywordScore += k.weight
			f.MatchedSignals = append(f.MatchedSignals, "keyword:"+k.keyword)
		}
	}

	return math.Max(pathScore, math.Min(keywordScore, 1))
}

func (e *Extractor) historyScore(files, labels []string, hist *HistoricalContext, f *Features) float64 {
	if hist.IsEmpty() {
		f.Degraded = append(f.Degraded, SignalHistory)
		return e.cfg.NeutralScore
	}

	found := false
	best := 0.0
	consider := func(signal string, rate float64) {
		found = true
		if rate > best {
			best = rate
		}
		f.MatchedSignals = append(f.MatchedSignals, fmt.Sprintf("history:%s=%.2f", signal, rate))
	}

	keys := sortedKeys(hist.FileDefectRates)
	for _, file := range files {
		if rate, ok := hist.FileDefectRates[file]; ok {
			consider(file, rate)
			continue
		}
		for _, key := range keys {
			if !strings.ContainsAny(key, "*?") {
				continue
			}
			p, err := compilePathPattern(key, 0)
			if err == nil && p.matches(file) {
				consider(file, hist.FileDefectRates[key])
				break
			}
		}
	}

	for _, label := range labels {
		for _, key := range sortedKeys(hist.LabelDefectRates) {
			if strings.EqualFold(key, label) {
				consider(label, hist.LabelDefectRates[key])
				break
			}
		}
	}

	if !found {
		f.Degraded = append(f.Degraded, SignalHistory)
		return e.cfg.NeutralScore
	}
	return best
}

func (e *Extractor) severityScore(rec *source.CanonicalRecord, text string, f *Features) float64 {
	best, found := 0.0, false
	for _, label := range rec.Labels() {
		prefix, value, ok := strings.Cut(strings.ToLower(label), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(prefix) {
		case "severity", "sev", "priority":
		default:
			continue
		}
		if score, ok := e.cfg.SeverityLabels[strings.TrimSpace(value)]; ok {
			found = true
			best = math.Max(best, score)
			f.MatchedSignals = append(f.MatchedSignals, "label:"+label)
		}
	}
	if found {
		f.LabelSeverity = best
		return best
	}

	if p := strings.ToLower(strings.TrimSpace(rec.Priority())); p != "" {
		if score, ok := e.cfg.Priorities[p]; ok {
			f.MatchedSignals = append(f.MatchedSignals, "priority:"+rec.Priority())
			return score
		}
	}

	for _, k := range e.severityKeywords {
		if k.re.MatchString(text) {
			found = true
			best = math.Max(best, k.weight)
			f.MatchedSignals = append(f.MatchedSignals, "severity-keyword:"+k.keyword)
		}
	}
	if found {
		return best
	}

	f.Degraded = append(f.Degraded, SignalSeverity)
	return e.cfg.NeutralScore
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
