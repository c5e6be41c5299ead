package risk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"slices"
	"time"

	"github.com/mrz1836/compliance-copilot/internal/source"
)

// Summary is the externally visible risk assessment of one record.
//
// A Summary is immutable once created; the cache and the store share the
// same value, and RecommendedActions must not be modified by callers.
type Summary struct {
	Identifier         string      `json:"identifier"`
	SourceKind         source.Kind `json:"source_kind"`
	OverallRiskLevel   Level       `json:"overall_risk_level"`
	RiskScore          float64     `json:"risk_score"`
	Rationale          string      `json:"rationale"`
	RecommendedActions []string    `json:"recommended_actions"`
	Features           Features    `json:"features"`

	// ModelRiskLevel is the level the summarization backend reported. The
	// authoritative level is always OverallRiskLevel.
	ModelRiskLevel Level `json:"model_risk_level,omitempty"`

	Backend     string    `json:"backend"`
	Fingerprint string    `json:"fingerprint"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Actions returns a copy of the recommended actions.
func (s *Summary) Actions() []string {
	return slices.Clone(s.RecommendedActions)
}

// Fingerprint returns the cache key of a record scored with features f.
//
// It hashes the identifier, kind, title, body, diff/description, the sorted
// labels and the sub-scores to four decimals. The same payload under the
// same scoring policy always yields the same fingerprint; a retuned policy
// or new historical data yields a new one.
func Fingerprint(rec *source.CanonicalRecord, f *Features) string {
	h := sha256.New()

	writeField(h, "identifier", rec.Identifier())
	writeField(h, "kind", string(rec.Kind()))
	writeField(h, "title", rec.Title())
	writeField(h, "body", rec.Body())
	writeField(h, "content", rec.DiffOrDescription())
	for _, label := range rec.Labels() {
		writeField(h, "label", label)
	}
	if f != nil {
		writeField(h, "features", fmt.Sprintf("%.4f|%.4f|%.4f|%.4f",
			f.SizeScore, f.SensitivityScore, f.HistoricalDefectScore, f.SeverityScore))
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeField writes a length-prefixed field so that no two field sequences collide.
func writeField(h hash.Hash, name, value string) {
	_, _ = fmt.Fprintf(h, "%s:%d:%s\n", name, len(value), value)
}
