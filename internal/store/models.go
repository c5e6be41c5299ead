package store

import (
	"fmt"
	"time"

	"github.com/mrz1836/compliance-copilot/internal/jsonutil"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

// SummaryRecord is one stored summary. The indexed columns serve lookups;
// Payload holds the summary JSON exactly as it was served.
type SummaryRecord struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Fingerprint string    `gorm:"size:64;uniqueIndex;not null" json:"fingerprint"`
	Identifier  string    `gorm:"size:512;index:idx_summary_identifier_generated,priority:1;not null" json:"identifier"`
	SourceKind  string    `gorm:"size:16;not null" json:"source_kind"`
	RiskLevel   string    `gorm:"size:16;index;not null" json:"risk_level"`
	RiskScore   float64   `json:"risk_score"`
	Backend     string    `gorm:"size:64" json:"backend"`
	GeneratedAt time.Time `gorm:"index:idx_summary_identifier_generated,priority:2;index;not null" json:"generated_at"`
	Payload     string    `gorm:"type:text;not null" json:"-"`
}

// TableName pins the table name.
func (SummaryRecord) TableName() string {
	return "summaries"
}

// NewSummaryRecord encodes s for storage.
func NewSummaryRecord(s *risk.Summary) (*SummaryRecord, error) {
	payload, err := jsonutil.MarshalJSON(s)
	if err != nil {
		return nil, fmt.Errorf("encode summary %s: %w", s.Fingerprint, err)
	}

	return &SummaryRecord{
		Fingerprint: s.Fingerprint,
		Identifier:  s.Identifier,
		SourceKind:  string(s.SourceKind),
		RiskLevel:   s.OverallRiskLevel.String(),
		RiskScore:   s.RiskScore,
		Backend:     s.Backend,
		GeneratedAt: s.GeneratedAt.UTC(),
		Payload:     string(payload),
	}, nil
}

// Summary decodes the stored payload.
func (r *SummaryRecord) Summary() (*risk.Summary, error) {
	s, err := jsonutil.UnmarshalJSON[risk.Summary]([]byte(r.Payload))
	if err != nil {
		return nil, fmt.Errorf("decode summary %s: %w", r.Fingerprint, err)
	}
	return &s, nil
}
