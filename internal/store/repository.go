package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appErrors "github.com/mrz1836/compliance-copilot/internal/errors"
	"github.com/mrz1836/compliance-copilot/internal/risk"
)

// DefaultListLimit bounds ListRecent when no limit is given.
const DefaultListLimit = 50

// SummaryRepository manages stored summaries.
type SummaryRepository interface {
	// Save stores s. Saving a fingerprint again replaces the stored summary.
	Save(ctx context.Context, s *risk.Summary) error
	FindByFingerprint(ctx context.Context, fingerprint string) (*risk.Summary, error)
	// FindLatestByIdentifier returns the most recently generated summary for identifier.
	FindLatestByIdentifier(ctx context.Context, identifier string) (*risk.Summary, error)
	ListRecent(ctx context.Context, limit int) ([]*risk.Summary, error)
	// Prune deletes summaries generated before cutoff and reports how many were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type summaryRepository struct {
	db *gorm.DB
}

// NewSummaryRepository creates a new SummaryRepository
func NewSummaryRepository(db *gorm.DB) SummaryRepository {
	return &summaryRepository{db: db}
}

func (r *summaryRepository) Save(ctx context.Context, s *risk.Summary) error {
	if s == nil || s.Fingerprint == "" {
		return appErrors.RequiredFieldError("fingerprint")
	}

	rec, err := NewSummaryRecord(s)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "fingerprint"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"identifier", "source_kind", "risk_level", "risk_score",
			"backend", "generated_at", "payload", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *summaryRepository) FindByFingerprint(ctx context.Context, fingerprint string) (*risk.Summary, error) {
	var rec SummaryRecord
	if err := r.db.WithContext(ctx).Where("fingerprint = ?", fingerprint).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NotFoundError("summary", fingerprint)
		}
		return nil, err
	}
	return rec.Summary()
}

func (r *summaryRepository) FindLatestByIdentifier(ctx context.Context, identifier string) (*risk.Summary, error) {
	var rec SummaryRecord
	if err := r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Order("generated_at DESC").Order("id DESC").
		First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appErrors.NotFoundError("summary for identifier", identifier)
		}
		return nil, err
	}
	return rec.Summary()
}

func (r *summaryRepository) ListRecent(ctx context.Context, limit int) ([]*risk.Summary, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var recs []SummaryRecord
	if err := r.db.WithContext(ctx).
		Order("generated_at DESC").Order("id DESC").
		Limit(limit).
		Find(&recs).Error; err != nil {
		return nil, err
	}

	out := make([]*risk.Summary, 0, len(recs))
	for i := range recs {
		s, err := recs[i].Summary()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *summaryRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("generated_at < ?", cutoff.UTC()).Delete(&SummaryRecord{})
	if result.Error != nil {
		return 0, fmt.Errorf("prune summaries: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *summaryRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&SummaryRecord{}).Count(&n).Error
	return n, err
}
