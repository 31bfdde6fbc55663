package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

type StageHistoryRepository struct {
	db *gorm.DB
}

func NewStageHistoryRepository(db *gorm.DB) *StageHistoryRepository {
	return &StageHistoryRepository{db: db}
}

func (r *StageHistoryRepository) Create(ctx context.Context, entry *domain.StageHistory) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByLead returns the stage audit trail for a lead, newest first
func (r *StageHistoryRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.StageHistory, error) {
	var entries []domain.StageHistory
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("changed_at DESC").
		Find(&entries).Error
	return entries, err
}

// CountWarnings returns how many recorded transitions carried a guard
// warning, a rough health signal for pipeline discipline dashboards.
func (r *StageHistoryRepository) CountWarnings(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.StageHistory{}).
		Where("warning <> ''").
		Count(&count).Error
	return count, err
}
