package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	var activity domain.Activity
	err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

// ListByLead returns all activities for a lead, newest first
func (r *ActivityRepository) ListByLead(ctx context.Context, leadID uuid.UUID) ([]domain.Activity, error) {
	var activities []domain.Activity
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("occurred_at DESC").
		Find(&activities).Error
	return activities, err
}

// ListCompletedTypesByLead returns the distinct activity types a lead has
// completed, for the stage guard dry-run endpoint.
func (r *ActivityRepository) ListCompletedTypesByLead(ctx context.Context, leadID uuid.UUID) ([]string, error) {
	var types []string
	err := r.db.WithContext(ctx).
		Model(&domain.Activity{}).
		Where("lead_id = ? AND status = ?", leadID, domain.ActivityStatusCompleted).
		Distinct().
		Pluck("type", &types).Error
	return types, err
}

func (r *ActivityRepository) Update(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Activity{}, "id = ?", id).Error
}
