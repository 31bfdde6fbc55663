package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the single engine settings row. Callers treat
// gorm.ErrRecordNotFound as "use defaults".
func (r *SettingsRepository) Get(ctx context.Context) (*domain.EngineSettings, error) {
	var settings domain.EngineSettings
	err := r.db.WithContext(ctx).
		Order("updated_at DESC").
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// Upsert replaces the settings row, creating it on first save
func (r *SettingsRepository) Upsert(ctx context.Context, settings *domain.EngineSettings) error {
	var existing domain.EngineSettings
	err := r.db.WithContext(ctx).Order("updated_at DESC").First(&existing).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return r.db.WithContext(ctx).Create(settings).Error
		}
		return err
	}

	settings.ID = existing.ID
	settings.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(settings).Error
}
