package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Create(lead).Error
}

func (r *LeadRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByIDWithActivities loads a lead together with its activity history,
// newest first. Scoring passes need the full history.
func (r *LeadRepository) GetByIDWithActivities(ctx context.Context, id uuid.UUID) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Preload("Activities", func(db *gorm.DB) *gorm.DB {
			return db.Order("occurred_at DESC")
		}).
		First(&lead, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

// GetByMobile finds a lead by its mobile number identity
func (r *LeadRepository) GetByMobile(ctx context.Context, mobile string) (*domain.Lead, error) {
	var lead domain.Lead
	err := r.db.WithContext(ctx).
		Where("mobile = ?", mobile).
		First(&lead).Error
	if err != nil {
		return nil, err
	}
	return &lead, nil
}

func (r *LeadRepository) Update(ctx context.Context, lead *domain.Lead) error {
	return r.db.WithContext(ctx).Save(lead).Error
}

func (r *LeadRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Lead{}, "id = ?", id).Error
}

// UpdateStage moves a lead to a new stage and stamps the change time
func (r *LeadRepository) UpdateStage(ctx context.Context, id uuid.UUID, stage domain.LeadStage, changedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"stage":            stage,
			"stage_changed_at": changedAt,
		}).Error
}

// UpdateCachedScore refreshes the denormalized score columns
func (r *LeadRepository) UpdateCachedScore(ctx context.Context, id uuid.UUID, score int, temperature string) error {
	return r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"score":       score,
			"temperature": temperature,
		}).Error
}

// MarkConverted flips is_converted from false to true and stamps the
// conversion metadata in one statement. The WHERE clause on
// is_converted makes this a compare-and-set: a second concurrent caller
// matches zero rows.
func (r *LeadRepository) MarkConverted(ctx context.Context, id uuid.UUID, meta domain.ConversionMeta) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ? AND is_converted = ?", id, false).
		Updates(map[string]interface{}{
			"is_converted":       true,
			"conversion_date":    meta.Date,
			"conversion_score":   meta.Score,
			"conversion_source":  meta.Source,
			"conversion_trigger": meta.Trigger,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// LeadFilters holds filters for listing leads
type LeadFilters struct {
	Search      string
	Stage       *domain.LeadStage
	Source      string
	OwnerID     string
	Temperature string
	Converted   *bool
}

// LeadSortOption defines sort options for leads
type LeadSortOption string

const (
	LeadSortByScoreDesc   LeadSortOption = "score_desc"
	LeadSortByCreatedDesc LeadSortOption = "created_desc"
	LeadSortByNameAsc     LeadSortOption = "name_asc"
	LeadSortByActivityAsc LeadSortOption = "activity_asc"
)

// ListWithFilters returns leads with filters and pagination
func (r *LeadRepository) ListWithFilters(ctx context.Context, page, pageSize int, filters *LeadFilters, sortBy LeadSortOption) ([]domain.Lead, int64, error) {
	var leads []domain.Lead
	var total int64

	offset := (page - 1) * pageSize

	query := r.db.WithContext(ctx).Model(&domain.Lead{})

	if filters != nil {
		if filters.Search != "" {
			searchPattern := "%" + filters.Search + "%"
			query = query.Where(
				"name ILIKE ? OR mobile ILIKE ? OR email ILIKE ?",
				searchPattern, searchPattern, searchPattern,
			)
		}
		if filters.Stage != nil {
			query = query.Where("stage = ?", *filters.Stage)
		}
		if filters.Source != "" {
			query = query.Where("source ILIKE ?", filters.Source)
		}
		if filters.OwnerID != "" {
			query = query.Where("owner_id = ?", filters.OwnerID)
		}
		if filters.Temperature != "" {
			query = query.Where("temperature = ?", filters.Temperature)
		}
		if filters.Converted != nil {
			query = query.Where("is_converted = ?", *filters.Converted)
		}
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch sortBy {
	case LeadSortByScoreDesc:
		query = query.Order("score DESC, created_at DESC")
	case LeadSortByNameAsc:
		query = query.Order("name ASC")
	case LeadSortByActivityAsc:
		// Stalest first, for follow-up worklists
		query = query.Order("last_activity_at ASC NULLS FIRST")
	default:
		query = query.Order("created_at DESC")
	}

	err := query.
		Offset(offset).
		Limit(pageSize).
		Find(&leads).Error

	return leads, total, err
}

// ListUnconvertedByStage returns every unconverted lead in the given
// stages. The nightly sweep uses this to walk the active pipeline.
func (r *LeadRepository) ListUnconvertedByStage(ctx context.Context, stages []domain.LeadStage) ([]domain.Lead, error) {
	var leads []domain.Lead
	err := r.db.WithContext(ctx).
		Where("is_converted = ? AND stage IN ?", false, stages).
		Find(&leads).Error
	return leads, err
}

// CountByStage returns lead counts grouped by pipeline stage
func (r *LeadRepository) CountByStage(ctx context.Context) (map[domain.LeadStage]int64, error) {
	type row struct {
		Stage domain.LeadStage
		Count int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Select("stage, COUNT(*) as count").
		Where("is_converted = ?", false).
		Group("stage").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.LeadStage]int64, len(rows))
	for _, r := range rows {
		counts[r.Stage] = r.Count
	}
	return counts, nil
}

// TouchLastActivity bumps last_activity_at if the given time is newer
func (r *LeadRepository) TouchLastActivity(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Lead{}).
		Where("id = ? AND (last_activity_at IS NULL OR last_activity_at < ?)", id, at).
		Update("last_activity_at", at).Error
}

// Transaction runs fn inside a database transaction with repositories
// bound to the transactional handle.
func (r *LeadRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}
