package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/auth"
	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/mapper"
	"github.com/bharatprops/lifecycle-api/internal/repository"
)

// LeadService owns lead CRUD, activity logging, scoring reads and stage
// transitions. Conversion lives in ConversionService.
type LeadService struct {
	leadRepo     *repository.LeadRepository
	activityRepo *repository.ActivityRepository
	historyRepo  *repository.StageHistoryRepository
	settings     *SettingsService
	logger       *zap.Logger
}

func NewLeadService(
	leadRepo *repository.LeadRepository,
	activityRepo *repository.ActivityRepository,
	historyRepo *repository.StageHistoryRepository,
	settings *SettingsService,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		leadRepo:     leadRepo,
		activityRepo: activityRepo,
		historyRepo:  historyRepo,
		settings:     settings,
		logger:       logger,
	}
}

func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	if existing, err := s.leadRepo.GetByMobile(ctx, req.Mobile); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: a lead with mobile %s already exists", ErrConflict, req.Mobile)
	}

	lead := &domain.Lead{
		Name:        req.Name,
		Mobile:      req.Mobile,
		Email:       req.Email,
		Requirement: req.Requirement,
		Budget:      req.Budget,
		BudgetMatch: req.BudgetMatch,
		Timeline:    req.Timeline,
		Source:      req.Source,
		Stage:       domain.StageNew,
		OwnerID:     req.OwnerID,
		Tags:        req.Tags,
		Notes:       req.Notes,
	}
	if userCtx, ok := auth.FromContext(ctx); ok && lead.OwnerID == "" {
		lead.OwnerID = userCtx.UserID.String()
		lead.OwnerName = userCtx.DisplayName
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	// New leads get an initial cached score so pipeline views sort sanely
	// before the first sweep runs
	if cfg, _, err := s.settings.CurrentConfig(ctx); err == nil {
		if res, err := engine.CalculateLeadScore(lead, nil, cfg); err == nil {
			lead.Score = res.Total
			lead.Temperature = res.Temperature.Label
			_ = s.leadRepo.UpdateCachedScore(ctx, lead.ID, res.Total, res.Temperature.Label)
		}
	}

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) List(ctx context.Context, page, pageSize int, filters *repository.LeadFilters, sortBy repository.LeadSortOption) (*domain.PaginatedResponse, error) {
	leads, total, err := s.leadRepo.ListWithFilters(ctx, page, pageSize, filters, sortBy)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}

	return &domain.PaginatedResponse{
		Data:       mapper.ToLeadDTOs(leads),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *LeadService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.IsConverted {
		return nil, ErrLeadConverted
	}

	lead.Name = req.Name
	lead.Email = req.Email
	lead.Requirement = req.Requirement
	lead.Budget = req.Budget
	lead.BudgetMatch = req.BudgetMatch
	lead.Timeline = req.Timeline
	lead.Source = req.Source
	if req.OwnerID != "" {
		lead.OwnerID = req.OwnerID
	}
	lead.Tags = req.Tags
	lead.Notes = req.Notes

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.refreshCachedScore(ctx, lead)

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.leadRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get lead: %w", err)
	}
	return s.leadRepo.Delete(ctx, id)
}

// LogActivity records an interaction with a lead, bumps the staleness
// clock and refreshes the cached score.
func (s *LeadService) LogActivity(ctx context.Context, leadID uuid.UUID, req *domain.LogActivityRequest) (*domain.ActivityDTO, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.IsConverted {
		return nil, ErrLeadConverted
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	status := req.Status
	if status == "" {
		status = domain.ActivityStatusCompleted
	}

	activity := &domain.Activity{
		LeadID:     leadID,
		Type:       req.Type,
		Purpose:    req.Purpose,
		Outcome:    req.Outcome,
		Status:     status,
		Notes:      req.Notes,
		OccurredAt: occurredAt,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		activity.CreatorID = userCtx.UserID.String()
		activity.CreatorName = userCtx.DisplayName
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to log activity: %w", err)
	}

	if err := s.leadRepo.TouchLastActivity(ctx, leadID, occurredAt); err != nil {
		s.logger.Warn("failed to bump last activity timestamp",
			zap.String("lead_id", leadID.String()),
			zap.Error(err),
		)
	}

	s.refreshCachedScore(ctx, lead)

	dto := mapper.ToActivityDTO(activity)
	return &dto, nil
}

// ListActivities returns the activity history of a lead, newest first
func (s *LeadService) ListActivities(ctx context.Context, leadID uuid.UUID) ([]domain.ActivityDTO, error) {
	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	activities, err := s.activityRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return mapper.ToActivityDTOs(activities), nil
}

// GetScore computes the lead's score on demand with the full component
// breakdown. This is the popover endpoint; it also refreshes the cached
// columns as a side effect.
func (s *LeadService) GetScore(ctx context.Context, leadID uuid.UUID) (*engine.ScoreResult, error) {
	lead, err := s.leadRepo.GetByIDWithActivities(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	cfg, _, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		return nil, err
	}

	result, err := engine.CalculateLeadScore(lead, lead.Activities, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}

	if err := s.leadRepo.UpdateCachedScore(ctx, leadID, result.Total, result.Temperature.Label); err != nil {
		s.logger.Warn("failed to refresh cached score",
			zap.String("lead_id", leadID.String()),
			zap.Error(err),
		)
	}

	return result, nil
}

// ValidateStage is the dry-run guard check used by pipeline drag
// handlers before committing a move. It never mutates anything.
func (s *LeadService) ValidateStage(ctx context.Context, req *domain.ValidateStageRequest) (*engine.TransitionVerdict, error) {
	if !req.FromStage.IsValid() || !req.ToStage.IsValid() {
		return nil, ErrInvalidStage
	}

	_, mode, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		return nil, err
	}

	verdict := engine.ValidateStageTransition(req.FromStage, req.ToStage, req.CompletedActivities, mode)
	return &verdict, nil
}

// ChangeStage moves a lead to a new stage, subject to the transition
// guard, and records the move in the stage history with any warning.
func (s *LeadService) ChangeStage(ctx context.Context, leadID uuid.UUID, req *domain.ChangeStageRequest) (*domain.LeadDTO, *engine.TransitionVerdict, error) {
	if !req.Stage.IsValid() {
		return nil, nil, ErrInvalidStage
	}

	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get lead: %w", err)
	}
	if lead.IsConverted {
		return nil, nil, ErrLeadConverted
	}

	_, mode, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		return nil, nil, err
	}

	completed, err := s.activityRepo.ListCompletedTypesByLead(ctx, leadID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load completed activities: %w", err)
	}

	verdict := engine.ValidateStageTransition(lead.Stage, req.Stage, completed, mode)
	if !verdict.Valid {
		return nil, &verdict, ErrStageBlocked
	}

	now := time.Now().UTC()
	fromStage := lead.Stage

	if err := s.leadRepo.UpdateStage(ctx, leadID, req.Stage, now); err != nil {
		return nil, nil, fmt.Errorf("failed to change stage: %w", err)
	}

	entry := &domain.StageHistory{
		LeadID:    leadID,
		FromStage: &fromStage,
		ToStage:   req.Stage,
		Warning:   verdict.Warning,
		Notes:     req.Notes,
		ChangedAt: now,
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		entry.ChangedByID = userCtx.UserID.String()
		entry.ChangedByName = userCtx.DisplayName
	}
	if err := s.historyRepo.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record stage history",
			zap.String("lead_id", leadID.String()),
			zap.Error(err),
		)
	}

	lead.Stage = req.Stage
	lead.StageChangedAt = &now

	if verdict.Warning != "" {
		s.logger.Warn("stage transition with warning",
			zap.String("lead_id", leadID.String()),
			zap.String("from", string(fromStage)),
			zap.String("to", string(req.Stage)),
			zap.Strings("skipped", verdict.SkippedStages),
		)
	}

	s.refreshCachedScore(ctx, lead)

	dto := mapper.ToLeadDTO(lead)
	return &dto, &verdict, nil
}

// ListStageHistory returns the stage audit trail of a lead
func (s *LeadService) ListStageHistory(ctx context.Context, leadID uuid.UUID) ([]domain.StageHistoryDTO, error) {
	if _, err := s.leadRepo.GetByID(ctx, leadID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	entries, err := s.historyRepo.ListByLead(ctx, leadID)
	if err != nil {
		return nil, fmt.Errorf("failed to list stage history: %w", err)
	}
	return mapper.ToStageHistoryDTOs(entries), nil
}

// PipelineCounts returns unconverted lead counts per stage
func (s *LeadService) PipelineCounts(ctx context.Context) (map[domain.LeadStage]int64, error) {
	return s.leadRepo.CountByStage(ctx)
}

// refreshCachedScore recomputes and stores the denormalized score
// columns. Failures are logged, not returned; the cache catches up on
// the next sweep.
func (s *LeadService) refreshCachedScore(ctx context.Context, lead *domain.Lead) {
	cfg, _, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		s.logger.Warn("failed to load scoring config for cache refresh", zap.Error(err))
		return
	}

	activities, err := s.activityRepo.ListByLead(ctx, lead.ID)
	if err != nil {
		s.logger.Warn("failed to load activities for cache refresh",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
		return
	}

	result, err := engine.CalculateLeadScore(lead, activities, cfg)
	if err != nil {
		s.logger.Warn("failed to score lead for cache refresh",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
		return
	}

	lead.Score = result.Total
	lead.Temperature = result.Temperature.Label
	if err := s.leadRepo.UpdateCachedScore(ctx, lead.ID, result.Total, result.Temperature.Label); err != nil {
		s.logger.Warn("failed to store cached score",
			zap.String("lead_id", lead.ID.String()),
			zap.Error(err),
		)
	}
}
