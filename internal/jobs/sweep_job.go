package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// SweepJobName is the name of the nightly pipeline sweep job
const SweepJobName = "pipeline_sweep"

// activeStages are the stages the sweep walks. Terminal stages keep
// their last cached score.
var activeStages = []domain.LeadStage{
	domain.StageNew,
	domain.StageProspect,
	domain.StageQualified,
	domain.StageOpportunity,
	domain.StageNegotiation,
	domain.StageBooked,
}

// SweepJob recomputes cached scores for every unconverted lead so decay
// shows up without anyone opening the lead, and moves Negotiation leads
// with no recent activity to Stalled.
type SweepJob struct {
	leadRepo       *repository.LeadRepository
	activityRepo   *repository.ActivityRepository
	historyRepo    *repository.StageHistoryRepository
	settings       *service.SettingsService
	stallAfterDays int
	timeout        time.Duration
	logger         *zap.Logger
}

// NewSweepJob creates a new pipeline sweep job
func NewSweepJob(
	leadRepo *repository.LeadRepository,
	activityRepo *repository.ActivityRepository,
	historyRepo *repository.StageHistoryRepository,
	settings *service.SettingsService,
	stallAfterDays int,
	timeout time.Duration,
	logger *zap.Logger,
) *SweepJob {
	return &SweepJob{
		leadRepo:       leadRepo,
		activityRepo:   activityRepo,
		historyRepo:    historyRepo,
		settings:       settings,
		stallAfterDays: stallAfterDays,
		timeout:        timeout,
		logger:         logger,
	}
}

// Run executes the sweep. This is called by the scheduler.
func (j *SweepJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	rescored, stalled, failed := j.sweep(ctx, start.UTC())

	j.logger.Info("pipeline sweep completed",
		zap.Int("rescored", rescored),
		zap.Int("stalled", stalled),
		zap.Int("failed", failed),
		zap.Duration("duration", time.Since(start)),
	)
}

func (j *SweepJob) sweep(ctx context.Context, now time.Time) (rescored, stalled, failed int) {
	cfg, _, err := j.settings.CurrentConfig(ctx)
	if err != nil {
		j.logger.Error("sweep aborted: failed to load scoring config", zap.Error(err))
		return 0, 0, 0
	}

	leads, err := j.leadRepo.ListUnconvertedByStage(ctx, activeStages)
	if err != nil {
		j.logger.Error("sweep aborted: failed to list leads", zap.Error(err))
		return 0, 0, 0
	}

	for i := range leads {
		lead := &leads[i]

		activities, err := j.activityRepo.ListByLead(ctx, lead.ID)
		if err != nil {
			j.logger.Warn("sweep: failed to load activities",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}

		result, err := engine.CalculateLeadScoreAt(lead, activities, cfg, now)
		if err != nil {
			j.logger.Warn("sweep: failed to score lead",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}

		if err := j.leadRepo.UpdateCachedScore(ctx, lead.ID, result.Total, result.Temperature.Label); err != nil {
			j.logger.Warn("sweep: failed to store cached score",
				zap.String("lead_id", lead.ID.String()),
				zap.Error(err),
			)
			failed++
			continue
		}
		rescored++

		if j.shouldStall(lead, activities, now) {
			if err := j.stallLead(ctx, lead, now); err != nil {
				j.logger.Warn("sweep: failed to stall lead",
					zap.String("lead_id", lead.ID.String()),
					zap.Error(err),
				)
				failed++
				continue
			}
			stalled++
		}
	}

	return rescored, stalled, failed
}

// shouldStall reports whether a Negotiation lead has been idle long
// enough to park it as Stalled.
func (j *SweepJob) shouldStall(lead *domain.Lead, activities []domain.Activity, now time.Time) bool {
	if lead.Stage != domain.StageNegotiation || j.stallAfterDays <= 0 {
		return false
	}

	last := lead.CreatedAt
	if lead.LastActivityAt != nil && lead.LastActivityAt.After(last) {
		last = *lead.LastActivityAt
	}
	for _, act := range activities {
		if act.OccurredAt.After(last) {
			last = act.OccurredAt
		}
	}

	return now.Sub(last) >= time.Duration(j.stallAfterDays)*24*time.Hour
}

func (j *SweepJob) stallLead(ctx context.Context, lead *domain.Lead, now time.Time) error {
	if err := j.leadRepo.UpdateStage(ctx, lead.ID, domain.StageStalled, now); err != nil {
		return err
	}

	fromStage := lead.Stage
	entry := &domain.StageHistory{
		LeadID:        lead.ID,
		FromStage:     &fromStage,
		ToStage:       domain.StageStalled,
		ChangedByName: "Pipeline sweep",
		Notes:         "Auto-stalled: no activity during negotiation",
		ChangedAt:     now,
	}
	return j.historyRepo.Create(ctx, entry)
}
