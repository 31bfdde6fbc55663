package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/service"
	"github.com/bharatprops/lifecycle-api/internal/testutil"
)

func setupLeadService(t *testing.T, enforcement string) (*service.LeadService, *gorm.DB) {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})

	logger := zap.NewNop()
	leadRepo := repository.NewLeadRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	historyRepo := repository.NewStageHistoryRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	settings := service.NewSettingsService(settingsRepo, enforcement, logger)

	return service.NewLeadService(leadRepo, activityRepo, historyRepo, settings, logger), db
}

func TestLeadService_Create(t *testing.T) {
	svc, _ := setupLeadService(t, "warn")
	ctx := context.Background()

	dto, err := svc.Create(ctx, &domain.CreateLeadRequest{
		Name:   "Anita Sharma",
		Mobile: "+919812345678",
		Email:  "anita@example.com",
		Requirement: domain.Requirement{
			PropertyType: "Apartment",
			Location:     "Hebbal",
		},
		Budget:      6500000,
		BudgetMatch: domain.BudgetMatchPerfect,
		Timeline:    domain.TimelineUrgent,
		Source:      "Walk-In",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageNew, dto.Stage)
	assert.False(t, dto.IsConverted)
	// Initial cached score is computed on create
	assert.Greater(t, dto.Score, 0)
	assert.NotEmpty(t, dto.Temperature)
}

func TestLeadService_Create_DuplicateMobile(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	existing := testutil.CreateTestLead(t, db, "First Lead")

	_, err := svc.Create(ctx, &domain.CreateLeadRequest{
		Name:   "Second Lead",
		Mobile: existing.Mobile,
	})
	assert.ErrorIs(t, err, service.ErrConflict)
}

func TestLeadService_Update_ConvertedLeadIsFrozen(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Frozen Lead")
	now := time.Now().UTC()
	_, err := repository.NewLeadRepository(db).MarkConverted(ctx, lead.ID, domain.ConversionMeta{Date: &now})
	require.NoError(t, err)

	_, err = svc.Update(ctx, lead.ID, &domain.UpdateLeadRequest{Name: "New Name"})
	assert.ErrorIs(t, err, service.ErrLeadConverted)

	_, _, err = svc.ChangeStage(ctx, lead.ID, &domain.ChangeStageRequest{Stage: domain.StageProspect})
	assert.ErrorIs(t, err, service.ErrLeadConverted)

	_, err = svc.LogActivity(ctx, lead.ID, &domain.LogActivityRequest{Type: "Call"})
	assert.ErrorIs(t, err, service.ErrLeadConverted)
}

func TestLeadService_LogActivity(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Active Lead")

	occurred := time.Now().UTC().Add(-2 * time.Hour)
	dto, err := svc.LogActivity(ctx, lead.ID, &domain.LogActivityRequest{
		Type:       "Call",
		Purpose:    "Introduction / First Contact",
		Outcome:    "Connected",
		OccurredAt: &occurred,
	})
	require.NoError(t, err)
	assert.Equal(t, "Call", dto.Type)
	// Status defaults to completed
	assert.Equal(t, domain.ActivityStatusCompleted, dto.Status)

	// The staleness clock moved
	found, err := repository.NewLeadRepository(db).GetByID(ctx, lead.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastActivityAt)
	assert.WithinDuration(t, occurred, *found.LastActivityAt, time.Second)
}

func TestLeadService_ChangeStage_Forward(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Forward Lead")

	dto, verdict, err := svc.ChangeStage(ctx, lead.ID, &domain.ChangeStageRequest{Stage: domain.StageProspect})
	require.NoError(t, err)
	assert.Equal(t, domain.StageProspect, dto.Stage)
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Warning)

	history, err := svc.ListStageHistory(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].FromStage)
	assert.Equal(t, domain.StageNew, *history[0].FromStage)
	assert.Equal(t, domain.StageProspect, history[0].ToStage)
	assert.Empty(t, history[0].Warning)
}

func TestLeadService_ChangeStage_JumpWarns(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Jumping Lead")

	dto, verdict, err := svc.ChangeStage(ctx, lead.ID, &domain.ChangeStageRequest{Stage: domain.StageNegotiation})
	require.NoError(t, err)
	assert.Equal(t, domain.StageNegotiation, dto.Stage)
	assert.True(t, verdict.Valid)
	assert.Contains(t, verdict.Warning, "Stage jump detected")
	assert.Equal(t, []string{"Prospect", "Qualified", "Opportunity"}, verdict.SkippedStages)

	// The warning lands in the audit trail
	history, err := svc.ListStageHistory(ctx, lead.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Warning, "Stage jump detected")
}

func TestLeadService_ChangeStage_JumpBlocked(t *testing.T) {
	svc, db := setupLeadService(t, "block")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Blocked Lead")

	_, verdict, err := svc.ChangeStage(ctx, lead.ID, &domain.ChangeStageRequest{Stage: domain.StageBooked})
	assert.ErrorIs(t, err, service.ErrStageBlocked)
	require.NotNil(t, verdict)
	assert.False(t, verdict.Valid)
	assert.NotEmpty(t, verdict.SkippedStages)

	// Nothing moved and nothing was recorded
	found, err := repository.NewLeadRepository(db).GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNew, found.Stage)

	history, err := svc.ListStageHistory(ctx, lead.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestLeadService_ChangeStage_BackwardAlwaysAllowed(t *testing.T) {
	svc, db := setupLeadService(t, "block")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Backward Lead")
	require.NoError(t, repository.NewLeadRepository(db).UpdateStage(ctx, lead.ID, domain.StageNegotiation, time.Now().UTC()))

	dto, verdict, err := svc.ChangeStage(ctx, lead.ID, &domain.ChangeStageRequest{Stage: domain.StageProspect})
	require.NoError(t, err)
	assert.Equal(t, domain.StageProspect, dto.Stage)
	assert.True(t, verdict.Valid)
	assert.Empty(t, verdict.Warning)
}

func TestLeadService_ChangeStage_InvalidStage(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	lead := testutil.CreateTestLead(t, db, "Invalid Stage Lead")

	_, _, err := svc.ChangeStage(context.Background(), lead.ID, &domain.ChangeStageRequest{Stage: "Imaginary"})
	assert.ErrorIs(t, err, service.ErrInvalidStage)
}

func TestLeadService_ValidateStage(t *testing.T) {
	svc, _ := setupLeadService(t, "warn")
	ctx := context.Background()

	verdict, err := svc.ValidateStage(ctx, &domain.ValidateStageRequest{
		FromStage: domain.StageNew,
		ToStage:   domain.StageQualified,
	})
	require.NoError(t, err)
	assert.True(t, verdict.Valid)
	assert.Equal(t, []string{"Prospect"}, verdict.SkippedStages)

	_, err = svc.ValidateStage(ctx, &domain.ValidateStageRequest{
		FromStage: "Nope",
		ToStage:   domain.StageQualified,
	})
	assert.ErrorIs(t, err, service.ErrInvalidStage)
}

func TestLeadService_GetScore(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Scored Lead")
	testutil.CreateTestActivity(t, db, lead,
		"Call", "Introduction / First Contact", "Connected", time.Now().UTC())

	result, err := svc.GetScore(ctx, lead.ID)
	require.NoError(t, err)
	assert.Greater(t, result.Total, 0)
	assert.LessOrEqual(t, result.Total, 100)
	assert.Equal(t, float64(10), result.Breakdown.Activity)
	assert.Equal(t, engine.TemperatureFor(result.Total), result.Temperature)

	// The cached columns were refreshed as a side effect
	found, err := repository.NewLeadRepository(db).GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Total, found.Score)
	assert.Equal(t, result.Temperature.Label, found.Temperature)
}

func TestLeadService_PipelineCounts(t *testing.T) {
	svc, db := setupLeadService(t, "warn")
	ctx := context.Background()

	testutil.CreateTestLead(t, db, "Pipeline Lead 1")
	testutil.CreateTestLead(t, db, "Pipeline Lead 2")

	counts, err := svc.PipelineCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.StageNew])
}

func TestLeadService_NotFound(t *testing.T) {
	svc, _ := setupLeadService(t, "warn")
	ctx := context.Background()
	id := uuid.New()

	_, err := svc.GetByID(ctx, id)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = svc.GetScore(ctx, id)
	assert.ErrorIs(t, err, service.ErrNotFound)

	err = svc.Delete(ctx, id)
	assert.ErrorIs(t, err, service.ErrNotFound)
}
