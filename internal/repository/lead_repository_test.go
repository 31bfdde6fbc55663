package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/testutil"
)

func setupLeadTestDB(t *testing.T) *gorm.DB {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})
	return db
}

func TestLeadRepository_CreateAndGet(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := &domain.Lead{
		Name:   "Ravi Kumar",
		Mobile: "+919876543210",
		Email:  "ravi@example.com",
		Requirement: domain.Requirement{
			PropertyType: "Villa",
			Location:     "Sarjapur Road",
		},
		Budget:      12000000,
		BudgetMatch: domain.BudgetMatchPerfect,
		Timeline:    domain.TimelineUrgent,
		Source:      "Channel Partner",
		Stage:       domain.StageNew,
		Tags:        []string{"investor"},
	}

	err := repo.Create(context.Background(), lead)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, lead.ID)

	found, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", found.Name)
	assert.Equal(t, "+919876543210", found.Mobile)
	assert.Equal(t, "Villa", found.Requirement.PropertyType)
	assert.Equal(t, domain.StageNew, found.Stage)
	assert.False(t, found.IsConverted)
	assert.Equal(t, []string{"investor"}, []string(found.Tags))
}

func TestLeadRepository_GetByMobile(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := testutil.CreateTestLead(t, db, "Mobile Lookup Lead")

	found, err := repo.GetByMobile(context.Background(), lead.Mobile)
	require.NoError(t, err)
	assert.Equal(t, lead.ID, found.ID)

	_, err = repo.GetByMobile(context.Background(), "+910000000000")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLeadRepository_GetByIDWithActivities(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := testutil.CreateTestLead(t, db, "Activity Lead")
	now := time.Now().UTC()
	testutil.CreateTestActivity(t, db, lead, "Call", "Introduction / First Contact", "Connected", now.AddDate(0, 0, -2))
	testutil.CreateTestActivity(t, db, lead, "Site Visit", "Follow-up / Site Visit", "Completed", now.AddDate(0, 0, -1))

	found, err := repo.GetByIDWithActivities(context.Background(), lead.ID)
	require.NoError(t, err)
	require.Len(t, found.Activities, 2)
	// Newest first
	assert.Equal(t, "Site Visit", found.Activities[0].Type)
	assert.Equal(t, "Call", found.Activities[1].Type)
}

func TestLeadRepository_UpdateStage(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := testutil.CreateTestLead(t, db, "Stage Lead")
	changedAt := time.Now().UTC()

	err := repo.UpdateStage(context.Background(), lead.ID, domain.StageProspect, changedAt)
	require.NoError(t, err)

	found, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StageProspect, found.Stage)
	require.NotNil(t, found.StageChangedAt)
	assert.WithinDuration(t, changedAt, *found.StageChangedAt, time.Second)
}

func TestLeadRepository_MarkConverted(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := testutil.CreateTestLead(t, db, "Conversion Lead")
	now := time.Now().UTC()
	meta := domain.ConversionMeta{
		Date:    &now,
		Score:   72,
		Source:  lead.Source,
		Trigger: "Manual conversion",
	}

	flipped, err := repo.MarkConverted(context.Background(), lead.ID, meta)
	require.NoError(t, err)
	assert.True(t, flipped)

	// Second attempt matches zero rows
	flipped, err = repo.MarkConverted(context.Background(), lead.ID, meta)
	require.NoError(t, err)
	assert.False(t, flipped)

	found, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.True(t, found.IsConverted)
	require.NotNil(t, found.ConversionMeta)
	assert.Equal(t, 72, found.ConversionMeta.Score)
	assert.Equal(t, "Manual conversion", found.ConversionMeta.Trigger)
}

func TestLeadRepository_ListWithFilters(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	a := testutil.CreateTestLead(t, db, "Filter Lead A")
	b := testutil.CreateTestLead(t, db, "Filter Lead B")
	require.NoError(t, repo.UpdateStage(context.Background(), b.ID, domain.StageQualified, time.Now().UTC()))
	require.NoError(t, repo.UpdateCachedScore(context.Background(), a.ID, 85, "HOT"))

	t.Run("filter by stage", func(t *testing.T) {
		stage := domain.StageQualified
		leads, total, err := repo.ListWithFilters(context.Background(), 1, 10, &repository.LeadFilters{Stage: &stage}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, leads, 1)
		assert.Equal(t, b.ID, leads[0].ID)
	})

	t.Run("filter by temperature", func(t *testing.T) {
		leads, total, err := repo.ListWithFilters(context.Background(), 1, 10, &repository.LeadFilters{Temperature: "HOT"}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, leads, 1)
		assert.Equal(t, a.ID, leads[0].ID)
	})

	t.Run("search by name", func(t *testing.T) {
		leads, total, err := repo.ListWithFilters(context.Background(), 1, 10, &repository.LeadFilters{Search: "filter lead"}, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, leads, 2)
	})

	t.Run("sort by score", func(t *testing.T) {
		leads, _, err := repo.ListWithFilters(context.Background(), 1, 10, nil, repository.LeadSortByScoreDesc)
		require.NoError(t, err)
		require.NotEmpty(t, leads)
		assert.Equal(t, a.ID, leads[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		leads, total, err := repo.ListWithFilters(context.Background(), 2, 1, nil, "")
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, leads, 1)
	})
}

func TestLeadRepository_ListUnconvertedByStage(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	active := testutil.CreateTestLead(t, db, "Active Lead")
	converted := testutil.CreateTestLead(t, db, "Converted Lead")
	now := time.Now().UTC()
	_, err := repo.MarkConverted(context.Background(), converted.ID, domain.ConversionMeta{Date: &now})
	require.NoError(t, err)

	leads, err := repo.ListUnconvertedByStage(context.Background(), []domain.LeadStage{domain.StageNew})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, active.ID, leads[0].ID)
}

func TestLeadRepository_CountByStage(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	testutil.CreateTestLead(t, db, "Count Lead 1")
	testutil.CreateTestLead(t, db, "Count Lead 2")
	qualified := testutil.CreateTestLead(t, db, "Count Lead 3")
	require.NoError(t, repo.UpdateStage(context.Background(), qualified.ID, domain.StageQualified, time.Now().UTC()))

	counts, err := repo.CountByStage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[domain.StageNew])
	assert.Equal(t, int64(1), counts[domain.StageQualified])
}

func TestLeadRepository_TouchLastActivity(t *testing.T) {
	db := setupLeadTestDB(t)
	repo := repository.NewLeadRepository(db)

	lead := testutil.CreateTestLead(t, db, "Touch Lead")
	newer := time.Now().UTC()
	older := newer.AddDate(0, 0, -3)

	require.NoError(t, repo.TouchLastActivity(context.Background(), lead.ID, newer))

	// An older timestamp must not move the clock backwards
	require.NoError(t, repo.TouchLastActivity(context.Background(), lead.ID, older))

	found, err := repo.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastActivityAt)
	assert.WithinDuration(t, newer, *found.LastActivityAt, time.Second)
}
