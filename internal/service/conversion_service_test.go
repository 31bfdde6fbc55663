package service_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/service"
	"github.com/bharatprops/lifecycle-api/internal/testutil"
)

func setupConversionService(t *testing.T) (*service.ConversionService, *gorm.DB) {
	db := testutil.SetupCleanTestDB(t)
	t.Cleanup(func() {
		testutil.CleanupTestData(t, db)
	})

	logger := zap.NewNop()
	leadRepo := repository.NewLeadRepository(db)
	contactRepo := repository.NewContactRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	settings := service.NewSettingsService(settingsRepo, "warn", logger)

	return service.NewConversionService(leadRepo, contactRepo, settings, logger), db
}

func TestConversionService_ConvertLead(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Convert Me")

	result, err := svc.ConvertLead(ctx, lead.ID, "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	require.NotNil(t, result.Contact)
	assert.Equal(t, lead.Name, result.Contact.Name)
	assert.Equal(t, lead.Mobile, result.Contact.Mobile)
	assert.Equal(t, "Prospect", result.Contact.Category)
	require.NotNil(t, result.Contact.LeadID)
	assert.Equal(t, lead.ID, *result.Contact.LeadID)
	assert.Equal(t, service.ManualTrigger, result.Contact.ConversionMeta.Trigger)

	// Lead side carries the same conversion stamp
	stamped, err := repository.NewLeadRepository(db).GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, stamped.IsConverted)
	require.NotNil(t, stamped.ConversionMeta)
	assert.Equal(t, service.ManualTrigger, stamped.ConversionMeta.Trigger)
}

func TestConversionService_ConvertLead_Idempotent(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Convert Once")

	first, err := svc.ConvertLead(ctx, lead.ID, "")
	require.NoError(t, err)
	require.True(t, first.Success)

	second, err := svc.ConvertLead(ctx, lead.ID, "")
	require.NoError(t, err)
	assert.False(t, second.Success)
	assert.Equal(t, "Lead is already converted", second.Message)
	require.NotNil(t, second.Contact)
	assert.Equal(t, first.Contact.ID, second.Contact.ID)

	// Exactly one contact exists
	var count int64
	require.NoError(t, db.Model(&domain.Contact{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConversionService_ConvertLead_Concurrent(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Concurrent Convert")

	const attempts = 8
	results := make([]*domain.ConversionResult, attempts)
	errs := make([]error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.ConvertLead(ctx, lead.ID, "")
		}(i)
	}
	wg.Wait()

	successes := 0
	for i := 0; i < attempts; i++ {
		require.NoError(t, errs[i])
		require.NotNil(t, results[i])
		if results[i].Success {
			successes++
		}
	}
	assert.Equal(t, 1, successes)

	var count int64
	require.NoError(t, db.Model(&domain.Contact{}).Where("lead_id = ?", lead.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestConversionService_ConvertLead_DuplicateContact(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Duplicate Lead")

	// An existing contact already owns this mobile number
	existing := &domain.Contact{
		Name:     "Existing Contact",
		Mobile:   lead.Mobile,
		Category: "Prospect",
	}
	require.NoError(t, db.Create(existing).Error)

	result, err := svc.ConvertLead(ctx, lead.ID, "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.True(t, result.RequiresMerge)
	require.NotNil(t, result.Duplicate)
	assert.Equal(t, existing.ID, result.Duplicate.ID)

	// The lead stays unconverted until someone resolves the merge
	found, err := repository.NewLeadRepository(db).GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, found.IsConverted)
}

func TestConversionService_ConvertLead_NotFound(t *testing.T) {
	svc, db := setupConversionService(t)
	_ = db

	_, err := svc.ConvertLead(context.Background(), uuid.New(), "")
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestConversionService_EvaluateAutoConversion(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	t.Run("rule A fires on connected call with sufficient score", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Hot Caller")
		boostScore(t, db, lead, 10)

		result, err := svc.EvaluateAutoConversion(ctx, lead.ID, &domain.LeadEventRequest{
			Event:   "call_logged",
			Details: map[string]string{"status": "connected"},
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Rule A: High Engagement", result.RuleTriggered)
		require.NotNil(t, result.Contact)
		assert.Equal(t, "Rule A: High Engagement", result.Contact.ConversionMeta.Trigger)
	})

	t.Run("rule A needs the connected detail", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Missed Caller")
		boostScore(t, db, lead, 10)

		result, err := svc.EvaluateAutoConversion(ctx, lead.ID, &domain.LeadEventRequest{
			Event:   "call_logged",
			Details: map[string]string{"status": "no_answer"},
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No conversion rule matched", result.Message)
	})

	t.Run("rule B fires on site visit regardless of details", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Site Visitor")
		boostScore(t, db, lead, 6)

		result, err := svc.EvaluateAutoConversion(ctx, lead.ID, &domain.LeadEventRequest{
			Event: "site_visit_scheduled",
		})
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, "Rule B: High Intent Action", result.RuleTriggered)
	})

	t.Run("no rule fires below the score threshold", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Cold Event Lead")

		result, err := svc.EvaluateAutoConversion(ctx, lead.ID, &domain.LeadEventRequest{
			Event:   "call_logged",
			Details: map[string]string{"status": "connected"},
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "No conversion rule matched", result.Message)
	})

	t.Run("already converted lead reports as such", func(t *testing.T) {
		lead := testutil.CreateTestLead(t, db, "Pre-converted Lead")
		_, err := svc.ConvertLead(ctx, lead.ID, "")
		require.NoError(t, err)

		result, err := svc.EvaluateAutoConversion(ctx, lead.ID, &domain.LeadEventRequest{
			Event: "site_visit_scheduled",
		})
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, "Lead is already converted", result.Message)
	})
}

func TestConversionService_IsConverted(t *testing.T) {
	svc, db := setupConversionService(t)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Status Lead")

	converted, err := svc.IsConverted(ctx, lead.ID)
	require.NoError(t, err)
	assert.False(t, converted)

	_, err = svc.ConvertLead(ctx, lead.ID, "")
	require.NoError(t, err)

	converted, err = svc.IsConverted(ctx, lead.ID)
	require.NoError(t, err)
	assert.True(t, converted)
}

// boostScore logs enough connected calls to lift the lead's live score
// past the auto-conversion thresholds.
func boostScore(t *testing.T, db *gorm.DB, lead *domain.Lead, calls int) {
	t.Helper()
	now := time.Now().UTC()
	for i := 0; i < calls; i++ {
		testutil.CreateTestActivity(t, db, lead,
			"Call", "Introduction / First Contact", "Connected",
			now.Add(-time.Duration(i)*time.Hour))
	}
}
