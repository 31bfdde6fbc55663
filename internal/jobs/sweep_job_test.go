package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

func stallTestJob(stallAfterDays int) *SweepJob {
	return &SweepJob{
		stallAfterDays: stallAfterDays,
		timeout:        time.Minute,
		logger:         zap.NewNop(),
	}
}

func TestSweepJob_ShouldStall(t *testing.T) {
	now := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	job := stallTestJob(45)

	negotiationLead := func(createdDaysAgo int) *domain.Lead {
		lead := &domain.Lead{Stage: domain.StageNegotiation}
		lead.CreatedAt = now.AddDate(0, 0, -createdDaysAgo)
		return lead
	}

	t.Run("idle negotiation lead past the threshold stalls", func(t *testing.T) {
		lead := negotiationLead(60)
		assert.True(t, job.shouldStall(lead, nil, now))
	})

	t.Run("idle lead just under the threshold does not stall", func(t *testing.T) {
		lead := negotiationLead(44)
		assert.False(t, job.shouldStall(lead, nil, now))
	})

	t.Run("recent activity resets the idle clock", func(t *testing.T) {
		lead := negotiationLead(60)
		activities := []domain.Activity{
			{OccurredAt: now.AddDate(0, 0, -10)},
		}
		assert.False(t, job.shouldStall(lead, activities, now))
	})

	t.Run("last_activity_at counts even without loaded activities", func(t *testing.T) {
		lead := negotiationLead(60)
		recent := now.AddDate(0, 0, -5)
		lead.LastActivityAt = &recent
		assert.False(t, job.shouldStall(lead, nil, now))
	})

	t.Run("only negotiation leads stall", func(t *testing.T) {
		lead := negotiationLead(90)
		lead.Stage = domain.StageQualified
		assert.False(t, job.shouldStall(lead, nil, now))
	})

	t.Run("zero threshold disables stalling", func(t *testing.T) {
		lead := negotiationLead(365)
		assert.False(t, stallTestJob(0).shouldStall(lead, nil, now))
	})

	t.Run("old activities do not save an idle lead", func(t *testing.T) {
		lead := negotiationLead(90)
		activities := []domain.Activity{
			{OccurredAt: now.AddDate(0, 0, -80)},
		}
		assert.True(t, job.shouldStall(lead, activities, now))
	})
}
