package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

func TestParseEnforcementMode(t *testing.T) {
	assert.Equal(t, EnforcementOff, ParseEnforcementMode("off"))
	assert.Equal(t, EnforcementBlock, ParseEnforcementMode("BLOCK"))
	assert.Equal(t, EnforcementWarn, ParseEnforcementMode("warn"))
	assert.Equal(t, EnforcementWarn, ParseEnforcementMode(""))
	assert.Equal(t, EnforcementWarn, ParseEnforcementMode("strict"))
}

func TestStageOrder(t *testing.T) {
	assert.Equal(t, 0, StageOrder(domain.StageNew))
	assert.Equal(t, 4, StageOrder(domain.StageNegotiation))
	assert.Equal(t, 6, StageOrder(domain.StageClosedWon))
	assert.Equal(t, -1, StageOrder(domain.StageClosedLost))
	assert.Equal(t, -1, StageOrder(domain.StageStalled))
	assert.Equal(t, -1, StageOrder(domain.LeadStage("Bogus")))
}

func TestValidateStageTransition(t *testing.T) {
	t.Run("adjacent forward move is clean", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageNew, domain.StageProspect, nil, EnforcementWarn)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Warning)
		assert.Empty(t, v.SkippedStages)
		assert.Empty(t, v.MissingActivities)
	})

	t.Run("jump under warn is valid with warning", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageNew, domain.StageNegotiation, nil, EnforcementWarn)
		assert.True(t, v.Valid)
		assert.NotEmpty(t, v.Warning)
		assert.Equal(t, []string{"Prospect", "Qualified", "Opportunity"}, v.SkippedStages)
		assert.Equal(t, []string{"Introduction / Call", "Requirement Gathering", "Follow-up / Site Visit"}, v.MissingActivities)
	})

	t.Run("jump under block is invalid", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageNew, domain.StageNegotiation, nil, EnforcementBlock)
		assert.False(t, v.Valid)
		assert.NotEmpty(t, v.Warning)
		assert.Equal(t, []string{"Prospect", "Qualified", "Opportunity"}, v.SkippedStages)
	})

	t.Run("jump under off is valid without warning", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageNew, domain.StageNegotiation, nil, EnforcementOff)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Warning)
		assert.Empty(t, v.SkippedStages)
	})

	t.Run("backward move is always valid", func(t *testing.T) {
		for _, mode := range []EnforcementMode{EnforcementOff, EnforcementWarn, EnforcementBlock} {
			v := ValidateStageTransition(domain.StageNegotiation, domain.StageQualified, nil, mode)
			assert.True(t, v.Valid, "mode %s", mode)
			assert.Empty(t, v.Warning)
		}
	})

	t.Run("same stage is valid", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageQualified, domain.StageQualified, nil, EnforcementBlock)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Warning)
	})

	t.Run("completed activities do not clear skipped stages", func(t *testing.T) {
		completed := []string{"Introduction / Call", "Requirement Gathering", "Follow-up / Site Visit"}
		v := ValidateStageTransition(domain.StageNew, domain.StageNegotiation, completed, EnforcementBlock)
		assert.False(t, v.Valid)
		assert.Equal(t, []string{"Prospect", "Qualified", "Opportunity"}, v.SkippedStages)
	})

	t.Run("move to out-of-sequence stage is valid", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageNegotiation, domain.StageClosedLost, nil, EnforcementBlock)
		assert.True(t, v.Valid)
		assert.Empty(t, v.Warning)

		v = ValidateStageTransition(domain.StageBooked, domain.StageStalled, nil, EnforcementBlock)
		assert.True(t, v.Valid)
	})

	t.Run("move from out-of-sequence stage skips everything before target", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageClosedLost, domain.StageQualified, nil, EnforcementWarn)
		assert.True(t, v.Valid)
		assert.Equal(t, []string{"Prospect"}, v.SkippedStages)
	})

	t.Run("skip to next required stage only warns about intermediates", func(t *testing.T) {
		v := ValidateStageTransition(domain.StageProspect, domain.StageOpportunity, nil, EnforcementWarn)
		assert.True(t, v.Valid)
		assert.Equal(t, []string{"Qualified"}, v.SkippedStages)
		assert.Equal(t, []string{"Requirement Gathering"}, v.MissingActivities)
	})
}
