package engine

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

func genStage() gopter.Gen {
	return gen.OneConstOf(
		domain.StageNew, domain.StageProspect, domain.StageQualified,
		domain.StageOpportunity, domain.StageNegotiation, domain.StageBooked,
		domain.StageClosedWon, domain.StageClosedLost, domain.StageStalled,
	)
}

func genLead() gopter.Gen {
	return gopter.CombineGens(
		genStage(),
		gen.AlphaString(),
		gen.Float64Range(0, 50000000),
		gen.OneConstOf("", "perfect", "slightly_lower", "mismatch"),
		gen.IntRange(0, 120),
	).Map(func(vals []interface{}) *domain.Lead {
		lead := &domain.Lead{
			Stage:       vals[0].(domain.LeadStage),
			Source:      vals[1].(string),
			Budget:      vals[2].(float64),
			BudgetMatch: domain.BudgetMatch(vals[3].(string)),
		}
		lead.CreatedAt = fixedNow.AddDate(0, 0, -vals[4].(int))
		return lead
	})
}

func genActivities() gopter.Gen {
	activity := gopter.CombineGens(
		gen.OneConstOf("Call", "WhatsApp", "Site Visit", "Email", "Fax"),
		gen.OneConstOf("Introduction / First Contact", "Negotiation Call", "Follow-up", "Follow-up / Site Visit", "Brochure / Offer"),
		gen.OneConstOf("Connected", "No Answer", "Not Interested", "Replied", "Completed", "No Show", "Opened"),
		gen.OneConstOf(domain.ActivityStatusPlanned, domain.ActivityStatusCompleted, domain.ActivityStatusCancelled),
		gen.IntRange(0, 60),
	).Map(func(vals []interface{}) domain.Activity {
		return domain.Activity{
			Type:       vals[0].(string),
			Purpose:    vals[1].(string),
			Outcome:    vals[2].(string),
			Status:     vals[3].(domain.ActivityStatus),
			OccurredAt: fixedNow.AddDate(0, 0, -vals[4].(int)),
		}
	})
	return gen.SliceOf(activity)
}

func TestScoringProperties(t *testing.T) {
	cfg := DefaultScoringConfig()
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("total stays within 0..100", prop.ForAll(
		func(lead *domain.Lead, activities []domain.Activity) bool {
			res, err := CalculateLeadScoreAt(lead, activities, cfg, fixedNow)
			if err != nil {
				return false
			}
			return res.Total >= 0 && res.Total <= 100
		},
		genLead(), genActivities(),
	))

	properties.Property("decay component is never positive", prop.ForAll(
		func(lead *domain.Lead, activities []domain.Activity) bool {
			res, err := CalculateLeadScoreAt(lead, activities, cfg, fixedNow)
			if err != nil {
				return false
			}
			return res.Breakdown.Decay <= 0
		},
		genLead(), genActivities(),
	))

	properties.Property("same inputs and reference time give same result", prop.ForAll(
		func(lead *domain.Lead, activities []domain.Activity) bool {
			a, err := CalculateLeadScoreAt(lead, activities, cfg, fixedNow)
			if err != nil {
				return false
			}
			b, err := CalculateLeadScoreAt(lead, activities, cfg, fixedNow)
			if err != nil {
				return false
			}
			return *a == *b
		},
		genLead(), genActivities(),
	))

	properties.Property("temperature band matches total", prop.ForAll(
		func(lead *domain.Lead, activities []domain.Activity) bool {
			res, err := CalculateLeadScoreAt(lead, activities, cfg, fixedNow)
			if err != nil {
				return false
			}
			return res.Temperature == TemperatureFor(res.Total)
		},
		genLead(), genActivities(),
	))

	properties.TestingRun(t)
}

func TestGuardProperties(t *testing.T) {
	params := gopter.DefaultTestParameters()
	params.MinSuccessfulTests = 200
	properties := gopter.NewProperties(params)

	properties.Property("non-forward moves are always valid", prop.ForAll(
		func(from, to domain.LeadStage, mode string) bool {
			if StageOrder(to) > StageOrder(from) {
				return true
			}
			v := ValidateStageTransition(from, to, nil, ParseEnforcementMode(mode))
			return v.Valid && v.Warning == ""
		},
		genStage(), genStage(), gen.OneConstOf("off", "warn", "block"),
	))

	properties.Property("warn never invalidates", prop.ForAll(
		func(from, to domain.LeadStage) bool {
			return ValidateStageTransition(from, to, nil, EnforcementWarn).Valid
		},
		genStage(), genStage(),
	))

	properties.Property("block invalidates exactly the warned moves", prop.ForAll(
		func(from, to domain.LeadStage) bool {
			warned := ValidateStageTransition(from, to, nil, EnforcementWarn)
			blocked := ValidateStageTransition(from, to, nil, EnforcementBlock)
			return blocked.Valid == (warned.Warning == "")
		},
		genStage(), genStage(),
	))

	properties.TestingRun(t)
}
