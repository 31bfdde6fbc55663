// Package engine implements the lead lifecycle engine: weighted lead
// scoring with time decay, the stage transition guard over the canonical
// pipeline ordering, and the trigger rules for lead-to-contact
// auto-conversion.
//
// Everything in this package is pure computation. Configuration is passed
// explicitly on every call and never cached or mutated; persistence and
// transport live elsewhere.
package engine

import (
	"github.com/bharatprops/lifecycle-api/internal/domain"
)

// Recognized attribute keys for the attribute-scoring loop. The set is
// fixed; weights for keys outside it are ignored.
const (
	AttrPropertyType = "propertyType"
	AttrSubType      = "subType"
	AttrUnitType     = "unitType"
	AttrArea         = "area"
	AttrFacing       = "facing"
	AttrRoadWidth    = "roadWidth"
	AttrDirection    = "direction"
	AttrLocation     = "location"
	AttrBudget       = "budget"
	AttrTimeline     = "timeline"
)

// DecayRule is one step of the staleness penalty curve: once a lead has
// been idle for at least AfterDays, Penalty applies. The deepest matching
// step wins. Penalties must be ≤ 0.
type DecayRule struct {
	AfterDays int     `json:"afterDays"`
	Penalty   float64 `json:"penalty"`
}

// ActivityOutcome is a leaf of the activity master hierarchy carrying the
// score contribution for that outcome. Scores may be negative.
type ActivityOutcome struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// ActivityPurpose groups outcomes under a purpose within an activity type
type ActivityPurpose struct {
	Name     string            `json:"name"`
	Outcomes []ActivityOutcome `json:"outcomes"`
}

// ActivityMaster is one activity type with its purpose/outcome hierarchy
type ActivityMaster struct {
	Name     string            `json:"name"`
	Purposes []ActivityPurpose `json:"purposes"`
}

// ActivityMasterFields is the configured activity→purpose→outcome
// hierarchy used to resolve activity score contributions.
type ActivityMasterFields struct {
	Activities []ActivityMaster `json:"activities"`
}

// ConversionRule is a named auto-conversion trigger: when one of Events
// fires with the given detail values and the lead's score meets MinScore,
// the lead converts with the rule name as trigger description.
type ConversionRule struct {
	Name     string            `json:"name"`
	Events   []string          `json:"events"`
	Details  map[string]string `json:"details,omitempty"`
	MinScore int               `json:"minScore"`
}

// Matches reports whether the rule fires for the given event, detail
// values and score.
func (r ConversionRule) Matches(event string, details map[string]string, score int) bool {
	if score < r.MinScore {
		return false
	}
	found := false
	for _, e := range r.Events {
		if e == event {
			found = true
			break
		}
	}
	if !found {
		return false
	}
	for k, v := range r.Details {
		if details[k] != v {
			return false
		}
	}
	return true
}

// ScoringConfig holds every table the engine consults. Any section may be
// empty or nil; a missing section degrades that component's contribution
// to zero rather than erroring.
type ScoringConfig struct {
	ScoringAttributes    map[string]float64           `json:"scoringAttributes"`
	SourceQualityScores  map[string]float64           `json:"sourceQualityScores"`
	InventoryFitScores   map[string]float64           `json:"inventoryFitScores"`
	DecayRules           []DecayRule                  `json:"decayRules"`
	StageMultipliers     map[domain.LeadStage]float64 `json:"stageMultipliers"`
	ActivityMasterFields ActivityMasterFields         `json:"activityMasterFields"`
	ConversionRules      []ConversionRule             `json:"conversionRules"`
}

// DefaultScoringConfig returns the stock configuration seeded for new
// installations. Attribute weights sum to 77, matching the breakdown
// ceiling the score popover renders.
func DefaultScoringConfig() *ScoringConfig {
	return &ScoringConfig{
		ScoringAttributes: map[string]float64{
			AttrPropertyType: 10,
			AttrSubType:      8,
			AttrUnitType:     8,
			AttrArea:         8,
			AttrFacing:       5,
			AttrRoadWidth:    5,
			AttrDirection:    5,
			AttrLocation:     8,
			AttrBudget:       10,
			AttrTimeline:     10,
		},
		SourceQualityScores: map[string]float64{
			"walk-in":         5,
			"old client":      5,
			"friends":         5,
			"relative":        5,
			"channel partner": 5,
			"hoarding":        4,
			"own website":     4,
			"99acres":         3,
			"magicbricks":     3,
			"whatsapp":        3,
			"cold calling":    3,
			"sms":             2,
			"google":          2,
			"linkedin":        2,
			"social media":    1,
		},
		InventoryFitScores: map[string]float64{
			string(domain.BudgetMatchPerfect):       10,
			string(domain.BudgetMatchSlightlyLower): 6,
			string(domain.BudgetMatchMismatch):      2,
		},
		DecayRules: []DecayRule{
			{AfterDays: 7, Penalty: -5},
			{AfterDays: 14, Penalty: -10},
			{AfterDays: 30, Penalty: -20},
		},
		StageMultipliers: map[domain.LeadStage]float64{
			domain.StageNew:         0.85,
			domain.StageProspect:    0.9,
			domain.StageQualified:   1.0,
			domain.StageOpportunity: 1.05,
			domain.StageNegotiation: 1.1,
			domain.StageBooked:      1.15,
			domain.StageClosedWon:   1.2,
		},
		ActivityMasterFields: ActivityMasterFields{
			Activities: []ActivityMaster{
				{
					Name: "Call",
					Purposes: []ActivityPurpose{
						{
							Name: "Introduction / First Contact",
							Outcomes: []ActivityOutcome{
								{Label: "Connected", Score: 10},
								{Label: "No Answer", Score: 0},
								{Label: "Wrong Number", Score: -2},
								{Label: "Not Interested", Score: -10},
							},
						},
						{
							Name: "Negotiation Call",
							Outcomes: []ActivityOutcome{
								{Label: "Connected", Score: 10},
								{Label: "Agreed on Price", Score: 15},
								{Label: "Not Interested", Score: -10},
							},
						},
					},
				},
				{
					Name: "WhatsApp",
					Purposes: []ActivityPurpose{
						{
							Name: "Follow-up",
							Outcomes: []ActivityOutcome{
								{Label: "Replied", Score: 6},
								{Label: "No Response", Score: 0},
							},
						},
					},
				},
				{
					Name: "Site Visit",
					Purposes: []ActivityPurpose{
						{
							Name: "Follow-up / Site Visit",
							Outcomes: []ActivityOutcome{
								{Label: "Scheduled", Score: 8},
								{Label: "Completed", Score: 12},
								{Label: "No Show", Score: -5},
							},
						},
					},
				},
				{
					Name: "Email",
					Purposes: []ActivityPurpose{
						{
							Name: "Brochure / Offer",
							Outcomes: []ActivityOutcome{
								{Label: "Opened", Score: 2},
								{Label: "Bounced", Score: 0},
							},
						},
					},
				},
			},
		},
		ConversionRules: []ConversionRule{
			{
				Name:     "Rule A: High Engagement",
				Events:   []string{"call_logged"},
				Details:  map[string]string{"status": "connected"},
				MinScore: 60,
			},
			{
				Name:     "Rule B: High Intent Action",
				Events:   []string{"site_visit_scheduled", "property_shortlisted"},
				MinScore: 50,
			},
		},
	}
}
