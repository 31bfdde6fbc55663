package engine

import (
	"errors"
	"math"
	"time"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

var (
	// ErrNilLead is returned when no lead is supplied; a score cannot be
	// computed without one.
	ErrNilLead = errors.New("engine: lead is nil")

	// ErrNilConfig is returned when no scoring configuration is supplied
	ErrNilConfig = errors.New("engine: scoring config is nil")
)

// ScoreBreakdown itemizes the score components. Decay is always ≤ 0 so
// the UI can render it as a deduction.
type ScoreBreakdown struct {
	Attribute float64 `json:"attribute"`
	Activity  float64 `json:"activity"`
	Source    float64 `json:"source"`
	Fit       float64 `json:"fit"`
	Decay     float64 `json:"decay"`
}

// Temperature is the banded classification of a total score, with the
// display class and color token badges render with.
type Temperature struct {
	Label string `json:"label"`
	Class string `json:"class"`
	Color string `json:"color"`
}

// ScoreResult is the output of a scoring pass
type ScoreResult struct {
	Total       int            `json:"total"`
	Breakdown   ScoreBreakdown `json:"breakdown"`
	Temperature Temperature    `json:"temperature"`
	Intent      string         `json:"intent"`
}

// CalculateLeadScore computes the 0–100 intent score for a lead against
// the supplied configuration, using the current time for decay.
func CalculateLeadScore(lead *domain.Lead, activities []domain.Activity, cfg *ScoringConfig) (*ScoreResult, error) {
	return CalculateLeadScoreAt(lead, activities, cfg, time.Now())
}

// CalculateLeadScoreAt is CalculateLeadScore with an explicit reference
// time. Given the same inputs and reference time it always returns the
// same result.
//
// total = clamp(round((attribute + activity + source + fit) × stageMultiplier + decay), 0, 100)
func CalculateLeadScoreAt(lead *domain.Lead, activities []domain.Activity, cfg *ScoringConfig, now time.Time) (*ScoreResult, error) {
	if lead == nil {
		return nil, ErrNilLead
	}
	if cfg == nil {
		return nil, ErrNilConfig
	}

	breakdown := ScoreBreakdown{
		Attribute: attributeScore(lead, cfg.ScoringAttributes),
		Activity:  activityScore(activities, &cfg.ActivityMasterFields),
		Source:    cfg.SourceQualityScores[normalizeKey(lead.Source)],
		Fit:       cfg.InventoryFitScores[string(lead.BudgetMatch)],
		Decay:     decayPenalty(lead, activities, cfg.DecayRules, now),
	}

	raw := breakdown.Attribute + breakdown.Activity + breakdown.Source + breakdown.Fit

	multiplier := 1.0
	if m, ok := cfg.StageMultipliers[lead.Stage]; ok && m > 0 {
		multiplier = m
	}

	total := int(math.Round(raw*multiplier + breakdown.Decay))
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	return &ScoreResult{
		Total:       total,
		Breakdown:   breakdown,
		Temperature: TemperatureFor(total),
		Intent:      DetectIntent(lead, activities),
	}, nil
}

// attributeScore sums the configured weight of every recognized
// requirement attribute that is filled on the lead.
func attributeScore(lead *domain.Lead, weights map[string]float64) float64 {
	if len(weights) == 0 {
		return 0
	}

	var sum float64
	for key, filled := range attributePresence(lead) {
		if filled {
			sum += weights[key]
		}
	}
	return sum
}

// attributePresence maps each recognized attribute key to whether the
// lead has filled it. The key set is fixed; see the Attr constants.
func attributePresence(lead *domain.Lead) map[string]bool {
	req := lead.Requirement
	return map[string]bool{
		AttrPropertyType: req.PropertyType != "",
		AttrSubType:      req.SubType != "",
		AttrUnitType:     req.UnitType != "",
		AttrArea:         req.Area != "",
		AttrFacing:       req.Facing != "",
		AttrRoadWidth:    req.RoadWidth != "",
		AttrDirection:    req.Direction != "",
		AttrLocation:     req.Location != "",
		AttrBudget:       lead.Budget > 0,
		AttrTimeline:     lead.Timeline != "" && lead.Timeline != domain.TimelineNotConfirmed,
	}
}

// activityScore resolves each activity's (type, purpose, outcome) triple
// against the master hierarchy and sums the configured outcome scores.
// Activities that do not resolve contribute zero.
func activityScore(activities []domain.Activity, master *ActivityMasterFields) float64 {
	if master == nil || len(master.Activities) == 0 {
		return 0
	}

	var sum float64
	for _, act := range activities {
		if act.Status == domain.ActivityStatusCancelled {
			continue
		}
		sum += outcomeScore(master, act.Type, act.Purpose, act.Outcome)
	}
	return sum
}

func outcomeScore(master *ActivityMasterFields, activityType, purpose, outcome string) float64 {
	for _, a := range master.Activities {
		if a.Name != activityType {
			continue
		}
		for _, p := range a.Purposes {
			if p.Name != purpose {
				continue
			}
			for _, o := range p.Outcomes {
				if o.Label == outcome {
					return o.Score
				}
			}
		}
	}
	return 0
}

// decayPenalty returns the staleness penalty (≤ 0) based on days since
// the most recent activity, or since lead creation when there are none.
func decayPenalty(lead *domain.Lead, activities []domain.Activity, rules []DecayRule, now time.Time) float64 {
	if len(rules) == 0 {
		return 0
	}

	last := lead.CreatedAt
	for _, act := range activities {
		if act.OccurredAt.After(last) {
			last = act.OccurredAt
		}
	}

	idleDays := int(now.Sub(last).Hours() / 24)
	if idleDays < 0 {
		idleDays = 0
	}

	// Deepest matching step wins
	var penalty float64
	matchedDays := -1
	for _, r := range rules {
		if idleDays >= r.AfterDays && r.AfterDays > matchedDays {
			matchedDays = r.AfterDays
			penalty = r.Penalty
		}
	}
	if penalty > 0 {
		return 0
	}
	return penalty
}

// TemperatureFor classifies a total score into its display band
func TemperatureFor(total int) Temperature {
	switch {
	case total >= 80:
		return Temperature{Label: "HOT", Class: "hot", Color: "#ef4444"}
	case total >= 60:
		return Temperature{Label: "WARM", Class: "warm", Color: "#f59e0b"}
	case total >= 40:
		return Temperature{Label: "COOL", Class: "cool", Color: "#3b82f6"}
	default:
		return Temperature{Label: "COLD", Class: "cold", Color: "#64748b"}
	}
}
