package engine

import (
	"fmt"
	"strings"

	"github.com/bharatprops/lifecycle-api/internal/domain"
)

// EnforcementMode is the policy governing skipped-stage transitions
type EnforcementMode string

const (
	EnforcementOff   EnforcementMode = "off"   // no enforcement
	EnforcementWarn  EnforcementMode = "warn"  // surface warning but allow
	EnforcementBlock EnforcementMode = "block" // hard block
)

// ParseEnforcementMode maps a stored mode string to an EnforcementMode,
// defaulting to warn for anything unrecognized.
func ParseEnforcementMode(s string) EnforcementMode {
	switch EnforcementMode(strings.ToLower(s)) {
	case EnforcementOff:
		return EnforcementOff
	case EnforcementBlock:
		return EnforcementBlock
	default:
		return EnforcementWarn
	}
}

// StageStep is one position in the canonical pipeline ordering. A
// non-empty RequiredActivity names the activity type that should have
// occurred before a lead legitimately reaches the stage.
type StageStep struct {
	Stage            domain.LeadStage
	Order            int
	RequiredActivity string
}

// StageSequence is the canonical forward ordering of the pipeline.
// Closed Lost and Stalled are side branches outside the sequence and are
// exempt from gap checking.
var StageSequence = []StageStep{
	{Stage: domain.StageNew, Order: 0},
	{Stage: domain.StageProspect, Order: 1, RequiredActivity: "Introduction / Call"},
	{Stage: domain.StageQualified, Order: 2, RequiredActivity: "Requirement Gathering"},
	{Stage: domain.StageOpportunity, Order: 3, RequiredActivity: "Follow-up / Site Visit"},
	{Stage: domain.StageNegotiation, Order: 4, RequiredActivity: "Negotiation Call"},
	{Stage: domain.StageBooked, Order: 5, RequiredActivity: "Token / Booking"},
	{Stage: domain.StageClosedWon, Order: 6, RequiredActivity: "Agreement Signed"},
}

// StageOrder resolves a stage's position in the canonical sequence.
// Stages outside the sequence resolve to -1: they never gate forward
// progress and cannot themselves be skipped.
func StageOrder(stage domain.LeadStage) int {
	for _, s := range StageSequence {
		if s.Stage == stage {
			return s.Order
		}
	}
	return -1
}

// TransitionVerdict is the guard's classification of a stage move. It
// never mutates the lead; callers decide whether to apply the change
// based on Valid.
type TransitionVerdict struct {
	Valid             bool            `json:"valid"`
	Mode              EnforcementMode `json:"mode"`
	Warning           string          `json:"warning,omitempty"`
	SkippedStages     []string        `json:"skippedStages"`
	MissingActivities []string        `json:"missingActivities"`
}

// ValidateStageTransition classifies a pipeline move against the
// canonical ordering under the given enforcement mode.
//
// Backward and same-order moves are always valid: reopening or demoting a
// lead is never gated. Forward moves that skip stages declaring a
// required activity produce a warning naming the skipped stages; the move
// stays valid under warn and becomes invalid under block.
//
// The guard reports structurally skipped stages only; it does not check
// completedActivityTypes to see whether the required activity happened
// out of order. TODO: confirm with product whether an out-of-order but
// logged required activity should clear the stage from the skip list.
func ValidateStageTransition(fromStage, toStage domain.LeadStage, completedActivityTypes []string, mode EnforcementMode) TransitionVerdict {
	_ = completedActivityTypes

	if mode == EnforcementOff {
		return TransitionVerdict{Valid: true, Mode: mode, SkippedStages: []string{}, MissingActivities: []string{}}
	}

	fromOrder := StageOrder(fromStage)
	toOrder := StageOrder(toStage)

	// Backward moves (e.g. reopen) or same stage are allowed
	if toOrder <= fromOrder {
		return TransitionVerdict{Valid: true, Mode: mode, SkippedStages: []string{}, MissingActivities: []string{}}
	}

	skippedStages := []string{}
	missingActivities := []string{}
	for _, s := range StageSequence {
		if s.Order > fromOrder && s.Order < toOrder && s.RequiredActivity != "" {
			skippedStages = append(skippedStages, string(s.Stage))
			missingActivities = append(missingActivities, s.RequiredActivity)
		}
	}

	if len(skippedStages) == 0 {
		return TransitionVerdict{Valid: true, Mode: mode, SkippedStages: skippedStages, MissingActivities: missingActivities}
	}

	warning := fmt.Sprintf("Stage jump detected: %s to %s. Missing stages: %s. Required activities: %s.",
		fromStage, toStage,
		strings.Join(skippedStages, ", "),
		strings.Join(missingActivities, ", "))

	return TransitionVerdict{
		Valid:             mode != EnforcementBlock,
		Mode:              mode,
		Warning:           warning,
		SkippedStages:     skippedStages,
		MissingActivities: missingActivities,
	}
}
