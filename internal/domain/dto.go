package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaginatedResponse wraps list endpoints with paging metadata
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// CreateLeadRequest is the payload for creating a lead
type CreateLeadRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Mobile      string      `json:"mobile" validate:"required,max=20"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Requirement Requirement `json:"requirement"`
	Budget      float64     `json:"budget" validate:"gte=0"`
	BudgetMatch BudgetMatch `json:"budgetMatch" validate:"omitempty,oneof=perfect slightly_lower mismatch"`
	Timeline    Timeline    `json:"timeline" validate:"omitempty,oneof=urgent 15days 1month 3months not_confirmed"`
	Source      string      `json:"source" validate:"max=100"`
	OwnerID     string      `json:"ownerId" validate:"max=100"`
	Tags        []string    `json:"tags"`
	Notes       string      `json:"notes"`
}

// UpdateLeadRequest is the payload for updating a lead
type UpdateLeadRequest struct {
	Name        string      `json:"name" validate:"required,max=200"`
	Email       string      `json:"email" validate:"omitempty,email"`
	Requirement Requirement `json:"requirement"`
	Budget      float64     `json:"budget" validate:"gte=0"`
	BudgetMatch BudgetMatch `json:"budgetMatch" validate:"omitempty,oneof=perfect slightly_lower mismatch"`
	Timeline    Timeline    `json:"timeline" validate:"omitempty,oneof=urgent 15days 1month 3months not_confirmed"`
	Source      string      `json:"source" validate:"max=100"`
	OwnerID     string      `json:"ownerId" validate:"max=100"`
	Tags        []string    `json:"tags"`
	Notes       string      `json:"notes"`
}

// LeadDTO is the lead representation returned by the API
type LeadDTO struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Mobile         string          `json:"mobile"`
	Email          string          `json:"email,omitempty"`
	Requirement    Requirement     `json:"requirement"`
	Budget         float64         `json:"budget"`
	BudgetMatch    BudgetMatch     `json:"budgetMatch,omitempty"`
	Timeline       Timeline        `json:"timeline,omitempty"`
	Source         string          `json:"source,omitempty"`
	Stage          LeadStage       `json:"stage"`
	OwnerID        string          `json:"ownerId,omitempty"`
	OwnerName      string          `json:"ownerName,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Score          int             `json:"score"`
	Temperature    string          `json:"temperature,omitempty"`
	IsConverted    bool            `json:"isConverted"`
	ConversionMeta *ConversionMeta `json:"conversionMeta,omitempty"`
	LastActivityAt *time.Time      `json:"lastActivityAt,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// LogActivityRequest is the payload for logging an activity on a lead
type LogActivityRequest struct {
	Type       string         `json:"type" validate:"required,max=100"`
	Purpose    string         `json:"purpose" validate:"max=200"`
	Outcome    string         `json:"outcome" validate:"max=200"`
	Status     ActivityStatus `json:"status" validate:"omitempty,oneof=planned completed cancelled"`
	Notes      string         `json:"notes"`
	OccurredAt *time.Time     `json:"occurredAt"`
}

// ActivityDTO is the activity representation returned by the API
type ActivityDTO struct {
	ID          uuid.UUID      `json:"id"`
	LeadID      uuid.UUID      `json:"leadId"`
	Type        string         `json:"type"`
	Purpose     string         `json:"purpose,omitempty"`
	Outcome     string         `json:"outcome,omitempty"`
	Status      ActivityStatus `json:"status"`
	Notes       string         `json:"notes,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
	CreatorName string         `json:"creatorName,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ChangeStageRequest asks to move a lead to a new pipeline stage
type ChangeStageRequest struct {
	Stage LeadStage `json:"stage" validate:"required"`
	Notes string    `json:"notes"`
}

// ValidateStageRequest is a dry-run transition check, used by pipeline UI
// drag handlers before committing a move.
type ValidateStageRequest struct {
	FromStage           LeadStage `json:"fromStage" validate:"required"`
	ToStage             LeadStage `json:"toStage" validate:"required"`
	CompletedActivities []string  `json:"completedActivities"`
}

// StageHistoryDTO is one audit entry of a stage change
type StageHistoryDTO struct {
	ID            uuid.UUID  `json:"id"`
	LeadID        uuid.UUID  `json:"leadId"`
	FromStage     *LeadStage `json:"fromStage,omitempty"`
	ToStage       LeadStage  `json:"toStage"`
	Warning       string     `json:"warning,omitempty"`
	ChangedByName string     `json:"changedByName,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	ChangedAt     time.Time  `json:"changedAt"`
}

// ConvertLeadRequest is the payload for a manual lead conversion
type ConvertLeadRequest struct {
	Trigger string `json:"trigger" validate:"max=200"`
}

// LeadEventRequest reports a qualifying event for auto-conversion
// evaluation (e.g. a connected call or a scheduled site visit).
type LeadEventRequest struct {
	Event   string            `json:"event" validate:"required,max=100"`
	Details map[string]string `json:"details"`
}

// ConversionResult is the outcome of a conversion attempt. Expected
// business outcomes (already converted, duplicate contact, no rule
// matched) come back as Success=false with a message, never as errors.
type ConversionResult struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message,omitempty"`
	RuleTriggered string      `json:"ruleTriggered,omitempty"`
	RequiresMerge bool        `json:"requiresMerge,omitempty"`
	Duplicate     *ContactDTO `json:"duplicate,omitempty"`
	Contact       *ContactDTO `json:"contact,omitempty"`
}

// ContactDTO is the contact representation returned by the API
type ContactDTO struct {
	ID             uuid.UUID      `json:"id"`
	Name           string         `json:"name"`
	Mobile         string         `json:"mobile"`
	Email          string         `json:"email,omitempty"`
	Category       string         `json:"category"`
	Source         string         `json:"source,omitempty"`
	Tags           []string       `json:"tags,omitempty"`
	Notes          string         `json:"notes,omitempty"`
	LeadID         *uuid.UUID     `json:"leadId,omitempty"`
	ConversionMeta ConversionMeta `json:"conversionMeta"`
	CreatedAt      time.Time      `json:"createdAt"`
}

// EngineSettingsDTO carries the scoring configuration and enforcement
// mode across the settings endpoints. ScoringConfig is the raw JSON
// document so the admin UI round-trips unknown keys untouched.
type EngineSettingsDTO struct {
	ScoringConfig interface{} `json:"scoringConfig"`
	Enforcement   string      `json:"enforcement"`
	UpdatedBy     string      `json:"updatedBy,omitempty"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// UpdateEngineSettingsRequest replaces the persisted engine settings
type UpdateEngineSettingsRequest struct {
	ScoringConfig interface{} `json:"scoringConfig" validate:"required"`
	Enforcement   string      `json:"enforcement" validate:"required,oneof=off warn block"`
}
