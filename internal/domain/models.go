package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// LeadStage represents a named position in the sales pipeline
type LeadStage string

const (
	StageNew         LeadStage = "New"
	StageProspect    LeadStage = "Prospect"
	StageQualified   LeadStage = "Qualified"
	StageOpportunity LeadStage = "Opportunity"
	StageNegotiation LeadStage = "Negotiation"
	StageBooked      LeadStage = "Booked"
	StageClosedWon   LeadStage = "Closed Won"

	// Terminal side branches, not part of the forward ordering
	StageClosedLost LeadStage = "Closed Lost"
	StageStalled    LeadStage = "Stalled"
)

// IsValid checks if the LeadStage is a valid enum value
func (s LeadStage) IsValid() bool {
	switch s {
	case StageNew, StageProspect, StageQualified, StageOpportunity,
		StageNegotiation, StageBooked, StageClosedWon, StageClosedLost, StageStalled:
		return true
	}
	return false
}

// IsTerminal reports whether the stage is a closed or sideways state that
// exits the forward pipeline ordering.
func (s LeadStage) IsTerminal() bool {
	return s == StageClosedLost || s == StageStalled || s == StageClosedWon
}

// BudgetMatch is the qualitative fit of a lead's declared budget against
// available inventory.
type BudgetMatch string

const (
	BudgetMatchPerfect       BudgetMatch = "perfect"
	BudgetMatchSlightlyLower BudgetMatch = "slightly_lower"
	BudgetMatchMismatch      BudgetMatch = "mismatch"
)

// Timeline represents the urgency bucket declared by a lead
type Timeline string

const (
	TimelineUrgent       Timeline = "urgent"
	TimelineFifteenDays  Timeline = "15days"
	TimelineOneMonth     Timeline = "1month"
	TimelineThreeMonths  Timeline = "3months"
	TimelineNotConfirmed Timeline = "not_confirmed"
)

// Requirement holds the structured property interest of a lead. Empty
// fields are "not filled yet" and contribute nothing to scoring.
type Requirement struct {
	PropertyType string `gorm:"type:varchar(100);column:property_type" json:"propertyType,omitempty"`
	SubType      string `gorm:"type:varchar(100);column:sub_type" json:"subType,omitempty"`
	UnitType     string `gorm:"type:varchar(100);column:unit_type" json:"unitType,omitempty"`
	Area         string `gorm:"type:varchar(100)" json:"area,omitempty"`
	Facing       string `gorm:"type:varchar(50)" json:"facing,omitempty"`
	RoadWidth    string `gorm:"type:varchar(50);column:road_width" json:"roadWidth,omitempty"`
	Direction    string `gorm:"type:varchar(50)" json:"direction,omitempty"`
	Location     string `gorm:"type:varchar(200)" json:"location,omitempty"`
}

// Lead represents an unconverted prospect tracked through the pipeline.
// Mobile is the stable identity used for idempotent conversion and
// duplicate detection.
type Lead struct {
	BaseModel
	Name        string         `gorm:"type:varchar(200);not null;index"`
	Mobile      string         `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email       string         `gorm:"type:varchar(255);index"`
	Requirement Requirement    `gorm:"embedded"`
	Budget      float64        `gorm:"type:decimal(15,2);not null;default:0"`
	BudgetMatch BudgetMatch    `gorm:"type:varchar(50);column:budget_match"`
	Timeline    Timeline       `gorm:"type:varchar(50)"`
	Source      string         `gorm:"type:varchar(100);index"`
	Stage       LeadStage      `gorm:"type:varchar(50);not null;default:'New';index"`
	OwnerID     string         `gorm:"type:varchar(100);column:owner_id;index"`
	OwnerName   string         `gorm:"type:varchar(200);column:owner_name"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	Notes       string         `gorm:"type:text"`

	// Cached engine outputs, refreshed by the nightly sweep. The engine
	// itself never reads these back.
	Score       int    `gorm:"not null;default:0"`
	Temperature string `gorm:"type:varchar(20)"`

	StageChangedAt *time.Time      `gorm:"column:stage_changed_at"`
	LastActivityAt *time.Time      `gorm:"column:last_activity_at"`
	IsConverted    bool            `gorm:"not null;default:false;column:is_converted;index"`
	ConversionMeta *ConversionMeta `gorm:"embedded;embeddedPrefix:conversion_"`

	Activities []Activity `gorm:"foreignKey:LeadID;constraint:OnDelete:CASCADE"`
}

// ConversionMeta is stamped exactly once, when the lead becomes a contact
type ConversionMeta struct {
	Date    *time.Time `gorm:"column:date" json:"date,omitempty"`
	Score   int        `gorm:"column:score" json:"scoreAtConversion"`
	Source  string     `gorm:"type:varchar(100);column:source" json:"source,omitempty"`
	Trigger string     `gorm:"type:varchar(200);column:trigger" json:"trigger,omitempty"`
}

// ActivityStatus represents the completion state of an activity
type ActivityStatus string

const (
	ActivityStatusPlanned   ActivityStatus = "planned"
	ActivityStatusCompleted ActivityStatus = "completed"
	ActivityStatusCancelled ActivityStatus = "cancelled"
)

// IsValid checks if the ActivityStatus is a valid enum value
func (as ActivityStatus) IsValid() bool {
	switch as {
	case ActivityStatusPlanned, ActivityStatusCompleted, ActivityStatusCancelled:
		return true
	}
	return false
}

// Activity is one logged interaction with a lead. Type, purpose and
// outcome together resolve against the activity master hierarchy for
// scoring.
type Activity struct {
	BaseModel
	LeadID      uuid.UUID      `gorm:"type:uuid;not null;index;column:lead_id"`
	Lead        *Lead          `gorm:"foreignKey:LeadID"`
	Type        string         `gorm:"type:varchar(100);not null"`
	Purpose     string         `gorm:"type:varchar(200)"`
	Outcome     string         `gorm:"type:varchar(200)"`
	Status      ActivityStatus `gorm:"type:varchar(50);not null;default:'completed'"`
	Notes       string         `gorm:"type:text"`
	OccurredAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
	CreatorID   string         `gorm:"type:varchar(100);column:creator_id"`
	CreatorName string         `gorm:"type:varchar(200);column:creator_name"`
}

// Contact is the permanent record a lead converts into. The lifecycle
// engine creates contacts but never updates one afterwards.
type Contact struct {
	BaseModel
	Name           string         `gorm:"type:varchar(200);not null;index"`
	Mobile         string         `gorm:"type:varchar(20);not null;uniqueIndex"`
	Email          string         `gorm:"type:varchar(255);index"`
	Category       string         `gorm:"type:varchar(100);not null;default:'Prospect'"`
	Source         string         `gorm:"type:varchar(100)"`
	Tags           pq.StringArray `gorm:"type:text[]"`
	Notes          string         `gorm:"type:text"`
	LeadID         *uuid.UUID     `gorm:"type:uuid;index;column:lead_id"`
	ConversionMeta ConversionMeta `gorm:"embedded;embeddedPrefix:conversion_"`
}

// StageHistory tracks stage changes for audit purposes
type StageHistory struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	LeadID        uuid.UUID  `gorm:"type:uuid;not null;index;column:lead_id"`
	Lead          *Lead      `gorm:"foreignKey:LeadID"`
	FromStage     *LeadStage `gorm:"type:varchar(50);column:from_stage"`
	ToStage       LeadStage  `gorm:"type:varchar(50);not null;column:to_stage"`
	Warning       string     `gorm:"type:text"`
	ChangedByID   string     `gorm:"type:varchar(100);column:changed_by_id"`
	ChangedByName string     `gorm:"type:varchar(200);column:changed_by_name"`
	Notes         string     `gorm:"type:text"`
	ChangedAt     time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP;column:changed_at"`
}

// TableName overrides the default table name to match the migration
func (StageHistory) TableName() string {
	return "stage_history"
}

// EngineSettings is the single persisted row of engine configuration: the
// scoring tables plus the stage enforcement mode. The payload is stored as
// jsonb and decoded by the settings service; the engine itself receives
// the decoded config explicitly on every call and never caches it.
type EngineSettings struct {
	ID            uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ScoringConfig string    `gorm:"type:jsonb;not null;column:scoring_config"`
	Enforcement   string    `gorm:"type:varchar(20);not null;default:'warn'"`
	UpdatedBy     string    `gorm:"type:varchar(100);column:updated_by"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// UserRoleType represents a role a user can have
type UserRoleType string

const (
	RoleAdmin      UserRoleType = "admin"
	RoleManager    UserRoleType = "manager"
	RoleAgent      UserRoleType = "agent"
	RoleViewer     UserRoleType = "viewer"
	RoleAPIService UserRoleType = "api_service"
)
