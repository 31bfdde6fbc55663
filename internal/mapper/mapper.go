// Package mapper converts domain models to API DTOs. Mapping stays here
// so handlers and services never hand gorm models to clients directly.
package mapper

import (
	"github.com/bharatprops/lifecycle-api/internal/domain"
)

// ToLeadDTO converts a Lead to its API representation
func ToLeadDTO(lead *domain.Lead) domain.LeadDTO {
	return domain.LeadDTO{
		ID:             lead.ID,
		Name:           lead.Name,
		Mobile:         lead.Mobile,
		Email:          lead.Email,
		Requirement:    lead.Requirement,
		Budget:         lead.Budget,
		BudgetMatch:    lead.BudgetMatch,
		Timeline:       lead.Timeline,
		Source:         lead.Source,
		Stage:          lead.Stage,
		OwnerID:        lead.OwnerID,
		OwnerName:      lead.OwnerName,
		Tags:           lead.Tags,
		Notes:          lead.Notes,
		Score:          lead.Score,
		Temperature:    lead.Temperature,
		IsConverted:    lead.IsConverted,
		ConversionMeta: lead.ConversionMeta,
		LastActivityAt: lead.LastActivityAt,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

// ToActivityDTO converts an Activity to its API representation
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:          activity.ID,
		LeadID:      activity.LeadID,
		Type:        activity.Type,
		Purpose:     activity.Purpose,
		Outcome:     activity.Outcome,
		Status:      activity.Status,
		Notes:       activity.Notes,
		OccurredAt:  activity.OccurredAt,
		CreatorName: activity.CreatorName,
		CreatedAt:   activity.CreatedAt,
	}
}

// ToStageHistoryDTO converts a StageHistory entry to its API representation
func ToStageHistoryDTO(entry *domain.StageHistory) domain.StageHistoryDTO {
	return domain.StageHistoryDTO{
		ID:            entry.ID,
		LeadID:        entry.LeadID,
		FromStage:     entry.FromStage,
		ToStage:       entry.ToStage,
		Warning:       entry.Warning,
		ChangedByName: entry.ChangedByName,
		Notes:         entry.Notes,
		ChangedAt:     entry.ChangedAt,
	}
}

// ToContactDTO converts a Contact to its API representation
func ToContactDTO(contact *domain.Contact) domain.ContactDTO {
	return domain.ContactDTO{
		ID:             contact.ID,
		Name:           contact.Name,
		Mobile:         contact.Mobile,
		Email:          contact.Email,
		Category:       contact.Category,
		Source:         contact.Source,
		Tags:           contact.Tags,
		Notes:          contact.Notes,
		LeadID:         contact.LeadID,
		ConversionMeta: contact.ConversionMeta,
		CreatedAt:      contact.CreatedAt,
	}
}

// ToLeadDTOs converts a slice of leads
func ToLeadDTOs(leads []domain.Lead) []domain.LeadDTO {
	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = ToLeadDTO(&leads[i])
	}
	return dtos
}

// ToActivityDTOs converts a slice of activities
func ToActivityDTOs(activities []domain.Activity) []domain.ActivityDTO {
	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = ToActivityDTO(&activities[i])
	}
	return dtos
}

// ToStageHistoryDTOs converts a slice of stage history entries
func ToStageHistoryDTOs(entries []domain.StageHistory) []domain.StageHistoryDTO {
	dtos := make([]domain.StageHistoryDTO, len(entries))
	for i := range entries {
		dtos[i] = ToStageHistoryDTO(&entries[i])
	}
	return dtos
}

// ToContactDTOs converts a slice of contacts
func ToContactDTOs(contacts []domain.Contact) []domain.ContactDTO {
	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = ToContactDTO(&contacts[i])
	}
	return dtos
}
