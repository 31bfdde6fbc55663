package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/mapper"
	"github.com/bharatprops/lifecycle-api/internal/repository"
)

// ManualTrigger is recorded when an agent converts a lead by hand
const ManualTrigger = "Manual conversion"

// ConversionService turns qualified leads into contacts exactly once.
//
// Idempotency is enforced twice over: a per-lead mutex serializes
// concurrent conversion attempts in this process, and the repository's
// compare-and-set on is_converted catches races across processes. The
// second caller of a concurrent pair gets the friendly
// "already converted" result, not an error.
type ConversionService struct {
	leadRepo    *repository.LeadRepository
	contactRepo *repository.ContactRepository
	settings    *SettingsService
	logger      *zap.Logger

	locks sync.Map // lead ID string -> *sync.Mutex
}

func NewConversionService(
	leadRepo *repository.LeadRepository,
	contactRepo *repository.ContactRepository,
	settings *SettingsService,
	logger *zap.Logger,
) *ConversionService {
	return &ConversionService{
		leadRepo:    leadRepo,
		contactRepo: contactRepo,
		settings:    settings,
		logger:      logger,
	}
}

func (s *ConversionService) lockFor(leadID uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(leadID.String(), &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ConvertLead converts a lead into a contact with the given trigger
// description. Already-converted leads, duplicate contacts and similar
// expected outcomes come back as a non-success result, never an error.
func (s *ConversionService) ConvertLead(ctx context.Context, leadID uuid.UUID, trigger string) (*domain.ConversionResult, error) {
	mu := s.lockFor(leadID)
	mu.Lock()
	defer mu.Unlock()

	return s.convertLocked(ctx, leadID, trigger)
}

func (s *ConversionService) convertLocked(ctx context.Context, leadID uuid.UUID, trigger string) (*domain.ConversionResult, error) {
	lead, err := s.leadRepo.GetByIDWithActivities(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.IsConverted {
		result := &domain.ConversionResult{
			Success: false,
			Message: "Lead is already converted",
		}
		if contact, err := s.contactRepo.GetByLeadID(ctx, leadID); err == nil {
			dto := mapper.ToContactDTO(contact)
			result.Contact = &dto
		}
		return result, nil
	}

	// Duplicate contact check by mobile/email identity
	if dup, err := s.contactRepo.FindDuplicate(ctx, lead.Mobile, lead.Email); err == nil && dup != nil {
		dto := mapper.ToContactDTO(dup)
		return &domain.ConversionResult{
			Success:       false,
			Message:       "A contact with this mobile or email already exists",
			RequiresMerge: true,
			Duplicate:     &dto,
		}, nil
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check for duplicate contact: %w", err)
	}

	cfg, _, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		return nil, err
	}
	scoreResult, err := engine.CalculateLeadScore(lead, lead.Activities, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}

	if trigger == "" {
		trigger = ManualTrigger
	}

	now := time.Now().UTC()
	meta := domain.ConversionMeta{
		Date:    &now,
		Score:   scoreResult.Total,
		Source:  lead.Source,
		Trigger: trigger,
	}

	var contact *domain.Contact
	err = s.leadRepo.Transaction(ctx, func(tx *gorm.DB) error {
		txLeads := repository.NewLeadRepository(tx)
		txContacts := repository.NewContactRepository(tx)

		flipped, err := txLeads.MarkConverted(ctx, leadID, meta)
		if err != nil {
			return fmt.Errorf("failed to mark lead converted: %w", err)
		}
		if !flipped {
			// Lost the race to another process
			return ErrLeadConverted
		}

		leadRef := leadID
		contact = &domain.Contact{
			Name:           lead.Name,
			Mobile:         lead.Mobile,
			Email:          lead.Email,
			Category:       "Prospect",
			Source:         lead.Source,
			Tags:           lead.Tags,
			Notes:          lead.Notes,
			LeadID:         &leadRef,
			ConversionMeta: meta,
		}
		if err := txContacts.Create(ctx, contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLeadConverted) {
			return &domain.ConversionResult{
				Success: false,
				Message: "Lead is already converted",
			}, nil
		}
		return nil, err
	}

	s.logger.Info("lead converted to contact",
		zap.String("lead_id", leadID.String()),
		zap.String("contact_id", contact.ID.String()),
		zap.String("trigger", trigger),
		zap.Int("score_at_conversion", scoreResult.Total),
	)

	dto := mapper.ToContactDTO(contact)
	return &domain.ConversionResult{
		Success: true,
		Message: "Lead converted",
		Contact: &dto,
	}, nil
}

// IsConverted reports whether a lead has already been converted
func (s *ConversionService) IsConverted(ctx context.Context, leadID uuid.UUID) (bool, error) {
	lead, err := s.leadRepo.GetByID(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead.IsConverted, nil
}

// EvaluateAutoConversion checks a reported lead event against the
// configured conversion rules and converts on the first match. Rules
// are evaluated in their configured order; the first matching rule
// wins and names the trigger.
func (s *ConversionService) EvaluateAutoConversion(ctx context.Context, leadID uuid.UUID, req *domain.LeadEventRequest) (*domain.ConversionResult, error) {
	mu := s.lockFor(leadID)
	mu.Lock()
	defer mu.Unlock()

	lead, err := s.leadRepo.GetByIDWithActivities(ctx, leadID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}

	if lead.IsConverted {
		return &domain.ConversionResult{
			Success: false,
			Message: "Lead is already converted",
		}, nil
	}

	cfg, _, err := s.settings.CurrentConfig(ctx)
	if err != nil {
		return nil, err
	}

	scoreResult, err := engine.CalculateLeadScore(lead, lead.Activities, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to score lead: %w", err)
	}

	for _, rule := range cfg.ConversionRules {
		if rule.Matches(req.Event, req.Details, scoreResult.Total) {
			s.logger.Info("auto-conversion rule matched",
				zap.String("lead_id", leadID.String()),
				zap.String("rule", rule.Name),
				zap.String("event", req.Event),
				zap.Int("score", scoreResult.Total),
			)
			result, err := s.convertLocked(ctx, leadID, rule.Name)
			if err != nil {
				return nil, err
			}
			result.RuleTriggered = rule.Name
			return result, nil
		}
	}

	return &domain.ConversionResult{
		Success: false,
		Message: "No conversion rule matched",
	}, nil
}
