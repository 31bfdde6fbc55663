package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/bharatprops/lifecycle-api/internal/auth"
	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/repository"
)

// SettingsService reads and writes the persisted engine configuration.
// Every read decodes the stored document fresh; nothing is cached, so a
// settings change is visible to the next scoring call immediately.
type SettingsService struct {
	settingsRepo       *repository.SettingsRepository
	defaultEnforcement string
	logger             *zap.Logger
}

func NewSettingsService(settingsRepo *repository.SettingsRepository, defaultEnforcement string, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		settingsRepo:       settingsRepo,
		defaultEnforcement: defaultEnforcement,
		logger:             logger,
	}
}

// CurrentConfig returns the active scoring configuration and enforcement
// mode, falling back to defaults when no settings row exists yet.
func (s *SettingsService) CurrentConfig(ctx context.Context) (*engine.ScoringConfig, engine.EnforcementMode, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return engine.DefaultScoringConfig(), engine.ParseEnforcementMode(s.defaultEnforcement), nil
		}
		return nil, "", fmt.Errorf("failed to load engine settings: %w", err)
	}

	var cfg engine.ScoringConfig
	if err := json.Unmarshal([]byte(settings.ScoringConfig), &cfg); err != nil {
		// A corrupt row must not take scoring down
		s.logger.Error("stored scoring config is not valid JSON, using defaults",
			zap.Error(err),
		)
		return engine.DefaultScoringConfig(), engine.ParseEnforcementMode(settings.Enforcement), nil
	}

	return &cfg, engine.ParseEnforcementMode(settings.Enforcement), nil
}

// Get returns the settings document for the admin UI
func (s *SettingsService) Get(ctx context.Context) (*domain.EngineSettingsDTO, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			raw, _ := json.Marshal(engine.DefaultScoringConfig())
			var doc interface{}
			_ = json.Unmarshal(raw, &doc)
			return &domain.EngineSettingsDTO{
				ScoringConfig: doc,
				Enforcement:   s.defaultEnforcement,
			}, nil
		}
		return nil, fmt.Errorf("failed to load engine settings: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal([]byte(settings.ScoringConfig), &doc); err != nil {
		return nil, fmt.Errorf("stored scoring config is corrupt: %w", err)
	}

	return &domain.EngineSettingsDTO{
		ScoringConfig: doc,
		Enforcement:   settings.Enforcement,
		UpdatedBy:     settings.UpdatedBy,
		UpdatedAt:     settings.UpdatedAt,
	}, nil
}

// Update replaces the persisted settings. The scoring config document is
// validated by decoding it into the engine's config type; unknown keys
// are preserved in the stored raw document.
func (s *SettingsService) Update(ctx context.Context, req *domain.UpdateEngineSettingsRequest) (*domain.EngineSettingsDTO, error) {
	raw, err := json.Marshal(req.ScoringConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: scoring config is not serializable", ErrInvalidInput)
	}

	var cfg engine.ScoringConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: scoring config does not match the expected shape", ErrInvalidInput)
	}
	for _, rule := range cfg.DecayRules {
		if rule.Penalty > 0 {
			return nil, fmt.Errorf("%w: decay penalties must be zero or negative", ErrInvalidInput)
		}
	}

	settings := &domain.EngineSettings{
		ScoringConfig: string(raw),
		Enforcement:   string(engine.ParseEnforcementMode(req.Enforcement)),
		UpdatedAt:     time.Now().UTC(),
	}
	if userCtx, ok := auth.FromContext(ctx); ok {
		settings.UpdatedBy = userCtx.DisplayName
	}

	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, fmt.Errorf("failed to save engine settings: %w", err)
	}

	s.logger.Info("engine settings updated",
		zap.String("enforcement", settings.Enforcement),
		zap.String("updated_by", settings.UpdatedBy),
	)

	return s.Get(ctx)
}
