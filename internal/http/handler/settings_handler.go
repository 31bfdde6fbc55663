package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// SettingsHandler handles engine configuration endpoints
type SettingsHandler struct {
	settingsService *service.SettingsService
	logger          *zap.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(settingsService *service.SettingsService, logger *zap.Logger) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

// GetSettings godoc
// @Summary Get engine settings
// @Description Get the active scoring configuration and enforcement mode
// @Tags Settings
// @Produce json
// @Success 200 {object} domain.EngineSettingsDTO
// @Security BearerAuth
// @Router /settings/engine [get]
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.Get(r.Context())
	if err != nil {
		h.logger.Error("failed to get engine settings", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to get engine settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}

// UpdateSettings godoc
// @Summary Update engine settings
// @Description Replace the scoring configuration and enforcement mode. Admin only.
// @Tags Settings
// @Accept json
// @Produce json
// @Param settings body domain.UpdateEngineSettingsRequest true "Settings payload"
// @Success 200 {object} domain.EngineSettingsDTO
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /settings/engine [put]
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateEngineSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	settings, err := h.settingsService.Update(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to update engine settings", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to update engine settings")
		return
	}

	respondJSON(w, http.StatusOK, settings)
}
