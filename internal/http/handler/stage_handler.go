package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/engine"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// StageHandler handles stage transitions and guard dry-runs
type StageHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

// NewStageHandler creates a new StageHandler
func NewStageHandler(leadService *service.LeadService, logger *zap.Logger) *StageHandler {
	return &StageHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// stageChangeResponse pairs the updated lead with the guard verdict so
// the UI can surface warnings on allowed-but-warned moves.
type stageChangeResponse struct {
	Lead    *domain.LeadDTO           `json:"lead"`
	Verdict *engine.TransitionVerdict `json:"verdict"`
}

// ChangeStage godoc
// @Summary Change lead stage
// @Description Move a lead to a new pipeline stage, subject to the transition guard
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param stage body domain.ChangeStageRequest true "Target stage"
// @Success 200 {object} stageChangeResponse
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Failure 422 {object} engine.TransitionVerdict
// @Security BearerAuth
// @Router /leads/{id}/stage [put]
func (h *StageHandler) ChangeStage(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req domain.ChangeStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, verdict, err := h.leadService.ChangeStage(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Lead not found")
		case errors.Is(err, service.ErrInvalidStage):
			respondWithError(w, http.StatusBadRequest, "Invalid stage")
		case errors.Is(err, service.ErrLeadConverted):
			respondWithError(w, http.StatusConflict, "Lead is already converted")
		case errors.Is(err, service.ErrStageBlocked):
			// The verdict carries the skipped stages and missing activities
			respondJSON(w, http.StatusUnprocessableEntity, verdict)
		default:
			h.logger.Error("failed to change stage", zap.Error(err), zap.String("lead_id", id.String()))
			respondWithError(w, http.StatusInternalServerError, "Failed to change stage")
		}
		return
	}

	respondJSON(w, http.StatusOK, stageChangeResponse{Lead: lead, Verdict: verdict})
}

// ValidateStage godoc
// @Summary Validate stage transition
// @Description Dry-run the transition guard without mutating anything
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param transition body domain.ValidateStageRequest true "Transition to check"
// @Success 200 {object} engine.TransitionVerdict
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /pipeline/validate [post]
func (h *StageHandler) ValidateStage(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateStageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	verdict, err := h.leadService.ValidateStage(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidStage) {
			respondWithError(w, http.StatusBadRequest, "Invalid stage")
			return
		}
		h.logger.Error("failed to validate transition", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to validate transition")
		return
	}

	respondJSON(w, http.StatusOK, verdict)
}

// ListStageHistory godoc
// @Summary Stage history
// @Description Get the stage change audit trail of a lead, newest first
// @Tags Pipeline
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.StageHistoryDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/stage-history [get]
func (h *StageHandler) ListStageHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	history, err := h.leadService.ListStageHistory(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to list stage history", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list stage history")
		return
	}

	respondJSON(w, http.StatusOK, history)
}
