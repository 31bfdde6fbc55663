package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// ConversionHandler handles lead-to-contact conversion endpoints
type ConversionHandler struct {
	conversionService *service.ConversionService
	logger            *zap.Logger
}

// NewConversionHandler creates a new ConversionHandler
func NewConversionHandler(conversionService *service.ConversionService, logger *zap.Logger) *ConversionHandler {
	return &ConversionHandler{
		conversionService: conversionService,
		logger:            logger,
	}
}

// ConvertLead godoc
// @Summary Convert lead
// @Description Convert a lead into a contact. Idempotent: converting an
// @Description already-converted lead returns the existing outcome, not an error.
// @Tags Conversion
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param conversion body domain.ConvertLeadRequest false "Conversion payload"
// @Success 200 {object} domain.ConversionResult
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/convert [post]
func (h *ConversionHandler) ConvertLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req domain.ConvertLeadRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := validate.Struct(&req); err != nil {
			respondValidationError(w, err)
			return
		}
	}

	result, err := h.conversionService.ConvertLead(r.Context(), id, req.Trigger)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to convert lead", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to convert lead")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ReportEvent godoc
// @Summary Report lead event
// @Description Report a qualifying event and evaluate auto-conversion rules
// @Tags Conversion
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param event body domain.LeadEventRequest true "Event payload"
// @Success 200 {object} domain.ConversionResult
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/events [post]
func (h *ConversionHandler) ReportEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req domain.LeadEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.conversionService.EvaluateAutoConversion(r.Context(), id, &req)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to evaluate lead event", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to evaluate lead event")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetConversionStatus godoc
// @Summary Conversion status
// @Description Check whether a lead has been converted
// @Tags Conversion
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/convert [get]
func (h *ConversionHandler) GetConversionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	converted, err := h.conversionService.IsConverted(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to get conversion status", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get conversion status")
		return
	}

	respondJSON(w, http.StatusOK, map[string]bool{"isConverted": converted})
}
