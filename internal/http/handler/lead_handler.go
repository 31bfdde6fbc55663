package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bharatprops/lifecycle-api/internal/domain"
	"github.com/bharatprops/lifecycle-api/internal/repository"
	"github.com/bharatprops/lifecycle-api/internal/service"
)

// LeadHandler handles HTTP requests for leads
type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

// NewLeadHandler creates a new LeadHandler
func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// ListLeads godoc
// @Summary List leads
// @Description Get paginated list of leads with optional filters
// @Tags Leads
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Items per page" default(20)
// @Param search query string false "Search by name, mobile or email"
// @Param stage query string false "Filter by pipeline stage"
// @Param source query string false "Filter by source"
// @Param ownerId query string false "Filter by owner"
// @Param temperature query string false "Filter by temperature band" Enums(HOT, WARM, COOL, COLD)
// @Param converted query bool false "Filter by conversion state"
// @Param sortBy query string false "Sort option" Enums(score_desc, created_desc, name_asc, activity_asc)
// @Success 200 {object} domain.PaginatedResponse
// @Failure 400 {object} domain.APIError
// @Security BearerAuth
// @Router /leads [get]
func (h *LeadHandler) ListLeads(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 200 {
		pageSize = 200
	}

	filters := &repository.LeadFilters{
		Search:      r.URL.Query().Get("search"),
		Source:      r.URL.Query().Get("source"),
		OwnerID:     r.URL.Query().Get("ownerId"),
		Temperature: r.URL.Query().Get("temperature"),
	}

	if stage := r.URL.Query().Get("stage"); stage != "" {
		st := domain.LeadStage(stage)
		if !st.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid stage")
			return
		}
		filters.Stage = &st
	}

	if converted := r.URL.Query().Get("converted"); converted != "" {
		val, err := strconv.ParseBool(converted)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid converted: must be a boolean")
			return
		}
		filters.Converted = &val
	}

	sortBy := repository.LeadSortByCreatedDesc
	if s := r.URL.Query().Get("sortBy"); s != "" {
		sortBy = repository.LeadSortOption(s)
	}

	result, err := h.leadService.List(r.Context(), page, pageSize, filters, sortBy)
	if err != nil {
		h.logger.Error("failed to list leads", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// CreateLead godoc
// @Summary Create lead
// @Description Create a new lead at the New stage
// @Tags Leads
// @Accept json
// @Produce json
// @Param lead body domain.CreateLeadRequest true "Lead payload"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /leads [post]
func (h *LeadHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, err := h.leadService.Create(r.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to create lead", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to create lead")
		return
	}

	respondJSON(w, http.StatusCreated, lead)
}

// GetLead godoc
// @Summary Get lead
// @Description Get a lead by ID
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} domain.LeadDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *LeadHandler) GetLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to get lead", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to get lead")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// UpdateLead godoc
// @Summary Update lead
// @Description Update a lead's details. Converted leads are immutable.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param lead body domain.UpdateLeadRequest true "Lead payload"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [put]
func (h *LeadHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req domain.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	lead, err := h.leadService.Update(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Lead not found")
		case errors.Is(err, service.ErrLeadConverted):
			respondWithError(w, http.StatusConflict, "Lead is already converted")
		default:
			h.logger.Error("failed to update lead", zap.Error(err), zap.String("lead_id", id.String()))
			respondWithError(w, http.StatusInternalServerError, "Failed to update lead")
		}
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// DeleteLead godoc
// @Summary Delete lead
// @Description Delete a lead and its activity history
// @Tags Leads
// @Param id path string true "Lead ID"
// @Success 204
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id} [delete]
func (h *LeadHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	if err := h.leadService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to delete lead", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to delete lead")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LogActivity godoc
// @Summary Log activity
// @Description Record an interaction with a lead and refresh its score
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID"
// @Param activity body domain.LogActivityRequest true "Activity payload"
// @Success 201 {object} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/activities [post]
func (h *LeadHandler) LogActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	var req domain.LogActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	activity, err := h.leadService.LogActivity(r.Context(), id, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Lead not found")
		case errors.Is(err, service.ErrLeadConverted):
			respondWithError(w, http.StatusConflict, "Lead is already converted")
		default:
			h.logger.Error("failed to log activity", zap.Error(err), zap.String("lead_id", id.String()))
			respondWithError(w, http.StatusInternalServerError, "Failed to log activity")
		}
		return
	}

	respondJSON(w, http.StatusCreated, activity)
}

// ListActivities godoc
// @Summary List activities
// @Description Get the activity history of a lead, newest first
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {array} domain.ActivityDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/activities [get]
func (h *LeadHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	activities, err := h.leadService.ListActivities(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to list activities", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// GetScore godoc
// @Summary Get lead score
// @Description Compute the lead's score on demand with the component breakdown
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID"
// @Success 200 {object} engine.ScoreResult
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Router /leads/{id}/score [get]
func (h *LeadHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	id, ok := parseLeadID(w, r)
	if !ok {
		return
	}

	result, err := h.leadService.GetScore(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Lead not found")
			return
		}
		h.logger.Error("failed to score lead", zap.Error(err), zap.String("lead_id", id.String()))
		respondWithError(w, http.StatusInternalServerError, "Failed to score lead")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// PipelineCounts godoc
// @Summary Pipeline counts
// @Description Get unconverted lead counts per pipeline stage
// @Tags Leads
// @Produce json
// @Success 200 {object} map[string]int64
// @Security BearerAuth
// @Router /leads/pipeline [get]
func (h *LeadHandler) PipelineCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.leadService.PipelineCounts(r.Context())
	if err != nil {
		h.logger.Error("failed to count pipeline", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to count pipeline")
		return
	}

	respondJSON(w, http.StatusOK, counts)
}

func parseLeadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid lead ID: must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}
