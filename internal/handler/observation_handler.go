package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/response"
)

type observationRecorder interface {
	List(ctx context.Context, target *models.Target, filter models.ObservationFilter) ([]dto.ObservationRow, error)
	Add(ctx context.Context, target *models.Target, input dto.ObservationInput, userID string) (*models.Observation, error)
	Edit(ctx context.Context, target *models.Target, observationID string, input dto.ObservationInput, userID string) (*models.Observation, error)
	Delete(ctx context.Context, target *models.Target, observationID string) error
}

// ObservationHandler exposes data-entry endpoints nested under a target.
type ObservationHandler struct {
	targets      targetResolver
	observations observationRecorder
}

// NewObservationHandler constructs ObservationHandler.
func NewObservationHandler(targets targetResolver, observations observationRecorder) *ObservationHandler {
	return &ObservationHandler{targets: targets, observations: observations}
}

func (h *ObservationHandler) resolveTarget(c *gin.Context) (*models.Target, bool) {
	target, err := h.targets.Get(c.Request.Context(), c.Param("program_id"), c.Param("target_id"))
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return target, true
}

// List godoc
// @Summary List a target's observations, most readable form
// @Tags Observations
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param date_from query string false "Inclusive lower bound, RFC 3339 or YYYY-MM-DD"
// @Param date_to query string false "Exclusive upper bound, RFC 3339 or YYYY-MM-DD"
// @Param page query int false "Page number, used with limit"
// @Param limit query int false "Page size, omit to list everything"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/observations [get]
func (h *ObservationHandler) List(c *gin.Context) {
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	filter := models.ObservationFilter{TargetID: target.ID}
	if raw := c.Query("date_from"); raw != "" {
		from, err := parseQueryDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date_from"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("date_to"); raw != "" {
		to, err := parseQueryDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date_to"))
			return
		}
		filter.DateTo = &to
	}
	if raw := c.Query("limit"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid limit"))
			return
		}
		filter.PageSize = size
		filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	}
	rows, err := h.observations.List(c.Request.Context(), target, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Create godoc
// @Summary Record an observation for a target
// @Tags Observations
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param payload body dto.ObservationInput true "Observation payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/observations [post]
func (h *ObservationHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	var input dto.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	observation, err := h.observations.Add(c.Request.Context(), target, input, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, observation)
}

// Update godoc
// @Summary Correct a recorded observation
// @Tags Observations
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param observation_id path string true "Observation ID"
// @Param payload body dto.ObservationInput true "Corrected payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/observations/{observation_id} [put]
func (h *ObservationHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	var input dto.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	observation, err := h.observations.Edit(c.Request.Context(), target, c.Param("observation_id"), input, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, observation, nil)
}

// Adjust godoc
// @Summary Adjust a counter without naming a record
// @Description Stores the delta between the submitted count and the count
// the form was rendered with. Count-kind data types only.
// @Tags Observations
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param payload body dto.ObservationInput true "Adjustment payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/observations [patch]
func (h *ObservationHandler) Adjust(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	var input dto.ObservationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	observation, err := h.observations.Edit(c.Request.Context(), target, "", input, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, observation)
}

// Delete godoc
// @Summary Delete a recorded observation
// @Tags Observations
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param observation_id path string true "Observation ID"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/observations/{observation_id} [delete]
func (h *ObservationHandler) Delete(c *gin.Context) {
	target, ok := h.resolveTarget(c)
	if !ok {
		return
	}
	if err := h.observations.Delete(c.Request.Context(), target, c.Param("observation_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseQueryDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
