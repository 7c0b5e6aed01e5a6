package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/service"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/response"
)

// TargetHandler exposes target endpoints nested under a program, plus the
// previous-day summary and observation export downloads.
type TargetHandler struct {
	targets *service.TargetService
	exports *service.ExportService
}

// NewTargetHandler constructs TargetHandler.
func NewTargetHandler(targets *service.TargetService, exports *service.ExportService) *TargetHandler {
	return &TargetHandler{targets: targets, exports: exports}
}

// List godoc
// @Summary List a program's targets
// @Tags Targets
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets [get]
func (h *TargetHandler) List(c *gin.Context) {
	targets, err := h.targets.List(c.Request.Context(), c.Param("program_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, targets, nil)
}

// Get godoc
// @Summary Get target detail
// @Tags Targets
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id} [get]
func (h *TargetHandler) Get(c *gin.Context) {
	target, err := h.targets.Get(c.Request.Context(), c.Param("program_id"), c.Param("target_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, target, nil)
}

// Create godoc
// @Summary Create a target under a program
// @Tags Targets
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param payload body dto.CreateTargetRequest true "Target payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets [post]
func (h *TargetHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	target, err := h.targets.Create(c.Request.Context(), c.Param("program_id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, target)
}

// Update godoc
// @Summary Update a target
// @Tags Targets
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param payload body dto.UpdateTargetRequest true "Target payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id} [put]
func (h *TargetHandler) Update(c *gin.Context) {
	var req dto.UpdateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	target, err := h.targets.Update(c.Request.Context(), c.Param("program_id"), c.Param("target_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, target, nil)
}

// Delete godoc
// @Summary Delete a target and its observations
// @Tags Targets
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id} [delete]
func (h *TargetHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.targets.Delete(c.Request.Context(), c.Param("program_id"), c.Param("target_id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Summary godoc
// @Summary Previous-day headline figure for a target
// @Tags Targets
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/summary [get]
func (h *TargetHandler) Summary(c *gin.Context) {
	target, err := h.targets.Get(c.Request.Context(), c.Param("program_id"), c.Param("target_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.targets.Summary(c.Request.Context(), target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Download a target's observation history
// @Tags Targets
// @Produce octet-stream
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/export [get]
func (h *TargetHandler) Export(c *gin.Context) {
	target, err := h.targets.Get(c.Request.Context(), c.Param("program_id"), c.Param("target_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", string(service.ExportFormatCSV)))
	result, err := h.exports.Export(c.Request.Context(), target, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
