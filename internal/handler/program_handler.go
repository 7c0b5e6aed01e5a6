package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/service"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/response"
)

// ProgramHandler exposes program endpoints nested under a client.
type ProgramHandler struct {
	programs *service.ProgramService
}

// NewProgramHandler constructs ProgramHandler.
func NewProgramHandler(programs *service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programs: programs}
}

// List godoc
// @Summary List a client's programs
// @Tags Programs
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs [get]
func (h *ProgramHandler) List(c *gin.Context) {
	programs, err := h.programs.List(c.Request.Context(), c.Param("client_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, programs, nil)
}

// Get godoc
// @Summary Get program detail
// @Tags Programs
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id} [get]
func (h *ProgramHandler) Get(c *gin.Context) {
	program, err := h.programs.Get(c.Request.Context(), c.Param("client_id"), c.Param("program_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Create godoc
// @Summary Create a program under a client
// @Tags Programs
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param payload body dto.CreateProgramRequest true "Program payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{client_id}/programs [post]
func (h *ProgramHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.programs.Create(c.Request.Context(), c.Param("client_id"), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, program)
}

// Update godoc
// @Summary Update a program
// @Tags Programs
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param payload body dto.UpdateProgramRequest true "Program payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id} [put]
func (h *ProgramHandler) Update(c *gin.Context) {
	var req dto.UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	program, err := h.programs.Update(c.Request.Context(), c.Param("client_id"), c.Param("program_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, program, nil)
}

// Delete godoc
// @Summary Delete a program and all descendant records
// @Tags Programs
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id} [delete]
func (h *ProgramHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.programs.Delete(c.Request.Context(), c.Param("client_id"), c.Param("program_id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
