package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lumitrack/lumitrack-api/internal/dto"
	"github.com/lumitrack/lumitrack-api/internal/models"
	"github.com/lumitrack/lumitrack-api/internal/service"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/response"
)

// ClientHandler exposes client record and sharing endpoints.
type ClientHandler struct {
	clients *service.ClientService
}

// NewClientHandler constructs ClientHandler.
func NewClientHandler(clients *service.ClientService) *ClientHandler {
	return &ClientHandler{clients: clients}
}

// List godoc
// @Summary List clients visible to the caller
// @Tags Clients
// @Produce json
// @Param search query string false "Search by name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.ClientFilter{
		UserID: claims.UserID,
		Search: strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	clients, pagination, err := h.clients.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, pagination)
}

// Get godoc
// @Summary Get client detail
// @Tags Clients
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id} [get]
func (h *ClientHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	client, err := h.clients.Get(c.Request.Context(), claims.UserID, c.Param("client_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// Create godoc
// @Summary Register a new client
// @Tags Clients
// @Accept json
// @Produce json
// @Param payload body dto.CreateClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Router /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	client, err := h.clients.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Update godoc
// @Summary Update a client
// @Tags Clients
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param payload body dto.UpdateClientRequest true "Client payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	client, err := h.clients.Update(c.Request.Context(), claims.UserID, c.Param("client_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// Delete godoc
// @Summary Delete a client and all descendant records
// @Tags Clients
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id} [delete]
func (h *ClientHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.clients.Delete(c.Request.Context(), claims.UserID, c.Param("client_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Members godoc
// @Summary List users the client is shared with
// @Tags Sharing
// @Produce json
// @Param client_id path string true "Client ID"
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/members [get]
func (h *ClientHandler) Members(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	members, err := h.clients.Members(c.Request.Context(), claims.UserID, c.Param("client_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, members, nil)
}

// AddMember godoc
// @Summary Share the client with another user
// @Tags Sharing
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param payload body dto.AddMemberRequest true "Member payload"
// @Success 201 {object} response.Envelope
// @Router /clients/{client_id}/members [post]
func (h *ClientHandler) AddMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	member, err := h.clients.AddMember(c.Request.Context(), claims.UserID, c.Param("client_id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateMember godoc
// @Summary Change a member's role
// @Tags Sharing
// @Accept json
// @Produce json
// @Param client_id path string true "Client ID"
// @Param user_id path string true "Member user ID"
// @Param payload body dto.UpdateMemberRequest true "Role payload"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id}/members/{user_id} [put]
func (h *ClientHandler) UpdateMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.clients.UpdateMemberRole(c.Request.Context(), claims.UserID, c.Param("client_id"), c.Param("user_id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RemoveMember godoc
// @Summary Stop sharing the client with a user
// @Tags Sharing
// @Produce json
// @Param client_id path string true "Client ID"
// @Param user_id path string true "Member user ID"
// @Success 204 {object} response.Envelope
// @Router /clients/{client_id}/members/{user_id} [delete]
func (h *ClientHandler) RemoveMember(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.clients.RemoveMember(c.Request.Context(), claims.UserID, c.Param("client_id"), c.Param("user_id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
