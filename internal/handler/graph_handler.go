package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumitrack/lumitrack-api/internal/middleware"
	"github.com/lumitrack/lumitrack-api/internal/models"
	appErrors "github.com/lumitrack/lumitrack-api/pkg/errors"
	"github.com/lumitrack/lumitrack-api/pkg/response"
)

type targetResolver interface {
	Get(ctx context.Context, programID, targetID string) (*models.Target, error)
}

type graphBuilder interface {
	GetGraph(ctx context.Context, targetID string, interval models.GraphInterval) (*models.Graph, bool, error)
}

// GraphHandler serves aggregated chart data for a target.
type GraphHandler struct {
	targets targetResolver
	graphs  graphBuilder
}

// NewGraphHandler constructs GraphHandler.
func NewGraphHandler(targets targetResolver, graphs graphBuilder) *GraphHandler {
	return &GraphHandler{targets: targets, graphs: graphs}
}

// Get godoc
// @Summary Build the target's graph for an interval
// @Tags Graphs
// @Produce json
// @Param client_id path string true "Client ID"
// @Param program_id path string true "Program ID"
// @Param target_id path string true "Target ID"
// @Param interval query string false "D, W, M or Y" default(D)
// @Success 200 {object} response.Envelope
// @Router /clients/{client_id}/programs/{program_id}/targets/{target_id}/graph [get]
func (h *GraphHandler) Get(c *gin.Context) {
	target, err := h.targets.Get(c.Request.Context(), c.Param("program_id"), c.Param("target_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	interval, ok := models.ParseGraphInterval(c.DefaultQuery("interval", string(models.IntervalDay)))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "interval must be one of D, W, M or Y"))
		return
	}

	graph, fromCache, err := h.graphs.GetGraph(c.Request.Context(), target.ID, interval)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, fromCache)
	response.JSON(c, http.StatusOK, graph, nil, middleware.ExtractMeta(c))
}
