package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edulane/lms-api/internal/models"
	"github.com/edulane/lms-api/internal/service"
	"github.com/edulane/lms-api/pkg/response"
)

type dashboardService interface {
	Dashboard(ctx context.Context, facilitatorID string) (*service.Dashboard, error)
	Summary(ctx context.Context, facilitatorID string) (*models.AnalyticsSummary, error)
	Invalidate(ctx context.Context, facilitatorID string)
}

// DashboardHandler exposes facilitator analytics endpoints.
type DashboardHandler struct {
	dashboards dashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboards dashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Dashboard godoc
// @Summary Facilitator analytics dashboard
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/dashboard [get]
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.dashboards.Dashboard(c.Request.Context(), userInfoFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Summary godoc
// @Summary Facilitator summary statistics
// @Tags Analytics
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /analytics/summary [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboards.Summary(c.Request.Context(), userInfoFromContext(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Invalidate godoc
// @Summary Drop the requester's cached analytics
// @Tags Analytics
// @Produce json
// @Success 204
// @Security BearerAuth
// @Router /analytics/cache [delete]
func (h *DashboardHandler) Invalidate(c *gin.Context) {
	h.dashboards.Invalidate(c.Request.Context(), userInfoFromContext(c).ID)
	response.NoContent(c)
}
