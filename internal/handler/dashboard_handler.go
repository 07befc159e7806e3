package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/dto"
	"github.com/noah-isme/clinic-agenda-api/internal/middleware"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, user models.SessionUser) (*dto.DashboardResponse, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Today's and tomorrow's appointments with counters, scoped to the caller
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "scope", string(user.Role))
	respond(c, http.StatusOK, summary, nil)
}
