package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type exportService interface {
	Agenda(ctx context.Context, user models.SessionUser, req service.ExportRequest) (*service.ExportResult, error)
}

// ExportHandler streams agenda exports.
type ExportHandler struct {
	service exportService
	now     func() time.Time
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc, now: time.Now}
}

// Agenda godoc
// @Summary Export agenda
// @Description Download the caller's appointments as CSV or PDF. date selects a single day; from/to select a range of up to 31 days.
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param date query string false "Single day, YYYY-MM-DD"
// @Param from query string false "First day, YYYY-MM-DD"
// @Param to query string false "Last day, YYYY-MM-DD"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /agenda/export [get]
func (h *ExportHandler) Agenda(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	req := service.ExportRequest{
		From:   c.Query("from"),
		To:     c.Query("to"),
		Format: c.DefaultQuery("format", "csv"),
	}
	if req.From == "" {
		req.From = dateOrToday(c, "date", h.now)
	}

	result, err := h.service.Agenda(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Header("X-Export-Rows", strconv.Itoa(result.Rows))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
