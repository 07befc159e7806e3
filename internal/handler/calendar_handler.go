package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/dto"
	"github.com/noah-isme/clinic-agenda-api/internal/middleware"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type calendarService interface {
	Day(ctx context.Context, user models.SessionUser, date string) (*dto.DayView, error)
	Week(ctx context.Context, user models.SessionUser, date string) (*dto.WeekView, error)
	Month(ctx context.Context, user models.SessionUser, month string) (*dto.MonthView, error)
	Slots(ctx context.Context, user models.SessionUser, professionalID, date, serviceID string) (*dto.SlotsView, error)
}

// CalendarHandler serves the day, week and month agenda views.
type CalendarHandler struct {
	service calendarService
	now     func() time.Time
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(svc calendarService) *CalendarHandler {
	return &CalendarHandler{service: svc, now: time.Now}
}

// Day godoc
// @Summary Day schedule
// @Description One column per visible professional, each slot resolved to appointment, occupied, available or unavailable
// @Tags Calendar
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Failure 504 {object} response.Envelope
// @Router /calendar/day [get]
func (h *CalendarHandler) Day(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	view, err := h.service.Day(c.Request.Context(), user, dateOrToday(c, "date", h.now))
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "professionals", len(view.Columns))
	respond(c, http.StatusOK, view, nil)
}

// Week godoc
// @Summary Week schedule
// @Description Seven days starting on the Sunday of the given date
// @Tags Calendar
// @Produce json
// @Param date query string false "Any date in the week, defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/week [get]
func (h *CalendarHandler) Week(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	view, err := h.service.Week(c.Request.Context(), user, dateOrToday(c, "date", h.now))
	if err != nil {
		response.Error(c, err)
		return
	}

	respond(c, http.StatusOK, view, nil)
}

// Month godoc
// @Summary Month overview
// @Description Six week grid with per-day professional clusters
// @Tags Calendar
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendar/month [get]
func (h *CalendarHandler) Month(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	month := c.Query("month")
	if month == "" {
		month = h.now().Format("2006-01")
	}

	view, err := h.service.Month(c.Request.Context(), user, month)
	if err != nil {
		response.Error(c, err)
		return
	}

	respond(c, http.StatusOK, view, nil)
}

// Slots godoc
// @Summary Bookable start times
// @Tags Calendar
// @Produce json
// @Param professional_id query string true "Professional ID"
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Param service_id query string false "Service whose duration must fit"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /calendar/slots [get]
func (h *CalendarHandler) Slots(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	professionalID := c.Query("professional_id")
	if professionalID == "" {
		professionalID = c.Query("professionalId")
	}

	view, err := h.service.Slots(c.Request.Context(), user, professionalID, dateOrToday(c, "date", h.now), c.Query("service_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetMeta(c, "count", len(view.Starts))
	respond(c, http.StatusOK, view, nil)
}
