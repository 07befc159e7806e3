package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type appointmentService interface {
	List(ctx context.Context, user models.SessionUser, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error)
	Get(ctx context.Context, user models.SessionUser, id string) (*models.Appointment, error)
	Create(ctx context.Context, user models.SessionUser, req service.AppointmentRequest) (*models.Appointment, error)
	Update(ctx context.Context, user models.SessionUser, id string, req service.AppointmentRequest) (*models.Appointment, error)
	Reschedule(ctx context.Context, user models.SessionUser, id string, req service.RescheduleRequest) (*models.Appointment, error)
	UpdateStatus(ctx context.Context, user models.SessionUser, id string, req service.StatusRequest) (*models.Appointment, error)
	Delete(ctx context.Context, user models.SessionUser, id string) error
}

// AppointmentHandler books and manages appointments.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(svc appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: svc}
}

// List godoc
// @Summary List appointments
// @Description Professionals only ever see their own appointments
// @Tags Appointments
// @Produce json
// @Param professional_id query string false "Professional filter (admin only)"
// @Param client_id query string false "Client filter"
// @Param service_id query string false "Service filter"
// @Param status query string false "confirmed, cancelled or completed"
// @Param from query string false "First date, YYYY-MM-DD"
// @Param to query string false "Last date, YYYY-MM-DD"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /appointments [get]
func (h *AppointmentHandler) List(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	q := parseListQuery(c)
	filter := models.AppointmentFilter{
		ProfessionalID: c.Query("professional_id"),
		ClientID:       c.Query("client_id"),
		ServiceID:      c.Query("service_id"),
		DateFrom:       c.Query("from"),
		DateTo:         c.Query("to"),
		Page:           q.Page,
		PageSize:       q.PageSize,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
	}
	if status := c.Query("status"); status != "" {
		s := models.AppointmentStatus(status)
		filter.Status = &s
	}

	items, pagination, err := h.service.List(c.Request.Context(), user, filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	item, err := h.service.Get(c.Request.Context(), user, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Create godoc
// @Summary Book appointment
// @Description Validates references, active location, date and notes; the slot itself is not locked
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body service.AppointmentRequest true "Appointment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appointments [post]
func (h *AppointmentHandler) Create(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var req service.AppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Create(c.Request.Context(), user, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	markCreated(c, item.ID)
	response.Created(c, item)
}

// Update godoc
// @Summary Edit appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body service.AppointmentRequest true "Appointment payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [put]
func (h *AppointmentHandler) Update(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var req service.AppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Update(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Reschedule godoc
// @Summary Reschedule appointment
// @Description Moves a confirmed appointment to another date, time or professional
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body service.RescheduleRequest true "New schedule"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/reschedule [patch]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var req service.RescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Reschedule(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// UpdateStatus godoc
// @Summary Change appointment status
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body service.StatusRequest true "Status payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	var req service.StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.UpdateStatus(c.Request.Context(), user, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Delete godoc
// @Summary Delete appointment
// @Tags Appointments
// @Param id path string true "Appointment ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /appointments/{id} [delete]
func (h *AppointmentHandler) Delete(c *gin.Context) {
	user, ok := sessionFromContext(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), user, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
