package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type professionalService interface {
	List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Professional, error)
	Create(ctx context.Context, req service.ProfessionalRequest) (*models.Professional, error)
	Update(ctx context.Context, id string, req service.ProfessionalRequest) (*models.Professional, error)
	Delete(ctx context.Context, id string) error
}

// ProfessionalHandler exposes the professional directory and their weekly availability.
type ProfessionalHandler struct {
	service professionalService
}

// NewProfessionalHandler constructs the handler.
func NewProfessionalHandler(svc professionalService) *ProfessionalHandler {
	return &ProfessionalHandler{service: svc}
}

// List godoc
// @Summary List professionals
// @Tags Professionals
// @Produce json
// @Param search query string false "Name or email search"
// @Param specialty query string false "Specialty filter"
// @Param location query string false "Location filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /professionals [get]
func (h *ProfessionalHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	filter := models.ProfessionalFilter{
		Search:    q.Search,
		Specialty: c.Query("specialty"),
		Location:  c.Query("location"),
		Page:      q.Page,
		PageSize:  q.PageSize,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	}

	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get professional
// @Tags Professionals
// @Produce json
// @Param id path string true "Professional ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professionals/{id} [get]
func (h *ProfessionalHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Create godoc
// @Summary Create professional
// @Description Overlapping availability intervals are merged, inverted ones are rejected
// @Tags Professionals
// @Accept json
// @Produce json
// @Param payload body service.ProfessionalRequest true "Professional payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /professionals [post]
func (h *ProfessionalHandler) Create(c *gin.Context) {
	var req service.ProfessionalRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	markCreated(c, item.ID)
	response.Created(c, item)
}

// Update godoc
// @Summary Update professional
// @Tags Professionals
// @Accept json
// @Produce json
// @Param id path string true "Professional ID"
// @Param payload body service.ProfessionalRequest true "Professional payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professionals/{id} [put]
func (h *ProfessionalHandler) Update(c *gin.Context) {
	var req service.ProfessionalRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Delete godoc
// @Summary Delete professional
// @Tags Professionals
// @Param id path string true "Professional ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /professionals/{id} [delete]
func (h *ProfessionalHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
