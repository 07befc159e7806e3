package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/internal/service"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

type catalogService interface {
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Service, error)
	Create(ctx context.Context, req service.ServiceRequest) (*models.Service, error)
	Update(ctx context.Context, id string, req service.ServiceRequest) (*models.Service, error)
	Delete(ctx context.Context, id string) error
}

// ServiceHandler exposes the catalogue of bookable services.
type ServiceHandler struct {
	service catalogService
}

// NewServiceHandler constructs the handler.
func NewServiceHandler(svc catalogService) *ServiceHandler {
	return &ServiceHandler{service: svc}
}

// List godoc
// @Summary List services
// @Tags Services
// @Produce json
// @Param search query string false "Name search"
// @Param professional_id query string false "Only services offered by this professional"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /services [get]
func (h *ServiceHandler) List(c *gin.Context) {
	q := parseListQuery(c)
	items, pagination, err := h.service.List(c.Request.Context(), models.ServiceFilter{
		Search:         q.Search,
		ProfessionalID: c.Query("professional_id"),
		Page:           q.Page,
		PageSize:       q.PageSize,
		SortBy:         q.SortBy,
		SortOrder:      q.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get service
// @Tags Services
// @Produce json
// @Param id path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id} [get]
func (h *ServiceHandler) Get(c *gin.Context) {
	item, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, item)
}

// Create godoc
// @Summary Create service
// @Description Duration must be a multiple of the booking granularity
// @Tags Services
// @Accept json
// @Produce json
// @Param payload body service.ServiceRequest true "Service payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /services [post]
func (h *ServiceHandler) Create(c *gin.Context) {
	var req service.ServiceRequest
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
// @Summary Update service
// @Tags Services
// @Accept json
// @Produce json
// @Param id path string true "Service ID"
// @Param payload body service.ServiceRequest true "Service payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id} [put]
func (h *ServiceHandler) Update(c *gin.Context) {
	var req service.ServiceRequest
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
// @Summary Delete service
// @Tags Services
// @Param id path string true "Service ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /services/{id} [delete]
func (h *ServiceHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
