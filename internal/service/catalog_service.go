package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

type serviceRepository interface {
	List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, int, error)
	FindByID(ctx context.Context, id string) (*models.Service, error)
	Create(ctx context.Context, s *models.Service) error
	Update(ctx context.Context, s *models.Service) error
	Delete(ctx context.Context, id string) error
}

// ServiceRequest is the payload for a catalog entry.
type ServiceRequest struct {
	Name            string   `json:"name" validate:"required,max=255,nohtml"`
	Duration        int      `json:"duration" validate:"required,gt=0"`
	Price           float64  `json:"price" validate:"gte=0"`
	Color           string   `json:"color" validate:"required,len=7,hexcolor"`
	ProfessionalIDs []string `json:"professional_ids" validate:"dive,uuid"`
}

// CatalogService manages the bookable services.
type CatalogService struct {
	repo          serviceRepository
	professionals professionalLookup
	snapshot      snapshotInvalidator
	granularity   int
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewCatalogService constructs a CatalogService. Durations must be multiples of granularity minutes.
func NewCatalogService(repo serviceRepository, professionals professionalLookup, snapshot snapshotInvalidator, granularity int, validate *validator.Validate, logger *zap.Logger) *CatalogService {
	if granularity <= 0 {
		granularity = 15
	}
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{
		repo:          repo,
		professionals: professionals,
		snapshot:      snapshot,
		granularity:   granularity,
		validator:     validate,
		logger:        logger,
	}
}

// List returns services plus pagination data.
func (s *CatalogService) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list services")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a service by id.
func (s *CatalogService) Get(ctx context.Context, id string) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "service not found", "failed to load service")
	}
	return svc, nil
}

// Create adds a service to the catalog.
func (s *CatalogService) Create(ctx context.Context, req ServiceRequest) (*models.Service, error) {
	svc := &models.Service{}
	if err := s.apply(ctx, svc, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, svc); err != nil {
		return nil, internalError(err, "failed to create service")
	}
	invalidate(ctx, s.snapshot)
	return svc, nil
}

// Update replaces a catalog entry.
func (s *CatalogService) Update(ctx context.Context, id string, req ServiceRequest) (*models.Service, error) {
	svc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "service not found", "failed to load service")
	}
	if err := s.apply(ctx, svc, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, svc); err != nil {
		return nil, internalError(err, "failed to update service")
	}
	invalidate(ctx, s.snapshot)
	return svc, nil
}

// Delete removes a service from the catalog.
func (s *CatalogService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "service not found", "failed to delete service")
	}
	invalidate(ctx, s.snapshot)
	return nil
}

func (s *CatalogService) apply(ctx context.Context, svc *models.Service, req ServiceRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid service payload")
	}
	if req.Duration%s.granularity != 0 {
		return fieldDetailError("duration", fmt.Sprintf("must be a multiple of %d", s.granularity), "invalid service duration")
	}
	ids := dedupe(req.ProfessionalIDs)
	for i, id := range ids {
		if _, err := s.professionals.FindByID(ctx, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fieldDetailError(fmt.Sprintf("professional_ids[%d]", i), "not_found", "unknown professional")
			}
			return internalError(err, "failed to verify professionals")
		}
	}

	svc.Name = strings.TrimSpace(req.Name)
	svc.Duration = req.Duration
	svc.Price = math.Round(req.Price*100) / 100
	svc.Color = strings.ToLower(req.Color)
	svc.ProfessionalIDs = ids
	return nil
}
