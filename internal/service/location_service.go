package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	"github.com/noah-isme/clinic-agenda-api/pkg/sanitize"
)

type locationRepository interface {
	List(ctx context.Context, filter models.LocationFilter) ([]models.ServiceLocation, int, error)
	FindByID(ctx context.Context, id string) (*models.ServiceLocation, error)
	Create(ctx context.Context, l *models.ServiceLocation) error
	Update(ctx context.Context, l *models.ServiceLocation) error
	Delete(ctx context.Context, id string) error
}

// LocationRequest is the payload for a service location.
type LocationRequest struct {
	Name        string  `json:"name" validate:"required,max=255,nohtml"`
	Address     string  `json:"address" validate:"required,max=500,nohtml"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsActive    *bool   `json:"is_active"`
}

// LocationService manages service locations.
type LocationService struct {
	repo      locationRepository
	snapshot  snapshotInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLocationService constructs a LocationService.
func NewLocationService(repo locationRepository, snapshot snapshotInvalidator, validate *validator.Validate, logger *zap.Logger) *LocationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{repo: repo, snapshot: snapshot, validator: validate, logger: logger}
}

// List returns locations plus pagination data.
func (s *LocationService) List(ctx context.Context, filter models.LocationFilter) ([]models.ServiceLocation, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list locations")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a location by id.
func (s *LocationService) Get(ctx context.Context, id string) (*models.ServiceLocation, error) {
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "location not found", "failed to load location")
	}
	return l, nil
}

// Create registers a location; new locations are active unless stated otherwise.
func (s *LocationService) Create(ctx context.Context, req LocationRequest) (*models.ServiceLocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	l := &models.ServiceLocation{IsActive: true}
	s.apply(l, req)
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, internalError(err, "failed to create location")
	}
	invalidate(ctx, s.snapshot)
	return l, nil
}

// Update modifies a location. Deactivating it does not touch existing appointments.
func (s *LocationService) Update(ctx context.Context, id string, req LocationRequest) (*models.ServiceLocation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid location payload")
	}
	l, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "location not found", "failed to load location")
	}
	s.apply(l, req)
	if err := s.repo.Update(ctx, l); err != nil {
		return nil, internalError(err, "failed to update location")
	}
	invalidate(ctx, s.snapshot)
	return l, nil
}

// Delete removes a location.
func (s *LocationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "location not found", "failed to delete location")
	}
	invalidate(ctx, s.snapshot)
	return nil
}

func (s *LocationService) apply(l *models.ServiceLocation, req LocationRequest) {
	l.Name = strings.TrimSpace(req.Name)
	l.Address = strings.TrimSpace(req.Address)
	l.Description = sanitize.OptionalText(req.Description)
	if req.IsActive != nil {
		l.IsActive = *req.IsActive
	}
}
