package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

type clientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, c *models.Client) error
	Delete(ctx context.Context, id string) error
}

// ClientRequest is the payload for creating or updating a client.
type ClientRequest struct {
	Name  string `json:"name" validate:"required,max=255,nohtml"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=50,nohtml"`
}

// ClientService orchestrates client operations.
type ClientService struct {
	repo      clientRepository
	snapshot  snapshotInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs a ClientService.
func NewClientService(repo clientRepository, snapshot snapshotInvalidator, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{repo: repo, snapshot: snapshot, validator: validate, logger: logger}
}

// List returns clients plus pagination data.
func (s *ClientService) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list clients")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a client by id.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "client not found", "failed to load client")
	}
	return c, nil
}

// Create registers a client. Emails are not required to be unique.
func (s *ClientService) Create(ctx context.Context, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid client payload")
	}
	c := &models.Client{
		Name:  strings.TrimSpace(req.Name),
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, internalError(err, "failed to create client")
	}
	invalidate(ctx, s.snapshot)
	return c, nil
}

// Update modifies the contact details of a client.
func (s *ClientService) Update(ctx context.Context, id string, req ClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid client payload")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "client not found", "failed to load client")
	}
	c.Name = strings.TrimSpace(req.Name)
	c.Email = strings.TrimSpace(req.Email)
	c.Phone = strings.TrimSpace(req.Phone)
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, internalError(err, "failed to update client")
	}
	invalidate(ctx, s.snapshot)
	return c, nil
}

// Delete removes a client. Appointments referencing it stop appearing in agenda views.
func (s *ClientService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "client not found", "failed to delete client")
	}
	invalidate(ctx, s.snapshot)
	return nil
}
