package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

type professionalRepository interface {
	List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, int, error)
	FindByID(ctx context.Context, id string) (*models.Professional, error)
	Create(ctx context.Context, p *models.Professional) error
	Update(ctx context.Context, p *models.Professional) error
	Delete(ctx context.Context, id string) error
}

// ProfessionalRequest is the payload for creating or replacing a professional.
// Availability is checked and normalised separately so that every bad interval is reported.
type ProfessionalRequest struct {
	Name         string                    `json:"name" validate:"required,max=255,nohtml"`
	Email        string                    `json:"email" validate:"required,email"`
	Specialty    string                    `json:"specialty" validate:"required,max=255,nohtml"`
	Locations    []string                  `json:"locations" validate:"dive,required,max=255"`
	Availability models.WeeklyAvailability `json:"availability"`
	Avatar       *string                   `json:"avatar" validate:"omitempty,url"`
}

// ProfessionalService orchestrates professional operations.
type ProfessionalService struct {
	repo      professionalRepository
	snapshot  snapshotInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewProfessionalService constructs a ProfessionalService.
func NewProfessionalService(repo professionalRepository, snapshot snapshotInvalidator, validate *validator.Validate, logger *zap.Logger) *ProfessionalService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfessionalService{repo: repo, snapshot: snapshot, validator: validate, logger: logger}
}

// List returns professionals plus pagination data.
func (s *ProfessionalService) List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, *models.Pagination, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list professionals")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a professional by id.
func (s *ProfessionalService) Get(ctx context.Context, id string) (*models.Professional, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "professional not found", "failed to load professional")
	}
	return p, nil
}

// Create registers a professional with a normalised weekly availability.
func (s *ProfessionalService) Create(ctx context.Context, req ProfessionalRequest) (*models.Professional, error) {
	p := &models.Professional{}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, internalError(err, "failed to create professional")
	}
	invalidate(ctx, s.snapshot)
	return p, nil
}

// Update replaces the attributes of an existing professional.
func (s *ProfessionalService) Update(ctx context.Context, id string, req ProfessionalRequest) (*models.Professional, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "professional not found", "failed to load professional")
	}
	if err := s.apply(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, internalError(err, "failed to update professional")
	}
	invalidate(ctx, s.snapshot)
	return p, nil
}

// Delete removes a professional. Its appointments drop out of every joined view.
func (s *ProfessionalService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "professional not found", "failed to delete professional")
	}
	invalidate(ctx, s.snapshot)
	s.logger.Info("professional deleted", zap.String("professional_id", id))
	return nil
}

func (s *ProfessionalService) apply(p *models.Professional, req ProfessionalRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid professional payload")
	}
	weekly, err := availability.NormalizeWeekly(req.Availability)
	if err != nil {
		var problems availability.FieldErrors
		if errors.As(err, &problems) {
			return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "invalid availability"), problems)
		}
		return internalError(err, "failed to normalise availability")
	}

	p.Name = strings.TrimSpace(req.Name)
	p.Email = strings.ToLower(strings.TrimSpace(req.Email))
	p.Specialty = strings.TrimSpace(req.Specialty)
	p.Locations = dedupe(req.Locations)
	p.Availability = weekly
	p.Avatar = normalizeOptional(req.Avatar)
	return nil
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if _, ok := seen[v]; ok || v == "" {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
