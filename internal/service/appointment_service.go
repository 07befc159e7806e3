package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
	"github.com/noah-isme/clinic-agenda-api/pkg/sanitize"
)

type appointmentRepository interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error)
	FindByID(ctx context.Context, id string) (*models.Appointment, error)
	Create(ctx context.Context, a *models.Appointment) error
	Update(ctx context.Context, a *models.Appointment) error
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	Delete(ctx context.Context, id string) error
}

type clientLookup interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

type serviceLookup interface {
	FindByID(ctx context.Context, id string) (*models.Service, error)
}

type activeLocationLookup interface {
	FindActiveByName(ctx context.Context, name string) (*models.ServiceLocation, error)
}

// AppointmentRequest is the booking payload, also used for full edits.
type AppointmentRequest struct {
	ClientID       string  `json:"client_id" validate:"required"`
	ProfessionalID string  `json:"professional_id" validate:"required"`
	ServiceID      string  `json:"service_id" validate:"required"`
	Date           string  `json:"date" validate:"required,date"`
	Time           string  `json:"time" validate:"required,clock"`
	Location       string  `json:"location" validate:"required,max=255"`
	Notes          *string `json:"notes" validate:"omitempty,max=1000,nohtml"`
}

// RescheduleRequest moves an appointment to another date, time or professional.
type RescheduleRequest struct {
	Date           string `json:"date" validate:"required,date"`
	Time           string `json:"time" validate:"required,clock"`
	ProfessionalID string `json:"professional_id"`
}

// StatusRequest changes the lifecycle status of an appointment.
type StatusRequest struct {
	Status models.AppointmentStatus `json:"status" validate:"required,oneof=confirmed cancelled completed"`
}

// AppointmentDeps wires the lookups an appointment needs for validation.
type AppointmentDeps struct {
	Clients       clientLookup
	Professionals professionalLookup
	Services      serviceLookup
	Locations     activeLocationLookup
}

// AppointmentService books, edits and cancels appointments.
type AppointmentService struct {
	repo        appointmentRepository
	deps        AppointmentDeps
	snapshot    snapshotInvalidator
	granularity int
	validator   *validator.Validate
	logger      *zap.Logger
	now         func() time.Time
}

// NewAppointmentService constructs an AppointmentService. Start times must fall on granularity minutes.
func NewAppointmentService(repo appointmentRepository, deps AppointmentDeps, snapshot snapshotInvalidator, granularity int, validate *validator.Validate, logger *zap.Logger) *AppointmentService {
	if granularity <= 0 {
		granularity = 15
	}
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:        repo,
		deps:        deps,
		snapshot:    snapshot,
		granularity: granularity,
		validator:   validate,
		logger:      logger,
		now:         time.Now,
	}
}

// List returns appointments visible to user plus pagination data.
func (s *AppointmentService) List(ctx context.Context, user models.SessionUser, filter models.AppointmentFilter) ([]models.Appointment, *models.Pagination, error) {
	if !user.IsAdmin() {
		if user.ProfessionalID == nil {
			return []models.Appointment{}, pagination(filter.Page, filter.PageSize, 0), nil
		}
		filter.ProfessionalID = *user.ProfessionalID
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, internalError(err, "failed to list appointments")
	}
	return items, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns an appointment the user may see.
func (s *AppointmentService) Get(ctx context.Context, user models.SessionUser, id string) (*models.Appointment, error) {
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, a.ProfessionalID); err != nil {
		return nil, err
	}
	return a, nil
}

// Create books an appointment. Availability is advisory and not enforced here.
func (s *AppointmentService) Create(ctx context.Context, user models.SessionUser, req AppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid appointment payload")
	}
	if err := authorizeAppointment(user, req.ProfessionalID); err != nil {
		return nil, err
	}
	if err := s.checkSchedule(req.Date, req.Time); err != nil {
		return nil, err
	}
	location := sanitize.Text(req.Location)
	if err := s.checkReferences(ctx, req.ClientID, req.ProfessionalID, req.ServiceID, location, true); err != nil {
		return nil, err
	}

	a := &models.Appointment{
		ClientID:       req.ClientID,
		ProfessionalID: req.ProfessionalID,
		ServiceID:      req.ServiceID,
		Date:           req.Date,
		Time:           req.Time,
		Location:       location,
		Status:         models.AppointmentConfirmed,
		Notes:          sanitize.OptionalText(req.Notes),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, internalError(err, "failed to create appointment")
	}
	invalidate(ctx, s.snapshot)
	s.logger.Info("appointment booked", zap.String("appointment_id", a.ID), zap.String("professional_id", a.ProfessionalID), zap.String("date", a.Date), zap.String("time", a.Time))
	return a, nil
}

// Update edits every field of an appointment except its status.
func (s *AppointmentService) Update(ctx context.Context, user models.SessionUser, id string, req AppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid appointment payload")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, a.ProfessionalID); err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, req.ProfessionalID); err != nil {
		return nil, err
	}
	if req.Date != a.Date || req.Time != a.Time {
		if err := s.checkSchedule(req.Date, req.Time); err != nil {
			return nil, err
		}
	}
	location := sanitize.Text(req.Location)
	if err := s.checkReferences(ctx, req.ClientID, req.ProfessionalID, req.ServiceID, location, location != a.Location); err != nil {
		return nil, err
	}

	a.ClientID = req.ClientID
	a.ProfessionalID = req.ProfessionalID
	a.ServiceID = req.ServiceID
	a.Date = req.Date
	a.Time = req.Time
	a.Location = location
	a.Notes = sanitize.OptionalText(req.Notes)
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, internalError(err, "failed to update appointment")
	}
	invalidate(ctx, s.snapshot)
	return a, nil
}

// Reschedule moves an appointment, optionally to another professional offering the same service.
func (s *AppointmentService) Reschedule(ctx context.Context, user models.SessionUser, id string, req RescheduleRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid reschedule payload")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, a.ProfessionalID); err != nil {
		return nil, err
	}
	if a.Status != models.AppointmentConfirmed {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s appointments cannot be rescheduled", a.Status))
	}
	if err := s.checkSchedule(req.Date, req.Time); err != nil {
		return nil, err
	}

	professionalID := strings.TrimSpace(req.ProfessionalID)
	if professionalID != "" && professionalID != a.ProfessionalID {
		if err := authorizeAppointment(user, professionalID); err != nil {
			return nil, err
		}
		if err := s.checkReferences(ctx, a.ClientID, professionalID, a.ServiceID, a.Location, false); err != nil {
			return nil, err
		}
		a.ProfessionalID = professionalID
	}
	a.Date = req.Date
	a.Time = req.Time
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, internalError(err, "failed to reschedule appointment")
	}
	invalidate(ctx, s.snapshot)
	return a, nil
}

// UpdateStatus confirms, cancels or completes an appointment.
func (s *AppointmentService) UpdateStatus(ctx context.Context, user models.SessionUser, id string, req StatusRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid status payload")
	}
	a, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, a.ProfessionalID); err != nil {
		return nil, err
	}
	if a.Status == req.Status {
		return a, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, internalError(err, "failed to update appointment status")
	}
	a.Status = req.Status
	invalidate(ctx, s.snapshot)
	return a, nil
}

// Delete hard-deletes an appointment. Only admins may delete.
func (s *AppointmentService) Delete(ctx context.Context, user models.SessionUser, id string) error {
	if !user.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only administrators can delete appointments")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return lookupError(err, "appointment not found", "failed to delete appointment")
	}
	invalidate(ctx, s.snapshot)
	return nil
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.Appointment, error) {
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "appointment not found", "failed to load appointment")
	}
	return a, nil
}

// checkSchedule rejects past dates and start times off the booking granularity.
func (s *AppointmentService) checkSchedule(date, clock string) error {
	day, err := availability.ParseDate(date)
	if err != nil {
		return fieldDetailError("date", "must be a date in YYYY-MM-DD format", "invalid appointment date")
	}
	if day.Format(models.DateLayout) < s.now().Format(models.DateLayout) {
		return fieldDetailError("date", "must not be in the past", "appointment date is in the past")
	}
	minutes, err := availability.ParseClock(clock)
	if err != nil {
		return fieldDetailError("time", "must be a time in HH:MM format", "invalid appointment time")
	}
	if minutes%s.granularity != 0 {
		return fieldDetailError("time", fmt.Sprintf("must fall on a %d minute boundary", s.granularity), "invalid appointment time")
	}
	return nil
}

func (s *AppointmentService) checkReferences(ctx context.Context, clientID, professionalID, serviceID, location string, checkLocation bool) error {
	if _, err := s.deps.Clients.FindByID(ctx, clientID); err != nil {
		return referenceError(err, "client_id", "client")
	}
	if _, err := s.deps.Professionals.FindByID(ctx, professionalID); err != nil {
		return referenceError(err, "professional_id", "professional")
	}
	svc, err := s.deps.Services.FindByID(ctx, serviceID)
	if err != nil {
		return referenceError(err, "service_id", "service")
	}
	if !svc.OfferedBy(professionalID) {
		return fieldDetailError("service_id", "not offered by this professional", "service is not offered by the professional")
	}
	if checkLocation {
		if location == "" {
			return fieldDetailError("location", "is required", "invalid appointment location")
		}
		if _, err := s.deps.Locations.FindActiveByName(ctx, location); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fieldDetailError("location", "must be an active location", "location is not available for bookings")
			}
			return internalError(err, "failed to verify location")
		}
	}
	return nil
}

func referenceError(err error, field, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fieldDetailError(field, "not_found", entity+" not found")
	}
	return internalError(err, "failed to verify "+entity)
}

// authorizeAppointment lets admins act on anything and professionals only on their own bookings.
func authorizeAppointment(user models.SessionUser, professionalID string) error {
	if user.IsAdmin() {
		return nil
	}
	if user.Role == models.RoleProfessional && user.ProfessionalID != nil && *user.ProfessionalID == professionalID {
		return nil
	}
	return appErrors.Clone(appErrors.ErrForbidden, "appointment belongs to another professional")
}
