package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var appointmentColumns = []string{
	"id",
	"client_id",
	"professional_id",
	"service_id",
	"to_char(date, 'YYYY-MM-DD') AS date",
	"time",
	"location",
	"status",
	"notes",
	"created_at",
}

var appointmentSorts = map[string]string{
	"date":       "date",
	"time":       "time",
	"status":     "status",
	"created_at": "created_at",
}

// AppointmentRepository manages persistence for appointments.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs an AppointmentRepository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// All returns every appointment, newest date first.
func (r *AppointmentRepository) All(ctx context.Context) ([]models.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		OrderBy("date DESC", "time ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build load appointments: %w", err)
	}
	var out []models.Appointment
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	return out, nil
}

func appointmentWhere(filter models.AppointmentFilter) squirrel.And {
	where := squirrel.And{}
	if filter.ProfessionalID != "" {
		where = append(where, squirrel.Eq{"professional_id": filter.ProfessionalID})
	}
	if filter.ClientID != "" {
		where = append(where, squirrel.Eq{"client_id": filter.ClientID})
	}
	if filter.ServiceID != "" {
		where = append(where, squirrel.Eq{"service_id": filter.ServiceID})
	}
	if filter.Status != nil {
		where = append(where, squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.DateFrom != "" {
		where = append(where, squirrel.GtOrEq{"date": filter.DateFrom})
	}
	if filter.DateTo != "" {
		where = append(where, squirrel.LtOrEq{"date": filter.DateTo})
	}
	return where
}

// List returns appointments matching filters along with total count.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	where := appointmentWhere(filter)
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query, args, err := psql.Select(appointmentColumns...).
		From("appointments").
		Where(where).
		OrderBy(orderBy(filter.SortBy, filter.SortOrder, appointmentSorts, "date", "DESC"), "time ASC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list appointments: %w", err)
	}
	var appointments []models.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}

	countQuery, countArgs, err := psql.Select("COUNT(*)").From("appointments").Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count appointments: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}
	return appointments, total, nil
}

// FindByID fetches an appointment by ID.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	query, args, err := psql.Select(appointmentColumns...).From("appointments").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find appointment: %w", err)
	}
	var a models.Appointment
	if err := r.db.GetContext(ctx, &a, query, args...); err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserts an appointment.
func (r *AppointmentRepository) Create(ctx context.Context, a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	query, args, err := psql.Insert("appointments").
		Columns("id", "client_id", "professional_id", "service_id", "date", "time", "location", "status", "notes", "created_at").
		Values(a.ID, a.ClientID, a.ProfessionalID, a.ServiceID, a.Date, a.Time, a.Location, string(a.Status), a.Notes, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build create appointment: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// Update overwrites the editable fields of an appointment.
func (r *AppointmentRepository) Update(ctx context.Context, a *models.Appointment) error {
	query, args, err := psql.Update("appointments").
		SetMap(map[string]interface{}{
			"client_id":       a.ClientID,
			"professional_id": a.ProfessionalID,
			"service_id":      a.ServiceID,
			"date":            a.Date,
			"time":            a.Time,
			"location":        a.Location,
			"status":          string(a.Status),
			"notes":           a.Notes,
		}).
		Where(squirrel.Eq{"id": a.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	return nil
}

// UpdateStatus changes only the lifecycle status.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	query, args, err := psql.Update("appointments").
		Set("status", string(status)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update appointment status: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}

// Delete hard-deletes an appointment.
func (r *AppointmentRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "appointments", id)
}
