package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

const locationColumns = "id, name, address, description, is_active, created_at"

// LocationRepository manages persistence for service locations.
type LocationRepository struct {
	db *sqlx.DB
}

// NewLocationRepository constructs a LocationRepository.
func NewLocationRepository(db *sqlx.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// All returns every location ordered by name.
func (r *LocationRepository) All(ctx context.Context) ([]models.ServiceLocation, error) {
	var out []models.ServiceLocation
	if err := r.db.SelectContext(ctx, &out, "SELECT "+locationColumns+" FROM service_locations ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("load locations: %w", err)
	}
	return out, nil
}

// List returns locations matching filters along with total count.
func (r *LocationRepository) List(ctx context.Context, filter models.LocationFilter) ([]models.ServiceLocation, int, error) {
	base := "FROM service_locations WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(address) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, likePattern(filter.Search))
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "name",
		"created_at": "created_at",
	}, "name", "ASC")
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", locationColumns, base, order, limit, offset)
	var locations []models.ServiceLocation
	if err := r.db.SelectContext(ctx, &locations, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list locations: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count locations: %w", err)
	}
	return locations, total, nil
}

// FindByID fetches a location by ID.
func (r *LocationRepository) FindByID(ctx context.Context, id string) (*models.ServiceLocation, error) {
	var l models.ServiceLocation
	if err := r.db.GetContext(ctx, &l, "SELECT "+locationColumns+" FROM service_locations WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &l, nil
}

// FindActiveByName resolves a bookable location by its display name.
func (r *LocationRepository) FindActiveByName(ctx context.Context, name string) (*models.ServiceLocation, error) {
	var l models.ServiceLocation
	query := "SELECT " + locationColumns + " FROM service_locations WHERE name = $1 AND is_active = TRUE LIMIT 1"
	if err := r.db.GetContext(ctx, &l, query, name); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active location: %w", err)
	}
	return &l, nil
}

// Create inserts a location.
func (r *LocationRepository) Create(ctx context.Context, l *models.ServiceLocation) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO service_locations (id, name, address, description, is_active, created_at)
		VALUES (:id, :name, :address, :description, :is_active, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("create location: %w", err)
	}
	return nil
}

// Update overwrites a location, including its active flag.
func (r *LocationRepository) Update(ctx context.Context, l *models.ServiceLocation) error {
	const query = `UPDATE service_locations SET name = :name, address = :address, description = :description, is_active = :is_active WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, l); err != nil {
		return fmt.Errorf("update location: %w", err)
	}
	return nil
}

// Delete removes a location. Appointments keep the denormalised name.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "service_locations", id)
}
