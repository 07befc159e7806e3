package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

const serviceColumns = "id, name, duration, price, color, professional_ids, created_at, updated_at"

// ServiceRepository manages persistence for the service catalog.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository constructs a ServiceRepository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// All returns the whole catalog ordered by name.
func (r *ServiceRepository) All(ctx context.Context) ([]models.Service, error) {
	var out []models.Service
	if err := r.db.SelectContext(ctx, &out, "SELECT "+serviceColumns+" FROM services ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("load services: %w", err)
	}
	return out, nil
}

// List returns services matching filters along with total count.
func (r *ServiceRepository) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, int, error) {
	base := "FROM services WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, likePattern(filter.Search))
	}
	if filter.ProfessionalID != "" {
		conditions = append(conditions, fmt.Sprintf("(cardinality(professional_ids) = 0 OR $%d = ANY(professional_ids))", len(args)+1))
		args = append(args, filter.ProfessionalID)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"name":     "name",
		"duration": "duration",
		"price":    "price",
	}, "name", "ASC")
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", serviceColumns, base, order, limit, offset)
	var services []models.Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list services: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count services: %w", err)
	}
	return services, total, nil
}

// FindByID fetches a service by ID.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	var s models.Service
	if err := r.db.GetContext(ctx, &s, "SELECT "+serviceColumns+" FROM services WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a catalog entry.
func (r *ServiceRepository) Create(ctx context.Context, s *models.Service) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	if s.ProfessionalIDs == nil {
		s.ProfessionalIDs = []string{}
	}
	const query = `INSERT INTO services (id, name, duration, price, color, professional_ids, created_at, updated_at)
		VALUES (:id, :name, :duration, :price, :color, :professional_ids, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// Update overwrites a catalog entry.
func (r *ServiceRepository) Update(ctx context.Context, s *models.Service) error {
	s.UpdatedAt = time.Now().UTC()
	if s.ProfessionalIDs == nil {
		s.ProfessionalIDs = []string{}
	}
	const query = `UPDATE services SET name = :name, duration = :duration, price = :price, color = :color,
		professional_ids = :professional_ids, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, s); err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// Delete removes a catalog entry.
func (r *ServiceRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "services", id)
}
