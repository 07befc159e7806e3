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

const professionalColumns = "id, name, email, specialty, locations, availability, avatar, created_at, updated_at"

// ProfessionalRepository manages persistence for professionals.
type ProfessionalRepository struct {
	db *sqlx.DB
}

// NewProfessionalRepository constructs a ProfessionalRepository.
func NewProfessionalRepository(db *sqlx.DB) *ProfessionalRepository {
	return &ProfessionalRepository{db: db}
}

// All returns every professional ordered by name.
func (r *ProfessionalRepository) All(ctx context.Context) ([]models.Professional, error) {
	var out []models.Professional
	if err := r.db.SelectContext(ctx, &out, "SELECT "+professionalColumns+" FROM professionals ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("load professionals: %w", err)
	}
	return out, nil
}

// List returns professionals matching filters along with total count.
func (r *ProfessionalRepository) List(ctx context.Context, filter models.ProfessionalFilter) ([]models.Professional, int, error) {
	base := "FROM professionals WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, likePattern(filter.Search))
	}
	if filter.Specialty != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(specialty) = LOWER($%d)", len(args)+1))
		args = append(args, filter.Specialty)
	}
	if filter.Location != "" {
		conditions = append(conditions, fmt.Sprintf("$%d = ANY(locations)", len(args)+1))
		args = append(args, filter.Location)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "name",
		"specialty":  "specialty",
		"created_at": "created_at",
	}, "name", "ASC")
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", professionalColumns, base, order, limit, offset)
	var professionals []models.Professional
	if err := r.db.SelectContext(ctx, &professionals, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list professionals: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count professionals: %w", err)
	}
	return professionals, total, nil
}

// FindByID fetches a professional by ID.
func (r *ProfessionalRepository) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	var p models.Professional
	if err := r.db.GetContext(ctx, &p, "SELECT "+professionalColumns+" FROM professionals WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new professional.
func (r *ProfessionalRepository) Create(ctx context.Context, p *models.Professional) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Locations == nil {
		p.Locations = []string{}
	}

	const query = `INSERT INTO professionals (id, name, email, specialty, locations, availability, avatar, created_at, updated_at)
		VALUES (:id, :name, :email, :specialty, :locations, :availability, :avatar, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create professional: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of a professional.
func (r *ProfessionalRepository) Update(ctx context.Context, p *models.Professional) error {
	p.UpdatedAt = time.Now().UTC()
	if p.Locations == nil {
		p.Locations = []string{}
	}
	const query = `UPDATE professionals SET name = :name, email = :email, specialty = :specialty, locations = :locations,
		availability = :availability, avatar = :avatar, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("update professional: %w", err)
	}
	return nil
}

// Delete removes a professional. Appointments that reference it stay in place.
func (r *ProfessionalRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "professionals", id)
}

func deleteByID(ctx context.Context, db *sqlx.DB, table, id string) error {
	res, err := db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
