package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

const clientColumns = "id, name, email, phone, created_at"

// ClientRepository manages persistence for clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository constructs a ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// All returns every client ordered by name.
func (r *ClientRepository) All(ctx context.Context) ([]models.Client, error) {
	var out []models.Client
	if err := r.db.SelectContext(ctx, &out, "SELECT "+clientColumns+" FROM clients ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	return out, nil
}

// List returns clients matching filters along with total count.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	base := "FROM clients WHERE 1=1"
	var args []interface{}
	if filter.Search != "" {
		base += " AND (LOWER(name) LIKE $1 OR LOWER(email) LIKE $1 OR phone LIKE $1)"
		args = append(args, likePattern(filter.Search))
	}

	order := orderBy(filter.SortBy, filter.SortOrder, map[string]string{
		"name":       "name",
		"email":      "email",
		"created_at": "created_at",
	}, "name", "ASC")
	limit, offset := pageWindow(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s LIMIT %d OFFSET %d", clientColumns, base, order, limit, offset)
	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}
	return clients, total, nil
}

// FindByID fetches a client by ID.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	var c models.Client
	if err := r.db.GetContext(ctx, &c, "SELECT "+clientColumns+" FROM clients WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &c, nil
}

// Count returns the number of stored clients.
func (r *ClientRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM clients"); err != nil {
		return 0, fmt.Errorf("count clients: %w", err)
	}
	return total, nil
}

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, c *models.Client) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO clients (id, name, email, phone, created_at) VALUES (:id, :name, :email, :phone, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update overwrites the contact fields of a client.
func (r *ClientRepository) Update(ctx context.Context, c *models.Client) error {
	const query = `UPDATE clients SET name = :name, email = :email, phone = :phone WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// Delete removes a client. Its appointments remain stored but drop out of joined views.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, "clients", id)
}
