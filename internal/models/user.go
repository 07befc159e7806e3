package models

import "time"

// UserRole is the access class of an authenticated user.
type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleProfessional UserRole = "professional"
)

// Valid reports whether the role is one the API understands.
func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleProfessional
}

// User represents an application identity stored in the users table.
// Role is nullable; an unset role is resolved at login.
type User struct {
	ID             string     `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Name           string     `db:"name" json:"name"`
	Role           *UserRole  `db:"role" json:"role,omitempty"`
	ProfessionalID *string    `db:"professional_id" json:"professional_id,omitempty"`
	Active         bool       `db:"active" json:"active"`
	LastLogin      *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// CreateUserRequest is the admin payload for granting access to a new identity.
type CreateUserRequest struct {
	Email          string   `json:"email" validate:"required,email"`
	Password       string   `json:"password" validate:"required,min=6"`
	Name           string   `json:"name" validate:"required,max=255"`
	Role           UserRole `json:"role" validate:"required,oneof=admin professional"`
	ProfessionalID *string  `json:"professional_id" validate:"omitempty,uuid"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
