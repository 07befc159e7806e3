package models

import (
	"time"

	"github.com/lib/pq"
)

// Service is a catalog entry that can be booked. An empty ProfessionalIDs set means anyone may perform it.
type Service struct {
	ID              string         `db:"id" json:"id"`
	Name            string         `db:"name" json:"name"`
	Duration        int            `db:"duration" json:"duration"`
	Price           float64        `db:"price" json:"price"`
	Color           string         `db:"color" json:"color"`
	ProfessionalIDs pq.StringArray `db:"professional_ids" json:"professional_ids"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// OfferedBy reports whether the professional may perform the service.
func (s Service) OfferedBy(professionalID string) bool {
	if len(s.ProfessionalIDs) == 0 {
		return true
	}
	for _, id := range s.ProfessionalIDs {
		if id == professionalID {
			return true
		}
	}
	return false
}

// ServiceFilter captures filtering options for listing services.
type ServiceFilter struct {
	Search         string
	ProfessionalID string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
