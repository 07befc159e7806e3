package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// TimeInterval is a half-open [Start, End) window of wall-clock time in HH:MM.
type TimeInterval struct {
	Start string `json:"start" validate:"required,clock"`
	End   string `json:"end" validate:"required,clock"`
}

// WeeklyAvailability maps a lowercase english weekday name to its open intervals.
type WeeklyAvailability map[string][]TimeInterval

// Value marshals the availability map for a JSONB column.
func (w WeeklyAvailability) Value() (driver.Value, error) {
	if w == nil {
		w = WeeklyAvailability{}
	}
	data, err := json.Marshal(map[string][]TimeInterval(w))
	if err != nil {
		return nil, fmt.Errorf("marshal availability: %w", err)
	}
	return data, nil
}

// Scan decodes a JSONB availability column.
func (w *WeeklyAvailability) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*w = WeeklyAvailability{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for WeeklyAvailability", value)
	}
	if len(data) == 0 {
		*w = WeeklyAvailability{}
		return nil
	}
	out := map[string][]TimeInterval{}
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("unmarshal availability: %w", err)
	}
	*w = out
	return nil
}

// Professional is a bookable staff member.
type Professional struct {
	ID           string             `db:"id" json:"id"`
	Name         string             `db:"name" json:"name"`
	Email        string             `db:"email" json:"email"`
	Specialty    string             `db:"specialty" json:"specialty"`
	Locations    pq.StringArray     `db:"locations" json:"locations"`
	Availability WeeklyAvailability `db:"availability" json:"availability"`
	Avatar       *string            `db:"avatar" json:"avatar,omitempty"`
	CreatedAt    time.Time          `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `db:"updated_at" json:"updated_at"`
}

// ProfessionalFilter captures filtering options for listing professionals.
type ProfessionalFilter struct {
	Search    string
	Specialty string
	Location  string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
