package models

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentCompleted AppointmentStatus = "completed"
)

// Valid reports whether the status is known.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentConfirmed, AppointmentCancelled, AppointmentCompleted:
		return true
	}
	return false
}

// DateLayout is the wire and storage layout of appointment dates.
const DateLayout = "2006-01-02"

// Appointment is a booking of a service with a professional for a client.
// Date is YYYY-MM-DD and Time is zero padded 24h HH:MM, so both compare lexicographically.
type Appointment struct {
	ID             string            `db:"id" json:"id"`
	ClientID       string            `db:"client_id" json:"client_id"`
	ProfessionalID string            `db:"professional_id" json:"professional_id"`
	ServiceID      string            `db:"service_id" json:"service_id"`
	Date           string            `db:"date" json:"date"`
	Time           string            `db:"time" json:"time"`
	Location       string            `db:"location" json:"location"`
	Status         AppointmentStatus `db:"status" json:"status"`
	Notes          *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
}

// AppointmentWithDetails joins an appointment with the records it references.
type AppointmentWithDetails struct {
	Appointment
	Client       Client       `json:"client"`
	Professional Professional `json:"professional"`
	Service      Service      `json:"service"`
}

// AppointmentFilter narrows appointment listings. Dates are inclusive YYYY-MM-DD bounds.
type AppointmentFilter struct {
	ProfessionalID string
	ClientID       string
	ServiceID      string
	Status         *AppointmentStatus
	DateFrom       string
	DateTo         string
	Page           int
	PageSize       int
	SortBy         string
	SortOrder      string
}
