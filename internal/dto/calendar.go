package dto

import (
	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// DayCell is one resolved slot of a professional column.
type DayCell struct {
	Time          string                         `json:"time"`
	State         availability.SlotState         `json:"state"`
	AppointmentID string                         `json:"appointment_id,omitempty"`
	Appointment   *models.AppointmentWithDetails `json:"appointment,omitempty"`
}

// DayColumn is the slot grid of a single professional.
type DayColumn struct {
	ProfessionalID string    `json:"professional_id"`
	Name           string    `json:"name"`
	Specialty      string    `json:"specialty"`
	Cells          []DayCell `json:"cells"`
}

// DayView is the detailed per-professional schedule for a date.
type DayView struct {
	Date         string                          `json:"date"`
	Weekday      string                          `json:"weekday"`
	Slots        []string                        `json:"slots"`
	Columns      []DayColumn                     `json:"columns"`
	Appointments []models.AppointmentWithDetails `json:"appointments"`
}

// WeekView lists seven Sunday-first days.
type WeekView struct {
	From string           `json:"from"`
	To   string           `json:"to"`
	Days []agenda.WeekDay `json:"days"`
}

// MonthView is a six week grid around the requested month.
type MonthView struct {
	Month string             `json:"month"`
	Cells []agenda.MonthCell `json:"cells"`
}

// SlotsView lists the start times a service can be booked at.
type SlotsView struct {
	ProfessionalID string   `json:"professional_id"`
	Date           string   `json:"date"`
	ServiceID      string   `json:"service_id,omitempty"`
	Duration       int      `json:"duration"`
	Starts         []string `json:"starts"`
}
