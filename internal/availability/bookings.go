package availability

import "github.com/noah-isme/clinic-agenda-api/internal/models"

// BookingsFor extracts the bookings of one professional on one date.
// Appointments with an unparseable time cannot occupy a slot and are left out.
func BookingsFor(appointments []models.AppointmentWithDetails, professionalID, date string) []Booking {
	var out []Booking
	for _, a := range appointments {
		if a.ProfessionalID != professionalID || a.Date != date {
			continue
		}
		start, err := ParseClock(a.Time)
		if err != nil {
			continue
		}
		out = append(out, Booking{
			AppointmentID: a.ID,
			Start:         start,
			Duration:      a.Service.Duration,
			Status:        a.Status,
		})
	}
	return out
}
