package availability

import (
	"time"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// SlotState classifies a slot for one professional.
type SlotState string

const (
	// SlotAppointment means a booking starts exactly at the slot.
	SlotAppointment SlotState = "appointment"
	// SlotOccupied means an earlier booking is still running at the slot.
	SlotOccupied SlotState = "occupied"
	// SlotUnavailable means the slot is outside the weekly schedule.
	SlotUnavailable SlotState = "unavailable"
	// SlotAvailable means the slot can be booked.
	SlotAvailable SlotState = "available"
)

// Booking is an existing appointment of the professional on the resolved date.
type Booking struct {
	AppointmentID string
	Start         int
	Duration      int
	Status        models.AppointmentStatus
}

// Span returns the half-open minute range the booking holds.
func (b Booking) Span() Interval {
	return Interval{Start: b.Start, End: b.Start + b.Duration}
}

// Policy tunes how bookings interact with slots.
type Policy struct {
	// CancelledBlocksSlot keeps cancelled bookings holding their time.
	CancelledBlocksSlot bool
}

// Resolution is the outcome for a single slot. AppointmentID is set for appointment and occupied states.
type Resolution struct {
	State         SlotState `json:"state"`
	AppointmentID string    `json:"appointment_id,omitempty"`
}

// Resolver applies a Policy to schedules and bookings.
type Resolver struct {
	policy Policy
}

// NewResolver constructs a Resolver.
func NewResolver(policy Policy) *Resolver {
	return &Resolver{policy: policy}
}

// Policy returns the active policy.
func (r *Resolver) Policy() Policy {
	return r.policy
}

func (r *Resolver) blocks(b Booking) bool {
	return r.policy.CancelledBlocksSlot || b.Status != models.AppointmentCancelled
}

// Resolve classifies minute t on date. Bookings must belong to the same professional and date.
// Precedence: a booking starting at t, then a booking covering t, then the schedule.
func (r *Resolver) Resolve(schedule Schedule, date time.Time, t int, bookings []Booking) Resolution {
	var covering *Booking
	for i := range bookings {
		b := &bookings[i]
		if !r.blocks(*b) {
			continue
		}
		if b.Start == t {
			return Resolution{State: SlotAppointment, AppointmentID: b.AppointmentID}
		}
		if covering == nil && b.Span().Contains(t) {
			covering = b
		}
	}
	if covering != nil {
		return Resolution{State: SlotOccupied, AppointmentID: covering.AppointmentID}
	}
	if !schedule.Contains(WeekdayName(date), t) {
		return Resolution{State: SlotUnavailable}
	}
	return Resolution{State: SlotAvailable}
}

// Bookable reports whether a service of duration minutes can start at t: the whole span must lie
// inside the schedule and must not overlap a blocking booking.
func (r *Resolver) Bookable(schedule Schedule, date time.Time, t, duration int, bookings []Booking) bool {
	if duration <= 0 {
		return false
	}
	want := Interval{Start: t, End: t + duration}
	if want.End > MinutesPerDay || !schedule.Covers(WeekdayName(date), want) {
		return false
	}
	for _, b := range bookings {
		if r.blocks(b) && b.Span().Overlaps(want) {
			return false
		}
	}
	return true
}
