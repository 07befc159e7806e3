// Package agenda derives display-ready appointment views from a snapshot of the five collections.
// Everything here is pure; callers load the snapshot and decide what to cache.
package agenda

import (
	"sort"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// Snapshot is one consistent read of every collection the agenda depends on.
type Snapshot struct {
	Professionals []models.Professional    `json:"professionals"`
	Clients       []models.Client          `json:"clients"`
	Services      []models.Service         `json:"services"`
	Locations     []models.ServiceLocation `json:"locations"`
	Appointments  []models.Appointment     `json:"appointments"`
}

// Join resolves each appointment's client, professional and service. Appointments whose
// references no longer resolve are dropped without error. Input order is preserved.
func Join(s Snapshot) []models.AppointmentWithDetails {
	clients := make(map[string]models.Client, len(s.Clients))
	for _, c := range s.Clients {
		clients[c.ID] = c
	}
	professionals := make(map[string]models.Professional, len(s.Professionals))
	for _, p := range s.Professionals {
		professionals[p.ID] = p
	}
	services := make(map[string]models.Service, len(s.Services))
	for _, svc := range s.Services {
		services[svc.ID] = svc
	}

	out := make([]models.AppointmentWithDetails, 0, len(s.Appointments))
	for _, a := range s.Appointments {
		client, ok := clients[a.ClientID]
		if !ok {
			continue
		}
		professional, ok := professionals[a.ProfessionalID]
		if !ok {
			continue
		}
		service, ok := services[a.ServiceID]
		if !ok {
			continue
		}
		out = append(out, models.AppointmentWithDetails{
			Appointment:  a,
			Client:       client,
			Professional: professional,
			Service:      service,
		})
	}
	return out
}

// ForUser restricts appointments to what the session may see. Professionals see only their own;
// a professional session without a bound identity sees nothing.
func ForUser(appts []models.AppointmentWithDetails, user models.SessionUser) []models.AppointmentWithDetails {
	if user.IsAdmin() {
		return appts
	}
	if user.Role != models.RoleProfessional || user.ProfessionalID == nil {
		return []models.AppointmentWithDetails{}
	}
	return filter(appts, func(a models.AppointmentWithDetails) bool {
		return a.ProfessionalID == *user.ProfessionalID
	})
}

// VisibleProfessionals applies the same role rule to the professional columns of the day view.
func VisibleProfessionals(professionals []models.Professional, user models.SessionUser) []models.Professional {
	if user.IsAdmin() {
		return professionals
	}
	out := []models.Professional{}
	if user.ProfessionalID == nil {
		return out
	}
	for _, p := range professionals {
		if p.ID == *user.ProfessionalID {
			out = append(out, p)
		}
	}
	return out
}

// OnDate keeps appointments on exactly date (YYYY-MM-DD) sorted by time.
func OnDate(appts []models.AppointmentWithDetails, date string) []models.AppointmentWithDetails {
	out := filter(appts, func(a models.AppointmentWithDetails) bool { return a.Date == date })
	SortByTime(out)
	return out
}

// Between keeps appointments with from <= date <= to sorted by date then time.
func Between(appts []models.AppointmentWithDetails, from, to string) []models.AppointmentWithDetails {
	out := filter(appts, func(a models.AppointmentWithDetails) bool { return a.Date >= from && a.Date <= to })
	SortByTime(out)
	return out
}

// SortByTime orders by date then HH:MM. Zero padded layouts make string order chronological.
// The sort is stable so equal times keep their load order.
func SortByTime(appts []models.AppointmentWithDetails) {
	sort.SliceStable(appts, func(i, j int) bool {
		if appts[i].Date != appts[j].Date {
			return appts[i].Date < appts[j].Date
		}
		return appts[i].Time < appts[j].Time
	})
}

// CountByService returns how many appointments reference each service id.
func CountByService(appts []models.AppointmentWithDetails) map[string]int {
	out := make(map[string]int)
	for _, a := range appts {
		out[a.ServiceID]++
	}
	return out
}

// CountByStatus returns how many appointments are in each status.
func CountByStatus(appts []models.AppointmentWithDetails) map[models.AppointmentStatus]int {
	out := make(map[models.AppointmentStatus]int)
	for _, a := range appts {
		out[a.Status]++
	}
	return out
}

// DistinctClients counts unique client ids.
func DistinctClients(appts []models.AppointmentWithDetails) int {
	seen := make(map[string]struct{})
	for _, a := range appts {
		seen[a.ClientID] = struct{}{}
	}
	return len(seen)
}

func filter(appts []models.AppointmentWithDetails, keep func(models.AppointmentWithDetails) bool) []models.AppointmentWithDetails {
	out := make([]models.AppointmentWithDetails, 0, len(appts))
	for _, a := range appts {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}
