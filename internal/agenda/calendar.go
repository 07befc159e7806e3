package agenda

import (
	"strings"
	"time"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// Caps bound how much of a busy day is listed in compact views.
type Caps struct {
	Professionals int
	Markers       int
}

// DefaultCaps shows three professionals with two markers each.
var DefaultCaps = Caps{Professionals: 3, Markers: 2}

// ProfessionalCluster is the per-professional group of a month cell.
type ProfessionalCluster struct {
	ProfessionalID   string                          `json:"professional_id"`
	ProfessionalName string                          `json:"professional_name"`
	Appointments     []models.AppointmentWithDetails `json:"appointments"`
	Hidden           int                             `json:"hidden"`
}

// MonthCell is one calendar day of the month view.
type MonthCell struct {
	Date                string                `json:"date"`
	InMonth             bool                  `json:"in_month"`
	Total               int                   `json:"total"`
	Clusters            []ProfessionalCluster `json:"clusters"`
	HiddenProfessionals int                   `json:"hidden_professionals"`
}

// ClusterDay groups a day's appointments by professional in order of first appearance and applies caps.
// Appointments should already be sorted by time.
func ClusterDay(date string, appts []models.AppointmentWithDetails, caps Caps) MonthCell {
	order := []string{}
	groups := map[string]*ProfessionalCluster{}
	for _, a := range appts {
		g, ok := groups[a.ProfessionalID]
		if !ok {
			g = &ProfessionalCluster{ProfessionalID: a.ProfessionalID, ProfessionalName: a.Professional.Name}
			groups[a.ProfessionalID] = g
			order = append(order, a.ProfessionalID)
		}
		g.Appointments = append(g.Appointments, a)
	}

	cell := MonthCell{Date: date, Total: len(appts), Clusters: []ProfessionalCluster{}}
	for i, id := range order {
		if caps.Professionals > 0 && i >= caps.Professionals {
			cell.HiddenProfessionals = len(order) - caps.Professionals
			break
		}
		g := *groups[id]
		if caps.Markers > 0 && len(g.Appointments) > caps.Markers {
			g.Hidden = len(g.Appointments) - caps.Markers
			g.Appointments = g.Appointments[:caps.Markers]
		}
		cell.Clusters = append(cell.Clusters, g)
	}
	return cell
}

// MonthGrid builds six Sunday-first weeks covering the month of anchor.
func MonthGrid(appts []models.AppointmentWithDetails, anchor time.Time, caps Caps) []MonthCell {
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := start.AddDate(0, 0, 41)
	inRange := Between(appts, start.Format(models.DateLayout), end.Format(models.DateLayout))

	byDay := make(map[string][]models.AppointmentWithDetails)
	for _, a := range inRange {
		byDay[a.Date] = append(byDay[a.Date], a)
	}

	cells := make([]MonthCell, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(models.DateLayout)
		cell := ClusterDay(key, byDay[key], caps)
		cell.InMonth = d.Month() == first.Month()
		cells = append(cells, cell)
	}
	return cells
}

// WeekDay is one column of the week view.
type WeekDay struct {
	Date         string                          `json:"date"`
	Weekday      string                          `json:"weekday"`
	Appointments []models.AppointmentWithDetails `json:"appointments"`
	Hidden       int                             `json:"hidden"`
}

// Week returns the Sunday-first week containing anchor. A positive limit caps each day's list.
func Week(appts []models.AppointmentWithDetails, anchor time.Time, limit int) []WeekDay {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, -int(day.Weekday()))
	out := make([]WeekDay, 0, 7)
	for i := 0; i < 7; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(models.DateLayout)
		list := OnDate(appts, key)
		wd := WeekDay{Date: key, Weekday: strings.ToLower(d.Weekday().String()), Appointments: list}
		if limit > 0 && len(list) > limit {
			wd.Hidden = len(list) - limit
			wd.Appointments = list[:limit]
		}
		out = append(out, wd)
	}
	return out
}
