package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/dto"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

const monthLayout = "2006-01"

type agendaReader interface {
	Appointments(ctx context.Context, user models.SessionUser) ([]models.AppointmentWithDetails, *agenda.Snapshot, error)
}

// CalendarConfig shapes the calendar views.
type CalendarConfig struct {
	Grid        availability.Grid
	Policy      availability.Policy
	Caps        agenda.Caps
	WeekLimit   int
	Granularity int
}

// CalendarService builds the day, week and month views and bookable start times.
type CalendarService struct {
	agenda   agendaReader
	resolver *availability.Resolver
	metrics  *MetricsService
	config   CalendarConfig
	logger   *zap.Logger
	now      func() time.Time
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(reader agendaReader, metrics *MetricsService, logger *zap.Logger, cfg CalendarConfig) *CalendarService {
	if cfg.Grid.Step <= 0 {
		cfg.Grid = availability.DefaultGrid()
	}
	if cfg.Caps.Professionals <= 0 || cfg.Caps.Markers <= 0 {
		cfg.Caps = agenda.DefaultCaps
	}
	if cfg.WeekLimit <= 0 {
		cfg.WeekLimit = 3
	}
	if cfg.Granularity <= 0 {
		cfg.Granularity = 15
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		agenda:   reader,
		resolver: availability.NewResolver(cfg.Policy),
		metrics:  metrics,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

// Day resolves every grid slot of every visible professional on date.
func (s *CalendarService) Day(ctx context.Context, user models.SessionUser, date string) (*dto.DayView, error) {
	day, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}
	appts, snap, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}
	key := day.Format(models.DateLayout)
	onDay := agenda.OnDate(appts, key)
	byID := make(map[string]*models.AppointmentWithDetails, len(onDay))
	for i := range onDay {
		byID[onDay[i].ID] = &onDay[i]
	}

	slots := s.config.Grid.Slots()
	view := &dto.DayView{
		Date:         key,
		Weekday:      availability.WeekdayName(day),
		Slots:        s.config.Grid.Labels(),
		Columns:      []dto.DayColumn{},
		Appointments: onDay,
	}
	for _, p := range agenda.VisibleProfessionals(snap.Professionals, user) {
		schedule := availability.Compile(p.Availability)
		bookings := availability.BookingsFor(onDay, p.ID, key)
		column := dto.DayColumn{ProfessionalID: p.ID, Name: p.Name, Specialty: p.Specialty, Cells: make([]dto.DayCell, 0, len(slots))}
		for _, t := range slots {
			res := s.resolver.Resolve(schedule, day, t, bookings)
			s.metrics.RecordSlotState(res.State)
			cell := dto.DayCell{Time: availability.FormatClock(t), State: res.State, AppointmentID: res.AppointmentID}
			if res.State == availability.SlotAppointment {
				cell.Appointment = byID[res.AppointmentID]
			}
			column.Cells = append(column.Cells, cell)
		}
		view.Columns = append(view.Columns, column)
	}
	return view, nil
}

// Week lists the Sunday-first week containing date, capped per day.
func (s *CalendarService) Week(ctx context.Context, user models.SessionUser, date string) (*dto.WeekView, error) {
	day, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}
	appts, _, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}
	days := agenda.Week(appts, day, s.config.WeekLimit)
	return &dto.WeekView{From: days[0].Date, To: days[len(days)-1].Date, Days: days}, nil
}

// Month returns the six week grid of month (YYYY-MM) with per-day professional clusters.
func (s *CalendarService) Month(ctx context.Context, user models.SessionUser, month string) (*dto.MonthView, error) {
	anchor, err := time.Parse(monthLayout, strings.TrimSpace(month))
	if err != nil {
		return nil, fieldDetailError("month", "must be a month in YYYY-MM format", "invalid month")
	}
	appts, _, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.MonthView{Month: anchor.Format(monthLayout), Cells: agenda.MonthGrid(appts, anchor, s.config.Caps)}, nil
}

// Slots lists the start times on date at which the professional can take the service. Without a
// service the booking granularity is used as duration. Past dates and times yield no slots.
func (s *CalendarService) Slots(ctx context.Context, user models.SessionUser, professionalID, date, serviceID string) (*dto.SlotsView, error) {
	if strings.TrimSpace(professionalID) == "" {
		return nil, fieldDetailError("professional_id", "is required", "professional is required")
	}
	day, err := parseDateParam(date)
	if err != nil {
		return nil, err
	}
	if err := authorizeAppointment(user, professionalID); err != nil {
		return nil, err
	}
	appts, snap, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}

	var professional *models.Professional
	for i := range snap.Professionals {
		if snap.Professionals[i].ID == professionalID {
			professional = &snap.Professionals[i]
			break
		}
	}
	if professional == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "professional not found")
	}

	duration := s.config.Granularity
	if serviceID != "" {
		var service *models.Service
		for i := range snap.Services {
			if snap.Services[i].ID == serviceID {
				service = &snap.Services[i]
				break
			}
		}
		if service == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "service not found")
		}
		if !service.OfferedBy(professionalID) {
			return nil, fieldDetailError("service_id", "not offered by this professional", "service is not offered by the professional")
		}
		duration = service.Duration
	}

	key := day.Format(models.DateLayout)
	view := &dto.SlotsView{ProfessionalID: professionalID, Date: key, ServiceID: serviceID, Duration: duration, Starts: []string{}}

	now := s.now()
	today := now.Format(models.DateLayout)
	if key < today {
		return view, nil
	}
	earliest := -1
	if key == today {
		earliest = now.Hour()*60 + now.Minute()
	}

	schedule := availability.Compile(professional.Availability)
	bookings := availability.BookingsFor(appts, professionalID, key)
	for t := s.config.Grid.Start; t+duration <= availability.MinutesPerDay && t <= s.config.Grid.End; t += s.config.Granularity {
		if t <= earliest {
			continue
		}
		if s.resolver.Bookable(schedule, day, t, duration, bookings) {
			view.Starts = append(view.Starts, availability.FormatClock(t))
		}
	}
	return view, nil
}

func parseDateParam(value string) (time.Time, error) {
	day, err := availability.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fieldDetailError("date", "must be a date in YYYY-MM-DD format", "invalid date")
	}
	return day, nil
}
