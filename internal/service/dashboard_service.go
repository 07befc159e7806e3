package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/dto"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	TodayLimit int
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Agenda agendaReader
	Logger *zap.Logger
	Config DashboardServiceConfig
}

// DashboardService composes the landing page summary from the agenda snapshot.
type DashboardService struct {
	agenda agendaReader
	logger *zap.Logger
	now    func() time.Time
	cfg    DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := params.Config
	if cfg.TodayLimit <= 0 {
		cfg.TodayLimit = 5
	}
	return &DashboardService{agenda: params.Agenda, logger: logger, now: time.Now, cfg: cfg}
}

// Summary returns today's and tomorrow's appointments plus counters for the caller's scope.
func (s *DashboardService) Summary(ctx context.Context, user models.SessionUser) (*dto.DashboardResponse, error) {
	appts, snap, err := s.agenda.Appointments(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.now()
	today := now.Format(models.DateLayout)
	tomorrow := now.AddDate(0, 0, 1).Format(models.DateLayout)

	todayList := agenda.OnDate(appts, today)
	resp := &dto.DashboardResponse{
		Date:          today,
		Today:         todayList,
		TodayTotal:    len(todayList),
		Tomorrow:      agenda.OnDate(appts, tomorrow),
		ServiceUsage:  serviceUsage(appts, snap.Services),
		Professionals: len(agenda.VisibleProfessionals(snap.Professionals, user)),
	}
	if len(todayList) > s.cfg.TodayLimit {
		resp.Today = todayList[:s.cfg.TodayLimit]
	}

	statuses := agenda.CountByStatus(appts)
	resp.Confirmed = statuses[models.AppointmentConfirmed]
	resp.Completed = statuses[models.AppointmentCompleted]
	resp.Cancelled = statuses[models.AppointmentCancelled]

	if user.IsAdmin() {
		resp.Clients = len(snap.Clients)
	} else {
		resp.Clients = agenda.DistinctClients(appts)
	}
	return resp, nil
}

// serviceUsage lists services with at least one appointment, busiest first.
func serviceUsage(appts []models.AppointmentWithDetails, services []models.Service) []dto.ServiceUsage {
	counts := agenda.CountByService(appts)
	out := make([]dto.ServiceUsage, 0, len(counts))
	for _, svc := range services {
		if n := counts[svc.ID]; n > 0 {
			out = append(out, dto.ServiceUsage{ServiceID: svc.ID, Name: svc.Name, Color: svc.Color, Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
