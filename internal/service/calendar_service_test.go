package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/availability"
	"github.com/noah-isme/clinic-agenda-api/internal/dto"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

func newTestCalendar(fx *fixture, policy availability.Policy) *CalendarService {
	agendaSvc := NewAgendaService(fx.sources(), nil, nil, nil, AgendaConfig{})
	svc := NewCalendarService(agendaSvc, NewMetricsService(), nil, CalendarConfig{Policy: policy})
	svc.now = func() time.Time { return time.Date(2030, 1, 6, 9, 0, 0, 0, time.UTC) }
	return svc
}

func cellAt(t *testing.T, column dto.DayColumn, clock string) dto.DayCell {
	t.Helper()
	for _, c := range column.Cells {
		if c.Time == clock {
			return c
		}
	}
	t.Fatalf("no cell at %s", clock)
	return dto.DayCell{}
}

func TestCalendarDayResolvesAnaScenario(t *testing.T) {
	svc := newTestCalendar(newClinicFixture(), availability.Policy{CancelledBlocksSlot: true})

	view, err := svc.Day(context.Background(), admin(), "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, "monday", view.Weekday)
	require.Len(t, view.Slots, 33)
	assert.Equal(t, "06:00", view.Slots[0])
	assert.Equal(t, "22:00", view.Slots[32])
	require.Len(t, view.Columns, 2)

	ana := view.Columns[0]
	assert.Equal(t, "ana", ana.ProfessionalID)
	assert.Equal(t, availability.SlotUnavailable, cellAt(t, ana, "07:30").State)
	first := cellAt(t, ana, "08:00")
	assert.Equal(t, availability.SlotAppointment, first.State)
	require.NotNil(t, first.Appointment)
	assert.Equal(t, "Maria", first.Appointment.Client.Name)
	assert.Equal(t, availability.SlotAvailable, cellAt(t, ana, "08:30").State)
	assert.Equal(t, availability.SlotUnavailable, cellAt(t, ana, "13:00").State)
	assert.Equal(t, availability.SlotAppointment, cellAt(t, ana, "14:00").State)
	occupied := cellAt(t, ana, "14:30")
	assert.Equal(t, availability.SlotOccupied, occupied.State)
	assert.Equal(t, "a3", occupied.AppointmentID)
	assert.Equal(t, availability.SlotAvailable, cellAt(t, ana, "15:00").State)
	assert.Equal(t, availability.SlotUnavailable, cellAt(t, ana, "18:00").State)

	assert.Equal(t, []string{"08:00", "10:00", "14:00"}, []string{view.Appointments[0].Time, view.Appointments[1].Time, view.Appointments[2].Time})
}

func TestCalendarDayEmptyWeekdayIsUnavailable(t *testing.T) {
	svc := newTestCalendar(newClinicFixture(), availability.Policy{})

	view, err := svc.Day(context.Background(), admin(), "2030-01-08")
	require.NoError(t, err)
	for _, column := range view.Columns {
		for _, cell := range column.Cells {
			assert.Equal(t, availability.SlotUnavailable, cell.State, column.Name+" "+cell.Time)
		}
	}
}

func TestCalendarDayRoleAndPolicy(t *testing.T) {
	fx := newClinicFixture()
	fx.appointments[2].Status = models.AppointmentCancelled

	view, err := newTestCalendar(fx, availability.Policy{CancelledBlocksSlot: false}).Day(context.Background(), professionalSession("ana"), "2030-01-07")
	require.NoError(t, err)
	require.Len(t, view.Columns, 1)
	assert.Equal(t, availability.SlotAvailable, cellAt(t, view.Columns[0], "08:00").State)

	view, err = newTestCalendar(fx, availability.Policy{CancelledBlocksSlot: true}).Day(context.Background(), professionalSession("ana"), "2030-01-07")
	require.NoError(t, err)
	assert.Equal(t, availability.SlotAppointment, cellAt(t, view.Columns[0], "08:00").State)
}

func TestCalendarDayRejectsBadDate(t *testing.T) {
	svc := newTestCalendar(newClinicFixture(), availability.Policy{})
	_, err := svc.Day(context.Background(), admin(), "07/01/2030")
	assert.Contains(t, appErrors.FromError(err).Details, "date")
}

func TestCalendarWeekAndMonth(t *testing.T) {
	svc := newTestCalendar(newClinicFixture(), availability.Policy{})

	week, err := svc.Week(context.Background(), admin(), "2030-01-09")
	require.NoError(t, err)
	assert.Equal(t, "2030-01-06", week.From)
	assert.Equal(t, "2030-01-12", week.To)
	require.Len(t, week.Days, 7)
	assert.Len(t, week.Days[1].Appointments, 3)
	assert.Equal(t, "monday", week.Days[1].Weekday)

	month, err := svc.Month(context.Background(), admin(), "2030-01")
	require.NoError(t, err)
	require.Len(t, month.Cells, 42)
	for _, cell := range month.Cells {
		if cell.Date == "2030-01-07" {
			assert.Equal(t, 3, cell.Total)
			assert.Len(t, cell.Clusters, 2)
		}
	}

	_, err = svc.Month(context.Background(), admin(), "January")
	assert.Contains(t, appErrors.FromError(err).Details, "month")
}

func TestCalendarSlots(t *testing.T) {
	svc := newTestCalendar(newClinicFixture(), availability.Policy{CancelledBlocksSlot: true})

	view, err := svc.Slots(context.Background(), admin(), "ana", "2030-01-07", "massage")
	require.NoError(t, err)
	assert.Equal(t, 60, view.Duration)
	for _, want := range []string{"08:30", "11:00", "15:00", "17:00"} {
		assert.Contains(t, view.Starts, want)
	}
	for _, blocked := range []string{"08:00", "08:15", "11:15", "14:30", "17:15"} {
		assert.NotContains(t, view.Starts, blocked)
	}

	past, err := svc.Slots(context.Background(), admin(), "ana", "2030-01-05", "")
	require.NoError(t, err)
	assert.Empty(t, past.Starts)

	_, err = svc.Slots(context.Background(), professionalSession("bruno"), "ana", "2030-01-07", "")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Slots(context.Background(), admin(), "ghost", "2030-01-07", "")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
