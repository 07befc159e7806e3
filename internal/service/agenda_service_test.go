package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/agenda"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

// fixture is an in-memory copy of the five collections shared by the agenda level tests.
type fixture struct {
	professionals []models.Professional
	clients       []models.Client
	services      []models.Service
	locations     []models.ServiceLocation
	appointments  []models.Appointment

	failOn string
	delay  time.Duration
	loads  int32

	// hold parks the appointments query after it has read its rows until the channel is closed.
	hold    chan struct{}
	holding chan struct{}
}

func (f *fixture) wait(ctx context.Context, name string) error {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failOn == name {
		return errors.New("connection reset")
	}
	return nil
}

type fixtureProfessionals struct{ *fixture }

func (f fixtureProfessionals) All(ctx context.Context) ([]models.Professional, error) {
	atomic.AddInt32(&f.loads, 1)
	return f.professionals, f.wait(ctx, "professionals")
}

type fixtureClients struct{ *fixture }

func (f fixtureClients) All(ctx context.Context) ([]models.Client, error) {
	return f.clients, f.wait(ctx, "clients")
}

type fixtureServices struct{ *fixture }

func (f fixtureServices) All(ctx context.Context) ([]models.Service, error) {
	return f.services, f.wait(ctx, "services")
}

type fixtureLocations struct{ *fixture }

func (f fixtureLocations) All(ctx context.Context) ([]models.ServiceLocation, error) {
	return f.locations, f.wait(ctx, "locations")
}

type fixtureAppointments struct{ *fixture }

func (f fixtureAppointments) All(ctx context.Context) ([]models.Appointment, error) {
	rows := f.appointments
	if f.hold != nil {
		f.holding <- struct{}{}
		<-f.hold
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return rows, f.wait(ctx, "appointments")
}

func (f *fixture) holdAppointments() {
	f.hold = make(chan struct{})
	f.holding = make(chan struct{}, 4)
}

func (f *fixture) sources() AgendaSources {
	return AgendaSources{
		Professionals: fixtureProfessionals{f},
		Clients:       fixtureClients{f},
		Services:      fixtureServices{f},
		Locations:     fixtureLocations{f},
		Appointments:  fixtureAppointments{f},
	}
}

// newClinicFixture seeds Ana (Monday 08:00-12:00 and 14:00-18:00) with a 30 minute evaluation
// at 08:00 and a 60 minute massage at 14:00 on Monday 2030-01-07, plus Bruno with one booking.
func newClinicFixture() *fixture {
	return &fixture{
		professionals: []models.Professional{
			{ID: "ana", Name: "Ana", Specialty: "Physio", Locations: []string{"Downtown"}, Availability: models.WeeklyAvailability{
				"monday": {{Start: "08:00", End: "12:00"}, {Start: "14:00", End: "18:00"}},
			}},
			{ID: "bruno", Name: "Bruno", Specialty: "Massage", Availability: models.WeeklyAvailability{
				"monday": {{Start: "09:00", End: "17:00"}},
			}},
		},
		clients: []models.Client{{ID: "maria", Name: "Maria"}, {ID: "joao", Name: "Joao"}},
		services: []models.Service{
			{ID: "massage", Name: "Massage", Duration: 60, Color: "#ff0000"},
			{ID: "eval", Name: "Evaluation", Duration: 30, Color: "#00ff00"},
		},
		locations: []models.ServiceLocation{{ID: "l1", Name: "Downtown", IsActive: true}, {ID: "l2", Name: "Old Wing", IsActive: false}},
		appointments: []models.Appointment{
			{ID: "a2", ClientID: "joao", ProfessionalID: "bruno", ServiceID: "eval", Date: "2030-01-07", Time: "10:00", Location: "Downtown", Status: models.AppointmentConfirmed},
			{ID: "a3", ClientID: "maria", ProfessionalID: "ana", ServiceID: "massage", Date: "2030-01-07", Time: "14:00", Location: "Downtown", Status: models.AppointmentConfirmed},
			{ID: "a1", ClientID: "maria", ProfessionalID: "ana", ServiceID: "eval", Date: "2030-01-07", Time: "08:00", Location: "Downtown", Status: models.AppointmentConfirmed},
		},
	}
}

type memoryCache struct {
	mu          sync.Mutex
	data        map[string]interface{}
	invalidated []string
	beforeSet   func()
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return false, nil
	}
	if snap, ok := dest.(*agenda.Snapshot); ok {
		*snap = *(v.(*agenda.Snapshot))
	}
	return true, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	hook := m.beforeSet
	m.beforeSet = nil
	m.mu.Unlock()
	if hook != nil {
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]interface{}{}
	}
	m.data[key] = value
	return nil
}

func (m *memoryCache) Invalidate(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invalidated = append(m.invalidated, pattern)
	m.data = nil
	return nil
}

func (m *memoryCache) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok
}

func admin() models.SessionUser {
	return models.SessionUser{ID: "u-admin", Role: models.RoleAdmin}
}

func professionalSession(id string) models.SessionUser {
	return models.SessionUser{ID: "u-" + id, Role: models.RoleProfessional, ProfessionalID: &id}
}

func TestAgendaServiceAppointmentsJoinsAndFilters(t *testing.T) {
	fx := newClinicFixture()
	svc := NewAgendaService(fx.sources(), nil, nil, nil, AgendaConfig{})

	all, _, err := svc.Appointments(context.Background(), admin())
	require.NoError(t, err)
	assert.Len(t, all, 3)

	own, _, err := svc.Appointments(context.Background(), professionalSession("ana"))
	require.NoError(t, err)
	require.Len(t, own, 2)
	for _, a := range own {
		assert.Equal(t, "ana", a.ProfessionalID)
		assert.Equal(t, "Maria", a.Client.Name)
	}

	none, _, err := svc.Appointments(context.Background(), models.SessionUser{ID: "u", Role: models.RoleProfessional})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAgendaServiceDeletedClientDropsAppointments(t *testing.T) {
	fx := newClinicFixture()
	svc := NewAgendaService(fx.sources(), nil, nil, nil, AgendaConfig{})

	fx.clients = fx.clients[1:]
	svc.Invalidate(context.Background())

	all, _, err := svc.Appointments(context.Background(), admin())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a2", all[0].ID)
}

func TestAgendaServiceLoadFailure(t *testing.T) {
	fx := newClinicFixture()
	fx.failOn = "services"
	svc := NewAgendaService(fx.sources(), nil, NewMetricsService(), nil, AgendaConfig{})

	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrLoadFailed.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "services")
}

func TestAgendaServiceLoadTimeout(t *testing.T) {
	fx := newClinicFixture()
	fx.delay = time.Second
	svc := NewAgendaService(fx.sources(), nil, nil, nil, AgendaConfig{LoadTimeout: 20 * time.Millisecond})

	start := time.Now()
	_, err := svc.Snapshot(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTimeout.Code, appErrors.FromError(err).Code)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAgendaServiceUsesCacheUntilInvalidated(t *testing.T) {
	fx := newClinicFixture()
	cache := &memoryCache{}
	svc := NewAgendaService(fx.sources(), cache, nil, nil, AgendaConfig{})

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fx.loads))

	svc.Invalidate(context.Background())
	assert.Equal(t, []string{"agenda:*"}, cache.invalidated)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fx.loads))
}

func TestAgendaServiceReadAfterInvalidateSeesWrite(t *testing.T) {
	fx := newClinicFixture()
	cache := &memoryCache{}
	svc := NewAgendaService(fx.sources(), cache, nil, nil, AgendaConfig{})

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Appointments, 3)
	require.True(t, cache.has(snapshotCacheKey))

	fx.appointments = append(fx.appointments, models.Appointment{ID: "a4", ClientID: "joao", ProfessionalID: "ana", ServiceID: "eval", Date: "2030-01-07", Time: "09:00", Location: "Downtown", Status: models.AppointmentConfirmed})
	svc.Invalidate(context.Background())
	assert.False(t, cache.has(snapshotCacheKey))

	snap, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Appointments, 4)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fx.loads))
}

func TestAgendaServiceInvalidateDuringLoadKeepsStaleSnapshotOutOfCache(t *testing.T) {
	fx := newClinicFixture()
	fx.holdAppointments()
	cache := &memoryCache{}
	svc := NewAgendaService(fx.sources(), cache, nil, nil, AgendaConfig{})

	type outcome struct {
		snap *agenda.Snapshot
		err  error
	}
	inFlight := make(chan outcome, 1)
	go func() {
		snap, err := svc.Snapshot(context.Background())
		inFlight <- outcome{snap, err}
	}()
	<-fx.holding

	fx.appointments = append(fx.appointments, models.Appointment{ID: "a4", ClientID: "joao", ProfessionalID: "ana", ServiceID: "eval", Date: "2030-01-07", Time: "09:00", Location: "Downtown", Status: models.AppointmentConfirmed})
	svc.Invalidate(context.Background())
	close(fx.hold)

	first := <-inFlight
	require.NoError(t, first.err)
	assert.Len(t, first.snap.Appointments, 3)
	assert.False(t, cache.has(snapshotCacheKey))

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Appointments, 4)
	assert.True(t, cache.has(snapshotCacheKey))
}

func TestAgendaServiceInvalidateDuringCacheWriteDropsEntry(t *testing.T) {
	fx := newClinicFixture()
	cache := &memoryCache{}
	svc := NewAgendaService(fx.sources(), cache, nil, nil, AgendaConfig{})
	cache.beforeSet = func() { svc.Invalidate(context.Background()) }

	_, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.False(t, cache.has(snapshotCacheKey))
	assert.Equal(t, []string{"agenda:*", snapshotCacheKey}, cache.invalidated)

	_, err = svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fx.loads))
}

func TestAgendaServiceLoadSurvivesCallerCancellation(t *testing.T) {
	fx := newClinicFixture()
	fx.holdAppointments()
	cache := &memoryCache{}
	svc := NewAgendaService(fx.sources(), cache, nil, nil, AgendaConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	callerErr := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(ctx)
		callerErr <- err
	}()
	<-fx.holding

	cancel()
	err := <-callerErr
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, appErrors.ErrLoadFailed.Code, appErrors.FromError(err).Code)

	close(fx.hold)
	require.Eventually(t, func() bool { return cache.has(snapshotCacheKey) }, time.Second, 5*time.Millisecond)

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Appointments, 3)
	assert.Equal(t, int32(1), atomic.LoadInt32(&fx.loads))
}
