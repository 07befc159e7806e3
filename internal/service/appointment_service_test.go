package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

type fakeAppointmentRepo struct {
	items      map[string]*models.Appointment
	lastFilter models.AppointmentFilter
}

func (f *fakeAppointmentRepo) List(ctx context.Context, filter models.AppointmentFilter) ([]models.Appointment, int, error) {
	f.lastFilter = filter
	var out []models.Appointment
	for _, a := range f.items {
		if filter.ProfessionalID == "" || a.ProfessionalID == filter.ProfessionalID {
			out = append(out, *a)
		}
	}
	return out, len(out), nil
}

func (f *fakeAppointmentRepo) FindByID(ctx context.Context, id string) (*models.Appointment, error) {
	if a, ok := f.items[id]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, a *models.Appointment) error {
	if f.items == nil {
		f.items = map[string]*models.Appointment{}
	}
	a.ID = "new"
	copy := *a
	f.items[a.ID] = &copy
	return nil
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, a *models.Appointment) error {
	copy := *a
	f.items[a.ID] = &copy
	return nil
}

func (f *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	f.items[id].Status = status
	return nil
}

func (f *fakeAppointmentRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

type stubClients map[string]*models.Client

func (s stubClients) FindByID(ctx context.Context, id string) (*models.Client, error) {
	if c, ok := s[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type stubServices map[string]*models.Service

func (s stubServices) FindByID(ctx context.Context, id string) (*models.Service, error) {
	if svc, ok := s[id]; ok {
		return svc, nil
	}
	return nil, sql.ErrNoRows
}

type stubLocations map[string]bool

func (s stubLocations) FindActiveByName(ctx context.Context, name string) (*models.ServiceLocation, error) {
	if active, ok := s[name]; ok && active {
		return &models.ServiceLocation{Name: name, IsActive: true}, nil
	}
	return nil, sql.ErrNoRows
}

func newTestAppointmentService(repo *fakeAppointmentRepo, inv snapshotInvalidator) *AppointmentService {
	svc := NewAppointmentService(repo, AppointmentDeps{
		Clients:       stubClients{"maria": {ID: "maria"}},
		Professionals: stubProfessionalLookup{"ana": {ID: "ana"}, "bruno": {ID: "bruno"}},
		Services: stubServices{
			"massage": {ID: "massage", Duration: 60},
			"pilates": {ID: "pilates", Duration: 45, ProfessionalIDs: []string{"bruno"}},
		},
		Locations: stubLocations{"Downtown": true, "Old Wing": false},
	}, inv, 15, nil, nil)
	svc.now = func() time.Time { return time.Date(2030, 1, 6, 18, 0, 0, 0, time.Local) }
	return svc
}

func booking() AppointmentRequest {
	return AppointmentRequest{ClientID: "maria", ProfessionalID: "ana", ServiceID: "massage", Date: "2030-01-07", Time: "08:00", Location: "Downtown"}
}

func TestAppointmentServiceCreate(t *testing.T) {
	repo := &fakeAppointmentRepo{}
	inv := &countingInvalidator{}
	svc := newTestAppointmentService(repo, inv)

	req := booking()
	notes := "  Bring <b>exams</b> "
	req.Notes = &notes
	a, err := svc.Create(context.Background(), admin(), req)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentConfirmed, a.Status)
	require.NotNil(t, a.Notes)
	assert.Equal(t, "Bring exams", *a.Notes)
	assert.Equal(t, 1, inv.calls)

	stored, err := svc.Get(context.Background(), admin(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, "2030-01-07", stored.Date)
	assert.Equal(t, "08:00", stored.Time)
	assert.Equal(t, "Downtown", stored.Location)
}

func TestAppointmentServiceCreateValidation(t *testing.T) {
	svc := newTestAppointmentService(&fakeAppointmentRepo{}, nil)
	script := "<script>alert(1)</script>"

	cases := map[string]struct {
		mutate func(*AppointmentRequest)
		field  string
	}{
		"missing client":      {func(r *AppointmentRequest) { r.ClientID = "" }, "client_id"},
		"past date":           {func(r *AppointmentRequest) { r.Date = "2030-01-05" }, "date"},
		"malformed time":      {func(r *AppointmentRequest) { r.Time = "8:00" }, "time"},
		"off granularity":     {func(r *AppointmentRequest) { r.Time = "08:10" }, "time"},
		"unknown client":      {func(r *AppointmentRequest) { r.ClientID = "ghost" }, "client_id"},
		"unknown service":     {func(r *AppointmentRequest) { r.ServiceID = "ghost" }, "service_id"},
		"service not offered": {func(r *AppointmentRequest) { r.ServiceID = "pilates" }, "service_id"},
		"inactive location":   {func(r *AppointmentRequest) { r.Location = "Old Wing" }, "location"},
		"script in notes":     {func(r *AppointmentRequest) { r.Notes = &script }, "notes"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			req := booking()
			tc.mutate(&req)
			_, err := svc.Create(context.Background(), admin(), req)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Contains(t, appErr.Details, tc.field)
		})
	}
}

func TestAppointmentServiceTodayIsBookable(t *testing.T) {
	svc := newTestAppointmentService(&fakeAppointmentRepo{}, nil)
	req := booking()
	req.Date = "2030-01-06"
	_, err := svc.Create(context.Background(), admin(), req)
	require.NoError(t, err)
}

func TestAppointmentServiceProfessionalScope(t *testing.T) {
	repo := &fakeAppointmentRepo{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ClientID: "maria", ProfessionalID: "ana", ServiceID: "massage", Date: "2030-01-07", Time: "08:00", Location: "Downtown", Status: models.AppointmentConfirmed},
		"a2": {ID: "a2", ClientID: "maria", ProfessionalID: "bruno", ServiceID: "massage", Date: "2030-01-07", Time: "09:00", Location: "Downtown", Status: models.AppointmentConfirmed},
	}}
	svc := newTestAppointmentService(repo, nil)
	ana := professionalSession("ana")

	items, _, err := svc.List(context.Background(), ana, models.AppointmentFilter{ProfessionalID: "bruno"})
	require.NoError(t, err)
	assert.Equal(t, "ana", repo.lastFilter.ProfessionalID)
	require.Len(t, items, 1)

	_, err = svc.Get(context.Background(), ana, "a2")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), ana, "a2", StatusRequest{Status: models.AppointmentCancelled})
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	req := booking()
	req.ProfessionalID = "bruno"
	_, err = svc.Create(context.Background(), ana, req)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), ana, "a1")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	require.NoError(t, svc.Delete(context.Background(), admin(), "a1"))
}

func TestAppointmentServiceStatusAndReschedule(t *testing.T) {
	repo := &fakeAppointmentRepo{items: map[string]*models.Appointment{
		"a1": {ID: "a1", ClientID: "maria", ProfessionalID: "ana", ServiceID: "massage", Date: "2030-01-07", Time: "08:00", Location: "Old Wing", Status: models.AppointmentConfirmed},
	}}
	inv := &countingInvalidator{}
	svc := newTestAppointmentService(repo, inv)
	ana := professionalSession("ana")

	moved, err := svc.Reschedule(context.Background(), ana, "a1", RescheduleRequest{Date: "2030-01-08", Time: "09:30"})
	require.NoError(t, err)
	assert.Equal(t, "2030-01-08", moved.Date)
	assert.Equal(t, "09:30", moved.Time)
	assert.Equal(t, "Old Wing", moved.Location)

	_, err = svc.Reschedule(context.Background(), admin(), "a1", RescheduleRequest{Date: "2030-01-01", Time: "09:30"})
	assert.Contains(t, appErrors.FromError(err).Details, "date")

	done, err := svc.UpdateStatus(context.Background(), ana, "a1", StatusRequest{Status: models.AppointmentCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, done.Status)

	_, err = svc.Reschedule(context.Background(), admin(), "a1", RescheduleRequest{Date: "2030-01-09", Time: "10:00"})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.UpdateStatus(context.Background(), ana, "a1", StatusRequest{Status: "lost"})
	assert.Contains(t, appErrors.FromError(err).Details, "status")
	assert.Equal(t, 2, inv.calls)
}
