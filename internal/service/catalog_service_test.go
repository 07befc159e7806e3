package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

type fakeServiceRepo struct {
	items map[string]*models.Service
}

func (f *fakeServiceRepo) List(ctx context.Context, filter models.ServiceFilter) ([]models.Service, int, error) {
	return nil, len(f.items), nil
}

func (f *fakeServiceRepo) FindByID(ctx context.Context, id string) (*models.Service, error) {
	if s, ok := f.items[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeServiceRepo) Create(ctx context.Context, s *models.Service) error {
	if f.items == nil {
		f.items = map[string]*models.Service{}
	}
	s.ID = "s-new"
	f.items[s.ID] = s
	return nil
}

func (f *fakeServiceRepo) Update(ctx context.Context, s *models.Service) error {
	f.items[s.ID] = s
	return nil
}

func (f *fakeServiceRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.items, id)
	return nil
}

func newTestCatalog(repo *fakeServiceRepo, inv snapshotInvalidator) *CatalogService {
	professionals := stubProfessionalLookup{knownProfessionalID: {ID: knownProfessionalID}}
	return NewCatalogService(repo, professionals, inv, 15, nil, nil)
}

func TestCatalogServiceCreate(t *testing.T) {
	inv := &countingInvalidator{}
	svc := newTestCatalog(&fakeServiceRepo{}, inv)

	created, err := svc.Create(context.Background(), ServiceRequest{
		Name: "Massage", Duration: 45, Price: 120.456, Color: "#A1B2C3",
		ProfessionalIDs: []string{knownProfessionalID, knownProfessionalID},
	})
	require.NoError(t, err)
	assert.Equal(t, 120.46, created.Price)
	assert.Equal(t, "#a1b2c3", created.Color)
	assert.Equal(t, []string{knownProfessionalID}, []string(created.ProfessionalIDs))
	assert.Equal(t, 1, inv.calls)
}

func TestCatalogServiceValidation(t *testing.T) {
	svc := newTestCatalog(&fakeServiceRepo{}, nil)

	cases := map[string]struct {
		req   ServiceRequest
		field string
	}{
		"duration not on granularity": {ServiceRequest{Name: "A", Duration: 40, Color: "#ffffff"}, "duration"},
		"zero duration":               {ServiceRequest{Name: "A", Duration: 0, Color: "#ffffff"}, "duration"},
		"negative price":              {ServiceRequest{Name: "A", Duration: 30, Price: -1, Color: "#ffffff"}, "price"},
		"short color":                 {ServiceRequest{Name: "A", Duration: 30, Color: "#fff"}, "color"},
		"bad color":                   {ServiceRequest{Name: "A", Duration: 30, Color: "blue"}, "color"},
		"unknown professional": {ServiceRequest{Name: "A", Duration: 30, Color: "#ffffff",
			ProfessionalIDs: []string{"6f1e3c1a-0000-4000-8000-000000000000"}}, "professional_ids[0]"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			appErr := appErrors.FromError(err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
			assert.Contains(t, appErr.Details, tc.field)
		})
	}
}

func TestCatalogServiceUpdateAndDelete(t *testing.T) {
	repo := &fakeServiceRepo{items: map[string]*models.Service{"s1": {ID: "s1", Name: "Old", Duration: 30}}}
	svc := newTestCatalog(repo, nil)

	updated, err := svc.Update(context.Background(), "s1", ServiceRequest{Name: "New", Duration: 60, Color: "#000000"})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.Duration)
	assert.Empty(t, updated.ProfessionalIDs)

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	_, err = svc.Get(context.Background(), "s1")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
