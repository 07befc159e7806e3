package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

type fakeUserService struct {
	filter    models.UserFilter
	created   models.CreateUserRequest
	deletedBy string
	err       error
}

func (f *fakeUserService) List(_ context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	f.filter = filter
	return []models.User{}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize}, f.err
}

func (f *fakeUserService) Get(_ context.Context, id string) (*models.User, error) {
	return &models.User{ID: id}, f.err
}

func (f *fakeUserService) Create(_ context.Context, req models.CreateUserRequest) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = req
	return &models.User{ID: "u-new", Email: req.Email, Role: &req.Role}, nil
}

func (f *fakeUserService) Delete(_ context.Context, _ string, actorID string) error {
	f.deletedBy = actorID
	return f.err
}

func TestUserHandlerListFilters(t *testing.T) {
	svc := &fakeUserService{}
	handler := NewUserHandler(svc)
	user := adminSession()

	c, rec := newTestContext(http.MethodGet, "/users?role=professional&active=true&page_size=5", nil, &user)
	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.filter.Role)
	assert.Equal(t, models.RoleProfessional, *svc.filter.Role)
	require.NotNil(t, svc.filter.Active)
	assert.True(t, *svc.filter.Active)
	assert.Equal(t, 5, svc.filter.PageSize)
}

func TestUserHandlerCreateProfessionalWithoutBinding(t *testing.T) {
	svc := &fakeUserService{err: appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, "professional_id is required"), map[string]string{"professional_id": "required"})}
	handler := NewUserHandler(svc)
	user := adminSession()

	c, rec := newTestContext(http.MethodPost, "/users", map[string]string{"email": "new@clinic.test", "password": "secret1", "name": "New", "role": "professional"}, &user)
	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "required", decodeEnvelope(t, rec).Error.Details["professional_id"])
}

func TestUserHandlerDeletePassesActor(t *testing.T) {
	svc := &fakeUserService{}
	handler := NewUserHandler(svc)
	user := adminSession()

	c, _ := newTestContext(http.MethodDelete, "/users/u2", nil, &user)
	c.Params = append(c.Params, ginParam("id", "u2"))
	handler.Delete(c)

	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "admin-1", svc.deletedBy)
}
