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

type mockUserRepo struct {
	users   map[string]*models.User
	created []*models.User
	deleted []string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var users []models.User
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	if _, ok := m.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type stubProfessionalLookup map[string]*models.Professional

func (s stubProfessionalLookup) FindByID(ctx context.Context, id string) (*models.Professional, error) {
	if p, ok := s[id]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

const knownProfessionalID = "0b8f5a9e-4f3c-4a1e-9d55-2f7f4f3d1a10"

func newTestUserService(repo *mockUserRepo) *UserService {
	professionals := stubProfessionalLookup{knownProfessionalID: {ID: knownProfessionalID, Name: "Dr. Ana"}}
	return NewUserService(repo, professionals, nil, nil)
}

func TestUserServiceCreateAdmin(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newTestUserService(repo)

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email:          " Reception@Clinic.test ",
		Password:       "secret1",
		Name:           "Reception",
		Role:           models.RoleAdmin,
		ProfessionalID: strPtr(knownProfessionalID),
	})
	require.NoError(t, err)
	assert.Equal(t, "reception@clinic.test", user.Email)
	assert.Nil(t, user.ProfessionalID)
	assert.NotEqual(t, "secret1", user.PasswordHash)
	require.NotNil(t, user.Role)
	assert.Equal(t, models.RoleAdmin, *user.Role)
	assert.True(t, user.Active)
}

func TestUserServiceCreateProfessionalRequiresBinding(t *testing.T) {
	svc := newTestUserService(&mockUserRepo{})

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: "doc@clinic.test", Password: "secret1", Name: "Doc", Role: models.RoleProfessional})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "required", appErr.Details["professional_id"])

	_, err = svc.Create(context.Background(), models.CreateUserRequest{
		Email: "doc@clinic.test", Password: "secret1", Name: "Doc", Role: models.RoleProfessional,
		ProfessionalID: strPtr("6f1e3c1a-0000-4000-8000-000000000000"),
	})
	assert.Equal(t, "not_found", appErrors.FromError(err).Details["professional_id"])

	user, err := svc.Create(context.Background(), models.CreateUserRequest{
		Email: "doc@clinic.test", Password: "secret1", Name: "Doc", Role: models.RoleProfessional,
		ProfessionalID: strPtr(knownProfessionalID),
	})
	require.NoError(t, err)
	assert.Equal(t, knownProfessionalID, *user.ProfessionalID)
}

func TestUserServiceCreateRejectsDuplicateEmailAndBadRole(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1", Email: "taken@clinic.test"}}}
	svc := newTestUserService(repo)

	_, err := svc.Create(context.Background(), models.CreateUserRequest{Email: "taken@clinic.test", Password: "secret1", Name: "X", Role: models.RoleAdmin})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), models.CreateUserRequest{Email: "new@clinic.test", Password: "secret1", Name: "X", Role: "receptionist"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Details, "role")
}

func TestUserServiceDelete(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}, "admin": {ID: "admin"}}}
	svc := newTestUserService(repo)

	err := svc.Delete(context.Background(), "admin", "admin")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), "u1", "admin"))
	assert.Equal(t, []string{"u1"}, repo.deleted)

	err = svc.Delete(context.Background(), "u1", "admin")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceList(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}}
	users, pagination, err := newTestUserService(repo).List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
}
