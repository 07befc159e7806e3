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

type fakeAuthService struct {
	loginReq    models.LoginRequest
	loginResp   *models.LoginResponse
	loginErr    error
	session     *models.SessionUser
	sessionErr  error
	loggedOut   []string
	changedFor  string
	refreshResp *models.RefreshTokenResponse
}

func (f *fakeAuthService) Login(_ context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	f.loginReq = req
	return f.loginResp, f.loginErr
}

func (f *fakeAuthService) Session(context.Context, string) (*models.SessionUser, error) {
	return f.session, f.sessionErr
}

func (f *fakeAuthService) RefreshToken(context.Context, models.RefreshTokenRequest) (*models.RefreshTokenResponse, error) {
	return f.refreshResp, nil
}

func (f *fakeAuthService) Logout(_ context.Context, refreshToken, userID, _, _ string) error {
	f.loggedOut = append(f.loggedOut, userID+":"+refreshToken)
	return nil
}

func (f *fakeAuthService) ChangePassword(_ context.Context, userID string, _ models.ChangePasswordRequest) error {
	f.changedFor = userID
	return nil
}

func TestAuthHandlerLoginPassesClientMetadata(t *testing.T) {
	svc := &fakeAuthService{loginResp: &models.LoginResponse{AccessToken: "token", User: adminSession()}}
	handler := NewAuthHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "owner@clinic.test", "password": "secret"}, nil)
	c.Request.Header.Set("User-Agent", "agenda-test")
	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "owner@clinic.test", svc.loginReq.Email)
	assert.Equal(t, "agenda-test", svc.loginReq.UserAgent)
	assert.NotEmpty(t, svc.loginReq.IP)
}

func TestAuthHandlerLoginRejectsMalformedBody(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{})

	c, rec := newTestContext(http.MethodPost, "/auth/login", "{", nil)
	handler.Login(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthHandlerLoginSurfacesRoleFailure(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{loginErr: appErrors.ErrRoleUnresolved})

	c, rec := newTestContext(http.MethodPost, "/auth/login", map[string]string{"email": "x@clinic.test", "password": "secret"}, nil)
	handler.Login(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	assert.Equal(t, "ROLE_UNRESOLVED", envelope.Error.Code)
}

func TestAuthHandlerSessionRequiresToken(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{})

	c, rec := newTestContext(http.MethodGet, "/auth/session", nil, nil)
	handler.Session(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerSessionTimeout(t *testing.T) {
	handler := NewAuthHandler(&fakeAuthService{sessionErr: appErrors.ErrTimeout})
	user := adminSession()

	c, rec := newTestContext(http.MethodGet, "/auth/session", nil, &user)
	handler.Session(c)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestAuthHandlerLogoutAndChangePassword(t *testing.T) {
	svc := &fakeAuthService{}
	handler := NewAuthHandler(svc)
	user := professionalSession()

	c, rec := newTestContext(http.MethodPost, "/auth/logout", map[string]string{"refresh_token": "rt-1"}, &user)
	handler.Logout(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, []string{"user-ana:rt-1"}, svc.loggedOut)

	c, rec = newTestContext(http.MethodPost, "/auth/logout", map[string]string{}, &user)
	handler.Logout(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/auth/change-password", map[string]string{"old_password": "a", "new_password": "bbbbbb"}, &user)
	handler.ChangePassword(c)
	assert.Equal(t, http.StatusNoContent, c.Writer.Status())
	assert.Equal(t, "user-ana", svc.changedFor)
}
