package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/middleware"
	"github.com/noah-isme/clinic-agenda-api/internal/models"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Meta  map[string]interface{} `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func adminSession() models.SessionUser {
	return models.SessionUser{ID: "admin-1", Email: "owner@clinic.test", Role: models.RoleAdmin}
}

func professionalSession() models.SessionUser {
	id := "prof-ana"
	return models.SessionUser{ID: "user-ana", Email: "ana@clinic.test", Role: models.RoleProfessional, ProfessionalID: &id}
}

// newTestContext builds a gin context for target, with an optional JSON body and session.
func newTestContext(method, target string, body interface{}, user *models.SessionUser) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)

	var payload []byte
	if body != nil {
		if raw, ok := body.(string); ok {
			payload = []byte(raw)
		} else {
			payload, _ = json.Marshal(body)
		}
	}
	c.Request = httptest.NewRequest(method, target, bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	if user != nil {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{
			UserID:         user.ID,
			Email:          user.Email,
			Role:           user.Role,
			ProfessionalID: user.ProfessionalID,
		})
	}
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func ginParam(key, value string) gin.Param {
	return gin.Param{Key: key, Value: value}
}
