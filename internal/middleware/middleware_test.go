package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/clinic-agenda-api/internal/models"
	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
}

func (s stubValidator) ValidateToken(string) (*models.JWTClaims, error) {
	return s.claims, s.err
}

type countingObserver struct {
	mu       sync.Mutex
	limited  int
	requests []string
}

func (o *countingObserver) RecordRateLimited() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.limited++
}

func (o *countingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.requests = append(o.requests, method+" "+path)
}

type collectingRecorder struct {
	entries []models.AuditLog
}

func (r *collectingRecorder) Record(entry models.AuditLog) {
	r.entries = append(r.entries, entry)
}

func professionalClaims() *models.JWTClaims {
	id := "prof-1"
	return &models.JWTClaims{UserID: "user-1", Role: models.RoleProfessional, Email: "ana@clinic.test", ProfessionalID: &id}
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{claims: professionalClaims()}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, header := range []string{"", "Token abc", "Bearer "} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
	}
}

func TestJWTStoresSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{claims: professionalClaims()}))

	var session models.SessionUser
	router.GET("/", func(c *gin.Context) {
		session, _ = CurrentUser(c)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer token-value")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "user-1", session.ID)
	require.NotNil(t, session.ProfessionalID)
	assert.Equal(t, "prof-1", *session.ProfessionalID)
}

func TestJWTPropagatesValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{err: appErrors.Clone(appErrors.ErrUnauthorized, "token expired")}))
	router.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))
}

func TestOptionalJWTNeverBlocks(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(OptionalJWT(stubValidator{err: appErrors.ErrUnauthorized}))
	router.GET("/", func(c *gin.Context) {
		_, ok := CurrentUser(c)
		assert.False(t, ok)
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bad")
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(JWT(stubValidator{claims: professionalClaims()}))
	router.GET("/admin", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/both", RequireRoles(models.RoleAdmin, models.RoleProfessional), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/users/:id", RBAC(string(models.RoleAdmin), SelfAccess), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := map[string]int{
		"/admin":        http.StatusForbidden,
		"/both":         http.StatusNoContent,
		"/users/user-1": http.StatusNoContent,
		"/users/user-2": http.StatusForbidden,
	}
	for path, want := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer ok")
		router.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, path)
	}
}

func TestRBACWithoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &countingObserver{}
	router := gin.New()
	router.Use(Metrics(observer))
	router.GET("/appointments/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/appointments/abc", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, []string{"GET /appointments/:id", "GET unmatched"}, observer.requests)
}

func TestAuditRecordsSuccessfulMutations(t *testing.T) {
	gin.SetMode(gin.TestMode)
	recorder := &collectingRecorder{}
	router := gin.New()
	router.Use(JWT(stubValidator{claims: professionalClaims()}))
	router.PUT("/appointments/:id", Audit(recorder, models.AuditActionUpdate, "appointment"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.POST("/appointments", Audit(recorder, models.AuditActionCreate, "appointment"), func(c *gin.Context) {
		c.Set(ContextResourceIDKey, "new-id")
		c.Status(http.StatusCreated)
	})
	router.DELETE("/appointments/:id", Audit(recorder, models.AuditActionDelete, "appointment"), func(c *gin.Context) {
		c.Status(http.StatusForbidden)
	})

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodPut, "/appointments/a1", nil),
		httptest.NewRequest(http.MethodPost, "/appointments", nil),
		httptest.NewRequest(http.MethodDelete, "/appointments/a1", nil),
	} {
		req.Header.Set("Authorization", "Bearer ok")
		router.ServeHTTP(httptest.NewRecorder(), req)
	}

	require.Len(t, recorder.entries, 2)
	assert.Equal(t, models.AuditActionUpdate, recorder.entries[0].Action)
	assert.Equal(t, "a1", *recorder.entries[0].ResourceID)
	assert.Equal(t, "user-1", *recorder.entries[0].UserID)
	assert.Equal(t, "new-id", *recorder.entries[1].ResourceID)
}

func TestRateLimiterLocalWindow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &countingObserver{}
	limiter := NewRateLimiter(nil, 2, time.Minute, "login", observer, nil)
	now := time.Date(2030, 1, 7, 9, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	router := gin.New()
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		router.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, send().Code)
	assert.Equal(t, http.StatusOK, send().Code)
	blocked := send()
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, blocked))
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.Equal(t, 1, observer.limited)

	now = now.Add(time.Minute)
	assert.Equal(t, http.StatusOK, send().Code)
}

func TestRateLimiterFallsBackWhenRedisDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 50 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()
	limiter := NewRateLimiter(rdb, 1, time.Minute, "login", nil, nil)

	router := gin.New()
	router.POST("/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/login", nil))
	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/login", nil))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}

func TestResponseMetaStampsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(WithResponseMeta())

	var meta map[string]interface{}
	router.GET("/", func(c *gin.Context) {
		SetMeta(c, "grid_step_minutes", 30)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 30, meta["grid_step_minutes"])
	assert.Contains(t, meta, "processing_time_ms")
}
