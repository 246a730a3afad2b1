package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/courses-api/internal/models"
	appErrors "github.com/noah-isme/courses-api/pkg/errors"
	"github.com/noah-isme/courses-api/pkg/logger"
)

type stubValidator map[string]*models.JWTClaims

func (s stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

type stubIdentifier struct {
	users map[string]*models.User
	delay time.Duration
}

func (s stubIdentifier) Identify(ctx context.Context, token string) (*models.User, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if user, ok := s.users[token]; ok {
		return user, nil
	}
	return nil, errors.New("unknown token")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newGuardedRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	handlers = append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.UserIDKey))
	})
	router.GET("/", handlers...)
	return router
}

func TestJWTMiddleware(t *testing.T) {
	validator := stubValidator{"good": {UserID: "t1", Role: models.RoleTeacher}}
	router := newGuardedRouter(JWT(validator))

	cases := []struct {
		header string
		status int
	}{
		{"", http.StatusUnauthorized},
		{"Token good", http.StatusUnauthorized},
		{"Bearer bad", http.StatusUnauthorized},
		{"Bearer good", http.StatusOK},
		{"bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		router.ServeHTTP(rec, req)
		assert.Equal(t, tc.status, rec.Code, tc.header)
		if tc.status == http.StatusOK {
			assert.Equal(t, "t1", rec.Body.String())
		}
	}
}

func TestRequireRoles(t *testing.T) {
	validator := stubValidator{
		"teacher": {UserID: "t1", Role: models.RoleTeacher},
		"student": {UserID: "s1", Role: models.RoleStudent},
		"staff":   {UserID: "admin", Role: models.RoleStudent, IsStaff: true},
	}
	router := newGuardedRouter(JWT(validator), RequireRoles(models.RoleTeacher))

	for token, status := range map[string]int{"teacher": http.StatusOK, "student": http.StatusForbidden, "staff": http.StatusOK} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, token)
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	rec := httptest.NewRecorder()
	newGuardedRouter(RequireRoles(models.RoleTeacher)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSocketAuthResolvesIdentity(t *testing.T) {
	identifier := stubIdentifier{users: map[string]*models.User{"tok": {ID: "s1", Role: models.RoleStudent, Active: true}}}

	var seen *models.User
	router := gin.New()
	router.GET("/ws", SocketAuth(identifier, time.Second, nil), func(c *gin.Context) {
		seen, _ = SocketUser(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ws?token=tok", nil)
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
	assert.Equal(t, "s1", seen.ID)

	seen = nil
	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer tok")
	router.ServeHTTP(httptest.NewRecorder(), req)
	require.NotNil(t, seen)
}

func TestSocketAuthFallsBackToAnonymous(t *testing.T) {
	slow := stubIdentifier{users: map[string]*models.User{"tok": {ID: "s1"}}, delay: time.Second}

	for name, identifier := range map[string]stubIdentifier{"unknown": {}, "timeout": slow} {
		t.Run(name, func(t *testing.T) {
			called := false
			router := gin.New()
			router.GET("/ws", SocketAuth(identifier, 20*time.Millisecond, nil), func(c *gin.Context) {
				called = true
				_, ok := SocketUser(c)
				assert.False(t, ok)
				c.Status(http.StatusNoContent)
			})
			rec := httptest.NewRecorder()
			start := time.Now()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=tok", nil))
			assert.True(t, called)
			assert.Equal(t, http.StatusNoContent, rec.Code)
			assert.Less(t, time.Since(start), 500*time.Millisecond)
		})
	}
}

type observedRequest struct {
	method, route string
	status        int
}

type recordingObserver struct {
	seen []observedRequest
}

func (r *recordingObserver) ObserveHTTPRequest(method, route string, status int, _ time.Duration) {
	r.seen = append(r.seen, observedRequest{method: method, route: route, status: status})
}

func TestMetricsLabelsByRouteTemplate(t *testing.T) {
	observer := &recordingObserver{}
	router := gin.New()
	router.Use(Metrics(observer, "/metrics"))
	router.GET("/solutions/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/solutions/s-1", "/solutions/s-2", "/metrics", "/nope/42"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	require.Len(t, observer.seen, 3)
	assert.Equal(t, observedRequest{http.MethodGet, "/solutions/:id", http.StatusOK}, observer.seen[0])
	assert.Equal(t, "/solutions/:id", observer.seen[1].route)
	assert.Equal(t, observedRequest{http.MethodGet, unmatchedRoute, http.StatusNotFound}, observer.seen[2])
}

func TestResponseMeta(t *testing.T) {
	var meta map[string]interface{}
	router := gin.New()
	router.Use(WithResponseMeta())
	router.GET("/", func(c *gin.Context) {
		SetCacheHit(c, false)
		SetMeta(c, "cached_at", "2026-10-19T10:00:00Z")
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, meta)
	assert.Equal(t, false, meta["cache_hit"])
	assert.Equal(t, "2026-10-19T10:00:00Z", meta["cached_at"])
	assert.Contains(t, meta, "processing_time_ms")

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ExtractMeta(c))
}
