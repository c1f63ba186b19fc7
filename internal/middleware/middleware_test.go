package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/client-portal/internal/config"
	"github.com/iliyamo/client-portal/internal/service"
	"github.com/iliyamo/client-portal/internal/utils"
)

type stubValidator struct {
	claims utils.ClientClaims
	err    error
}

func (s stubValidator) Validate(context.Context, string) (utils.ClientClaims, error) {
	return s.claims, s.err
}

func serveClient(t *testing.T, v SessionValidator, cookie string, projectID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.GET("/portal/:projectId", func(c echo.Context) error {
		claims, ok := ClientClaims(c)
		require.True(t, ok)
		return c.String(http.StatusOK, claims.SessionID)
	}, ClientSession(v, zap.NewNop().Sugar()))

	req := httptest.NewRequest(http.MethodGet, "/portal/"+projectID, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: ClientCookieName, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestClientSession(t *testing.T) {
	ok := stubValidator{claims: utils.ClientClaims{ProjectID: "p1", SessionID: "s1"}}

	rec := serveClient(t, ok, "tok", "p1")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "s1", rec.Body.String())

	require.Equal(t, http.StatusUnauthorized, serveClient(t, ok, "", "p1").Code)
	require.Equal(t, http.StatusUnauthorized, serveClient(t, ok, "tok", "p2").Code)
	require.Equal(t, http.StatusUnauthorized,
		serveClient(t, stubValidator{err: service.ErrUnauthorized}, "tok", "p1").Code)
	require.Equal(t, http.StatusInternalServerError,
		serveClient(t, stubValidator{err: errors.Join(service.ErrInternal, errors.New("db down"))}, "tok", "p1").Code)
}

func adminToken(t *testing.T, secret, role string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestAdminJWTAuthAndRole(t *testing.T) {
	e := echo.New()
	e.GET("/admin", func(c echo.Context) error {
		return c.String(http.StatusOK, c.Get(CtxAdminID).(string))
	}, AdminJWTAuth("admin-secret"), RequireRole("ADMIN"))

	do := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	rec := do("Bearer " + adminToken(t, "admin-secret", "ADMIN"))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "admin-1", rec.Body.String())

	require.Equal(t, http.StatusUnauthorized, do("").Code)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+adminToken(t, "other", "ADMIN")).Code)
	require.Equal(t, http.StatusForbidden, do("Bearer "+adminToken(t, "admin-secret", "CLIENT")).Code)
}

func TestTokenBucketDisabledPassesThrough(t *testing.T) {
	e := echo.New()
	mw := NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, zap.NewNop().Sugar())
	e.POST("/portal/:projectId/authenticate", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, mw)

	for i := 0; i < 20; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/portal/p1/authenticate", nil))
		require.Equal(t, http.StatusNoContent, rec.Code)
	}
}

func newBucketServer(t *testing.T, rdb *redis.Client, capacity int) *echo.Echo {
	t.Helper()
	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       capacity,
		RefillTokens:   1,
		RefillInterval: time.Minute,
		TTL:            10 * time.Minute,
		KeyStrategy:    "ip_project",
		Prefix:         "rl:test",
	}
	e := echo.New()
	e.POST("/portal/:projectId/authenticate", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	}, NewTokenBucket(cfg, rdb, zap.NewNop().Sugar()))
	return e
}

func postAuthenticate(e *echo.Echo, projectID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/portal/"+projectID+"/authenticate", nil)
	req.Header.Set("X-Real-IP", "10.2.2.2")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTokenBucketBlocksAfterCapacity(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newBucketServer(t, rdb, 3)

	for i := 0; i < 3; i++ {
		rec := postAuthenticate(e, "p1")
		require.Equal(t, http.StatusNoContent, rec.Code, i)
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Equal(t, strconv.Itoa(2-i), rec.Header().Get("X-RateLimit-Remaining"))
	}

	rec := postAuthenticate(e, "p1")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	retry, err := strconv.Atoi(rec.Header().Get("Retry-After"))
	require.NoError(t, err)
	require.Greater(t, retry, 0)
	require.LessOrEqual(t, retry, 60)
	require.Contains(t, rec.Body.String(), "too_many_requests")

	require.True(t, mr.Exists("rl:test:ip:10.2.2.2:project:p1"))
	require.Equal(t, http.StatusNoContent, postAuthenticate(e, "p2").Code)
}

func TestTokenBucketFailsOpenWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newBucketServer(t, rdb, 1)

	require.Equal(t, http.StatusNoContent, postAuthenticate(e, "p1").Code)
	require.Equal(t, http.StatusTooManyRequests, postAuthenticate(e, "p1").Code)

	mr.Close()
	for i := 0; i < 3; i++ {
		rec := postAuthenticate(e, "p1")
		require.Equal(t, http.StatusNoContent, rec.Code, i)
		require.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/portal/p1/authenticate", nil)
	req.Header.Set("X-Real-IP", "10.1.1.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/portal/:projectId/authenticate")
	c.SetParamNames("projectId")
	c.SetParamValues("p1")

	cases := map[string]string{
		"":           "rl:ip:10.1.1.1:project:p1",
		"ip":         "rl:ip:10.1.1.1",
		"project":    "rl:project:p1",
		"ip_route":   "rl:ip:10.1.1.1:route:POST /portal/:projectId/authenticate",
		"ip_project": "rl:ip:10.1.1.1:project:p1",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		require.Equal(t, want, got, strategy)
	}
	require.Equal(t, 2, retryAfterSeconds(1500))
	require.Equal(t, 0, retryAfterSeconds(-5))
}
