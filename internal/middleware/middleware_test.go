package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/game-table-reservation/internal/config"
	"github.com/iliyamo/game-table-reservation/internal/model"
	"github.com/iliyamo/game-table-reservation/internal/utils"
)

const secret = "test-secret"

func bearer(t *testing.T, p model.Principal) string {
	t.Helper()
	at, err := utils.NewAccessToken(secret, p, 5)
	require.NoError(t, err)
	return "Bearer " + at.Token
}

func serve(e *echo.Echo, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthStoresPrincipal(t *testing.T) {
	e := echo.New()
	g := e.Group("", JWTAuth(secret))
	g.GET("/me", func(c echo.Context) error {
		p, ok := PrincipalFrom(c)
		require.True(t, ok)
		require.Equal(t, "7", userID(c))
		return c.String(http.StatusOK, p.Username)
	})

	rec := serve(e, http.MethodGet, "/me", bearer(t, model.Principal{ID: 7, Username: "alice", Role: model.RoleCustomer}))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "alice", rec.Body.String())

	require.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, serve(e, http.MethodGet, "/me", "Bearer junk").Code)
}

func TestRequireAdminHidesRoutes(t *testing.T) {
	e := echo.New()
	g := e.Group("/admin", JWTAuth(secret), RequireAdmin())
	g.GET("/x", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	customer := bearer(t, model.Principal{ID: 1, Role: model.RoleCustomer})
	admin := bearer(t, model.Principal{ID: 2, Role: model.RoleAdmin})
	require.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/admin/x", customer).Code)
	require.Equal(t, http.StatusNoContent, serve(e, http.MethodGet, "/admin/x", admin).Code)
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	g := e.Group("", JWTAuth(secret), RequireRole(model.RoleCustomer, model.RoleAdmin))
	g.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.Equal(t, http.StatusOK, serve(e, http.MethodGet, "/ok", bearer(t, model.Principal{ID: 1, Role: model.RoleCustomer})).Code)

	e2 := echo.New()
	e2.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireRole(model.RoleAdmin))
	require.Equal(t, http.StatusForbidden, serve(e2, http.MethodGet, "/ok", "").Code)
}

func TestPayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"a":1}`))
	require.NoError(t, err)
	status, got, body, ok := decodePayload(bs)
	require.True(t, ok)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "application/json", got.Get("Content-Type"))
	require.Equal(t, `{"a":1}`, string(body))

	_, _, _, ok = decodePayload([]byte{0, 0, 0})
	require.False(t, ok)
	_, _, _, ok = decodePayload([]byte{0, 0, 0, 200, 0, 0, 1, 0})
	require.False(t, ok)
}

func TestCachedHeadersDropRequestID(t *testing.T) {
	live := http.Header{}
	live.Set(echo.HeaderContentType, "application/json")
	live.Set(echo.HeaderXRequestID, "first")
	live.Set(echo.HeaderContentLength, "7")
	live.Set("X-Cache", "MISS")

	stored := storableHeader(live)
	require.Equal(t, "application/json", stored.Get(echo.HeaderContentType))
	require.Empty(t, stored.Get(echo.HeaderXRequestID))
	require.Empty(t, stored.Get(echo.HeaderContentLength))
	require.Empty(t, stored.Get("X-Cache"))
	require.Equal(t, "first", live.Get(echo.HeaderXRequestID))

	// an entry written before ids were stripped still replays cleanly
	stored.Set(echo.HeaderXRequestID, "first")
	rec := httptest.NewRecorder()
	rec.Header().Set(echo.HeaderXRequestID, "second")
	replayHeader(rec.Header(), stored)
	require.Equal(t, []string{"second"}, rec.Header().Values(echo.HeaderXRequestID))
	require.Equal(t, "application/json", rec.Header().Get(echo.HeaderContentType))
}

func TestCaptureWriterOverflow(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("ab"))
	require.False(t, cw.overflow)
	_, _ = cw.Write([]byte("cde"))
	require.True(t, cw.overflow)
	require.Equal(t, "abcde", rec.Body.String())
	require.Zero(t, cw.buf.Len())
}

func TestDisabledCacheAndLimiterPassThrough(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	rc := NewResponseCache(config.CacheConfig{Enabled: true}, nil, log)
	require.NoError(t, rc.Purge(context.Background()))

	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		rc.Middleware(), RateLimit(config.RateLimitConfig{Enabled: true}, nil, log))
	rec := serve(e, http.MethodGet, "/x", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("X-Cache"))
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/catalog/games", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/catalog/games")

	require.Equal(t, "rl:ip:10.0.0.9", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip"}, c))
	require.Equal(t, "rl:user:anon", rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, c))
	c.Set("user_id", "5")
	require.Equal(t, "rl:ip:10.0.0.9:user:5:route:GET /v1/catalog/games",
		rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c))
}

func TestSlogLogsRequest(t *testing.T) {
	var buf bytes.Buffer
	e := echo.New()
	e.Use(RequestID(), Slog(slog.New(slog.NewJSONHandler(&buf, nil))))
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "nope") })

	rec := serve(e, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	out := buf.String()
	require.True(t, strings.Contains(out, `"status":418`), out)
	require.Contains(t, out, `"path":"/boom"`)
}
