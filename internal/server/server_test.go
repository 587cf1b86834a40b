package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"blogsys/internal/config"
	"blogsys/internal/database"
	"blogsys/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	srv *Server
	app *fiber.App
	mr  *miniredis.Miniredis
	cfg *config.Config
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config)) *testEnv {
	t.Helper()
	cfg := testutil.TestConfig(t)
	for _, m := range mutate {
		m(cfg)
	}

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.NewApp(), mr: mr, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookie, Value: token})
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var out map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && json.Valid(raw) {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func sessionFrom(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", sessionCookie)
	return nil
}

func TestNewServerWithDeps_RequiresDB(t *testing.T) {
	_, err := NewServerWithDeps(testutil.TestConfig(t), nil, nil)
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "up", body["status"])

	for _, path := range []string{"/health", "/health/ready", "/api/"} {
		resp, body = env.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "healthy", body["status"], path)
	}

	env.mr.Close()
	resp, body = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "unhealthy", checks["redis"])
	assert.Equal(t, "healthy", checks["database"])
}

func TestReadinessCheck_WithoutRedis(t *testing.T) {
	cfg := testutil.TestConfig(t)
	db := testutil.NewTestDB(t)
	srv, err := NewServerWithDeps(cfg, db, nil)
	require.NoError(t, err)
	app := srv.NewApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health/ready", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/api/nope", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health/live", nil, "")

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	raw, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(raw), "http_requests_total")
}

func TestContentImagesRoute(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(env.cfg.ContentDir, "pic.jpg"), []byte("jpeg"), 0o644))

	resp, err := env.app.Test(httptest.NewRequest(http.MethodGet, "/content-images/pic.jpg", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, _ = env.do(t, http.MethodGet, "/content-images/missing.jpg", nil, "")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestGetFeatureFlags(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.FeatureFlags = "comments=off" })

	resp, body := env.do(t, http.MethodGet, "/api/features", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	flags := body["flags"].(map[string]any)
	assert.Equal(t, false, flags["comments"])
	assert.Equal(t, true, flags["registration"])
}
