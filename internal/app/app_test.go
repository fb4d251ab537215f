package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/reviewmod/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

const fixturesJSON = `{
  "users": [
    {"id": 1, "username": "alice", "email": "alice@example.com"},
    {"id": 9, "username": "mod_maria", "email": "maria@example.com", "role": "moderator"}
  ],
  "products": [{"id": 5, "name": "Desk Lamp"}]
}`

func memoryConfig(t *testing.T) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.json")
	require.NoError(t, os.WriteFile(path, []byte(fixturesJSON), 0o600))

	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("STORE_FIXTURES_FILE", path)
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("REVIEW_HTTP_PORT", "18010")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestNewApp_MemoryBackend(t *testing.T) {
	a, err := NewApp(memoryConfig(t), testLogger())
	require.NoError(t, err)
	assert.Nil(t, a.pool)
	assert.Nil(t, a.producer)
	assert.Equal(t, ":18010", a.httpServer.Addr)

	rec := httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/5", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/reviews",
		strings.NewReader(`{"product_id":5,"rating":4,"review_text":"Bright enough"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "1")
	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/moderation/queue", nil)
	req.Header.Set("X-User-ID", "9")
	rec = httptest.NewRecorder()
	a.httpServer.Handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestNewApp_MemoryBackendBadFixtures(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.StoreFixtures = filepath.Join(t.TempDir(), "absent.json")

	_, err := NewApp(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load memory store fixtures")
}

func TestNewApp_RedisUnavailable(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.ProductLookup = config.ProductLookupCatalog
	cfg.RedisAddr = "127.0.0.1:1"

	_, err := NewApp(cfg, testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connect to redis")
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.HTTPPort = 0
	a, err := NewApp(cfg, testLogger())
	require.NoError(t, err)
	a.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
