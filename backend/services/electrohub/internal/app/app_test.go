package app

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Database.DSN = filepath.Join(dir, "electrohub.db")
	cfg.Reports.Dir = filepath.Join(dir, "reports")
	return cfg
}

func TestNewServesRequests(t *testing.T) {
	a, err := New(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	handler := a.server.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/calculator/ohms-law", strings.NewReader(`{"current":2,"resistance":3}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"voltage":6`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSchedulesJobsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.IoT.SimulationSchedule = "@every 1m"

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, 3, a.scheduler.Len())

	cfg = testConfig(t)
	cfg.IoT.SimulationSchedule = "not a schedule"
	_, err = New(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestDeviceAuthGuardsIngestion(t *testing.T) {
	cfg := testConfig(t)
	cfg.IoT.TokenSecret = "test-secret"

	a, err := New(cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	rec := httptest.NewRecorder()
	a.server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/iot/data", strings.NewReader(`{"sensor_id":"s","value":1}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
