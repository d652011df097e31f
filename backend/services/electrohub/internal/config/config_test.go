package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadFrom("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.HTTPAddress())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "electrohub.db", cfg.Database.DSN)
	assert.Equal(t, int64(10<<20), cfg.MaxUploadBytes())
	assert.False(t, cfg.DeviceAuthEnabled())
	assert.Empty(t, cfg.Redis.Addr)
}

func TestFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "electrohub.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  port: "8080"
database:
  driver: pgx
  dsn: postgres://localhost/electrohub
reports:
  retention: 48h
iot:
  tokenSecret: s3cret
  deviceKeys:
    temp_sensor_1: "$2a$10$abcdefghijklmnopqrstuv"
`), 0o644))
	t.Setenv("ELECTROHUB_HTTP_PORT", ":9000")
	t.Setenv("ELECTROHUB_REDIS_ADDR", "localhost:6379")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddress())
	assert.Equal(t, "pgx", cfg.Database.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Reports.Retention)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.True(t, cfg.DeviceAuthEnabled())
	assert.Contains(t, cfg.IoT.DeviceKeys, "temp_sensor_1")
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "mysql"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.IoT.DeviceKeys = map[string]string{"a": "b"}
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.RateLimit.RequestsPerSecond = -1
	assert.Error(t, cfg.Validate())
}
