// Package config loads the electrohub service configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "electrohub/backend/libs/config"
	"electrohub/backend/libs/db"
)

// HTTP configures the listener.
type HTTP struct {
	Port         string        `yaml:"port" env:"ELECTROHUB_HTTP_PORT"`
	ReadTimeout  time.Duration `yaml:"readTimeout" env:"ELECTROHUB_HTTP_READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"writeTimeout" env:"ELECTROHUB_HTTP_WRITE_TIMEOUT"`
	MaxUploadMB  int64         `yaml:"maxUploadMB" env:"ELECTROHUB_HTTP_MAX_UPLOAD_MB"`
}

// Database selects the history store.
type Database struct {
	Driver      string `yaml:"driver" env:"ELECTROHUB_DB_DRIVER"`
	DSN         string `yaml:"dsn" env:"ELECTROHUB_DB_DSN"`
	AutoMigrate bool   `yaml:"autoMigrate" env:"ELECTROHUB_DB_AUTO_MIGRATE"`
}

// Redis is optional; an empty Addr disables the latest-reading cache.
type Redis struct {
	Addr     string        `yaml:"addr" env:"ELECTROHUB_REDIS_ADDR"`
	Password string        `yaml:"password" env:"ELECTROHUB_REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"ELECTROHUB_REDIS_DB"`
	TTL      time.Duration `yaml:"ttl" env:"ELECTROHUB_REDIS_TTL"`
}

// RateLimit throttles each client IP. Zero RequestsPerSecond disables it.
type RateLimit struct {
	RequestsPerSecond float64       `yaml:"requestsPerSecond" env:"ELECTROHUB_RATE_LIMIT_RPS"`
	Burst             int           `yaml:"burst" env:"ELECTROHUB_RATE_LIMIT_BURST"`
	IdleTTL           time.Duration `yaml:"idleTTL" env:"ELECTROHUB_RATE_LIMIT_IDLE_TTL"`
}

// Reports configures PDF output.
type Reports struct {
	Dir             string        `yaml:"dir" env:"ELECTROHUB_REPORTS_DIR"`
	Retention       time.Duration `yaml:"retention" env:"ELECTROHUB_REPORTS_RETENTION"`
	CleanupSchedule string        `yaml:"cleanupSchedule" env:"ELECTROHUB_REPORTS_CLEANUP_SCHEDULE"`
}

// IoT configures ingestion, device auth and background simulation.
type IoT struct {
	// TokenSecret enables device authentication on POST /api/iot/data.
	TokenSecret string        `yaml:"tokenSecret" env:"ELECTROHUB_IOT_TOKEN_SECRET"`
	TokenTTL    time.Duration `yaml:"tokenTTL" env:"ELECTROHUB_IOT_TOKEN_TTL"`
	// DeviceKeys maps device id to bcrypt hash. YAML only.
	DeviceKeys         map[string]string `yaml:"deviceKeys"`
	SimulationSchedule string            `yaml:"simulationSchedule" env:"ELECTROHUB_IOT_SIMULATION_SCHEDULE"`
	SimulationReadings int               `yaml:"simulationReadings" env:"ELECTROHUB_IOT_SIMULATION_READINGS"`
	WSWriteTimeout     time.Duration     `yaml:"wsWriteTimeout" env:"ELECTROHUB_IOT_WS_WRITE_TIMEOUT"`
}

// Log configures zap.
type Log struct {
	Level    string `yaml:"level" env:"LOG_LEVEL"`
	Encoding string `yaml:"encoding" env:"LOG_ENCODING"`
}

// Config defines electrohub configuration.
type Config struct {
	HTTP      HTTP      `yaml:"http"`
	Database  Database  `yaml:"database"`
	Redis     Redis     `yaml:"redis"`
	RateLimit RateLimit `yaml:"rateLimit"`
	Reports   Reports   `yaml:"reports"`
	IoT       IoT       `yaml:"iot"`
	Log       Log       `yaml:"log"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		HTTP: HTTP{
			Port:         "5000",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			MaxUploadMB:  10,
		},
		Database: Database{
			Driver:      db.DriverSQLite,
			DSN:         "electrohub.db",
			AutoMigrate: true,
		},
		Redis: Redis{TTL: 24 * time.Hour},
		RateLimit: RateLimit{
			RequestsPerSecond: 20,
			Burst:             40,
			IdleTTL:           10 * time.Minute,
		},
		Reports: Reports{
			Dir:             "reports",
			Retention:       7 * 24 * time.Hour,
			CleanupSchedule: "@every 1h",
		},
		IoT: IoT{
			TokenTTL:           time.Hour,
			SimulationReadings: 1,
			WSWriteTimeout:     10 * time.Second,
		},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// LoadFrom reads an explicit YAML file, then the environment.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if err := libconfig.LoadFrom(path, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("config: unsupported database driver %q", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("config: database dsn required")
	}
	if strings.TrimSpace(c.Reports.Dir) == "" {
		return errors.New("config: reports dir required")
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		return errors.New("config: rate limit must not be negative")
	}
	if len(c.IoT.DeviceKeys) > 0 && c.IoT.TokenSecret == "" {
		return errors.New("config: iot device keys need a token secret")
	}
	if c.IoT.SimulationReadings < 0 {
		return errors.New("config: simulation readings must not be negative")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "5000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// MaxUploadBytes bounds multipart uploads.
func (c *Config) MaxUploadBytes() int64 {
	if c.HTTP.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return c.HTTP.MaxUploadMB << 20
}

// DeviceAuthEnabled reports whether IoT ingestion requires a token.
func (c *Config) DeviceAuthEnabled() bool {
	return strings.TrimSpace(c.IoT.TokenSecret) != ""
}
