// Package app builds the electrohub object graph from configuration.
package app

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"electrohub/backend/libs/db"
	redislib "electrohub/backend/libs/redis"
	"electrohub/backend/services/electrohub/internal/auth"
	"electrohub/backend/services/electrohub/internal/cache"
	"electrohub/backend/services/electrohub/internal/config"
	httpserver "electrohub/backend/services/electrohub/internal/http"
	"electrohub/backend/services/electrohub/internal/http/handlers"
	"electrohub/backend/services/electrohub/internal/http/middleware"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/metrics"
	"electrohub/backend/services/electrohub/internal/report"
	"electrohub/backend/services/electrohub/internal/repository"
	"electrohub/backend/services/electrohub/internal/scheduler"
	"electrohub/backend/services/electrohub/internal/service"
	"electrohub/backend/services/electrohub/internal/web"
	"electrohub/backend/services/electrohub/internal/ws"
)

const (
	jobTimeout       = time.Minute
	limiterSweepSpec = "@every 1m"
	jobIoTSimulation = "iot-simulation"
	jobReportCleanup = "report-cleanup"
	jobLimiterSweep  = "rate-limiter-sweep"
)

// App wires electrohub dependencies.
type App struct {
	cfg       *config.Config
	server    *httpserver.Server
	scheduler *scheduler.Scheduler
	iot       *service.IoTService
	hub       *ws.Hub
	db        *sqlx.DB
	redis     *redis.Client
	logger    *zap.Logger
}

// New constructs application components. The database is migrated first
// when cfg.Database.AutoMigrate is set.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg.Database.AutoMigrate {
		if err := db.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
			return nil, err
		}
	}
	sqlDB, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, db: sqlDB, logger: logger}

	var latest service.LatestCache
	if cfg.Redis.Addr != "" {
		client, err := redislib.Connect(context.Background(), redislib.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, latest readings served from database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.redis = client
			latest = cache.NewLatestReadings(client, cfg.Redis.TTL)
		}
	}

	gen, err := report.NewGenerator(cfg.Reports.Dir)
	if err != nil {
		a.Close()
		return nil, err
	}

	calcRepo := repository.NewCalculationRepository(sqlDB)
	readingRepo := repository.NewReadingRepository(sqlDB)
	energyRepo := repository.NewEnergyRepository(sqlDB)
	labRepo := repository.NewLabReportRepository(sqlDB)

	a.hub = ws.NewHub(logger)
	history := service.NewHistoryRecorder(calcRepo, logger)
	a.iot = service.NewIoTService(readingRepo, latest, a.hub, newRand(), logger)
	energySvc := service.NewEnergyService(energyRepo, logger)
	reports := service.NewReportService(gen, labRepo, logger)

	iotHandlers := handlers.NewIoTHandlers(a.iot, nil, nil, logger)
	var deviceAuth func(http.Handler) http.Handler
	if cfg.DeviceAuthEnabled() {
		tokens := auth.NewTokenService(cfg.IoT.TokenSecret, cfg.IoT.TokenTTL)
		keys := auth.NewKeyVerifier(cfg.IoT.DeviceKeys, 0)
		iotHandlers = handlers.NewIoTHandlers(a.iot, keys, tokens, logger)
		deviceAuth = middleware.DeviceAuth(tokens)
		logger.Info("device authentication enabled", zap.Int("devices", len(cfg.IoT.DeviceKeys)))
	}

	pages, err := web.NewRenderer(web.Pages(), logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	router := httpserver.NewRouter(httpserver.RouterDeps{
		Calculator: handlers.NewCalculatorHandlers(history, history, logger),
		Circuit:    handlers.NewCircuitHandlers(history, logger),
		Signal:     handlers.NewSignalHandlers(history, logger),
		Antenna:    handlers.NewAntennaHandlers(history, logger),
		Solar:      handlers.NewSolarHandlers(history, reports, logger),
		Energy:     handlers.NewEnergyHandlers(energySvc, cfg.MaxUploadBytes(), logger),
		Fault:      handlers.NewFaultHandlers(history, logger),
		IoT:        iotHandlers,
		Lab:        handlers.NewLabHandlers(reports, newRand(), logger),
		Download:   handlers.NewDownloadHandlers(gen, logger),
		Pages:      pages,
		Health:     handlers.NewHealthHandler(sqlDB),
		Metrics:    metrics.Handler(),
		LiveWS:     ws.NewServer(a.hub, cfg.IoT.WSWriteTimeout, logger).HandleWS,
	}, deviceAuth)

	mws := []func(http.Handler) http.Handler{
		middleware.Recovery(logger),
		middleware.RequestID,
		middleware.Logging(logger),
		metrics.InstrumentHandler,
	}
	var limiter *middleware.RateLimiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst, logger)
		mws = append(mws, limiter.Handler)
	}
	a.server = httpserver.NewServer(cfg.HTTPAddress(), router,
		httpserver.Timeouts{Read: cfg.HTTP.ReadTimeout, Write: cfg.HTTP.WriteTimeout}, logger, mws...)

	a.scheduler = scheduler.New(logger)
	if err := a.scheduleJobs(gen, limiter); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) scheduleJobs(gen *report.Generator, limiter *middleware.RateLimiter) error {
	cfg := a.cfg
	if cfg.IoT.SimulationSchedule != "" && cfg.IoT.SimulationReadings > 0 {
		err := a.scheduler.Add(jobIoTSimulation, cfg.IoT.SimulationSchedule, jobTimeout, func(ctx context.Context) error {
			_, err := a.iot.SimulateBatch(ctx, cfg.IoT.SimulationReadings)
			return err
		})
		if err != nil {
			return err
		}
	}
	if cfg.Reports.CleanupSchedule != "" && cfg.Reports.Retention > 0 {
		err := a.scheduler.Add(jobReportCleanup, cfg.Reports.CleanupSchedule, jobTimeout, func(context.Context) error {
			removed, err := gen.Cleanup(cfg.Reports.Retention)
			if removed > 0 {
				a.logger.Info("old reports removed", zap.Int("count", removed))
			}
			return err
		})
		if err != nil {
			return err
		}
	}
	if limiter != nil && cfg.RateLimit.IdleTTL > 0 {
		err := a.scheduler.Add(jobLimiterSweep, limiterSweepSpec, 0, func(context.Context) error {
			limiter.Cleanup(cfg.RateLimit.IdleTTL)
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Run serves HTTP traffic and runs scheduled jobs until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.server.Run(ctx) })
	g.Go(func() error { return a.scheduler.Run(ctx) })
	return g.Wait()
}

// Simulate stores n rounds of simulated readings for every device.
func (a *App) Simulate(ctx context.Context, n int) ([]iot.Processed, error) {
	res, err := a.iot.SimulateBatch(ctx, n)
	if err != nil {
		return res, fmt.Errorf("simulate readings: %w", err)
	}
	return res, nil
}

// Close releases resources.
func (a *App) Close() {
	if a.hub != nil {
		a.hub.CloseAll()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}
