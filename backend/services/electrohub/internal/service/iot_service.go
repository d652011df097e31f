package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/cache"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/metrics"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/repository"
	"electrohub/backend/services/electrohub/internal/validate"
)

// Limits applied by the IoT service.
const (
	DefaultStatsHours = 24
	MaxStatsHours     = 24 * 365
	DefaultBatchSize  = 10
	MaxBatchSize      = 100
	AlertScanLimit    = 100
	StatsScanLimit    = 1000
	ExportLimit       = 1000
)

// Device status values.
const (
	DeviceOnline = "online"
	DeviceNoData = "no_data"
)

// ReadingStore persists sensor readings.
type ReadingStore interface {
	Create(ctx context.Context, r *models.IoTReading) error
	List(ctx context.Context, f repository.ReadingFilter) ([]models.IoTReading, error)
	Latest(ctx context.Context, sensor string) (*models.IoTReading, error)
}

// LatestCache holds the newest processed reading per sensor.
type LatestCache interface {
	Save(ctx context.Context, p iot.Processed) error
	Get(ctx context.Context, sensorID string) (*iot.Processed, error)
}

// Broadcaster pushes processed readings to live subscribers.
type Broadcaster interface {
	Broadcast(p iot.Processed)
}

// DeviceStatus describes one simulated device and its newest reading.
type DeviceStatus struct {
	DeviceID    string             `json:"device_id"`
	Type        string             `json:"type"`
	Location    string             `json:"location"`
	LastReading *models.IoTReading `json:"last_reading"`
	Status      string             `json:"status"`
}

// Alert is a stored reading that crossed a threshold.
type Alert struct {
	Sensor    string    `json:"sensor"`
	Value     float64   `json:"value"`
	Unit      string    `json:"unit"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// IoTService ingests, simulates and summarizes sensor readings.
type IoTService struct {
	readings ReadingStore
	latest   LatestCache
	live     Broadcaster
	logger   *zap.Logger
	now      func() time.Time

	mu  sync.Mutex
	sim *iot.Simulator
}

// NewIoTService builds the service. latest and live may be nil.
func NewIoTService(readings ReadingStore, latest LatestCache, live Broadcaster, rng *rand.Rand, logger *zap.Logger) *IoTService {
	return &IoTService{
		readings: readings,
		latest:   latest,
		live:     live,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
		sim:      iot.NewSimulator(rng),
	}
}

// Process evaluates, stores, caches and broadcasts one reading.
func (s *IoTService) Process(ctx context.Context, sensorID string, value float64, sensorType string) (iot.Processed, error) {
	sensorID = strings.TrimSpace(sensorID)
	if sensorID == "" {
		return iot.Processed{}, validate.Errorf("sensor_id", "is required")
	}
	if err := validate.Finite("value", value); err != nil {
		return iot.Processed{}, err
	}

	p := iot.Process(sensorID, value, sensorType, s.now())
	row := &models.IoTReading{
		Sensor:    p.SensorID,
		Value:     p.Value,
		Unit:      p.Unit,
		Alert:     p.Alert,
		CreatedAt: p.Timestamp,
	}
	if err := s.readings.Create(ctx, row); err != nil {
		return iot.Processed{}, fmt.Errorf("store reading: %w", err)
	}
	p.ID = row.ID
	metrics.RecordReading(p.SensorType, p.Alert)

	if s.latest != nil {
		if err := s.latest.Save(ctx, p); err != nil {
			s.logger.Warn("failed to cache latest reading", zap.String("sensor_id", p.SensorID), zap.Error(err))
		}
	}
	if s.live != nil {
		s.live.Broadcast(p)
	}
	if p.Alert {
		s.logger.Info("sensor alert", zap.String("sensor_id", p.SensorID), zap.Float64("value", p.Value), zap.String("message", *p.AlertMessage))
	}
	return p, nil
}

// Simulate draws and processes a reading for sensorID, or for a random
// device when sensorID is empty or unknown.
func (s *IoTService) Simulate(ctx context.Context, sensorID string) (iot.Processed, error) {
	s.mu.Lock()
	r := s.sim.Next(sensorID)
	s.mu.Unlock()
	return s.Process(ctx, r.SensorID, r.Value, r.SensorType)
}

// SimulateBatch simulates n rounds over every device.
func (s *IoTService) SimulateBatch(ctx context.Context, n int) ([]iot.Processed, error) {
	if n == 0 {
		n = DefaultBatchSize
	}
	if n < 0 || n > MaxBatchSize {
		return nil, validate.Errorf("num_readings", "must be between 1 and %d", MaxBatchSize)
	}
	out := make([]iot.Processed, 0, n*len(iot.DeviceIDs))
	for i := 0; i < n; i++ {
		for _, id := range iot.DeviceIDs {
			p, err := s.Simulate(ctx, id)
			if err != nil {
				return out, err
			}
			out = append(out, p)
		}
	}
	return out, nil
}

// History returns stored readings, newest first.
func (s *IoTService) History(ctx context.Context, sensorID string, limit int) ([]models.IoTReading, error) {
	return s.readings.List(ctx, repository.ReadingFilter{Sensor: sensorID, Limit: limit})
}

// DeviceStatus reports each simulated device with its newest reading, taken
// from the cache when possible.
func (s *IoTService) DeviceStatus(ctx context.Context) ([]DeviceStatus, error) {
	out := make([]DeviceStatus, 0, len(iot.DeviceIDs))
	for _, id := range iot.DeviceIDs {
		d := iot.Devices[id]
		last, err := s.lastReading(ctx, id)
		if err != nil {
			return nil, err
		}
		status := DeviceNoData
		if last != nil {
			status = DeviceOnline
		}
		out = append(out, DeviceStatus{
			DeviceID:    id,
			Type:        d.Type,
			Location:    d.Location,
			LastReading: last,
			Status:      status,
		})
	}
	return out, nil
}

func (s *IoTService) lastReading(ctx context.Context, sensorID string) (*models.IoTReading, error) {
	if s.latest != nil {
		p, err := s.latest.Get(ctx, sensorID)
		switch {
		case err == nil:
			return &models.IoTReading{
				ID:        p.ID,
				Sensor:    p.SensorID,
				Value:     p.Value,
				Unit:      p.Unit,
				Alert:     p.Alert,
				CreatedAt: p.Timestamp,
			}, nil
		case !errors.Is(err, cache.ErrMiss):
			s.logger.Warn("latest reading cache unavailable", zap.String("sensor_id", sensorID), zap.Error(err))
		}
	}
	return s.readings.Latest(ctx, sensorID)
}

// Alerts returns recent alerting readings graded by severity.
func (s *IoTService) Alerts(ctx context.Context, sensorID string) ([]Alert, error) {
	rows, err := s.readings.List(ctx, repository.ReadingFilter{Sensor: sensorID, AlertOnly: true, Limit: AlertScanLimit})
	if err != nil {
		return nil, err
	}
	out := make([]Alert, 0, len(rows))
	for _, r := range rows {
		out = append(out, Alert{
			Sensor:    r.Sensor,
			Value:     r.Value,
			Unit:      r.Unit,
			Timestamp: r.CreatedAt,
			Severity:  iot.Severity(r.Sensor, r.Value),
		})
	}
	return out, nil
}

// Statistics summarizes a sensor's readings from the last hours.
func (s *IoTService) Statistics(ctx context.Context, sensorID string, hours int) (iot.Stats, error) {
	if strings.TrimSpace(sensorID) == "" {
		return iot.Stats{}, validate.Errorf("sensor_id", "is required")
	}
	if hours == 0 {
		hours = DefaultStatsHours
	}
	if hours < 0 || hours > MaxStatsHours {
		return iot.Stats{}, validate.Errorf("hours", "must be between 1 and %d", MaxStatsHours)
	}
	rows, err := s.readings.List(ctx, repository.ReadingFilter{
		Sensor: sensorID,
		Since:  s.now().Add(-time.Duration(hours) * time.Hour),
		Limit:  StatsScanLimit,
	})
	if err != nil {
		return iot.Stats{}, err
	}
	values := make([]float64, len(rows))
	for i, r := range rows {
		values[i] = r.Value
	}
	return iot.Statistics(sensorID, hours, values)
}

// Export returns up to ExportLimit readings for download.
func (s *IoTService) Export(ctx context.Context, sensorID string) ([]models.IoTReading, error) {
	return s.readings.List(ctx, repository.ReadingFilter{Sensor: sensorID, Limit: ExportLimit})
}
