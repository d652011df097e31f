package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/auth"
	"electrohub/backend/services/electrohub/internal/http/middleware"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/service"
)

// DefaultHistoryLimit is used when /api/iot/history omits limit.
const DefaultHistoryLimit = 100

// IoTService is the sensor pipeline used by IoTHandlers.
type IoTService interface {
	Process(ctx context.Context, sensorID string, value float64, sensorType string) (iot.Processed, error)
	Simulate(ctx context.Context, sensorID string) (iot.Processed, error)
	SimulateBatch(ctx context.Context, n int) ([]iot.Processed, error)
	History(ctx context.Context, sensorID string, limit int) ([]models.IoTReading, error)
	DeviceStatus(ctx context.Context) ([]service.DeviceStatus, error)
	Alerts(ctx context.Context, sensorID string) ([]service.Alert, error)
	Statistics(ctx context.Context, sensorID string, hours int) (iot.Stats, error)
	Export(ctx context.Context, sensorID string) ([]models.IoTReading, error)
}

// KeyChecker verifies a device's shared key.
type KeyChecker interface {
	Verify(deviceID, key string) error
}

// TokenIssuer signs device tokens.
type TokenIssuer interface {
	Issue(deviceID string) (string, time.Time, error)
}

// IoTHandlers serves sensor ingestion and queries.
type IoTHandlers struct {
	iot    IoTService
	keys   KeyChecker
	tokens TokenIssuer
	logger *zap.Logger
}

// NewIoTHandlers returns handler. keys and tokens may be nil when device
// authentication is disabled.
func NewIoTHandlers(svc IoTService, keys KeyChecker, tokens TokenIssuer, logger *zap.Logger) *IoTHandlers {
	return &IoTHandlers{iot: svc, keys: keys, tokens: tokens, logger: logger}
}

// Data handles POST /api/iot/data.
func (h *IoTHandlers) Data(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SensorID   string   `json:"sensor_id"`
		Value      *float64 `json:"value"`
		SensorType string   `json:"sensor_type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value: is required")
		return
	}
	req.SensorID = strings.TrimSpace(req.SensorID)
	if deviceID, ok := middleware.DeviceIDFromContext(r.Context()); ok && deviceID != req.SensorID {
		writeError(w, http.StatusForbidden, "token does not match sensor_id")
		return
	}
	res, err := h.iot.Process(r.Context(), req.SensorID, *req.Value, req.SensorType)
	if err != nil {
		failure(w, h.logger, "process reading", err)
		return
	}
	writeResult(w, res)
}

// Simulate handles POST /api/iot/simulate.
func (h *IoTHandlers) Simulate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SensorID string `json:"sensor_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.iot.Simulate(r.Context(), req.SensorID)
	if err != nil {
		failure(w, h.logger, "simulate reading", err)
		return
	}
	writeResult(w, res)
}

// SimulateBatch handles POST /api/iot/simulate-batch.
func (h *IoTHandlers) SimulateBatch(w http.ResponseWriter, r *http.Request) {
	req := struct {
		NumReadings int `json:"num_readings"`
	}{NumReadings: service.DefaultBatchSize}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.iot.SimulateBatch(r.Context(), req.NumReadings)
	if err != nil {
		failure(w, h.logger, "simulate batch", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": res})
}

// History handles GET /api/iot/history.
func (h *IoTHandlers) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", DefaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	history, err := h.iot.History(r.Context(), r.URL.Query().Get("sensor_id"), limit)
	if err != nil {
		failure(w, h.logger, "sensor history", err)
		return
	}
	if history == nil {
		history = []models.IoTReading{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// Status handles GET /api/iot/status.
func (h *IoTHandlers) Status(w http.ResponseWriter, r *http.Request) {
	devices, err := h.iot.DeviceStatus(r.Context())
	if err != nil {
		failure(w, h.logger, "device status", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": devices})
}

// Alerts handles GET /api/iot/alerts.
func (h *IoTHandlers) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.iot.Alerts(r.Context(), r.URL.Query().Get("sensor_id"))
	if err != nil {
		failure(w, h.logger, "sensor alerts", err)
		return
	}
	if alerts == nil {
		alerts = []service.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": alerts})
}

// Statistics handles GET /api/iot/statistics.
func (h *IoTHandlers) Statistics(w http.ResponseWriter, r *http.Request) {
	hours, err := queryInt(r, "hours", service.DefaultStatsHours)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := h.iot.Statistics(r.Context(), r.URL.Query().Get("sensor_id"), hours)
	if errors.Is(err, iot.ErrNoData) {
		writeError(w, http.StatusNotFound, "No data available")
		return
	}
	if err != nil {
		failure(w, h.logger, "sensor statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statistics": stats})
}

// Export handles GET /api/iot/export?format=json|csv.
func (h *IoTHandlers) Export(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(r.URL.Query().Get("format"))
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		writeError(w, http.StatusBadRequest, "format: must be json or csv")
		return
	}
	readings, err := h.iot.Export(r.Context(), r.URL.Query().Get("sensor_id"))
	if err != nil {
		failure(w, h.logger, "sensor export", err)
		return
	}
	if format == "json" {
		if readings == nil {
			readings = []models.IoTReading{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": readings})
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment;filename=sensor_data.csv")
	if err := iot.WriteCSV(w, readings); err != nil {
		h.logger.Warn("failed to write csv export", zap.Error(err))
	}
}

// Devices handles GET /api/iot/devices.
func (h *IoTHandlers) Devices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"devices": iot.Devices})
}

// Thresholds handles GET /api/iot/thresholds.
func (h *IoTHandlers) Thresholds(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"thresholds": iot.Thresholds})
}

// Token handles POST /api/iot/token.
func (h *IoTHandlers) Token(w http.ResponseWriter, r *http.Request) {
	if h.keys == nil || h.tokens == nil {
		writeError(w, http.StatusNotFound, "device authentication is disabled")
		return
	}
	var req struct {
		DeviceID string `json:"device_id"`
		Key      string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.keys.Verify(req.DeviceID, req.Key); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		failure(w, h.logger, "verify device key", err)
		return
	}
	token, expires, err := h.tokens.Issue(req.DeviceID)
	if err != nil {
		failure(w, h.logger, "issue device token", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"token_type": "Bearer",
		"expires_at": expires,
	})
}
