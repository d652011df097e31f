package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand/v2"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/auth"
	"electrohub/backend/services/electrohub/internal/energy"
	"electrohub/backend/services/electrohub/internal/http/middleware"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/report"
	"electrohub/backend/services/electrohub/internal/service"
	"electrohub/backend/services/electrohub/internal/validate"
)

type recorded struct {
	module   string
	input    interface{}
	result   interface{}
	warnings []string
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recorded
}

func (f *fakeRecorder) Record(_ context.Context, module string, input, result interface{}, warnings []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, recorded{module: module, input: input, result: result, warnings: warnings})
}

func (f *fakeRecorder) List(_ context.Context, module string, _ int) ([]models.Calculation, error) {
	return []models.Calculation{{ID: 1, Module: module}}, nil
}

func post(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func get(t *testing.T, h http.HandlerFunc, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestOhmsLawRecordsComputedResults(t *testing.T) {
	history := &fakeRecorder{}
	h := NewCalculatorHandlers(history, history, zap.NewNop())

	rec := post(t, h.OhmsLaw, `{"voltage":12,"resistance":6}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, 2.0, result["current"])
	assert.Equal(t, 24.0, result["power"])
	assert.Equal(t, []interface{}{}, body["warnings"])
	require.Len(t, history.entries, 1)
	assert.Equal(t, "ohms_law", history.entries[0].module)

	rec = post(t, h.OhmsLaw, `{"voltage":12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []interface{}{"Please provide at least two values"}, decode(t, rec)["warnings"])
	assert.Len(t, history.entries, 1)
}

func TestDecodeErrors(t *testing.T) {
	history := &fakeRecorder{}
	h := NewCalculatorHandlers(history, history, zap.NewNop())

	rec := post(t, h.OhmsLaw, `{"voltage":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid JSON body", decode(t, rec)["error"])

	rec = post(t, h.OhmsLaw, `{"voltage":12,"resistance":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode(t, rec)["error"], "resistance")
}

func TestCalculatorHistory(t *testing.T) {
	history := &fakeRecorder{}
	h := NewCalculatorHandlers(history, history, zap.NewNop())

	rec := get(t, h.History, "/api/history?module=ohms_law&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)

	rec = get(t, h.History, "/api/history?limit=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

type fakeEnergy struct {
	filename string
	cost     float64
	content  string
}

func (f *fakeEnergy) Analyze(_ context.Context, r io.Reader, filename string, cost float64) (service.EnergyReport, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return service.EnergyReport{}, err
	}
	f.filename, f.cost, f.content = filename, cost, string(raw)
	return service.EnergyReport{Result: energy.Analysis{Filename: filename}, Warnings: []string{}}, nil
}

func (f *fakeEnergy) History(context.Context, int) ([]models.EnergyRecord, error) {
	return nil, nil
}

func upload(t *testing.T, field, filename, content string, extra map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		require.NoError(t, mw.WriteField(k, v))
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/energy/analyze", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestEnergyAnalyzeUpload(t *testing.T) {
	fake := &fakeEnergy{}
	h := NewEnergyHandlers(fake, 1<<20, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Analyze(rec, upload(t, "file", "usage.csv", "power\n100\n200\n", map[string]string{"cost_per_kwh": "0.2"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "usage.csv", fake.filename)
	assert.Equal(t, 0.2, fake.cost)
	assert.Equal(t, "power\n100\n200\n", fake.content)

	rec = httptest.NewRecorder()
	h.Analyze(rec, upload(t, "file", "usage.csv", "power\n1\n", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, energy.DefaultCostPerKWh, fake.cost)

	rec = httptest.NewRecorder()
	h.Analyze(rec, upload(t, "", "", "", map[string]string{"cost_per_kwh": "0.2"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", decode(t, rec)["error"])

	rec = httptest.NewRecorder()
	h.Analyze(rec, upload(t, "file", "usage.csv", "power\n1\n", map[string]string{"cost_per_kwh": "cheap"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnergyPeaksDefaults(t *testing.T) {
	h := NewEnergyHandlers(&fakeEnergy{}, 1<<20, zap.NewNop())

	rec := post(t, h.Peaks, `{"power_data":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h.History, "/api/energy/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestFaultHandlers(t *testing.T) {
	history := &fakeRecorder{}
	h := NewFaultHandlers(history, zap.NewNop())

	rec := post(t, h.Diagnose, `{"symptoms":["no_lights","no_display"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "no_power", body["diagnosis"].(map[string]interface{})["primary_fault"])
	assert.Contains(t, body, "report")
	require.Len(t, history.entries, 1)
	assert.Equal(t, "fault_diagnosis", history.entries[0].module)

	rec = post(t, h.RepairSteps, `{"fault_type":"no_power","cause_index":1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Blown fuse", decode(t, rec)["result"].(map[string]interface{})["cause"])

	rec = post(t, h.RepairSteps, `{"fault_type":"no_power","cause_index":9}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = post(t, h.ComponentTests, `{"component_type":"Resistor"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resistor", decode(t, rec)["result"].(map[string]interface{})["component"])

	rec = post(t, h.ComponentTests, `{"component_type":"flux capacitor"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "No test procedures for flux capacitor", decode(t, rec)["error"])

	rec = get(t, h.Symptoms, "/api/fault/symptoms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decode(t, rec)["fault_types"], "no_power")
}

type fakeIoT struct {
	processed []string
	stats     iot.Stats
	statsErr  error
	readings  []models.IoTReading
}

func (f *fakeIoT) Process(_ context.Context, sensorID string, value float64, sensorType string) (iot.Processed, error) {
	if sensorID == "" {
		return iot.Processed{}, validate.Errorf("sensor_id", "is required")
	}
	f.processed = append(f.processed, sensorID)
	return iot.Process(sensorID, value, sensorType, time.Unix(0, 0).UTC()), nil
}

func (f *fakeIoT) Simulate(ctx context.Context, sensorID string) (iot.Processed, error) {
	return f.Process(ctx, sensorID, 1, "")
}

func (f *fakeIoT) SimulateBatch(_ context.Context, n int) ([]iot.Processed, error) {
	return make([]iot.Processed, n), nil
}

func (f *fakeIoT) History(context.Context, string, int) ([]models.IoTReading, error) {
	return f.readings, nil
}

func (f *fakeIoT) DeviceStatus(context.Context) ([]service.DeviceStatus, error) {
	return []service.DeviceStatus{{DeviceID: "temp_sensor_1", Status: service.DeviceNoData}}, nil
}

func (f *fakeIoT) Alerts(context.Context, string) ([]service.Alert, error) {
	return nil, nil
}

func (f *fakeIoT) Statistics(context.Context, string, int) (iot.Stats, error) {
	return f.stats, f.statsErr
}

func (f *fakeIoT) Export(context.Context, string) ([]models.IoTReading, error) {
	return f.readings, nil
}

func TestIoTData(t *testing.T) {
	fake := &fakeIoT{}
	h := NewIoTHandlers(fake, nil, nil, zap.NewNop())

	rec := post(t, h.Data, `{"sensor_id":"temp_sensor_1","value":45}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode(t, rec)["result"].(map[string]interface{})
	assert.Equal(t, true, result["alert"])
	assert.Equal(t, "C", result["unit"])

	rec = post(t, h.Data, `{"sensor_id":"temp_sensor_1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h.Data, `{"value":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"temp_sensor_1"}, fake.processed)
}

func TestIoTQueries(t *testing.T) {
	fake := &fakeIoT{
		statsErr: iot.ErrNoData,
		readings: []models.IoTReading{{ID: 1, Sensor: "s", Value: 2.5, Unit: "V", CreatedAt: time.Unix(0, 0).UTC()}},
	}
	h := NewIoTHandlers(fake, nil, nil, zap.NewNop())

	rec := get(t, h.Statistics, "/api/iot/statistics?sensor_id=s")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = get(t, h.Statistics, "/api/iot/statistics?hours=x")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = get(t, h.Alerts, "/api/iot/alerts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"alerts":[]}`, rec.Body.String())

	rec = get(t, h.Status, "/api/iot/status")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["devices"], 1)

	rec = get(t, h.Export, "/api/iot/export?format=csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sensor_data.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,sensor,value,unit,alert,timestamp\n"))

	rec = get(t, h.Export, "/api/iot/export")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 1)

	rec = get(t, h.Export, "/api/iot/export?format=xml")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h.SimulateBatch, ``)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["results"], service.DefaultBatchSize)
}

func TestIoTToken(t *testing.T) {
	disabled := NewIoTHandlers(&fakeIoT{}, nil, nil, zap.NewNop())
	rec := post(t, disabled.Token, `{"device_id":"d","key":"k"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	keys := auth.NewKeyVerifier(nil, 4)
	hash, err := keys.Hash("secret-key")
	require.NoError(t, err)
	keys = auth.NewKeyVerifier(map[string]string{"temp_sensor_1": hash}, 4)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	h := NewIoTHandlers(&fakeIoT{}, keys, tokens, zap.NewNop())

	rec = post(t, h.Token, `{"device_id":"temp_sensor_1","key":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(t, h.Token, `{"device_id":"temp_sensor_1","key":"secret-key"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Bearer", body["token_type"])
	claims, err := tokens.Validate(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, "temp_sensor_1", claims.DeviceID)
}

func TestIoTDataTokenMatchesTrimmedSensor(t *testing.T) {
	tokens := auth.NewTokenService("test-secret", time.Hour)
	token, _, err := tokens.Issue("temp_sensor_1")
	require.NoError(t, err)

	fake := &fakeIoT{}
	h := NewIoTHandlers(fake, nil, nil, zap.NewNop())
	guarded := middleware.DeviceAuth(tokens)(http.HandlerFunc(h.Data))

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/iot/data", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		return rec
	}

	rec := send(`{"sensor_id":"  temp_sensor_1 ","value":20}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"temp_sensor_1"}, fake.processed)

	rec = send(`{"sensor_id":"voltage_sensor_1","value":20}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

type fakeLabReports struct {
	doc map[string]interface{}
}

func (f *fakeLabReports) Lab(_ context.Context, doc map[string]interface{}) (service.GeneratedReport, error) {
	f.doc = doc
	return service.GeneratedReport{Filepath: "lab_report_x.pdf", Message: "Lab report generated successfully"}, nil
}

func (f *fakeLabReports) Reports(context.Context, int) ([]models.LabReport, error) {
	return nil, errors.New("db down")
}

func TestLabHandlers(t *testing.T) {
	reports := &fakeLabReports{}
	h := NewLabHandlers(reports, rand.New(rand.NewPCG(1, 2)), zap.NewNop())

	rec := post(t, h.Run, `{"experiment":"rc_transient","parameters":{"resistance":1000,"capacitance":1e-6,"voltage":5}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode(t, rec)["result"].(map[string]interface{})
	assert.InDelta(t, 0.001, result["time_constant_s"], 1e-12)
	assert.NotContains(t, result, "tolerance_applied")

	rec = post(t, h.Run, `{"experiment":"rc_transient","parameters":{"resistance":1000,"capacitance":1e-6,"voltage":5},"with_tolerance":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 5.0, decode(t, rec)["result"].(map[string]interface{})["tolerance_applied"])

	rec = post(t, h.Run, `{"experiment":"flux"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown experiment", decode(t, rec)["error"])

	rec = post(t, h.Report, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, h.Report, `{"result":{"experiment":"rc_transient"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rc_transient", reports.doc["experiment"])
	assert.Equal(t, "lab_report_x.pdf", decode(t, rec)["filepath"])

	rec = get(t, h.Theory, "/api/lab/theory?experiment=rlc_resonance")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "RLC Circuit Resonance", decode(t, rec)["theory"].(map[string]interface{})["name"])

	rec = get(t, h.Reports, "/api/lab/reports")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDownload(t *testing.T) {
	gen, err := report.NewGenerator(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(gen.Dir(), "solar_report_1.pdf"), []byte("%PDF-1.4"), 0o600))
	h := NewDownloadHandlers(gen, zap.NewNop())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /download/{file}", h.Download)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/solar_report_1.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Equal(t, "%PDF-1.4", rec.Body.String())

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "File not found", decode(t, rec)["error"])
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func TestHealth(t *testing.T) {
	rec := get(t, NewHealthHandler(fakePinger{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, NewHealthHandler(fakePinger{err: errors.New("down")}), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRCCircuitUnderflowEncodesInfiniteAsNull(t *testing.T) {
	history := &fakeRecorder{}
	h := NewCalculatorHandlers(history, history, zap.NewNop())

	rec := post(t, h.RCCircuit, `{"resistance":1e-200,"capacitance":1e-200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Body.String())
	result := decode(t, rec)["result"].(map[string]interface{})
	assert.Contains(t, result, "cutoff_frequency")
	assert.Nil(t, result["cutoff_frequency"])
	assert.Equal(t, 0.0, result["time_constant"])
}

func TestWriteJSONFailsClosed(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]interface{}{"ch": make(chan int)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", decode(t, rec)["error"])
}
