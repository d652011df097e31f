package service

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/cache"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/lab"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/report"
	"electrohub/backend/services/electrohub/internal/repository"
	"electrohub/backend/services/electrohub/internal/validate"
)

var errStore = errors.New("store down")

type fakeCalculations struct {
	rows []models.Calculation
	err  error
}

func (f *fakeCalculations) Create(_ context.Context, c *models.Calculation) error {
	if f.err != nil {
		return f.err
	}
	c.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *c)
	return nil
}

func (f *fakeCalculations) List(_ context.Context, module string, _ int) ([]models.Calculation, error) {
	var out []models.Calculation
	for _, c := range f.rows {
		if module == "" || c.Module == module {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeReadings struct {
	mu   sync.Mutex
	rows []models.IoTReading
}

func (f *fakeReadings) Create(_ context.Context, r *models.IoTReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeReadings) List(_ context.Context, flt repository.ReadingFilter) ([]models.IoTReading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []models.IoTReading{}
	for i := len(f.rows) - 1; i >= 0; i-- {
		r := f.rows[i]
		if flt.Sensor != "" && r.Sensor != flt.Sensor {
			continue
		}
		if !flt.Since.IsZero() && r.CreatedAt.Before(flt.Since) {
			continue
		}
		if flt.AlertOnly && !r.Alert {
			continue
		}
		out = append(out, r)
		if flt.Limit > 0 && len(out) == flt.Limit {
			break
		}
	}
	return out, nil
}

func (f *fakeReadings) Latest(ctx context.Context, sensor string) (*models.IoTReading, error) {
	rows, _ := f.List(ctx, repository.ReadingFilter{Sensor: sensor, Limit: 1})
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

type fakeLatest struct {
	saved map[string]iot.Processed
	err   error
}

func (f *fakeLatest) Save(_ context.Context, p iot.Processed) error {
	if f.err != nil {
		return f.err
	}
	f.saved[p.SensorID] = p
	return nil
}

func (f *fakeLatest) Get(_ context.Context, id string) (*iot.Processed, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.saved[id]
	if !ok {
		return nil, cache.ErrMiss
	}
	return &p, nil
}

type fakeLive struct {
	got []iot.Processed
}

func (f *fakeLive) Broadcast(p iot.Processed) {
	f.got = append(f.got, p)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newIoT(latest LatestCache, live Broadcaster) (*IoTService, *fakeReadings) {
	store := &fakeReadings{}
	s := NewIoTService(store, latest, live, rand.New(rand.NewPCG(7, 9)), zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s, store
}

func TestHistoryRecorder(t *testing.T) {
	store := &fakeCalculations{}
	h := NewHistoryRecorder(store, zap.NewNop())

	h.Record(context.Background(), "ohms_law",
		map[string]float64{"voltage": 12, "resistance": 6},
		map[string]float64{"current": 2},
		[]string{"a", "b"})
	require.Len(t, store.rows, 1)
	assert.Equal(t, `{"resistance":6,"voltage":12}`, store.rows[0].InputData)
	assert.Equal(t, `{"current":2}`, store.rows[0].Result)
	assert.Equal(t, "a; b", store.rows[0].Warnings)

	list, err := h.List(context.Background(), "ohms_law", 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestHistoryRecorderSwallowsFailures(t *testing.T) {
	h := NewHistoryRecorder(&fakeCalculations{err: errStore}, zap.NewNop())
	assert.NotPanics(t, func() {
		h.Record(context.Background(), "ohms_law", nil, nil, nil)
		h.Record(context.Background(), "ohms_law", make(chan int), nil, nil)
	})
}

func TestProcessStoresCachesAndBroadcasts(t *testing.T) {
	latest := &fakeLatest{saved: map[string]iot.Processed{}}
	live := &fakeLive{}
	s, store := newIoT(latest, live)

	p, err := s.Process(context.Background(), "temp_sensor_1", 45, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.True(t, p.Alert)
	assert.Equal(t, "C", p.Unit)
	assert.Equal(t, fixedNow, p.Timestamp)
	require.NotNil(t, p.AlertMessage)
	assert.True(t, strings.HasPrefix(*p.AlertMessage, "HIGH ALERT"))

	require.Len(t, store.rows, 1)
	assert.True(t, store.rows[0].Alert)
	assert.Equal(t, p, latest.saved["temp_sensor_1"])
	require.Len(t, live.got, 1)
	assert.Equal(t, "temp_sensor_1", live.got[0].SensorID)
}

func TestProcessToleratesCacheFailure(t *testing.T) {
	s, store := newIoT(&fakeLatest{err: errStore}, nil)
	_, err := s.Process(context.Background(), "custom", 3, "")
	require.NoError(t, err)
	assert.Len(t, store.rows, 1)
	assert.Equal(t, "units", store.rows[0].Unit)
}

func TestProcessRejectsBadInput(t *testing.T) {
	s, _ := newIoT(nil, nil)
	_, err := s.Process(context.Background(), "  ", 1, "")
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestSimulateBatch(t *testing.T) {
	s, store := newIoT(nil, nil)
	out, err := s.SimulateBatch(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, out, 2*len(iot.DeviceIDs))
	assert.Len(t, store.rows, 2*len(iot.DeviceIDs))
	assert.Equal(t, iot.DeviceIDs[0], out[0].SensorID)

	_, err = s.SimulateBatch(context.Background(), MaxBatchSize+1)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	p, err := s.Simulate(context.Background(), "power_meter_1")
	require.NoError(t, err)
	assert.Equal(t, "power", p.SensorType)
}

func TestDeviceStatus(t *testing.T) {
	latest := &fakeLatest{saved: map[string]iot.Processed{}}
	s, store := newIoT(latest, nil)
	ctx := context.Background()

	_, err := s.Process(ctx, "temp_sensor_1", 22, "")
	require.NoError(t, err)
	require.NoError(t, store.Create(ctx, &models.IoTReading{Sensor: "power_meter_1", Value: 3000, Unit: "W", CreatedAt: fixedNow}))

	status, err := s.DeviceStatus(ctx)
	require.NoError(t, err)
	require.Len(t, status, len(iot.DeviceIDs))

	byID := map[string]DeviceStatus{}
	for _, d := range status {
		byID[d.DeviceID] = d
	}
	assert.Equal(t, DeviceOnline, byID["temp_sensor_1"].Status)
	assert.Equal(t, "Room 1", byID["temp_sensor_1"].Location)
	assert.Equal(t, DeviceOnline, byID["power_meter_1"].Status)
	assert.Equal(t, 3000.0, byID["power_meter_1"].LastReading.Value)
	assert.Equal(t, DeviceNoData, byID["humidity_sensor_1"].Status)
	assert.Nil(t, byID["humidity_sensor_1"].LastReading)
}

func TestAlertsAndStatistics(t *testing.T) {
	s, store := newIoT(nil, nil)
	ctx := context.Background()
	for i, v := range []float64{50, 41, 22, 24} {
		_, err := s.Process(ctx, "temp_sensor_1", v, "")
		require.NoError(t, err)
		store.rows[i].CreatedAt = fixedNow.Add(-time.Duration(i) * time.Hour)
	}

	alerts, err := s.Alerts(ctx, "")
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, 41.0, alerts[0].Value)
	assert.Equal(t, "medium", alerts[0].Severity)
	assert.Equal(t, "high", alerts[1].Severity)

	stats, err := s.Statistics(ctx, "temp_sensor_1", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.NumReadings)
	assert.Equal(t, 2, stats.PeriodHours)
	assert.Equal(t, 50.0, stats.Max)

	_, err = s.Statistics(ctx, "temp_sensor_2", 0)
	assert.ErrorIs(t, err, iot.ErrNoData)
	_, err = s.Statistics(ctx, "temp_sensor_1", -1)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
	_, err = s.Statistics(ctx, "", 1)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	exported, err := s.Export(ctx, "temp_sensor_1")
	require.NoError(t, err)
	assert.Len(t, exported, 4)
}

type fakeEnergy struct {
	rows []models.EnergyRecord
	err  error
}

func (f *fakeEnergy) Create(_ context.Context, e *models.EnergyRecord) error {
	if f.err != nil {
		return f.err
	}
	f.rows = append(f.rows, *e)
	return nil
}

func (f *fakeEnergy) List(context.Context, int) ([]models.EnergyRecord, error) {
	return f.rows, nil
}

func TestEnergyAnalyze(t *testing.T) {
	store := &fakeEnergy{}
	s := NewEnergyService(store, zap.NewNop())

	rep, err := s.Analyze(context.Background(), strings.NewReader("time,power\n0,100\n1,300\n"), "meter.csv", 0.2)
	require.NoError(t, err)
	assert.Equal(t, 300.0, rep.Result.PeakLoadW)
	assert.NotNil(t, rep.Warnings)
	assert.NotEmpty(t, rep.Recommendations)

	require.Len(t, store.rows, 1)
	assert.Equal(t, "meter.csv", store.rows[0].Filename)
	assert.Equal(t, rep.Result.LoadFactor, store.rows[0].Efficiency)

	failing := NewEnergyService(&fakeEnergy{err: errStore}, zap.NewNop())
	_, err = failing.Analyze(context.Background(), strings.NewReader("power\n5\n"), "x.csv", 0.1)
	assert.NoError(t, err)

	_, err = s.Analyze(context.Background(), strings.NewReader("volts\n5\n"), "x.csv", 0.1)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

type fakeLabReports struct {
	rows []models.LabReport
}

func (f *fakeLabReports) Create(_ context.Context, r *models.LabReport) error {
	f.rows = append(f.rows, *r)
	return nil
}

func (f *fakeLabReports) List(context.Context, int) ([]models.LabReport, error) {
	return f.rows, nil
}

func TestReportService(t *testing.T) {
	gen, err := report.NewGenerator(t.TempDir())
	require.NoError(t, err)
	store := &fakeLabReports{}
	s := NewReportService(gen, store, zap.NewNop())
	ctx := context.Background()

	kwh := 10.0
	solar, err := s.Solar(ctx, report.SolarData{DailyEnergyKWh: &kwh})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(solar.Filepath, "solar_report_"))
	assert.Equal(t, "/download/"+solar.Filepath, solar.DownloadURL)
	_, err = gen.Path(solar.Filepath)
	assert.NoError(t, err)

	doc := map[string]interface{}{
		"experiment": "RC Transient Response",
		"parameters": map[string]interface{}{"resistance_ohm": 1000.0},
		"conclusion": "done",
	}
	labRep, err := s.Lab(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "Lab report generated successfully", labRep.Message)

	list, err := s.Reports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "RC Transient Response", list[0].Experiment)
	assert.Equal(t, `{"Resistance Ohm":"1000"}`, list[0].Result)
	assert.Equal(t, labRep.Filepath, list[0].PDFPath)
}

type failingRenderer struct{}

func (failingRenderer) Solar(report.SolarData) (string, error) { return "", errStore }
func (failingRenderer) Lab(lab.Summary) (string, error)        { return "", errStore }

func TestReportServiceRenderFailure(t *testing.T) {
	s := NewReportService(failingRenderer{}, &fakeLabReports{}, zap.NewNop())
	_, err := s.Solar(context.Background(), report.SolarData{})
	assert.ErrorIs(t, err, errStore)
	_, err = s.Lab(context.Background(), map[string]interface{}{})
	assert.ErrorIs(t, err, errStore)
}
