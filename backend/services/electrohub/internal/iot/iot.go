// Package iot evaluates sensor readings against alert thresholds, simulates
// a small fleet of devices and summarizes stored readings.
package iot

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/stat"

	"electrohub/backend/services/electrohub/internal/validate"
)

// ErrNoData is returned when statistics are requested for a sensor without readings.
var ErrNoData = errors.New("no data available")

// GenericType is used for sensors that are neither simulated nor typed by the caller.
const GenericType = "generic"

// Threshold bounds a sensor type and sets its alert levels.
type Threshold struct {
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
	Unit      string  `json:"unit"`
	AlertHigh float64 `json:"alert_high"`
	AlertLow  float64 `json:"alert_low"`
}

// Thresholds is keyed by sensor type.
var Thresholds = map[string]Threshold{
	"temperature": {Min: -10, Max: 50, Unit: "C", AlertHigh: 40, AlertLow: 0},
	"humidity":    {Min: 0, Max: 100, Unit: "%", AlertHigh: 80, AlertLow: 20},
	"voltage":     {Min: 0, Max: 500, Unit: "V", AlertHigh: 250, AlertLow: 100},
	"current":     {Min: 0, Max: 100, Unit: "A", AlertHigh: 50, AlertLow: 0},
	"power":       {Min: 0, Max: 10000, Unit: "W", AlertHigh: 5000, AlertLow: 0},
	"pressure":    {Min: 800, Max: 1200, Unit: "hPa", AlertHigh: 1050, AlertLow: 950},
	"light":       {Min: 0, Max: 100000, Unit: "lux", AlertHigh: 80000, AlertLow: 100},
	"distance":    {Min: 0, Max: 500, Unit: "cm", AlertHigh: 400, AlertLow: 5},
}

// Device is a simulated sensor.
type Device struct {
	Type      string  `json:"type"`
	Location  string  `json:"location"`
	BaseValue float64 `json:"base_value"`
}

// Devices is the simulated fleet.
var Devices = map[string]Device{
	"temp_sensor_1":     {Type: "temperature", Location: "Room 1", BaseValue: 22},
	"temp_sensor_2":     {Type: "temperature", Location: "Room 2", BaseValue: 24},
	"humidity_sensor_1": {Type: "humidity", Location: "Room 1", BaseValue: 45},
	"voltage_monitor_1": {Type: "voltage", Location: "Main Panel", BaseValue: 220},
	"current_monitor_1": {Type: "current", Location: "Main Panel", BaseValue: 15},
	"power_meter_1":     {Type: "power", Location: "Building", BaseValue: 3000},
}

// DeviceIDs lists Devices in a stable order.
var DeviceIDs = []string{
	"temp_sensor_1", "temp_sensor_2", "humidity_sensor_1",
	"voltage_monitor_1", "current_monitor_1", "power_meter_1",
}

// Evaluation is the outcome of checking one reading.
type Evaluation struct {
	SensorType   string
	Unit         string
	Alert        bool
	AlertMessage string
}

// StatusRecorded marks a reading that was stored.
const StatusRecorded = "recorded"

// Processed is the outcome of ingesting one reading. It is what clients,
// the latest-reading cache and live subscribers see.
type Processed struct {
	ID           int64     `json:"id,omitempty"`
	SensorID     string    `json:"sensor_id"`
	Value        float64   `json:"value"`
	Unit         string    `json:"unit"`
	SensorType   string    `json:"sensor_type"`
	Timestamp    time.Time `json:"timestamp"`
	Alert        bool      `json:"alert"`
	AlertMessage *string   `json:"alert_message"`
	Status       string    `json:"status"`
}

// Process evaluates a reading taken at ts.
func Process(sensorID string, value float64, sensorType string, ts time.Time) Processed {
	ev := Evaluate(sensorID, value, sensorType)
	p := Processed{
		SensorID:   sensorID,
		Value:      value,
		Unit:       ev.Unit,
		SensorType: ev.SensorType,
		Timestamp:  ts,
		Alert:      ev.Alert,
		Status:     StatusRecorded,
	}
	if ev.Alert {
		msg := ev.AlertMessage
		p.AlertMessage = &msg
	}
	return p
}

// ResolveType returns the explicit type, the simulated device's type, or GenericType.
func ResolveType(sensorID, sensorType string) string {
	if sensorType != "" {
		return sensorType
	}
	if d, ok := Devices[sensorID]; ok {
		return d.Type
	}
	return GenericType
}

// Evaluate checks value against its type's alert levels. Both levels are inclusive.
// Unknown types carry the unit "units" and never alert.
func Evaluate(sensorID string, value float64, sensorType string) Evaluation {
	ev := Evaluation{SensorType: ResolveType(sensorID, sensorType), Unit: "units"}
	th, ok := Thresholds[ev.SensorType]
	if !ok {
		return ev
	}
	ev.Unit = th.Unit
	switch {
	case value >= th.AlertHigh:
		ev.Alert = true
		ev.AlertMessage = fmt.Sprintf("HIGH ALERT: %s value %s exceeds threshold %s", sensorID, num(value), num(th.AlertHigh))
	case value <= th.AlertLow:
		ev.Alert = true
		ev.AlertMessage = fmt.Sprintf("LOW ALERT: %s value %s below threshold %s", sensorID, num(value), num(th.AlertLow))
	}
	return ev
}

// Severity grades a stored alert: "high" when it is more than 20 % above the
// device type's high level, otherwise "medium".
func Severity(sensorID string, value float64) string {
	d, ok := Devices[sensorID]
	if !ok {
		return "medium"
	}
	th, ok := Thresholds[d.Type]
	if !ok {
		return "medium"
	}
	if math.Abs(value) > th.AlertHigh*1.2 {
		return "high"
	}
	return "medium"
}

// Simulator draws readings around each device's base value.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator returns a simulator drawing from rng.
func NewSimulator(rng *rand.Rand) *Simulator {
	return &Simulator{rng: rng}
}

// SimulatedReading is a generated value before processing.
type SimulatedReading struct {
	SensorID   string
	SensorType string
	Value      float64
}

// Next draws a reading within ±10 % of the base value. About one reading in
// twenty is pushed just past an alert level. An unknown or empty sensorID
// picks a random device.
func (s *Simulator) Next(sensorID string) SimulatedReading {
	d, ok := Devices[sensorID]
	if !ok {
		sensorID = DeviceIDs[s.rng.IntN(len(DeviceIDs))]
		d = Devices[sensorID]
	}
	variation := d.BaseValue * 0.1
	value := d.BaseValue + (2*s.rng.Float64()-1)*variation

	if s.rng.Float64() < 0.05 {
		th := Thresholds[d.Type]
		if s.rng.Float64() < 0.5 {
			value = th.AlertHigh * 1.1
		} else {
			value = th.AlertLow * 0.9
		}
	}
	return SimulatedReading{SensorID: sensorID, SensorType: d.Type, Value: validate.Round2(value)}
}

// Stats summarizes readings of one sensor. Std is the population deviation.
type Stats struct {
	SensorID    string  `json:"sensor_id"`
	PeriodHours int     `json:"period_hours"`
	NumReadings int     `json:"num_readings"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Median      float64 `json:"median"`
}

// Statistics computes Stats over values. It returns ErrNoData when values is empty.
func Statistics(sensorID string, hours int, values []float64) (Stats, error) {
	if len(values) == 0 {
		return Stats{}, ErrNoData
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mean, std := stat.PopMeanStdDev(sorted, nil)

	return Stats{
		SensorID:    sensorID,
		PeriodHours: hours,
		NumReadings: len(values),
		Min:         sorted[0],
		Max:         sorted[len(sorted)-1],
		Mean:        mean,
		Std:         std,
		Median:      median(sorted),
	}, nil
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
