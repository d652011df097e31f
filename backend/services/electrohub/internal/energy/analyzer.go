// Package energy analyses metered power logs: consumption totals, load
// factor, demand peaks, tariffs and dataset comparison.
package energy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"electrohub/backend/services/electrohub/internal/validate"
)

// DefaultCostPerKWh is applied when the upload form omits cost_per_kwh.
const DefaultCostPerKWh = 0.12

// MaxRows bounds the readings accepted from one upload.
const MaxRows = 200000

// ErrNoPowerColumn is returned when no header looks like a power reading.
var ErrNoPowerColumn = errors.New("power column not found")

// Analysis summarizes one uploaded log.
type Analysis struct {
	Filename       string  `json:"filename"`
	TimeColumn     string  `json:"time_column,omitempty"`
	PowerColumn    string  `json:"power_column"`
	TotalReadings  int     `json:"total_readings"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	PeakLoadW      float64 `json:"peak_load_w"`
	AverageLoadW   float64 `json:"average_load_w"`
	MinLoadW       float64 `json:"min_load_w"`
	LoadFactor     float64 `json:"load_factor"`
	EstimatedCost  float64 `json:"estimated_cost"`
	CostPerKWh     float64 `json:"cost_per_kwh"`
}

// AnalyzeCSV reads a power log with a header row. The power column is
// "power" or the first header mentioning power, watt or kw. Readings are
// assumed to span one day at a uniform interval. Empty and NaN cells are skipped.
func AnalyzeCSV(r io.Reader, filename string, costPerKWh float64) (Analysis, []string, error) {
	if err := validate.NonNegative("cost_per_kwh", costPerKWh); err != nil {
		return Analysis{}, nil, err
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Analysis{}, nil, validate.Errorf("file", "is empty")
		}
		return Analysis{}, nil, validate.Errorf("file", "Failed to read CSV file: %v", err)
	}

	timeCol := findColumn(header, "time", "time", "date")
	powerCol := findColumn(header, "power", "power", "watt", "kw")
	if powerCol < 0 {
		return Analysis{}, nil, &validate.Error{Field: "file", Message: "Could not identify power data column"}
	}

	power := make([]float64, 0, 256)
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Analysis{}, nil, validate.Errorf("file", "Failed to read CSV file: %v", err)
		}
		if powerCol >= len(rec) {
			continue
		}
		cell := strings.TrimSpace(rec[powerCol])
		if cell == "" || strings.EqualFold(cell, "nan") {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			return Analysis{}, nil, validate.Errorf("file", "line %d: %q is not a number", line, cell)
		}
		if len(power) == MaxRows {
			return Analysis{}, nil, validate.Errorf("file", "must contain at most %d readings", MaxRows)
		}
		power = append(power, v)
	}
	if len(power) == 0 {
		return Analysis{}, nil, validate.Errorf("file", "contains no power readings")
	}

	interval := 1.0
	if len(power) > 1 {
		interval = 24 / float64(len(power))
	}
	total := floats.Sum(power) * interval / 1000
	if math.IsInf(total, 0) || math.IsInf(total*costPerKWh, 0) {
		return Analysis{}, nil, validate.Errorf("file", "power readings are out of range")
	}
	peak, low := floats.Max(power), floats.Min(power)
	avg := stat.Mean(power, nil)
	loadFactor := 0.0
	if peak > 0 {
		loadFactor = avg / peak
	}

	res := Analysis{
		Filename:       filepath.Base(filename),
		PowerColumn:    header[powerCol],
		TotalReadings:  len(power),
		TotalEnergyKWh: validate.Round2(total),
		PeakLoadW:      validate.Round2(peak),
		AverageLoadW:   validate.Round2(avg),
		MinLoadW:       validate.Round2(low),
		LoadFactor:     validate.RoundN(loadFactor, 3),
		EstimatedCost:  validate.Round2(total * costPerKWh),
		CostPerKWh:     costPerKWh,
	}
	if timeCol >= 0 {
		res.TimeColumn = header[timeCol]
	}

	warnings := []string{}
	if loadFactor < 0.3 {
		warnings = append(warnings, "Low load factor - highly variable consumption")
	}
	if peak > avg*5 {
		warnings = append(warnings, "High peak-to-average ratio - consider demand management")
	}
	return res, warnings, nil
}

// findColumn prefers an exact header match, then the first header containing any hint.
func findColumn(header []string, exact string, hints ...string) int {
	for i, h := range header {
		if strings.TrimSpace(h) == exact {
			return i
		}
	}
	for i, h := range header {
		lower := strings.ToLower(h)
		for _, hint := range hints {
			if strings.Contains(lower, hint) {
				return i
			}
		}
	}
	return -1
}

// Recommendation is one energy-saving suggestion.
type Recommendation struct {
	Priority         string `json:"priority"`
	Category         string `json:"category"`
	Recommendation   string `json:"recommendation"`
	PotentialSavings string `json:"potential_savings"`
}

// GenerateRecommendations derives suggestions from an analysis. Monitoring is always suggested.
func GenerateRecommendations(a Analysis) []Recommendation {
	var out []Recommendation
	if a.LoadFactor < 0.4 {
		out = append(out, Recommendation{
			Priority:         "High",
			Category:         "Load Management",
			Recommendation:   "Improve load factor by distributing energy usage more evenly",
			PotentialSavings: "15-25%",
		})
	}
	if a.PeakLoadW > a.AverageLoadW*3 {
		out = append(out, Recommendation{
			Priority:         "Medium",
			Category:         "Peak Shaving",
			Recommendation:   "Consider peak shaving strategies or demand response",
			PotentialSavings: "10-20%",
		})
	}
	if a.TotalEnergyKWh > 1000 {
		out = append(out, Recommendation{
			Priority:         "Medium",
			Category:         "Energy Audit",
			Recommendation:   "Conduct detailed energy audit to identify inefficiencies",
			PotentialSavings: "5-15%",
		})
	}
	return append(out, Recommendation{
		Priority:         "Low",
		Category:         "Monitoring",
		Recommendation:   "Implement continuous energy monitoring for trend analysis",
		PotentialSavings: "Varies",
	})
}

func checkSeries(field string, data []float64) error {
	if len(data) == 0 {
		return validate.Errorf(field, "must not be empty")
	}
	if len(data) > MaxRows {
		return validate.Errorf(field, "must contain at most %d values", MaxRows)
	}
	for i, v := range data {
		if err := validate.Finite(fmt.Sprintf("%s[%d]", field, i), v); err != nil {
			return err
		}
	}
	return nil
}
