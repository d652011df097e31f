package energy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrohub/backend/services/electrohub/internal/validate"
)

const sampleLog = `timestamp,Power (W),site
2024-01-01 00:00,1000,a
2024-01-01 06:00,2000,a
2024-01-01 12:00,,a
2024-01-01 18:00,3000,a
2024-01-01 23:00,2000,a
`

func TestAnalyzeCSV(t *testing.T) {
	res, warnings, err := AnalyzeCSV(strings.NewReader(sampleLog), "/tmp/uploads/meter.csv", DefaultCostPerKWh)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "meter.csv", res.Filename)
	assert.Equal(t, "timestamp", res.TimeColumn)
	assert.Equal(t, "Power (W)", res.PowerColumn)
	assert.Equal(t, 4, res.TotalReadings)
	assert.Equal(t, 48.0, res.TotalEnergyKWh)
	assert.Equal(t, 3000.0, res.PeakLoadW)
	assert.Equal(t, 2000.0, res.AverageLoadW)
	assert.Equal(t, 1000.0, res.MinLoadW)
	assert.Equal(t, 0.667, res.LoadFactor)
	assert.Equal(t, 5.76, res.EstimatedCost)
}

func TestAnalyzeCSVPrefersExactColumn(t *testing.T) {
	res, warnings, err := AnalyzeCSV(strings.NewReader("kw_rating,power\n5,10\n5,0\n5,0\n5,0\n5,0\n5,0\n"), "x.csv", 0.2)
	require.NoError(t, err)
	assert.Equal(t, "power", res.PowerColumn)
	assert.Equal(t, 10.0, res.PeakLoadW)
	assert.Len(t, warnings, 2)
}

func TestAnalyzeCSVRejects(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"no power":    "time,voltage\n1,2\n",
		"no readings": "time,power\n1,\n",
		"not numeric": "time,power\n1,abc\n",
		"infinite":    "power\n100\ninf\n",
		"-infinity":   "power\n100\n-Infinity\n",
		"overflow":    "power\n1e308\n1e308\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := AnalyzeCSV(strings.NewReader(body), "f.csv", DefaultCostPerKWh)
			assert.ErrorIs(t, err, validate.ErrInvalidInput)
		})
	}
}

func TestAnalyzeCSVInfiniteCellNamesLine(t *testing.T) {
	_, _, err := AnalyzeCSV(strings.NewReader("power\n100\ninf\n"), "f.csv", DefaultCostPerKWh)
	require.ErrorIs(t, err, validate.ErrInvalidInput)
	assert.Contains(t, err.Error(), "line 3")
}

func TestGenerateRecommendations(t *testing.T) {
	recs := GenerateRecommendations(Analysis{LoadFactor: 0.2, PeakLoadW: 500, AverageLoadW: 100, TotalEnergyKWh: 2000})
	require.Len(t, recs, 4)
	assert.Equal(t, "Load Management", recs[0].Category)
	assert.Equal(t, "Monitoring", recs[3].Category)

	recs = GenerateRecommendations(Analysis{LoadFactor: 0.9, PeakLoadW: 110, AverageLoadW: 100})
	assert.Len(t, recs, 1)
}

func TestDetectPeaks(t *testing.T) {
	data := []float64{0, 1, 10, 1, 0, 0, 0, 0, 0, 0, 9, 0, 8, 0, 0, 0}
	res, err := DetectPeaks(data, DefaultThresholdFactor)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 10}, res.PeakIndices)
	assert.Equal(t, []float64{10, 9}, res.PeakValues)
	assert.Equal(t, 10.0, res.MaxPeak)
	assert.InDelta(t, 29.0/16*1.5, res.ThresholdUsed, 1e-12)
}

func TestDetectPeaksPlateau(t *testing.T) {
	assert.Equal(t, []int{2}, localMaxima([]float64{0, 5, 5, 5, 0}))
	assert.Empty(t, localMaxima([]float64{0, 5, 5, 6}))
	assert.Empty(t, localMaxima([]float64{9, 1, 0}))

	res, err := DetectPeaks([]float64{1, 1, 1}, 1.5)
	require.NoError(t, err)
	assert.Zero(t, res.NumPeaks)
	assert.NotNil(t, res.PeakIndices)

	_, err = DetectPeaks(nil, 1.5)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestCalculateEfficiency(t *testing.T) {
	res, err := CalculateEfficiency(EfficiencyInput{InputEnergy: 120, OutputEnergy: 100, StandbyPower: 5, OperatingHours: DefaultOperatingHours})
	require.NoError(t, err)
	assert.Equal(t, 83.33, res.EfficiencyPercent)
	assert.Equal(t, "Good", res.Rating)
	assert.InDelta(t, 0.12, res.StandbyLossKWh, 1e-12)
	assert.InDelta(t, 20.12, res.TotalLossesKWh, 1e-12)
}

func TestCostEstimation(t *testing.T) {
	in := DefaultCostInput()
	in.EnergyKWh = 100
	res, err := CostEstimation(in)
	require.NoError(t, err)
	assert.Equal(t, 12.0, res.TotalCost)
	assert.Contains(t, res.CostBreakdown, "all_hours")

	in.RateStructure = RateTOU
	res, err = CostEstimation(in)
	require.NoError(t, err)
	assert.Equal(t, 12.8, res.TotalCost)
	assert.InDelta(t, 40, res.CostBreakdown["peak"].KWh, 1e-12)
	assert.Equal(t, 0.128, res.CostPerKWhEffective)

	in.RateStructure = "tiered"
	res, err = CostEstimation(in)
	require.NoError(t, err)
	assert.Contains(t, res.CostBreakdown, "default")

	in.EnergyKWh = 0
	res, err = CostEstimation(in)
	require.NoError(t, err)
	assert.Zero(t, res.CostPerKWhEffective)
}

func TestComparativeAnalysis(t *testing.T) {
	res, err := ComparativeAnalysis([]Dataset{
		{Name: "Office", PowerData: []float64{100, 200, 300}},
		{PowerData: []float64{150, 150, 150}},
		{Name: "Lab", TotalEnergy: 0.1, PeakLoad: 400, AvgLoad: 50, LoadFactor: 0.125},
	})
	require.NoError(t, err)
	require.Len(t, res.ComparisonData, 3)
	assert.Equal(t, "Dataset 2", res.ComparisonData[1].Name)
	assert.Equal(t, 0.6, res.ComparisonData[0].TotalEnergyKWh)
	assert.Equal(t, 0.667, res.ComparisonData[0].LoadFactor)
	assert.Equal(t, map[string]string{
		"best_load_factor":   "Dataset 2",
		"lowest_peak_demand": "Dataset 2",
		"lowest_consumption": "Lab",
	}, res.Conclusions)

	empty, err := ComparativeAnalysis(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Conclusions)
}
