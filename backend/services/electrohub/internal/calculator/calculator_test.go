package calculator

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrohub/backend/services/electrohub/internal/validate"
)

func f(v float64) *float64 { return &v }

func TestConvertUnit(t *testing.T) {
	got, err := ConvertUnit(4.7, "k", "")
	require.NoError(t, err)
	assert.InDelta(t, 4700, got, 1e-9)

	got, err = ConvertUnit(100, "n", "u")
	require.NoError(t, err)
	assert.InDelta(t, 0.1, got, 1e-12)

	_, err = ConvertUnit(1, "x", "")
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestOhmsLaw(t *testing.T) {
	t.Run("voltage and current", func(t *testing.T) {
		res, warnings, err := OhmsLaw(OhmsLawInput{Voltage: f(12), Current: f(2)})
		require.NoError(t, err)
		assert.InDelta(t, 6, *res.Resistance, 1e-12)
		assert.InDelta(t, 24, *res.Power, 1e-12)
		assert.Nil(t, res.Voltage)
		assert.Empty(t, warnings)
	})

	t.Run("voltage and resistance", func(t *testing.T) {
		res, _, err := OhmsLaw(OhmsLawInput{Voltage: f(10), Resistance: f(5)})
		require.NoError(t, err)
		assert.InDelta(t, 2, *res.Current, 1e-12)
		assert.InDelta(t, 20, *res.Power, 1e-12)
	})

	t.Run("current and resistance warns", func(t *testing.T) {
		res, warnings, err := OhmsLaw(OhmsLawInput{Current: f(20), Resistance: f(1)})
		require.NoError(t, err)
		assert.InDelta(t, 20, *res.Voltage, 1e-12)
		assert.InDelta(t, 400, *res.Power, 1e-12)
		assert.Equal(t, []string{
			"High power dissipation! Consider heat management.",
			"High current! Ensure proper wire gauge.",
		}, warnings)
	})

	t.Run("one value", func(t *testing.T) {
		res, warnings, err := OhmsLaw(OhmsLawInput{Voltage: f(5)})
		require.NoError(t, err)
		assert.Equal(t, OhmsLawResult{}, res)
		assert.Equal(t, []string{"Please provide at least two values"}, warnings)
	})

	t.Run("zero divisor", func(t *testing.T) {
		_, _, err := OhmsLaw(OhmsLawInput{Voltage: f(5), Resistance: f(0)})
		assert.ErrorIs(t, err, validate.ErrInvalidInput)
	})
}

func TestRCCircuit(t *testing.T) {
	res, warnings, err := RCCircuit(1000, 1e-6, f(1000))
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, res.TimeConstant, 1e-15)
	assert.InDelta(t, 159.1549, res.CutoffFrequency, 1e-3)
	assert.InDelta(t, 5e-3, res.ChargeTime99, 1e-15)
	assert.InDelta(t, 159.1549, *res.CapacitiveReactance, 1e-3)
	assert.InDelta(t, 1012.5859, *res.Impedance, 1e-3)
	assert.InDelta(t, -9.0431, *res.PhaseAngle, 1e-3)
	assert.InDelta(t, 0.98757, *res.Gain, 1e-4)
	assert.Empty(t, warnings)

	res, warnings, err = RCCircuit(1e6, 10e-6, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Impedance)
	assert.Equal(t, []string{"Slow time constant - consider application requirements"}, warnings)

	_, _, err = RCCircuit(0, 1e-6, nil)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestRLCircuit(t *testing.T) {
	res, _, err := RLCircuit(100, 0.1, f(159.155))
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, res.TimeConstant, 1e-15)
	assert.InDelta(t, 159.155, res.CutoffFrequency, 1e-3)
	assert.InDelta(t, 100, *res.InductiveReactance, 1e-3)
	assert.InDelta(t, 45, *res.PhaseAngle, 1e-3)
	assert.InDelta(t, 1/math.Sqrt2, *res.Gain, 1e-5)
}

func TestRLCCircuit(t *testing.T) {
	res, warnings, err := RLCCircuit(10, 10e-3, 1e-6, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1591.549, res.ResonantFrequency, 1e-2)
	assert.InDelta(t, 10, res.QFactor, 1e-9)
	assert.InDelta(t, 159.1549, res.Bandwidth, 1e-3)
	assert.InDelta(t, 0.05, res.DampingFactor, 1e-12)
	assert.Equal(t, "Underdamped (oscillatory)", res.ResponseType)
	assert.Empty(t, warnings)

	res, warnings, err = RLCCircuit(1000, 10e-3, 1e-6, f(res.ResonantFrequency))
	require.NoError(t, err)
	assert.Equal(t, "Overdamped", res.ResponseType)
	assert.InDelta(t, 0, *res.NetReactance, 1e-9)
	assert.InDelta(t, 1000, *res.Impedance, 1e-9)
	assert.Equal(t, []string{"Low Q factor - heavily damped response"}, warnings)
}

func TestFilterDesign(t *testing.T) {
	res, _, err := FilterDesign(FilterInput{FilterType: "lowpass", CutoffFreq: 1000, Resistance: f(1000)})
	require.NoError(t, err)
	assert.Equal(t, "Low-pass RC filter", res.FilterType)
	assert.InDelta(t, 1.5915e-7, *res.Capacitance, 1e-10)
	assert.Nil(t, res.Resistance)

	res, _, err = FilterDesign(FilterInput{FilterType: "highpass", CutoffFreq: 1000, Capacitance: f(1e-6)})
	require.NoError(t, err)
	assert.Equal(t, "+20 dB/decade (below cutoff)", res.Rolloff)
	assert.InDelta(t, 159.155, *res.Resistance, 1e-3)

	_, _, err = FilterDesign(FilterInput{FilterType: "bandpass", CutoffFreq: 1000})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestAmplifierGain(t *testing.T) {
	res, warnings, err := AmplifierGain(AmplifierInput{InputVoltage: 0.1, OutputVoltage: f(1)})
	require.NoError(t, err)
	assert.InDelta(t, 10, *res.GainLinear, 1e-12)
	assert.InDelta(t, 20, *res.GainDB, 1e-12)
	assert.Empty(t, warnings)

	res, _, err = AmplifierGain(AmplifierInput{InputVoltage: 1, GainDB: f(6)})
	require.NoError(t, err)
	assert.InDelta(t, 1.9953, *res.OutputVoltage, 1e-4)

	res, warnings, err = AmplifierGain(AmplifierInput{InputVoltage: 1e-3, GainLinear: f(1e4)})
	require.NoError(t, err)
	assert.InDelta(t, 80, *res.GainDB, 1e-9)
	assert.Equal(t, []string{"Very high gain - consider stability and noise"}, warnings)

	res, _, err = AmplifierGain(AmplifierInput{InputVoltage: 1, GainLinear: f(0)})
	require.NoError(t, err)
	assert.Nil(t, res.GainDB)
}

func TestToleranceAnalysis(t *testing.T) {
	res, warnings, err := ToleranceAnalysis(1000, 5)
	require.NoError(t, err)
	assert.InDelta(t, 950, res.MinValue, 1e-9)
	assert.InDelta(t, 1050, res.MaxValue, 1e-9)
	assert.InDelta(t, 50, res.AbsoluteTolerance, 1e-9)
	assert.Empty(t, warnings)

	_, warnings, err = ToleranceAnalysis(1000, 25)
	require.NoError(t, err)
	assert.Len(t, warnings, 1)
}

func TestPowerRatingCheck(t *testing.T) {
	cases := []struct {
		name    string
		voltage float64
		current float64
		status  string
	}{
		{"ok", 5, 0.01, StatusOK},
		{"near limit", 5, 0.075, StatusWarning},
		{"over derated", 5, 0.09, StatusFail},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, _, err := PowerRatingCheck(tc.voltage, tc.current, 0.5, DefaultDerating)
			require.NoError(t, err)
			assert.Equal(t, tc.status, res.Status)
			assert.InDelta(t, 0.4, res.DeratedPower, 1e-12)
		})
	}
}

func TestVoltageDivider(t *testing.T) {
	res, _, err := VoltageDivider(12, 10000, 5000)
	require.NoError(t, err)
	assert.InDelta(t, 4, res.OutputVoltage, 1e-12)
	assert.InDelta(t, 8e-4, res.Current, 1e-15)
	assert.InDelta(t, 6.4e-3, res.PowerR1, 1e-12)
	assert.InDelta(t, 1.0/3, res.Ratio, 1e-12)

	_, _, err = VoltageDivider(12, 0, 0)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestSeriesAndParallel(t *testing.T) {
	s, err := SeriesResistance([]float64{100, 220, 330})
	require.NoError(t, err)
	assert.InDelta(t, 650, s.TotalResistance, 1e-9)
	assert.Equal(t, 3, s.Count)

	p, err := ParallelResistance([]float64{100, 100})
	require.NoError(t, err)
	assert.InDelta(t, 50, p.TotalResistance, 1e-9)

	p, err = ParallelResistance([]float64{100, 0})
	require.NoError(t, err)
	assert.Equal(t, "Short circuit detected", p.Warning)

	_, err = SeriesResistance(nil)
	assert.Error(t, err)
}

func TestWhatIf(t *testing.T) {
	points, err := WhatIf("voltage_divider", map[string]float64{"vin": 10, "r1": 1000, "r2": 1000}, "r2", []float64{1000, 3000})
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.InDelta(t, 5, points[0].Result.(VoltageDividerResult).OutputVoltage, 1e-12)
	assert.InDelta(t, 7.5, points[1].Result.(VoltageDividerResult).OutputVoltage, 1e-12)

	_, err = WhatIf("nope", nil, "x", []float64{1})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	_, err = WhatIf("rc_circuit", map[string]float64{"capacitance": 1e-6}, "resistance", []float64{0})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	assert.Contains(t, SweepableCalculators(), "ohms_law")
}
