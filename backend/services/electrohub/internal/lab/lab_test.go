package lab

import (
	"encoding/json"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrohub/backend/services/electrohub/internal/validate"
)

func TestRCTransient(t *testing.T) {
	res, err := Run(RCTransient, Params{"resistance": 1000, "capacitance": 1e-6, "voltage": 5})
	require.NoError(t, err)
	rc := res.(*RCResult)

	assert.InDelta(t, 0.001, rc.TimeConstantS, 1e-12)
	require.Len(t, rc.Charging.Time, 1000)
	assert.Equal(t, 0.0, rc.Charging.Voltage[0])
	assert.InDelta(t, 4.96631, rc.Charging.Voltage[999], 1e-5)
	assert.InDelta(t, -0.005, rc.Discharging.Current[0], 1e-12)
	assert.InDelta(t, 0.005, rc.KeyTimes.Time99Percent, 1e-12)
	assert.Equal(t, "The RC circuit has a time constant of 0.001000 seconds. "+
		"The capacitor reaches 63.2% charge in 0.001000s, 95% in 0.003000s, and 99.3% in 0.005000s.", rc.Conclusion)
}

func TestRLCResonance(t *testing.T) {
	res, err := Run(RLCResonance, Params{"resistance": 10, "inductance": 0.01, "capacitance": 1e-6})
	require.NoError(t, err)
	rlc := res.(*RLCResult)

	assert.InDelta(t, 1591.549, rlc.ResonantFrequencyHz, 1e-3)
	assert.InDelta(t, 10, rlc.QFactor, 1e-9)
	assert.Equal(t, Underdamped, rlc.ResponseType)
	require.Len(t, rlc.FrequencyResponse.Frequencies, 500)
	assert.InDelta(t, 10, rlc.FrequencyResponse.Frequencies[0], 1e-9)
	assert.InDelta(t, 1e5, rlc.FrequencyResponse.Frequencies[499], 1e-6)
	assert.Equal(t, "The RLC circuit resonates at 1591.55 Hz with a Q-factor of 10.00. "+
		"The -3dB bandwidth is 159.15 Hz. The circuit is underdamped.", rlc.Conclusion)

	res, err = Run(RLCResonance, Params{"resistance": 200, "inductance": 0.01, "capacitance": 1e-6, "points": 10})
	require.NoError(t, err)
	assert.Equal(t, CriticallyDamped, res.(*RLCResult).ResponseType)
}

func TestDiodeCharacteristics(t *testing.T) {
	res, err := Run(DiodeCharacteristics, nil)
	require.NoError(t, err)
	d := res.(*DiodeResult)

	assert.InDelta(t, 0.025852, d.ThermalVoltageV, 1e-6)
	assert.InDelta(t, 0.53869, d.ForwardVoltageV, 1e-4)
	assert.Len(t, d.ForwardCharacteristics.Current, 200)
	assert.Len(t, d.ReverseCharacteristics.Voltage, 100)
	assert.InDelta(t, -1e-12, d.ReverseCharacteristics.Current[0], 1e-15)
	assert.Equal(t, "The diode has a forward voltage of approximately 0.539V at 1mA. "+
		"At 300K, the thermal voltage is 25.85mV. The reverse leakage current is 1.00pA.", d.Conclusion)
}

func TestAmplifierGain(t *testing.T) {
	res, err := Run(AmplifierGain, Params{})
	require.NoError(t, err)
	a := res.(*AmplifierResult)

	assert.InDelta(t, 40, a.Parameters.DCGainDB, 1e-9)
	assert.InDelta(t, 1e8, a.GainBandwidthProduct, 1e-3)
	assert.InEpsilon(t, 1e6, a.MeasuredBandwidthHz, 0.03)
	assert.InDelta(t, -45, a.FrequencyResponse.Phases[356], 1)
	assert.Contains(t, a.Conclusion, "The amplifier has a DC gain of 100 (40.0dB)")
	assert.Contains(t, a.Conclusion, "The gain-bandwidth product is 100.00MHz.")
}

func TestRunRejectsBadInput(t *testing.T) {
	_, err := Run("tesla_coil", nil)
	assert.ErrorIs(t, err, ErrUnknownExperiment)

	_, err = Run(RCTransient, Params{"resistance": 1000, "voltage": 5})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
	assert.Contains(t, err.Error(), "capacitance")

	_, err = Run(RCTransient, Params{"resistance": 1000, "capacitance": 1e-6, "voltage": 5, "inductance": 1})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	_, err = Run(RLCResonance, Params{"resistance": 0, "inductance": 1, "capacitance": 1})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	_, err = Run(AmplifierGain, Params{"points": 2.5})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)

	_, err = Run(AmplifierGain, Params{"freq_start": 1e6, "freq_end": 10})
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestRunWithTolerance(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	nominal := Params{"resistance": 1000, "capacitance": 1e-6, "voltage": 0}

	res, err := RunWithTolerance(RCTransient, nominal, 5, rng)
	require.NoError(t, err)
	rc := res.(*RCResult)
	require.NotNil(t, rc.Tolerance)
	assert.Equal(t, 5.0, rc.Tolerance.Applied)
	assert.Equal(t, map[string]float64(nominal), rc.Tolerance.Nominal)
	assert.InEpsilon(t, 1000, rc.Tolerance.Actual["resistance"], 0.05)
	assert.InEpsilon(t, 1e-6, rc.Tolerance.Actual["capacitance"], 0.05)
	assert.Equal(t, 0.0, rc.Tolerance.Actual["voltage"])
	assert.Equal(t, rc.Tolerance.Actual["resistance"], rc.Parameters.ResistanceOhm)

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, 5.0, decoded["tolerance_applied"])
	assert.Equal(t, "RC Transient Response", decoded["experiment"])
	assert.Contains(t, decoded, "nominal_parameters")

	_, err = RunWithTolerance(RCTransient, nominal, 150, rng)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
	_, err = RunWithTolerance("nope", nominal, 5, rng)
	assert.ErrorIs(t, err, ErrUnknownExperiment)
}

func TestRunWithToleranceKeepsSweepSettings(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))

	res, err := RunWithTolerance(RLCResonance, Params{
		"resistance": 10, "inductance": 1e-3, "capacitance": 1e-6,
		"freq_start": 100, "freq_end": 1e5, "points": 500,
	}, 5, rng)
	require.NoError(t, err)
	rlc := res.(*RLCResult)
	assert.Len(t, rlc.FrequencyResponse.Frequencies, 500)
	assert.Equal(t, 500.0, rlc.Tolerance.Actual["points"])
	assert.Equal(t, 100.0, rlc.Tolerance.Actual["freq_start"])
	assert.Equal(t, 1e5, rlc.Tolerance.Actual["freq_end"])
	assert.InEpsilon(t, 10, rlc.Tolerance.Actual["resistance"], 0.05)

	res, err = RunWithTolerance(AmplifierGain, Params{
		"dc_gain": 100, "bandwidth": 1e6, "input_impedance": 1e4, "points": 200,
	}, 5, rng)
	require.NoError(t, err)
	amp := res.(*AmplifierResult)
	assert.Len(t, amp.FrequencyResponse.Frequencies, 200)
	assert.Equal(t, 200.0, amp.Tolerance.Actual["points"])
}

func TestPlainRunOmitsTolerance(t *testing.T) {
	res, err := Run(DiodeCharacteristics, nil)
	require.NoError(t, err)
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "tolerance_applied")
}

func TestTheory(t *testing.T) {
	e, err := Theory(RLCResonance)
	require.NoError(t, err)
	assert.Equal(t, "RLC Circuit Resonance", e.Name)
	assert.Len(t, ExperimentIDs, len(Experiments))

	_, err = Theory("nope")
	assert.ErrorIs(t, err, ErrUnknownExperiment)
}

func TestSummary(t *testing.T) {
	res, err := Run(RCTransient, Params{"resistance": 1000, "capacitance": 1e-6, "voltage": 5})
	require.NoError(t, err)
	s := res.Summary()
	assert.Equal(t, "RC Transient Response", s.Experiment)
	assert.Equal(t, Row{Name: "Resistance Ohm", Value: "1000"}, s.Parameters[0])
	assert.Equal(t, Row{Name: "Time Constant S", Value: "0.001"}, s.Metrics[0])
}

func TestSummarizeJSON(t *testing.T) {
	res, err := Run(RLCResonance, Params{"resistance": 10, "inductance": 0.01, "capacitance": 1e-6, "points": 5})
	require.NoError(t, err)
	raw, err := json.Marshal(res)
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &doc))

	s := SummarizeJSON(doc)
	assert.Equal(t, "RLC Resonance", s.Experiment)
	assert.Equal(t, res.Summary().Conclusion, s.Conclusion)
	assert.Equal(t, []Row{
		{Name: "Capacitance F", Value: "1e-06"},
		{Name: "Inductance H", Value: "0.01"},
		{Name: "Resistance Ohm", Value: "10"},
	}, s.Parameters)
	assert.Equal(t, []Row{
		{Name: "Bandwidth Hz", Value: "159.155"},
		{Name: "Damping Factor", Value: "0.05"},
		{Name: "Q Factor", Value: "10"},
		{Name: "Resonant Frequency Hz", Value: "1591.55"},
		{Name: "Response Type", Value: Underdamped},
	}, s.Metrics)

	assert.Empty(t, SummarizeJSON(map[string]interface{}{}).Experiment)
}
