package signalproc

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electrohub/backend/services/electrohub/internal/validate"
)

func sine(freq, fs float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

func TestGenerateSine(t *testing.T) {
	res, err := GenerateSignal(DefaultGenerateInput())
	require.NoError(t, err)

	require.Len(t, res.Time, 100)
	assert.Equal(t, 0.0, res.Time[0])
	assert.InDelta(t, 0.01, res.Time[99], 1e-15)
	assert.Equal(t, Sine, res.SignalType)
	assert.InDelta(t, 1/math.Sqrt2, res.RMS, 0.02)
	assert.InDelta(t, 2, res.PeakToPeak, 0.15)
}

func TestGenerateWaveShapes(t *testing.T) {
	assert.Equal(t, 1.0, square(0.1, 0.5))
	assert.Equal(t, -1.0, square(math.Pi+0.1, 0.5))
	assert.Equal(t, 1.0, square(-2*math.Pi+0.1, 0.5))

	assert.InDelta(t, -1, sawtooth(0, 1), 1e-12)
	assert.InDelta(t, 0, sawtooth(math.Pi, 1), 1e-12)

	assert.InDelta(t, -1, sawtooth(0, 0.5), 1e-12)
	assert.InDelta(t, 1, sawtooth(math.Pi, 0.5), 1e-12)
	assert.InDelta(t, 0, sawtooth(1.5*math.Pi, 0.5), 1e-12)
}

func TestGenerateSquareWithOffset(t *testing.T) {
	in := DefaultGenerateInput()
	in.SignalType = Square
	in.Amplitude = 2
	in.DCOffset = 1
	res, err := GenerateSignal(in)
	require.NoError(t, err)
	for _, v := range res.Signal {
		assert.True(t, v == 3 || v == -1, "unexpected level %v", v)
	}
}

func TestGenerateUnknownIsSilent(t *testing.T) {
	in := DefaultGenerateInput()
	in.SignalType = "chirp"
	res, err := GenerateSignal(in)
	require.NoError(t, err)
	assert.Equal(t, Unknown, res.SignalType)
	assert.Zero(t, res.RMS)
}

func TestGenerateRejectsHugeBuffers(t *testing.T) {
	in := DefaultGenerateInput()
	in.Duration = 100
	_, err := GenerateSignal(in)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestComputeFFTDominant(t *testing.T) {
	res, err := ComputeFFT(sine(250, 2000, 400), 2000)
	require.NoError(t, err)
	assert.Len(t, res.Frequencies, 200)
	assert.InDelta(t, 250, res.DominantFrequency, 1e-9)
	assert.InDelta(t, 0.5, res.DominantMagnitude, 0.02)

	_, err = ComputeFFT([]float64{1, 2}, 100)
	assert.ErrorIs(t, err, validate.ErrInvalidInput)
}

func TestAddNoiseHitsTargetSNR(t *testing.T) {
	x := sine(50, 1000, 4000)
	rng := rand.New(rand.NewPCG(1, 2))

	for _, kind := range []string{NoiseGaussian, NoiseUniform, NoisePink} {
		t.Run(kind, func(t *testing.T) {
			res, err := AddNoise(x, kind, 20, rng)
			require.NoError(t, err)
			require.NotNil(t, res.ActualSNRDB)
			assert.InDelta(t, 20, *res.ActualSNRDB, 1)
			assert.Len(t, res.NoisySignal, len(x))
		})
	}

	res, err := AddNoise(x, "brown", 20, rng)
	require.NoError(t, err)
	assert.Nil(t, res.ActualSNRDB)
	assert.Zero(t, res.NoiseRMS)
}

func TestBandwidthAnalysis(t *testing.T) {
	res, err := BandwidthAnalysis(sine(100, 1000, 1000), 1000, -3)
	require.NoError(t, err)
	assert.InDelta(t, 100, res.CenterFrequency, 1.5)
	assert.LessOrEqual(t, res.Bandwidth, 3.0)
	assert.Equal(t, -3.0, res.ThresholdDB)
}

func TestCutoffJSON(t *testing.T) {
	var in FilterInput
	require.NoError(t, json.Unmarshal([]byte(`{"cutoff_freq": 300}`), &in))
	assert.Equal(t, Cutoff{300}, in.CutoffFreq)

	require.NoError(t, json.Unmarshal([]byte(`{"cutoff_freq": [300, 3000]}`), &in))
	assert.Equal(t, Cutoff{300, 3000}, in.CutoffFreq)

	out, err := json.Marshal(Cutoff{300})
	require.NoError(t, err)
	assert.JSONEq(t, `300`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"cutoff_freq": "x"}`), &in))
}

func TestFilterSignalLowpass(t *testing.T) {
	low := sine(10, 1000, 1000)
	high := sine(200, 1000, 1000)
	mixed := make([]float64, len(low))
	for i := range mixed {
		mixed[i] = low[i] + high[i]
	}

	res, err := FilterSignal(FilterInput{
		SignalData: mixed, SampleRate: 1000, FilterType: "lowpass",
		CutoffFreq: Cutoff{50}, Order: DefaultFilterOrder,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1/math.Sqrt2, res.FilteredRMS, 0.02)
	assert.InDelta(t, 1, res.OriginalRMS, 0.02)
}

func TestFilterSignalRejects(t *testing.T) {
	x := sine(10, 1000, 200)
	cases := map[string]FilterInput{
		"above nyquist": {SignalData: x, SampleRate: 1000, FilterType: "lowpass", CutoffFreq: Cutoff{600}, Order: 4},
		"unknown type":  {SignalData: x, SampleRate: 1000, FilterType: "comb", CutoffFreq: Cutoff{100}, Order: 4},
		"band single":   {SignalData: x, SampleRate: 1000, FilterType: "bandpass", CutoffFreq: Cutoff{100}, Order: 4},
		"bad order":     {SignalData: x, SampleRate: 1000, FilterType: "lowpass", CutoffFreq: Cutoff{100}, Order: 0},
		"too short":     {SignalData: x[:20], SampleRate: 1000, FilterType: "bandpass", CutoffFreq: Cutoff{100, 200}, Order: 4},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FilterSignal(in)
			assert.ErrorIs(t, err, validate.ErrInvalidInput)
		})
	}
}

func TestSignalStatistics(t *testing.T) {
	res, err := SignalStatistics([]float64{1, -1, 1, -1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Mean)
	assert.Equal(t, 1.0, res.Std)
	assert.Equal(t, 1.0, res.RMS)
	assert.Equal(t, 1.0, res.CrestFactor)
	assert.Equal(t, 2.0, res.PeakToPeak)

	res, err = SignalStatistics([]float64{0, 0})
	require.NoError(t, err)
	assert.Zero(t, res.CrestFactor)

	_, err = SignalStatistics(nil)
	assert.Error(t, err)
}
