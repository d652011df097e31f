package signalproc

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"electrohub/backend/services/electrohub/internal/dsp"
	"electrohub/backend/services/electrohub/internal/validate"
)

// FFTResult is the one-sided spectrum with its dominant non-DC component.
type FFTResult struct {
	Frequencies       []float64 `json:"frequencies"`
	Magnitude         []float64 `json:"magnitude"`
	MagnitudeDB       []float64 `json:"magnitude_db"`
	Phase             []float64 `json:"phase"`
	DominantFrequency float64   `json:"dominant_frequency"`
	DominantMagnitude float64   `json:"dominant_magnitude"`
	DCComponent       float64   `json:"dc_component"`
}

// ComputeFFT returns the Hann-windowed spectrum of the samples.
func ComputeFFT(samples []float64, sampleRate float64) (FFTResult, error) {
	if err := validate.First(
		CheckSamples("signal_data", samples),
		validate.Positive("sample_rate", sampleRate),
	); err != nil {
		return FFTResult{}, err
	}

	s := dsp.OneSided(samples, sampleRate)
	dominant := floats.MaxIdx(s.Magnitude[1:]) + 1
	return FFTResult{
		Frequencies:       s.Frequencies,
		Magnitude:         s.Magnitude,
		MagnitudeDB:       s.MagnitudeDB,
		Phase:             s.Phase,
		DominantFrequency: s.Frequencies[dominant],
		DominantMagnitude: s.Magnitude[dominant],
		DCComponent:       s.Magnitude[0],
	}, nil
}

// Noise kinds accepted by AddNoise.
const (
	NoiseGaussian = "gaussian"
	NoiseUniform  = "uniform"
	NoisePink     = "pink"
)

// NoiseResult carries the corrupted signal and the achieved SNR.
// ActualSNRDB is null when the noise is silent or the signal carries no power.
type NoiseResult struct {
	NoisySignal []float64 `json:"noisy_signal"`
	Noise       []float64 `json:"noise"`
	NoiseType   string    `json:"noise_type"`
	TargetSNRDB float64   `json:"target_snr_db"`
	ActualSNRDB *float64  `json:"actual_snr_db"`
	NoiseRMS    float64   `json:"noise_rms"`
}

// AddNoise adds noise scaled so its power sits snrDB below the signal power.
// Unrecognized noise types add nothing.
func AddNoise(samples []float64, noiseType string, snrDB float64, rng *rand.Rand) (NoiseResult, error) {
	if err := validate.First(
		CheckSamples("signal_data", samples),
		validate.Range("snr_db", snrDB, -100, 200),
	); err != nil {
		return NoiseResult{}, err
	}

	n := len(samples)
	signalPower := meanSquare(samples)
	noisePower := signalPower / math.Pow(10, snrDB/10)

	noise := make([]float64, n)
	switch noiseType {
	case NoiseGaussian:
		sigma := math.Sqrt(noisePower)
		for i := range noise {
			noise[i] = rng.NormFloat64() * sigma
		}
	case NoiseUniform:
		bound := math.Sqrt(3 * noisePower)
		for i := range noise {
			noise[i] = (2*rng.Float64() - 1) * bound
		}
	case NoisePink:
		white := make([]float64, n)
		for i := range white {
			white[i] = rng.NormFloat64()
		}
		noise = dsp.PinkShape(white)
		if std := stat.PopStdDev(noise, nil); std > 0 {
			floats.Scale(math.Sqrt(noisePower)/std, noise)
		}
	}

	noisy := make([]float64, n)
	floats.AddTo(noisy, samples, noise)

	np := meanSquare(noise)
	var actual *float64
	if np > 0 {
		actual = validate.Nullable(10 * math.Log10(signalPower/np))
	}

	return NoiseResult{
		NoisySignal: noisy,
		Noise:       noise,
		NoiseType:   noiseType,
		TargetSNRDB: snrDB,
		ActualSNRDB: actual,
		NoiseRMS:    math.Sqrt(np),
	}, nil
}

// BandwidthResult is the span of spectrum bins within threshold of the peak.
type BandwidthResult struct {
	LowerFrequency  float64 `json:"lower_frequency"`
	UpperFrequency  float64 `json:"upper_frequency"`
	Bandwidth       float64 `json:"bandwidth"`
	CenterFrequency float64 `json:"center_frequency"`
	ThresholdDB     float64 `json:"threshold_db"`
	PeakMagnitudeDB float64 `json:"peak_magnitude_db"`
}

// BandwidthAnalysis measures the occupied band at thresholdDB below the spectral peak.
func BandwidthAnalysis(samples []float64, sampleRate, thresholdDB float64) (BandwidthResult, error) {
	if err := validate.Range("threshold_db", thresholdDB, -200, 0); err != nil {
		return BandwidthResult{}, err
	}
	spec, err := ComputeFFT(samples, sampleRate)
	if err != nil {
		return BandwidthResult{}, err
	}

	peak := floats.Max(spec.MagnitudeDB)
	threshold := peak + thresholdDB

	res := BandwidthResult{ThresholdDB: thresholdDB, PeakMagnitudeDB: peak}
	lower, upper := math.Inf(1), math.Inf(-1)
	for i, db := range spec.MagnitudeDB {
		if db >= threshold {
			lower = math.Min(lower, spec.Frequencies[i])
			upper = math.Max(upper, spec.Frequencies[i])
		}
	}
	if !math.IsInf(lower, 1) {
		res.LowerFrequency = lower
		res.UpperFrequency = upper
		res.Bandwidth = upper - lower
		res.CenterFrequency = (upper + lower) / 2
	}
	return res, nil
}

// Cutoff is a single corner frequency or a [low, high] pair. It decodes from
// either a JSON number or a JSON array.
type Cutoff []float64

// UnmarshalJSON accepts 1000 or [300, 3000].
func (c *Cutoff) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var many []float64
		if err := json.Unmarshal(data, &many); err != nil {
			return err
		}
		*c = many
		return nil
	}
	var one float64
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*c = Cutoff{one}
	return nil
}

// MarshalJSON writes a single cutoff back as a number.
func (c Cutoff) MarshalJSON() ([]byte, error) {
	if len(c) == 1 {
		return json.Marshal(c[0])
	}
	return json.Marshal([]float64(c))
}

// FilterInput selects a Butterworth filter for FilterSignal.
type FilterInput struct {
	SignalData []float64 `json:"signal_data"`
	SampleRate float64   `json:"sample_rate"`
	FilterType string    `json:"filter_type"`
	CutoffFreq Cutoff    `json:"cutoff_freq"`
	Order      int       `json:"order"`
}

// DefaultFilterOrder is used when the request omits order.
const DefaultFilterOrder = 4

// FilterResult holds the zero-phase filtered signal.
type FilterResult struct {
	FilteredSignal  []float64 `json:"filtered_signal"`
	FilterType      string    `json:"filter_type"`
	CutoffFrequency Cutoff    `json:"cutoff_frequency"`
	Order           int       `json:"order"`
	OriginalRMS     float64   `json:"original_rms"`
	FilteredRMS     float64   `json:"filtered_rms"`
}

// FilterSignal designs a Butterworth filter and applies it forward and backward.
func FilterSignal(in FilterInput) (FilterResult, error) {
	if err := validate.First(
		CheckSamples("signal_data", in.SignalData),
		validate.Positive("sample_rate", in.SampleRate),
	); err != nil {
		return FilterResult{}, err
	}
	if in.Order < 1 || in.Order > 10 {
		return FilterResult{}, validate.Errorf("order", "must be between 1 and 10")
	}
	if len(in.CutoffFreq) == 0 {
		return FilterResult{}, validate.Errorf("cutoff_freq", "is required")
	}

	nyquist := in.SampleRate / 2
	wn := make([]float64, len(in.CutoffFreq))
	for i, f := range in.CutoffFreq {
		wn[i] = f / nyquist
		if !(wn[i] > 0 && wn[i] < 1) {
			return FilterResult{}, validate.Errorf("cutoff_freq", "Cutoff frequency must be between 0 and Nyquist frequency")
		}
	}

	band := dsp.BandType(in.FilterType)
	switch band {
	case dsp.Lowpass, dsp.Highpass, dsp.Bandpass, dsp.Bandstop:
	default:
		return FilterResult{}, validate.Errorf("filter_type", "Unknown filter type")
	}

	b, a, err := dsp.Butter(in.Order, wn, band)
	if err != nil {
		return FilterResult{}, validate.Errorf("cutoff_freq", "%v", err)
	}
	filtered, err := dsp.FiltFilt(b, a, in.SignalData)
	if err != nil {
		if errors.Is(err, dsp.ErrTooShort) {
			return FilterResult{}, validate.Errorf("signal_data", "%v", err)
		}
		return FilterResult{}, err
	}

	return FilterResult{
		FilteredSignal:  filtered,
		FilterType:      in.FilterType,
		CutoffFrequency: in.CutoffFreq,
		Order:           in.Order,
		OriginalRMS:     rms(in.SignalData),
		FilteredRMS:     rms(filtered),
	}, nil
}

// Statistics summarizes sample levels. Std is the population deviation.
type Statistics struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	RMS         float64 `json:"rms"`
	Peak        float64 `json:"peak"`
	PeakToPeak  float64 `json:"peak_to_peak"`
	CrestFactor float64 `json:"crest_factor"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
}

// SignalStatistics computes level metrics. Crest factor is 0 for a silent signal.
func SignalStatistics(samples []float64) (Statistics, error) {
	if len(samples) == 0 {
		return Statistics{}, validate.Errorf("signal_data", "must not be empty")
	}
	if len(samples) > MaxSamples {
		return Statistics{}, validate.Errorf("signal_data", "must contain at most %d samples", MaxSamples)
	}
	mean, std := stat.PopMeanStdDev(samples, nil)
	lo, hi := floats.Min(samples), floats.Max(samples)
	peak := math.Max(math.Abs(lo), math.Abs(hi))
	r := rms(samples)
	crest := 0.0
	if r > 0 {
		crest = peak / r
	}
	return Statistics{
		Mean:        mean,
		Std:         std,
		RMS:         r,
		Peak:        peak,
		PeakToPeak:  hi - lo,
		CrestFactor: crest,
		Min:         lo,
		Max:         hi,
	}, nil
}
