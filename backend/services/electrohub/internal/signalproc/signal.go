// Package signalproc generates test waveforms and runs spectrum, noise,
// bandwidth and filtering analysis over sampled signals.
package signalproc

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"electrohub/backend/services/electrohub/internal/validate"
)

// Limits on request-sized sample buffers.
const (
	MinSamples = 4
	MaxSamples = 200000
)

// Waveform names accepted by GenerateSignal.
const (
	Sine     = "sine"
	Cosine   = "cosine"
	Square   = "square"
	Sawtooth = "sawtooth"
	Triangle = "triangle"
	Unknown  = "unknown"
)

// GenerateInput describes a periodic test waveform.
type GenerateInput struct {
	SignalType string  `json:"signal_type"`
	Frequency  float64 `json:"frequency"`
	Amplitude  float64 `json:"amplitude"`
	Duration   float64 `json:"duration"`
	SampleRate float64 `json:"sample_rate"`
	Phase      float64 `json:"phase"`
	DCOffset   float64 `json:"dc_offset"`
}

// DefaultGenerateInput mirrors the signal page defaults.
func DefaultGenerateInput() GenerateInput {
	return GenerateInput{
		SignalType: Sine,
		Frequency:  1000,
		Amplitude:  1,
		Duration:   0.01,
		SampleRate: 10000,
	}
}

// GenerateResult holds the sampled waveform and its level metrics.
type GenerateResult struct {
	Time       []float64 `json:"time"`
	Signal     []float64 `json:"signal"`
	SignalType string    `json:"signal_type"`
	Frequency  float64   `json:"frequency"`
	Amplitude  float64   `json:"amplitude"`
	SampleRate float64   `json:"sample_rate"`
	Duration   float64   `json:"duration"`
	RMS        float64   `json:"rms"`
	PeakToPeak float64   `json:"peak_to_peak"`
}

// GenerateSignal samples the waveform on an evenly spaced grid that includes
// both endpoints. Unknown waveform types produce silence.
func GenerateSignal(in GenerateInput) (GenerateResult, error) {
	if err := validate.First(
		validate.Positive("frequency", in.Frequency),
		validate.Finite("amplitude", in.Amplitude),
		validate.Positive("duration", in.Duration),
		validate.Positive("sample_rate", in.SampleRate),
		validate.Finite("phase", in.Phase),
		validate.Finite("dc_offset", in.DCOffset),
	); err != nil {
		return GenerateResult{}, err
	}

	n := int(in.SampleRate * in.Duration)
	if n < 2 || n > MaxSamples {
		return GenerateResult{}, validate.Errorf("duration", "sample_rate * duration must give 2 to %d samples, got %d", MaxSamples, n)
	}

	t := floats.Span(make([]float64, n), 0, in.Duration)
	phase := in.Phase * math.Pi / 180
	signalType := in.SignalType

	var wave func(theta float64) float64
	switch signalType {
	case Sine:
		wave = math.Sin
	case Cosine:
		wave = math.Cos
	case Square:
		wave = func(theta float64) float64 { return square(theta, 0.5) }
	case Sawtooth:
		wave = func(theta float64) float64 { return sawtooth(theta, 1) }
	case Triangle:
		wave = func(theta float64) float64 { return sawtooth(theta, 0.5) }
	default:
		signalType = Unknown
	}

	y := make([]float64, n)
	if wave != nil {
		for i, ti := range t {
			y[i] = in.Amplitude*wave(2*math.Pi*in.Frequency*ti+phase) + in.DCOffset
		}
	}

	return GenerateResult{
		Time:       t,
		Signal:     y,
		SignalType: signalType,
		Frequency:  in.Frequency,
		Amplitude:  in.Amplitude,
		SampleRate: in.SampleRate,
		Duration:   in.Duration,
		RMS:        rms(y),
		PeakToPeak: floats.Max(y) - floats.Min(y),
	}, nil
}

// square is +1 for the first duty fraction of each 2π period and -1 after.
func square(theta, duty float64) float64 {
	if wrap(theta) < duty*2*math.Pi {
		return 1
	}
	return -1
}

// sawtooth rises from -1 to 1 over width*2π then falls back to -1.
// width 0.5 gives a symmetric triangle.
func sawtooth(theta, width float64) float64 {
	tm := wrap(theta)
	if tm < width*2*math.Pi {
		return tm/(math.Pi*width) - 1
	}
	return (math.Pi*(width+1) - tm) / (math.Pi * (1 - width))
}

// wrap maps theta onto [0, 2π).
func wrap(theta float64) float64 {
	tm := math.Mod(theta, 2*math.Pi)
	if tm < 0 {
		tm += 2 * math.Pi
	}
	return tm
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(floats.Dot(x, x) / float64(len(x)))
}

func meanSquare(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Dot(x, x) / float64(len(x))
}

// CheckSamples validates a request-supplied sample buffer.
func CheckSamples(field string, x []float64) error {
	if len(x) < MinSamples || len(x) > MaxSamples {
		return validate.Errorf(field, "must contain %d to %d samples, got %d", MinSamples, MaxSamples, len(x))
	}
	for i, v := range x {
		if err := validate.Finite(fmt.Sprintf("%s[%d]", field, i), v); err != nil {
			return err
		}
	}
	return nil
}
