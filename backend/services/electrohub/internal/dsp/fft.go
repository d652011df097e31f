package dsp

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Hann returns the symmetric Hann window of length n.
func Hann(n int) []float64 {
	if n == 1 {
		return []float64{1}
	}
	w := make([]float64, n)
	for k := range w {
		w[k] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(k)/float64(n-1))
	}
	return w
}

// Spectrum is the one-sided view of a windowed FFT.
type Spectrum struct {
	Frequencies []float64
	Magnitude   []float64
	MagnitudeDB []float64
	Phase       []float64
}

// OneSided windows x with Hann, transforms it and keeps the first n/2 bins.
// Magnitudes are scaled by 2/n; phases are in degrees.
func OneSided(x []float64, sampleRate float64) Spectrum {
	n := len(x)
	w := Hann(n)
	windowed := make([]float64, n)
	for i, v := range x {
		windowed[i] = v * w[i]
	}

	coeffs := fourier.NewFFT(n).Coefficients(nil, windowed)
	half := n / 2
	s := Spectrum{
		Frequencies: make([]float64, half),
		Magnitude:   make([]float64, half),
		MagnitudeDB: make([]float64, half),
		Phase:       make([]float64, half),
	}
	for k := 0; k < half; k++ {
		c := coeffs[k]
		mag := cmplx.Abs(c) * 2 / float64(n)
		s.Frequencies[k] = float64(k) * sampleRate / float64(n)
		s.Magnitude[k] = mag
		s.MagnitudeDB[k] = 20 * math.Log10(mag+1e-10)
		s.Phase[k] = cmplx.Phase(c) * 180 / math.Pi
	}
	return s
}

// FFTFreq returns sample frequencies in cycles per unit of spacing d, in
// the standard order: zero, positive, then negative frequencies.
func FFTFreq(n int, d float64) []float64 {
	out := make([]float64, n)
	pos := (n-1)/2 + 1
	for i := 0; i < pos; i++ {
		out[i] = float64(i) / (float64(n) * d)
	}
	for i := pos; i < n; i++ {
		out[i] = float64(i-n) / (float64(n) * d)
	}
	return out
}

// PinkShape colours white noise with a 1/sqrt(f) amplitude response. The DC
// bin is dropped so the result has zero mean.
func PinkShape(white []float64) []float64 {
	n := len(white)
	if n == 0 {
		return nil
	}
	seq := make([]complex128, n)
	for i, v := range white {
		seq[i] = complex(v, 0)
	}
	fft := fourier.NewCmplxFFT(n)
	coeffs := fft.Coefficients(nil, seq)

	freqs := FFTFreq(n, 1)
	coeffs[0] = 0
	for i := 1; i < n; i++ {
		coeffs[i] *= complex(1/math.Sqrt(math.Abs(freqs[i])), 0)
	}

	shaped := fft.Sequence(nil, coeffs)
	out := make([]float64, n)
	for i, c := range shaped {
		out[i] = real(c) / float64(n)
	}
	return out
}
