// Package dsp implements the digital filtering primitives used by the signal
// tools: Butterworth IIR design in zero-pole-gain form, direct form II
// transposed filtering and zero-phase forward-backward filtering.
package dsp

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
)

// BandType selects the Butterworth response.
type BandType string

const (
	Lowpass  BandType = "lowpass"
	Highpass BandType = "highpass"
	Bandpass BandType = "bandpass"
	Bandstop BandType = "bandstop"
)

// ErrCutoff is returned when a normalized cutoff is outside (0, 1).
var ErrCutoff = errors.New("dsp: cutoff must be between 0 and Nyquist")

// zpk is a filter in zero-pole-gain form.
type zpk struct {
	z []complex128
	p []complex128
	k float64
}

// Butter designs a digital Butterworth filter of the given order. Cutoffs are
// normalized to the Nyquist frequency; band filters take two edges.
func Butter(order int, wn []float64, band BandType) (b, a []float64, err error) {
	if order < 1 {
		return nil, nil, fmt.Errorf("dsp: order must be at least 1, got %d", order)
	}
	want := 1
	if band == Bandpass || band == Bandstop {
		want = 2
	}
	if len(wn) != want {
		return nil, nil, fmt.Errorf("dsp: %s filter needs %d cutoff(s), got %d", band, want, len(wn))
	}
	for _, w := range wn {
		if !(w > 0 && w < 1) {
			return nil, nil, ErrCutoff
		}
	}
	if want == 2 && wn[0] >= wn[1] {
		return nil, nil, fmt.Errorf("dsp: lower cutoff must be below upper cutoff")
	}

	// pre-warp for the bilinear transform at fs = 2
	const fs = 2.0
	warped := make([]float64, len(wn))
	for i, w := range wn {
		warped[i] = 2 * fs * math.Tan(math.Pi*w/fs)
	}

	proto := buttap(order)
	var analog zpk
	switch band {
	case Lowpass:
		analog = lp2lp(proto, warped[0])
	case Highpass:
		analog = lp2hp(proto, warped[0])
	case Bandpass:
		analog = lp2bp(proto, math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	case Bandstop:
		analog = lp2bs(proto, math.Sqrt(warped[0]*warped[1]), warped[1]-warped[0])
	default:
		return nil, nil, fmt.Errorf("dsp: unknown filter type %q", band)
	}

	digital := bilinear(analog, fs)
	b, a = zpk2tf(digital)
	return b, a, nil
}

// buttap returns the analog prototype with poles on the left half of the unit circle.
func buttap(n int) zpk {
	p := make([]complex128, 0, n)
	for m := -n + 1; m < n; m += 2 {
		p = append(p, -cmplx.Exp(complex(0, math.Pi*float64(m)/float64(2*n))))
	}
	return zpk{p: p, k: 1}
}

func lp2lp(f zpk, wo float64) zpk {
	degree := len(f.p) - len(f.z)
	return zpk{
		z: scale(f.z, complex(wo, 0)),
		p: scale(f.p, complex(wo, 0)),
		k: f.k * math.Pow(wo, float64(degree)),
	}
}

func lp2hp(f zpk, wo float64) zpk {
	degree := len(f.p) - len(f.z)
	w := complex(wo, 0)
	z := make([]complex128, 0, len(f.z)+degree)
	for _, v := range f.z {
		z = append(z, w/v)
	}
	p := make([]complex128, len(f.p))
	for i, v := range f.p {
		p[i] = w / v
	}
	for i := 0; i < degree; i++ {
		z = append(z, 0)
	}
	return zpk{z: z, p: p, k: f.k * real(prod(negate(f.z))/prod(negate(f.p)))}
}

func lp2bp(f zpk, wo, bw float64) zpk {
	degree := len(f.p) - len(f.z)
	half := complex(bw/2, 0)
	z := splitBand(scale(f.z, half), wo)
	for i := 0; i < degree; i++ {
		z = append(z, 0)
	}
	return zpk{
		z: z,
		p: splitBand(scale(f.p, half), wo),
		k: f.k * math.Pow(bw, float64(degree)),
	}
}

func lp2bs(f zpk, wo, bw float64) zpk {
	degree := len(f.p) - len(f.z)
	half := complex(bw/2, 0)
	zh := make([]complex128, len(f.z))
	for i, v := range f.z {
		zh[i] = half / v
	}
	ph := make([]complex128, len(f.p))
	for i, v := range f.p {
		ph[i] = half / v
	}
	z := splitBand(zh, wo)
	for i := 0; i < degree; i++ {
		z = append(z, complex(0, wo))
	}
	for i := 0; i < degree; i++ {
		z = append(z, complex(0, -wo))
	}
	return zpk{
		z: z,
		p: splitBand(ph, wo),
		k: f.k * real(prod(negate(f.z))/prod(negate(f.p))),
	}
}

// splitBand maps each root r to r ± sqrt(r² - wo²).
func splitBand(roots []complex128, wo float64) []complex128 {
	w2 := complex(wo*wo, 0)
	out := make([]complex128, 0, 2*len(roots))
	for _, r := range roots {
		out = append(out, r+cmplx.Sqrt(r*r-w2))
	}
	for _, r := range roots {
		out = append(out, r-cmplx.Sqrt(r*r-w2))
	}
	return out
}

func bilinear(f zpk, fs float64) zpk {
	degree := len(f.p) - len(f.z)
	fs2 := complex(2*fs, 0)
	z := make([]complex128, 0, len(f.z)+degree)
	num := complex(1, 0)
	for _, v := range f.z {
		z = append(z, (fs2+v)/(fs2-v))
		num *= fs2 - v
	}
	p := make([]complex128, len(f.p))
	den := complex(1, 0)
	for i, v := range f.p {
		p[i] = (fs2 + v) / (fs2 - v)
		den *= fs2 - v
	}
	for i := 0; i < degree; i++ {
		z = append(z, -1)
	}
	return zpk{z: z, p: p, k: f.k * real(num/den)}
}

func zpk2tf(f zpk) (b, a []float64) {
	bc := poly(f.z)
	b = make([]float64, len(bc))
	for i, c := range bc {
		b[i] = f.k * real(c)
	}
	ac := poly(f.p)
	a = make([]float64, len(ac))
	for i, c := range ac {
		a[i] = real(c)
	}
	return b, a
}

// poly expands prod(x - r) into coefficients, highest power first.
func poly(roots []complex128) []complex128 {
	c := []complex128{1}
	for _, r := range roots {
		next := make([]complex128, len(c)+1)
		for i, v := range c {
			next[i] += v
			next[i+1] -= v * r
		}
		c = next
	}
	return c
}

func scale(v []complex128, s complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func negate(v []complex128) []complex128 {
	return scale(v, -1)
}

func prod(v []complex128) complex128 {
	p := complex(1, 0)
	for _, x := range v {
		p *= x
	}
	return p
}
