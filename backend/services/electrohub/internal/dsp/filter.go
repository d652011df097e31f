package dsp

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// LFilter runs x through the rational transfer function b/a using direct
// form II transposed. zi holds the initial delay-line state and may be nil.
func LFilter(b, a, x, zi []float64) ([]float64, error) {
	b, a, err := normalize(b, a)
	if err != nil {
		return nil, err
	}
	order := len(a) - 1
	state := make([]float64, order)
	if zi != nil {
		if len(zi) != order {
			return nil, fmt.Errorf("dsp: initial state needs %d values, got %d", order, len(zi))
		}
		copy(state, zi)
	}

	y := make([]float64, len(x))
	for n, xn := range x {
		yn := b[0]*xn + first(state)
		for i := 0; i < order-1; i++ {
			state[i] = b[i+1]*xn + state[i+1] - a[i+1]*yn
		}
		if order > 0 {
			state[order-1] = b[order]*xn - a[order]*yn
		}
		y[n] = yn
	}
	return y, nil
}

// LFilterZI returns the steady-state of LFilter for a unit step input.
func LFilterZI(b, a []float64) ([]float64, error) {
	b, a, err := normalize(b, a)
	if err != nil {
		return nil, err
	}
	n := len(a) - 1
	if n == 0 {
		return []float64{}, nil
	}

	// (I - companion(a)^T) zi = b[1:] - a[1:]*b[0]
	lhs := mat.NewDense(n, n, nil)
	rhs := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		lhs.Set(i, i, 1)
		lhs.Set(i, 0, lhs.At(i, 0)+a[i+1])
		if i+1 < n {
			lhs.Set(i, i+1, -1)
		}
		rhs.SetVec(i, b[i+1]-a[i+1]*b[0])
	}

	var zi mat.VecDense
	if err := zi.SolveVec(lhs, rhs); err != nil {
		return nil, fmt.Errorf("dsp: solve initial state: %w", err)
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = zi.AtVec(i)
	}
	return out, nil
}

// ErrTooShort is returned when the signal cannot cover the edge padding.
var ErrTooShort = errors.New("dsp: signal too short for filter padding")

// FiltFilt applies the filter forward and backward for zero phase distortion.
// The input is extended by odd reflection of 3*max(len(a), len(b)) samples.
func FiltFilt(b, a, x []float64) ([]float64, error) {
	padlen := 3 * max(len(a), len(b))
	if len(x) <= padlen {
		return nil, fmt.Errorf("%w: need more than %d samples, got %d", ErrTooShort, padlen, len(x))
	}

	zi, err := LFilterZI(b, a)
	if err != nil {
		return nil, err
	}

	ext := oddExtend(x, padlen)

	forward, err := LFilter(b, a, ext, scaled(zi, ext[0]))
	if err != nil {
		return nil, err
	}
	reverse(forward)

	backward, err := LFilter(b, a, forward, scaled(zi, forward[0]))
	if err != nil {
		return nil, err
	}
	reverse(backward)

	return backward[padlen : len(backward)-padlen], nil
}

func oddExtend(x []float64, n int) []float64 {
	last := len(x) - 1
	ext := make([]float64, 0, len(x)+2*n)
	for i := n; i >= 1; i-- {
		ext = append(ext, 2*x[0]-x[i])
	}
	ext = append(ext, x...)
	for i := 1; i <= n; i++ {
		ext = append(ext, 2*x[last]-x[last-i])
	}
	return ext
}

// normalize pads b and a to equal length and divides by a[0].
func normalize(b, a []float64) ([]float64, []float64, error) {
	if len(a) == 0 || a[0] == 0 {
		return nil, nil, errors.New("dsp: leading denominator coefficient must be non-zero")
	}
	if len(b) == 0 {
		return nil, nil, errors.New("dsp: numerator is empty")
	}
	n := max(len(a), len(b))
	nb := make([]float64, n)
	na := make([]float64, n)
	for i, v := range b {
		nb[i] = v / a[0]
	}
	for i, v := range a {
		na[i] = v / a[0]
	}
	return nb, na, nil
}

func first(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func scaled(v []float64, s float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x * s
	}
	return out
}

func reverse(v []float64) {
	for i, j := 0, len(v)-1; i < j; i, j = i+1, j-1 {
		v[i], v[j] = v[j], v[i]
	}
}
