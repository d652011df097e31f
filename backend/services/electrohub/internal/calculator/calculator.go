// Package calculator holds the basic circuit formulas: Ohm's law, first and
// second order circuits, passive filters, gain, tolerance and power checks.
package calculator

import (
	"fmt"
	"math"

	"electrohub/backend/services/electrohub/internal/validate"
)

// EngineeringConstants are exposed through /api/constants and the calculator page.
var EngineeringConstants = map[string]float64{
	"speed_of_light":          299792458,
	"planck_constant":         6.62607015e-34,
	"electron_charge":         1.602176634e-19,
	"boltzmann_constant":      1.380649e-23,
	"avogadro_number":         6.02214076e23,
	"permittivity_free_space": 8.854187817e-12,
	"permeability_free_space": 1.2566370614e-6,
	"pi":                      math.Pi,
	"euler_number":            math.E,
}

// UnitPrefixes maps SI prefixes to multipliers. "u" stands for micro.
var UnitPrefixes = map[string]float64{
	"T": 1e12, "G": 1e9, "M": 1e6, "k": 1e3,
	"": 1, "m": 1e-3, "u": 1e-6, "n": 1e-9, "p": 1e-12,
}

// PrefixOrder lists UnitPrefixes from largest to smallest.
var PrefixOrder = []string{"T", "G", "M", "k", "", "m", "u", "n", "p"}

// ConvertUnit rescales value from one SI prefix to another.
func ConvertUnit(value float64, from, to string) (float64, error) {
	if err := validate.Finite("value", value); err != nil {
		return 0, err
	}
	fromMul, ok := UnitPrefixes[from]
	if !ok {
		return 0, validate.Errorf("from_prefix", "unknown unit prefix %q", from)
	}
	toMul, ok := UnitPrefixes[to]
	if !ok {
		return 0, validate.Errorf("to_prefix", "unknown unit prefix %q", to)
	}
	return value * fromMul / toMul, nil
}

// OhmsLawInput carries any two of voltage, current and resistance.
type OhmsLawInput struct {
	Voltage    *float64 `json:"voltage"`
	Current    *float64 `json:"current"`
	Resistance *float64 `json:"resistance"`
}

// OhmsLawResult holds the solved quantity and power. Given inputs are not echoed.
type OhmsLawResult struct {
	Voltage    *float64 `json:"voltage,omitempty"`
	Current    *float64 `json:"current,omitempty"`
	Resistance *float64 `json:"resistance,omitempty"`
	Power      *float64 `json:"power,omitempty"`
}

// OhmsLaw solves for the missing quantity. With fewer than two inputs it
// returns an empty result and a warning instead of an error.
func OhmsLaw(in OhmsLawInput) (OhmsLawResult, []string, error) {
	warnings := []string{}
	var res OhmsLawResult

	if err := validate.First(
		optionalFinite("voltage", in.Voltage),
		optionalFinite("current", in.Current),
		optionalFinite("resistance", in.Resistance),
	); err != nil {
		return res, warnings, err
	}

	var current float64
	switch {
	case in.Voltage != nil && in.Current != nil:
		v, i := *in.Voltage, *in.Current
		if i == 0 {
			return res, warnings, validate.Errorf("current", "must not be zero")
		}
		res.Resistance = ptr(v / i)
		res.Power = ptr(v * i)
		current = i
	case in.Voltage != nil && in.Resistance != nil:
		v, r := *in.Voltage, *in.Resistance
		if r == 0 {
			return res, warnings, validate.Errorf("resistance", "must not be zero")
		}
		current = v / r
		res.Current = ptr(current)
		res.Power = ptr(v * v / r)
	case in.Current != nil && in.Resistance != nil:
		i, r := *in.Current, *in.Resistance
		res.Voltage = ptr(i * r)
		res.Power = ptr(i * i * r)
		current = i
	default:
		warnings = append(warnings, "Please provide at least two values")
		return res, warnings, nil
	}

	if *res.Power > 100 {
		warnings = append(warnings, "High power dissipation! Consider heat management.")
	}
	if current > 10 {
		warnings = append(warnings, "High current! Ensure proper wire gauge.")
	}
	return res, warnings, nil
}

// SeriesResult is shared by series and parallel resistance.
type SeriesResult struct {
	TotalResistance float64 `json:"total_resistance"`
	Count           int     `json:"count"`
	Warning         string  `json:"warning,omitempty"`
}

// SeriesResistance sums resistances.
func SeriesResistance(rs []float64) (SeriesResult, error) {
	if len(rs) == 0 {
		return SeriesResult{}, validate.Errorf("resistances", "must not be empty")
	}
	var total float64
	for i, r := range rs {
		if err := validate.NonNegative(fmt.Sprintf("resistances[%d]", i), r); err != nil {
			return SeriesResult{}, err
		}
		total += r
	}
	return SeriesResult{TotalResistance: total, Count: len(rs)}, nil
}

// ParallelResistance combines resistances in parallel. A zero element is a short.
func ParallelResistance(rs []float64) (SeriesResult, error) {
	if len(rs) == 0 {
		return SeriesResult{}, validate.Errorf("resistances", "must not be empty")
	}
	var inv float64
	for i, r := range rs {
		if err := validate.NonNegative(fmt.Sprintf("resistances[%d]", i), r); err != nil {
			return SeriesResult{}, err
		}
		if r == 0 {
			return SeriesResult{TotalResistance: 0, Count: len(rs), Warning: "Short circuit detected"}, nil
		}
		inv += 1 / r
	}
	return SeriesResult{TotalResistance: 1 / inv, Count: len(rs)}, nil
}

// VoltageDividerResult is the loaded-free divider output.
type VoltageDividerResult struct {
	OutputVoltage float64 `json:"output_voltage"`
	Current       float64 `json:"current"`
	PowerR1       float64 `json:"power_r1"`
	PowerR2       float64 `json:"power_r2"`
	Ratio         float64 `json:"ratio"`
}

// VoltageDivider computes the unloaded output of R1 over R2.
func VoltageDivider(vin, r1, r2 float64) (VoltageDividerResult, []string, error) {
	if err := validate.First(
		validate.Finite("vin", vin),
		validate.NonNegative("r1", r1),
		validate.NonNegative("r2", r2),
	); err != nil {
		return VoltageDividerResult{}, nil, err
	}
	if r1+r2 == 0 {
		return VoltageDividerResult{}, nil, validate.Errorf("r1", "r1 + r2 must be greater than 0")
	}
	total := r1 + r2
	current := vin / total
	return VoltageDividerResult{
		OutputVoltage: vin * r2 / total,
		Current:       current,
		PowerR1:       current * current * r1,
		PowerR2:       current * current * r2,
		Ratio:         r2 / total,
	}, []string{}, nil
}

func ptr(v float64) *float64 {
	return &v
}

func optionalFinite(field string, v *float64) error {
	if v == nil {
		return nil
	}
	return validate.Finite(field, *v)
}

// given treats nil and zero as absent, like an unset form field.
func given(v *float64) bool {
	return v != nil && *v != 0
}
