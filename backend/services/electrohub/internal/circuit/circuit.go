// Package circuit analyses series DC loops and RLC networks under AC drive.
package circuit

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"

	"electrohub/backend/services/electrohub/internal/validate"
)

// DCInput describes a single series loop. Current sources and connections
// are accepted for forward compatibility but the loop model ignores them.
type DCInput struct {
	VoltageSources []float64              `json:"voltage_sources"`
	CurrentSources []float64              `json:"current_sources"`
	Resistances    []float64              `json:"resistances"`
	Connections    map[string]interface{} `json:"connections"`
}

// DCResult reports loop current, node voltages and per-resistor dissipation.
type DCResult struct {
	TotalVoltage    float64   `json:"total_voltage"`
	TotalResistance float64   `json:"total_resistance"`
	CircuitCurrent  float64   `json:"circuit_current"`
	NodeVoltages    []float64 `json:"node_voltages"`
	PowerDissipated []float64 `json:"power_dissipated"`
	TotalPower      float64   `json:"total_power"`
}

// DCAnalysis solves the loop with all sources and resistors in series.
// An empty resistor list is treated as a 1 Ω load.
func DCAnalysis(in DCInput) (DCResult, []string, error) {
	for i, v := range in.VoltageSources {
		if err := validate.Finite(fmt.Sprintf("voltage_sources[%d]", i), v); err != nil {
			return DCResult{}, nil, err
		}
	}
	for i, r := range in.Resistances {
		if err := validate.NonNegative(fmt.Sprintf("resistances[%d]", i), r); err != nil {
			return DCResult{}, nil, err
		}
	}

	totalV := floats.Sum(in.VoltageSources)
	totalR := 1.0
	if len(in.Resistances) > 0 {
		totalR = floats.Sum(in.Resistances)
	}
	current := 0.0
	if totalR > 0 {
		current = totalV / totalR
	}

	res := DCResult{
		TotalVoltage:    totalV,
		TotalResistance: totalR,
		CircuitCurrent:  current,
		NodeVoltages:    make([]float64, 0, len(in.Resistances)),
		PowerDissipated: make([]float64, 0, len(in.Resistances)),
	}
	drop := 0.0
	for _, r := range in.Resistances {
		drop += current * r
		res.NodeVoltages = append(res.NodeVoltages, totalV-drop)
		res.PowerDissipated = append(res.PowerDissipated, current*current*r)
	}
	res.TotalPower = floats.Sum(res.PowerDissipated)

	warnings := []string{}
	if current > 10 {
		warnings = append(warnings, "High current flow detected")
	}
	if res.TotalPower > 100 {
		warnings = append(warnings, "High power dissipation - consider thermal management")
	}
	return res, warnings, nil
}

// Conclusion summarizes the loop in prose.
func (r DCResult) Conclusion() string {
	parts := make([]string, 0, 2)
	if r.CircuitCurrent < 0.1 {
		parts = append(parts, "The circuit operates at low current, suitable for signal-level applications.")
	} else {
		parts = append(parts, "The circuit handles significant current flow.")
	}
	switch {
	case r.TotalPower < 1:
		parts = append(parts, "Power dissipation is minimal.")
	case r.TotalPower < 10:
		parts = append(parts, "Moderate power dissipation - passive cooling sufficient.")
	default:
		parts = append(parts, "High power dissipation - active cooling recommended.")
	}
	return strings.Join(parts, " ")
}

// Circuit types reported by ACAnalysis.
const (
	Resistive  = "resistive"
	Inductive  = "inductive"
	Capacitive = "capacitive"
)

// ACInput is a series RLC network driven by a sinusoid. Zero L or C omits the element.
type ACInput struct {
	VoltageAmplitude float64 `json:"voltage_amplitude"`
	Frequency        float64 `json:"frequency"`
	Resistance       float64 `json:"resistance"`
	Inductance       float64 `json:"inductance"`
	Capacitance      float64 `json:"capacitance"`
}

// ACResult holds impedance, phase and the power triangle.
type ACResult struct {
	Frequency           float64 `json:"frequency"`
	AngularFrequency    float64 `json:"angular_frequency"`
	InductiveReactance  float64 `json:"inductive_reactance"`
	CapacitiveReactance float64 `json:"capacitive_reactance"`
	NetReactance        float64 `json:"net_reactance"`
	Impedance           float64 `json:"impedance"`
	PhaseAngle          float64 `json:"phase_angle"`
	CurrentAmplitude    float64 `json:"current_amplitude"`
	PowerApparent       float64 `json:"power_apparent"`
	PowerReal           float64 `json:"power_real"`
	PowerReactive       float64 `json:"power_reactive"`
	PowerFactor         float64 `json:"power_factor"`
	CircuitType         string  `json:"circuit_type"`
}

func (in ACInput) validate() error {
	return validate.First(
		validate.Finite("voltage_amplitude", in.VoltageAmplitude),
		validate.Positive("frequency", in.Frequency),
		validate.NonNegative("resistance", in.Resistance),
		validate.NonNegative("inductance", in.Inductance),
		validate.NonNegative("capacitance", in.Capacitance),
	)
}

// ACAnalysis computes the steady-state response. Powers use peak amplitudes.
func ACAnalysis(in ACInput) (ACResult, []string, error) {
	if err := in.validate(); err != nil {
		return ACResult{}, nil, err
	}

	omega := 2 * math.Pi * in.Frequency
	xl, xc := reactances(omega, in.Inductance, in.Capacitance)
	x := xl - xc
	z := math.Hypot(in.Resistance, x)
	phase := math.Atan2(x, in.Resistance)

	current := 0.0
	if z > 0 {
		current = in.VoltageAmplitude / z
	}
	apparent := in.VoltageAmplitude * current / 2
	pf := math.Cos(phase)

	res := ACResult{
		Frequency:           in.Frequency,
		AngularFrequency:    omega,
		InductiveReactance:  xl,
		CapacitiveReactance: xc,
		NetReactance:        x,
		Impedance:           z,
		PhaseAngle:          phase * 180 / math.Pi,
		CurrentAmplitude:    current,
		PowerApparent:       apparent,
		PowerReal:           apparent * pf,
		PowerReactive:       apparent * math.Sin(phase),
		PowerFactor:         pf,
		CircuitType:         Resistive,
	}
	switch {
	case x > 0:
		res.CircuitType = Inductive
	case x < 0:
		res.CircuitType = Capacitive
	}

	warnings := []string{}
	if pf < 0.8 {
		warnings = append(warnings, "Low power factor - consider power factor correction")
	}
	return res, warnings, nil
}

// Conclusion grades the power factor and names the circuit character.
func (r ACResult) Conclusion() string {
	var pf string
	switch {
	case r.PowerFactor > 0.95:
		pf = "Excellent power factor - minimal reactive power losses."
	case r.PowerFactor > 0.8:
		pf = "Good power factor - acceptable for most applications."
	default:
		pf = "Poor power factor - power factor correction recommended."
	}
	return fmt.Sprintf("%s The circuit exhibits %s characteristics.", pf, r.CircuitType)
}

func reactances(omega, l, c float64) (xl, xc float64) {
	if l > 0 {
		xl = omega * l
	}
	if c > 0 {
		xc = 1 / (omega * c)
	}
	return xl, xc
}
