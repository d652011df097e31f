package calculator

import (
	"math"

	"electrohub/backend/services/electrohub/internal/validate"
)

// RCResult describes a series RC network. AC fields are set only when a frequency is given.
type RCResult struct {
	TimeConstant        float64  `json:"time_constant"`
	CutoffFrequency     float64  `json:"cutoff_frequency"`
	ChargeTime63        float64  `json:"charge_time_63"`
	ChargeTime95        float64  `json:"charge_time_95"`
	ChargeTime99        float64  `json:"charge_time_99"`
	CapacitiveReactance *float64 `json:"capacitive_reactance,omitempty"`
	Impedance           *float64 `json:"impedance,omitempty"`
	PhaseAngle          *float64 `json:"phase_angle,omitempty"`
	Gain                *float64 `json:"gain,omitempty"`
}

// RCCircuit computes the time constant, cutoff and optional AC response.
func RCCircuit(resistance, capacitance float64, frequency *float64) (RCResult, []string, error) {
	if err := validate.First(
		validate.Positive("resistance", resistance),
		validate.Positive("capacitance", capacitance),
		optionalPositive("frequency", frequency),
	); err != nil {
		return RCResult{}, nil, err
	}

	tau := resistance * capacitance
	res := RCResult{
		TimeConstant:    tau,
		CutoffFrequency: 1 / (2 * math.Pi * tau),
		ChargeTime63:    tau,
		ChargeTime95:    3 * tau,
		ChargeTime99:    5 * tau,
	}

	if given(frequency) {
		xc := 1 / (2 * math.Pi * *frequency * capacitance)
		z := math.Hypot(resistance, xc)
		res.CapacitiveReactance = ptr(xc)
		res.Impedance = ptr(z)
		res.PhaseAngle = ptr(degrees(math.Atan(-xc / resistance)))
		res.Gain = ptr(resistance / z)
	}

	warnings := []string{}
	if tau < 1e-9 {
		warnings = append(warnings, "Very fast time constant - may require high-speed components")
	} else if tau > 1 {
		warnings = append(warnings, "Slow time constant - consider application requirements")
	}
	return res, warnings, nil
}

// RLResult describes a series RL network.
type RLResult struct {
	TimeConstant       float64  `json:"time_constant"`
	CutoffFrequency    float64  `json:"cutoff_frequency"`
	RiseTime63         float64  `json:"rise_time_63"`
	RiseTime95         float64  `json:"rise_time_95"`
	RiseTime99         float64  `json:"rise_time_99"`
	InductiveReactance *float64 `json:"inductive_reactance,omitempty"`
	Impedance          *float64 `json:"impedance,omitempty"`
	PhaseAngle         *float64 `json:"phase_angle,omitempty"`
	Gain               *float64 `json:"gain,omitempty"`
}

// RLCircuit computes the L/R time constant, cutoff and optional AC response.
func RLCircuit(resistance, inductance float64, frequency *float64) (RLResult, []string, error) {
	if err := validate.First(
		validate.Positive("resistance", resistance),
		validate.Positive("inductance", inductance),
		optionalPositive("frequency", frequency),
	); err != nil {
		return RLResult{}, nil, err
	}

	tau := inductance / resistance
	res := RLResult{
		TimeConstant:    tau,
		CutoffFrequency: resistance / (2 * math.Pi * inductance),
		RiseTime63:      tau,
		RiseTime95:      3 * tau,
		RiseTime99:      5 * tau,
	}

	if given(frequency) {
		xl := 2 * math.Pi * *frequency * inductance
		z := math.Hypot(resistance, xl)
		res.InductiveReactance = ptr(xl)
		res.Impedance = ptr(z)
		res.PhaseAngle = ptr(degrees(math.Atan(xl / resistance)))
		res.Gain = ptr(resistance / z)
	}

	warnings := []string{}
	if tau < 1e-9 {
		warnings = append(warnings, "Very fast response - suitable for high-frequency applications")
	}
	return res, warnings, nil
}

// RLCResult describes a series RLC network.
type RLCResult struct {
	ResonantFrequency   float64  `json:"resonant_frequency"`
	QFactor             float64  `json:"q_factor"`
	Bandwidth           float64  `json:"bandwidth"`
	DampingFactor       float64  `json:"damping_factor"`
	ResponseType        string   `json:"response_type"`
	InductiveReactance  *float64 `json:"inductive_reactance,omitempty"`
	CapacitiveReactance *float64 `json:"capacitive_reactance,omitempty"`
	NetReactance        *float64 `json:"net_reactance,omitempty"`
	Impedance           *float64 `json:"impedance,omitempty"`
	PhaseAngle          *float64 `json:"phase_angle,omitempty"`
}

// RLCCircuit computes resonance, Q, bandwidth and damping.
func RLCCircuit(resistance, inductance, capacitance float64, frequency *float64) (RLCResult, []string, error) {
	if err := validate.First(
		validate.Positive("resistance", resistance),
		validate.Positive("inductance", inductance),
		validate.Positive("capacitance", capacitance),
		optionalPositive("frequency", frequency),
	); err != nil {
		return RLCResult{}, nil, err
	}

	f0 := 1 / (2 * math.Pi * math.Sqrt(inductance*capacitance))
	z0 := math.Sqrt(inductance / capacitance)
	q := z0 / resistance
	zeta := resistance / (2 * z0)

	res := RLCResult{
		ResonantFrequency: f0,
		QFactor:           q,
		Bandwidth:         f0 / q,
		DampingFactor:     zeta,
		ResponseType:      ResponseType(zeta),
	}

	if given(frequency) {
		f := *frequency
		xl := 2 * math.Pi * f * inductance
		xc := 1 / (2 * math.Pi * f * capacitance)
		x := xl - xc
		res.InductiveReactance = ptr(xl)
		res.CapacitiveReactance = ptr(xc)
		res.NetReactance = ptr(x)
		res.Impedance = ptr(math.Hypot(resistance, x))
		res.PhaseAngle = ptr(degrees(math.Atan(x / resistance)))
	}

	warnings := []string{}
	if q > 100 {
		warnings = append(warnings, "Very high Q factor - narrow bandwidth, may be sensitive to component tolerances")
	} else if q < 0.5 {
		warnings = append(warnings, "Low Q factor - heavily damped response")
	}
	return res, warnings, nil
}

// ResponseType classifies a second-order system by its damping ratio.
func ResponseType(zeta float64) string {
	switch {
	case zeta < 1:
		return "Underdamped (oscillatory)"
	case zeta == 1:
		return "Critically damped"
	default:
		return "Overdamped"
	}
}

// FilterInput selects a first-order RC filter and the known component.
type FilterInput struct {
	FilterType  string   `json:"filter_type"`
	CutoffFreq  float64  `json:"cutoff_freq"`
	Resistance  *float64 `json:"resistance"`
	Capacitance *float64 `json:"capacitance"`
}

// FilterResult holds the solved component for a first-order RC filter.
type FilterResult struct {
	FilterType      string   `json:"filter_type"`
	CutoffFrequency float64  `json:"cutoff_frequency"`
	Rolloff         string   `json:"rolloff"`
	Resistance      *float64 `json:"resistance,omitempty"`
	Capacitance     *float64 `json:"capacitance,omitempty"`
}

// FilterDesign solves the missing R or C for the requested cutoff. Resistance wins when both are given.
func FilterDesign(in FilterInput) (FilterResult, []string, error) {
	var res FilterResult
	switch in.FilterType {
	case "lowpass":
		res.FilterType = "Low-pass RC filter"
		res.Rolloff = "-20 dB/decade"
	case "highpass":
		res.FilterType = "High-pass RC filter"
		res.Rolloff = "+20 dB/decade (below cutoff)"
	default:
		return res, nil, validate.Errorf("filter_type", "must be lowpass or highpass")
	}
	if err := validate.First(
		validate.Positive("cutoff_freq", in.CutoffFreq),
		optionalPositive("resistance", in.Resistance),
		optionalPositive("capacitance", in.Capacitance),
	); err != nil {
		return FilterResult{}, nil, err
	}

	res.CutoffFrequency = in.CutoffFreq
	warnings := []string{}
	switch {
	case given(in.Resistance):
		res.Capacitance = ptr(1 / (2 * math.Pi * *in.Resistance * in.CutoffFreq))
	case given(in.Capacitance):
		res.Resistance = ptr(1 / (2 * math.Pi * *in.Capacitance * in.CutoffFreq))
	default:
		warnings = append(warnings, "Provide a resistance or capacitance to size the filter")
	}
	return res, warnings, nil
}

func degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

func optionalPositive(field string, v *float64) error {
	if v == nil || *v == 0 {
		return nil
	}
	return validate.Positive(field, *v)
}
