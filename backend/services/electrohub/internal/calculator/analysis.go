package calculator

import (
	"math"
	"sort"

	"electrohub/backend/services/electrohub/internal/validate"
)

// AmplifierInput carries the input voltage plus one of output voltage, dB gain or linear gain.
type AmplifierInput struct {
	InputVoltage  float64  `json:"input_voltage"`
	OutputVoltage *float64 `json:"output_voltage"`
	GainDB        *float64 `json:"gain_db"`
	GainLinear    *float64 `json:"gain_linear"`
}

// AmplifierResult reports all three representations. A zero linear gain has no dB value.
type AmplifierResult struct {
	InputVoltage  float64  `json:"input_voltage"`
	OutputVoltage *float64 `json:"output_voltage"`
	GainLinear    *float64 `json:"gain_linear"`
	GainDB        *float64 `json:"gain_db"`
}

// AmplifierGain converts between voltage ratio and decibels.
func AmplifierGain(in AmplifierInput) (AmplifierResult, []string, error) {
	if err := validate.First(
		validate.Finite("input_voltage", in.InputVoltage),
		optionalFinite("output_voltage", in.OutputVoltage),
		optionalFinite("gain_db", in.GainDB),
		optionalFinite("gain_linear", in.GainLinear),
	); err != nil {
		return AmplifierResult{}, nil, err
	}

	res := AmplifierResult{InputVoltage: in.InputVoltage}
	switch {
	case given(in.OutputVoltage):
		g := 0.0
		if in.InputVoltage != 0 {
			g = *in.OutputVoltage / in.InputVoltage
		}
		res.OutputVoltage = ptr(*in.OutputVoltage)
		res.GainLinear = ptr(g)
		res.GainDB = linearToDB(g)
	case in.GainDB != nil:
		g := math.Pow(10, *in.GainDB/20)
		res.GainDB = ptr(*in.GainDB)
		res.GainLinear = ptr(g)
		res.OutputVoltage = ptr(in.InputVoltage * g)
	case in.GainLinear != nil:
		g := *in.GainLinear
		res.GainLinear = ptr(g)
		res.GainDB = linearToDB(g)
		res.OutputVoltage = ptr(in.InputVoltage * g)
	}

	warnings := []string{}
	if res.GainDB != nil && math.Abs(*res.GainDB) > 60 {
		warnings = append(warnings, "Very high gain - consider stability and noise")
	}
	return res, warnings, nil
}

func linearToDB(g float64) *float64 {
	if g == 0 {
		return nil
	}
	return ptr(20 * math.Log10(math.Abs(g)))
}

// ToleranceResult bounds a component value.
type ToleranceResult struct {
	Nominal           float64 `json:"nominal"`
	TolerancePercent  float64 `json:"tolerance_percent"`
	MinValue          float64 `json:"min_value"`
	MaxValue          float64 `json:"max_value"`
	AbsoluteTolerance float64 `json:"absolute_tolerance"`
}

// ToleranceAnalysis returns the min/max band of a nominal value.
func ToleranceAnalysis(nominal, tolerancePercent float64) (ToleranceResult, []string, error) {
	if err := validate.First(
		validate.Finite("nominal_value", nominal),
		validate.Range("tolerance_percent", tolerancePercent, 0, 100),
	); err != nil {
		return ToleranceResult{}, nil, err
	}
	frac := tolerancePercent / 100
	res := ToleranceResult{
		Nominal:           nominal,
		TolerancePercent:  tolerancePercent,
		MinValue:          nominal * (1 - frac),
		MaxValue:          nominal * (1 + frac),
		AbsoluteTolerance: nominal * frac,
	}
	warnings := []string{}
	if tolerancePercent > 20 {
		warnings = append(warnings, "High tolerance - may affect circuit accuracy")
	}
	return res, warnings, nil
}

// Power rating verdicts.
const (
	StatusOK      = "OK"
	StatusWarning = "WARNING"
	StatusFail    = "FAIL"
)

// PowerRatingResult compares dissipation against a derated rating.
type PowerRatingResult struct {
	ActualPower        float64 `json:"actual_power"`
	RatedPower         float64 `json:"rated_power"`
	DeratedPower       float64 `json:"derated_power"`
	PowerMargin        float64 `json:"power_margin"`
	UtilizationPercent float64 `json:"utilization_percent"`
	Status             string  `json:"status"`
}

// DefaultDerating is applied when the request omits derating_factor.
const DefaultDerating = 0.8

// PowerRatingCheck flags components running above 70% of rating or above the derated limit.
func PowerRatingCheck(voltage, current, rated, derating float64) (PowerRatingResult, []string, error) {
	if err := validate.First(
		validate.Finite("voltage", voltage),
		validate.Finite("current", current),
		validate.Positive("rated_power", rated),
		validate.Range("derating_factor", derating, 0, 1),
	); err != nil {
		return PowerRatingResult{}, nil, err
	}

	actual := voltage * current
	derated := rated * derating
	res := PowerRatingResult{
		ActualPower:        actual,
		RatedPower:         rated,
		DeratedPower:       derated,
		PowerMargin:        derated - actual,
		UtilizationPercent: actual / rated * 100,
	}

	warnings := []string{}
	switch {
	case actual > derated:
		warnings = append(warnings, "DANGER: Power exceeds derated limit! Component may fail.")
		res.Status = StatusFail
	case actual > rated*0.7:
		warnings = append(warnings, "WARNING: Operating near power limit. Consider upgrading component.")
		res.Status = StatusWarning
	default:
		res.Status = StatusOK
	}
	return res, warnings, nil
}

// WhatIfPoint is one step of a parameter sweep.
type WhatIfPoint struct {
	ParamValue float64     `json:"param_value"`
	Result     interface{} `json:"result"`
	Warnings   []string    `json:"warnings"`
}

type sweepFunc func(p map[string]float64) (interface{}, []string, error)

var sweepable = map[string]sweepFunc{
	"ohms_law": func(p map[string]float64) (interface{}, []string, error) {
		return OhmsLaw(OhmsLawInput{Voltage: lookup(p, "voltage"), Current: lookup(p, "current"), Resistance: lookup(p, "resistance")})
	},
	"rc_circuit": func(p map[string]float64) (interface{}, []string, error) {
		return RCCircuit(p["resistance"], p["capacitance"], lookup(p, "frequency"))
	},
	"rl_circuit": func(p map[string]float64) (interface{}, []string, error) {
		return RLCircuit(p["resistance"], p["inductance"], lookup(p, "frequency"))
	},
	"rlc_circuit": func(p map[string]float64) (interface{}, []string, error) {
		return RLCCircuit(p["resistance"], p["inductance"], p["capacitance"], lookup(p, "frequency"))
	},
	"voltage_divider": func(p map[string]float64) (interface{}, []string, error) {
		return VoltageDivider(p["vin"], p["r1"], p["r2"])
	},
	"tolerance_analysis": func(p map[string]float64) (interface{}, []string, error) {
		return ToleranceAnalysis(p["nominal_value"], p["tolerance_percent"])
	},
	"power_rating": func(p map[string]float64) (interface{}, []string, error) {
		d, ok := p["derating_factor"]
		if !ok {
			d = DefaultDerating
		}
		return PowerRatingCheck(p["voltage"], p["current"], p["rated_power"], d)
	},
}

// SweepableCalculators lists calculators accepted by WhatIf.
func SweepableCalculators() []string {
	names := make([]string, 0, len(sweepable))
	for name := range sweepable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MaxWhatIfPoints caps a single sweep.
const MaxWhatIfPoints = 200

// WhatIf reruns a calculator once per value of the varied parameter.
func WhatIf(calculator string, base map[string]float64, param string, values []float64) ([]WhatIfPoint, error) {
	fn, ok := sweepable[calculator]
	if !ok {
		return nil, validate.Errorf("calculator", "unsupported calculator %q", calculator)
	}
	if param == "" {
		return nil, validate.Errorf("param", "is required")
	}
	if len(values) == 0 || len(values) > MaxWhatIfPoints {
		return nil, validate.Errorf("values", "must contain 1 to %d entries", MaxWhatIfPoints)
	}

	points := make([]WhatIfPoint, 0, len(values))
	for _, v := range values {
		params := make(map[string]float64, len(base)+1)
		for k, bv := range base {
			params[k] = bv
		}
		params[param] = v
		res, warnings, err := fn(params)
		if err != nil {
			return nil, err
		}
		points = append(points, WhatIfPoint{ParamValue: v, Result: res, Warnings: warnings})
	}
	return points, nil
}

func lookup(p map[string]float64, key string) *float64 {
	v, ok := p[key]
	if !ok {
		return nil
	}
	return &v
}
