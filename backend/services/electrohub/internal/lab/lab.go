// Package lab runs virtual bench experiments: RC transients, RLC resonance,
// diode curves and amplifier roll-off, optionally with component tolerance.
package lab

import (
	"errors"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"electrohub/backend/services/electrohub/internal/validate"
)

// ErrUnknownExperiment is returned for names missing from the catalog.
var ErrUnknownExperiment = errors.New("unknown experiment")

// Experiment identifiers.
const (
	RCTransient          = "rc_transient"
	RLCResonance         = "rlc_resonance"
	DiodeCharacteristics = "diode_characteristics"
	AmplifierGain        = "amplifier_gain"
)

// Experiment describes a catalog entry.
type Experiment struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Theory      string   `json:"theory"`
	Parameters  []string `json:"parameters"`
}

// Experiments is the catalog keyed by identifier.
var Experiments = map[string]Experiment{
	RCTransient: {
		Name:        "RC Circuit Transient Response",
		Description: "Analyze charging and discharging behavior of RC circuits",
		Theory:      "The RC circuit time constant τ = RC determines how quickly the capacitor charges/discharges. After 5τ, the capacitor is considered fully charged (99.3%).",
		Parameters:  []string{"resistance", "capacitance", "voltage"},
	},
	RLCResonance: {
		Name:        "RLC Circuit Resonance",
		Description: "Study resonant frequency and Q-factor of RLC circuits",
		Theory:      "At resonance, inductive and capacitive reactances cancel out. The resonant frequency f₀ = 1/(2π√LC). The Q-factor determines the sharpness of resonance.",
		Parameters:  []string{"resistance", "inductance", "capacitance"},
	},
	DiodeCharacteristics: {
		Name:        "Diode I-V Characteristics",
		Description: "Plot forward and reverse characteristics of a diode",
		Theory:      "A diode follows the Shockley equation: I = Is(e^(V/nVt) - 1). Forward bias shows exponential current increase, reverse bias shows minimal leakage current.",
		Parameters:  []string{"saturation_current", "ideality_factor", "temperature"},
	},
	AmplifierGain: {
		Name:        "Amplifier Gain Measurement",
		Description: "Measure voltage gain and frequency response of amplifiers",
		Theory:      "Amplifier gain Av = Vout/Vin. The bandwidth is limited by internal capacitances. Gain-bandwidth product is constant for most amplifiers.",
		Parameters:  []string{"dc_gain", "bandwidth", "input_impedance"},
	},
}

// ExperimentIDs lists the catalog in display order.
var ExperimentIDs = []string{RCTransient, RLCResonance, DiodeCharacteristics, AmplifierGain}

// Theory returns the catalog entry for name.
func Theory(name string) (Experiment, error) {
	e, ok := Experiments[name]
	if !ok {
		return Experiment{}, ErrUnknownExperiment
	}
	return e, nil
}

// Row is one labelled value in a report table.
type Row struct {
	Name  string
	Value string
}

// Summary is the printable part of an experiment result.
type Summary struct {
	Experiment string
	Parameters []Row
	Metrics    []Row
	Conclusion string
}

// Result is the outcome of any experiment.
type Result interface {
	Summary() Summary
	attach(t *Tolerance)
}

// Tolerance records the perturbation applied by RunWithTolerance.
type Tolerance struct {
	Applied float64            `json:"tolerance_applied"`
	Actual  map[string]float64 `json:"actual_parameters"`
	Nominal map[string]float64 `json:"nominal_parameters"`
}

type base struct {
	Experiment string `json:"experiment"`
	Conclusion string `json:"conclusion"`
	*Tolerance
}

func (b *base) attach(t *Tolerance) {
	b.Tolerance = t
}

// Params are the numeric experiment inputs keyed by parameter name.
type Params map[string]float64

// Run dispatches to the named experiment.
func Run(name string, p Params) (Result, error) {
	var (
		res Result
		err error
	)
	switch name {
	case RCTransient:
		res, err = unwrap(runRC(p))
	case RLCResonance:
		res, err = unwrap(runRLC(p))
	case DiodeCharacteristics:
		res, err = unwrap(runDiode(p))
	case AmplifierGain:
		res, err = unwrap(runAmplifier(p))
	default:
		return nil, ErrUnknownExperiment
	}
	return res, err
}

// unwrap keeps a failed run from leaking a typed nil into the interface.
func unwrap[T Result](r T, err error) (Result, error) {
	if err != nil {
		return nil, err
	}
	return r, nil
}

// DefaultTolerancePercent is used when a tolerance run omits the percentage.
const DefaultTolerancePercent = 5.0

// RunWithTolerance perturbs each non-zero component parameter of the
// experiment uniformly within ±tolerancePercent before running it. Sweep
// settings such as points or freq_start pass through unchanged.
func RunWithTolerance(name string, p Params, tolerancePercent float64, rng *rand.Rand) (Result, error) {
	exp, ok := Experiments[name]
	if !ok {
		return nil, ErrUnknownExperiment
	}
	if err := validate.Range("tolerance_percent", tolerancePercent, 0, 100); err != nil {
		return nil, err
	}

	component := make(map[string]struct{}, len(exp.Parameters))
	for _, k := range exp.Parameters {
		component[k] = struct{}{}
	}
	actual := make(Params, len(p))
	for _, k := range sortedKeys(p) {
		v := p[k]
		if _, ok := component[k]; ok && v != 0 {
			v += v * tolerancePercent / 100 * (2*rng.Float64() - 1)
		}
		actual[k] = v
	}

	res, err := Run(name, actual)
	if err != nil {
		return nil, err
	}
	res.attach(&Tolerance{Applied: tolerancePercent, Actual: actual, Nominal: p})
	return res, nil
}

// take pulls parameters out of p, falling back to defaults. A parameter
// without a default is required. Leftover keys are rejected.
func take(p Params, defaults map[string]*float64, names ...string) (map[string]float64, error) {
	out := make(map[string]float64, len(names))
	known := make(map[string]struct{}, len(names))
	for _, n := range names {
		known[n] = struct{}{}
		if v, ok := p[n]; ok {
			if err := validate.Finite(n, v); err != nil {
				return nil, err
			}
			out[n] = v
			continue
		}
		d := defaults[n]
		if d == nil {
			return nil, validate.Errorf(n, "is required")
		}
		out[n] = *d
	}
	for _, k := range sortedKeys(p) {
		if _, ok := known[k]; !ok {
			return nil, validate.Errorf(k, "is not a parameter of this experiment")
		}
	}
	return out, nil
}

func def(v float64) *float64 {
	return &v
}

func sortedKeys(p Params) []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// title turns "resistance_ohm" into "Resistance Ohm".
func title(key string) string {
	words := strings.Split(key, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func row(key string, v float64) Row {
	return Row{Name: title(key), Value: strconv.FormatFloat(v, 'g', 6, 64)}
}

func points(field string, v float64) (int, error) {
	n := int(v)
	if float64(n) != v || n < 2 || n > 5000 {
		return 0, validate.Errorf(field, "must be an integer between 2 and 5000")
	}
	return n, nil
}

func span(startField, endField string, lo, hi float64) error {
	if err := validate.First(validate.Positive(startField, lo), validate.Positive(endField, hi)); err != nil {
		return err
	}
	if hi <= lo {
		return validate.Errorf(endField, "must be greater than %s", startField)
	}
	return nil
}

// summarySkip lists result keys that never appear in the metrics table.
var summarySkip = map[string]struct{}{
	"experiment": {}, "parameters": {}, "conclusion": {},
	"tolerance_applied": {}, "actual_parameters": {}, "nominal_parameters": {},
}

// SummarizeJSON rebuilds a Summary from a decoded result document, as posted
// back by a client. Nested objects and arrays are left out of the metrics.
func SummarizeJSON(doc map[string]interface{}) Summary {
	s := Summary{}
	s.Experiment, _ = doc["experiment"].(string)
	s.Conclusion, _ = doc["conclusion"].(string)
	if params, ok := doc["parameters"].(map[string]interface{}); ok {
		s.Parameters = scalarRows(params, nil)
	}
	s.Metrics = scalarRows(doc, summarySkip)
	return s
}

func scalarRows(doc map[string]interface{}, skip map[string]struct{}) []Row {
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []Row
	for _, k := range keys {
		if _, ok := skip[k]; ok {
			continue
		}
		switch v := doc[k].(type) {
		case float64:
			out = append(out, row(k, v))
		case string:
			out = append(out, Row{Name: title(k), Value: v})
		case bool:
			out = append(out, Row{Name: title(k), Value: strconv.FormatBool(v)})
		}
	}
	return out
}
