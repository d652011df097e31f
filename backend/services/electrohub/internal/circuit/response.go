package circuit

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"electrohub/backend/services/electrohub/internal/validate"
)

// Sweep defaults and limits for FrequencyResponse.
const (
	DefaultFreqStart = 1.0
	DefaultFreqEnd   = 1e6
	DefaultPoints    = 100
	MaxPoints        = 5000
)

// ResponseInput describes a log-spaced sweep of a series RLC network.
type ResponseInput struct {
	Resistance  float64 `json:"resistance"`
	Inductance  float64 `json:"inductance"`
	Capacitance float64 `json:"capacitance"`
	FreqStart   float64 `json:"freq_start"`
	FreqEnd     float64 `json:"freq_end"`
	Points      int     `json:"points"`
}

// ResponseResult holds the sweep. Resonance fields are null unless both L and C are present.
type ResponseResult struct {
	Frequencies       []float64 `json:"frequencies"`
	GainsDB           []float64 `json:"gains_db"`
	Phases            []float64 `json:"phases"`
	Impedances        []float64 `json:"impedances"`
	ResonantFrequency *float64  `json:"resonant_frequency"`
	QFactor           *float64  `json:"q_factor,omitempty"`
	Bandwidth         *float64  `json:"bandwidth,omitempty"`
}

// FrequencyResponse sweeps the voltage across R relative to the source.
func FrequencyResponse(in ResponseInput) (ResponseResult, error) {
	if err := validate.First(
		validate.Positive("resistance", in.Resistance),
		validate.NonNegative("inductance", in.Inductance),
		validate.NonNegative("capacitance", in.Capacitance),
		validate.Positive("freq_start", in.FreqStart),
		validate.Positive("freq_end", in.FreqEnd),
	); err != nil {
		return ResponseResult{}, err
	}
	if in.FreqEnd <= in.FreqStart {
		return ResponseResult{}, validate.Errorf("freq_end", "must be greater than freq_start")
	}
	if in.Points < 2 || in.Points > MaxPoints {
		return ResponseResult{}, validate.Errorf("points", "must be between 2 and %d", MaxPoints)
	}

	freqs := floats.LogSpan(make([]float64, in.Points), in.FreqStart, in.FreqEnd)
	res := ResponseResult{
		Frequencies: freqs,
		GainsDB:     make([]float64, len(freqs)),
		Phases:      make([]float64, len(freqs)),
		Impedances:  make([]float64, len(freqs)),
	}
	for i, f := range freqs {
		xl, xc := reactances(2*math.Pi*f, in.Inductance, in.Capacitance)
		x := xl - xc
		z := math.Hypot(in.Resistance, x)
		res.Impedances[i] = z
		res.GainsDB[i] = 20 * math.Log10(in.Resistance/z)
		res.Phases[i] = math.Atan2(-x, in.Resistance) * 180 / math.Pi
	}

	if in.Inductance > 0 && in.Capacitance > 0 {
		f0 := 1 / (2 * math.Pi * math.Sqrt(in.Inductance*in.Capacitance))
		q := math.Sqrt(in.Inductance/in.Capacitance) / in.Resistance
		bw := f0 / q
		res.ResonantFrequency = &f0
		res.QFactor = &q
		res.Bandwidth = &bw
	}
	return res, nil
}

// Efficiency ratings.
const (
	RatingPoor      = "Poor"
	RatingFair      = "Fair"
	RatingGood      = "Good"
	RatingExcellent = "Excellent"
)

// EfficiencyInput carries measured powers. Losses default to input minus output.
type EfficiencyInput struct {
	InputPower  float64  `json:"input_power"`
	OutputPower float64  `json:"output_power"`
	Losses      *float64 `json:"losses"`
}

// EfficiencyResult grades the conversion efficiency.
type EfficiencyResult struct {
	InputPower        float64 `json:"input_power"`
	OutputPower       float64 `json:"output_power"`
	Losses            float64 `json:"losses"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	Rating            string  `json:"rating"`
}

// EfficiencyAnalysis rates Pout/Pin. A non-positive input power yields 0 %.
func EfficiencyAnalysis(in EfficiencyInput) (EfficiencyResult, []string, error) {
	if err := validate.First(
		validate.Finite("input_power", in.InputPower),
		validate.Finite("output_power", in.OutputPower),
	); err != nil {
		return EfficiencyResult{}, nil, err
	}
	losses := in.InputPower - in.OutputPower
	if in.Losses != nil {
		if err := validate.Finite("losses", *in.Losses); err != nil {
			return EfficiencyResult{}, nil, err
		}
		losses = *in.Losses
	}

	eff := 0.0
	if in.InputPower > 0 {
		eff = in.OutputPower / in.InputPower * 100
	}
	res := EfficiencyResult{
		InputPower:        in.InputPower,
		OutputPower:       in.OutputPower,
		Losses:            losses,
		EfficiencyPercent: eff,
	}

	warnings := []string{}
	switch {
	case eff < 50:
		warnings = append(warnings, "Low efficiency - significant power losses")
		res.Rating = RatingPoor
	case eff < 70:
		warnings = append(warnings, "Moderate efficiency - room for improvement")
		res.Rating = RatingFair
	case eff < 85:
		res.Rating = RatingGood
	default:
		res.Rating = RatingExcellent
	}
	return res, warnings, nil
}

// Comparison is one row of ComparativeAnalysis.
type Comparison struct {
	CircuitID   int     `json:"circuit_id"`
	Parameters  ACInput `json:"parameters"`
	Impedance   float64 `json:"impedance"`
	PowerFactor float64 `json:"power_factor"`
	Efficiency  string  `json:"efficiency"`
	PhaseAngle  float64 `json:"phase_angle"`
	CircuitType string  `json:"circuit_type"`
}

// ComparisonResult names the winning circuits by 1-based id.
type ComparisonResult struct {
	BestPowerFactor int          `json:"best_power_factor"`
	LowestImpedance int          `json:"lowest_impedance"`
	ComparisonData  []Comparison `json:"comparison_data"`
}

// MaxCompared bounds ComparativeAnalysis.
const MaxCompared = 20

// ComparativeAnalysis runs ACAnalysis per circuit. Ties go to the earliest circuit.
func ComparativeAnalysis(circuits []ACInput) (ComparisonResult, error) {
	if len(circuits) == 0 {
		return ComparisonResult{}, validate.Errorf("circuits", "must not be empty")
	}
	if len(circuits) > MaxCompared {
		return ComparisonResult{}, validate.Errorf("circuits", "must contain at most %d entries", MaxCompared)
	}

	out := ComparisonResult{ComparisonData: make([]Comparison, 0, len(circuits))}
	best, lowest := 0, 0
	for i, c := range circuits {
		r, _, err := ACAnalysis(c)
		if err != nil {
			return ComparisonResult{}, err
		}
		out.ComparisonData = append(out.ComparisonData, Comparison{
			CircuitID:   i + 1,
			Parameters:  c,
			Impedance:   r.Impedance,
			PowerFactor: r.PowerFactor,
			Efficiency:  "N/A",
			PhaseAngle:  r.PhaseAngle,
			CircuitType: r.CircuitType,
		})
		if r.PowerFactor > out.ComparisonData[best].PowerFactor {
			best = i
		}
		if r.Impedance < out.ComparisonData[lowest].Impedance {
			lowest = i
		}
	}
	out.BestPowerFactor = best + 1
	out.LowestImpedance = lowest + 1
	return out, nil
}
