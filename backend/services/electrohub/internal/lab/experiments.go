package lab

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"electrohub/backend/services/electrohub/internal/validate"
)

const (
	boltzmann        = 1.380649e-23
	elementaryCharge = 1.602176634e-19

	rcSamples      = 1000
	forwardSamples = 200
	reverseSamples = 100
)

// Waveform is a sampled transient.
type Waveform struct {
	Time    []float64 `json:"time"`
	Voltage []float64 `json:"voltage"`
	Current []float64 `json:"current"`
}

// RCParameters echo the RC inputs with units.
type RCParameters struct {
	ResistanceOhm float64 `json:"resistance_ohm"`
	CapacitanceF  float64 `json:"capacitance_f"`
	VoltageV      float64 `json:"voltage_v"`
}

// KeyTimes mark 63.2 %, 95 % and 99.3 % of full charge.
type KeyTimes struct {
	Time63Percent float64 `json:"time_63_percent"`
	Time95Percent float64 `json:"time_95_percent"`
	Time99Percent float64 `json:"time_99_percent"`
}

// RCResult is the RC transient experiment.
type RCResult struct {
	base
	Parameters    RCParameters `json:"parameters"`
	TimeConstantS float64      `json:"time_constant_s"`
	Charging      Waveform     `json:"charging"`
	Discharging   Waveform     `json:"discharging"`
	KeyTimes      KeyTimes     `json:"key_times"`
}

// Summary implements Result.
func (r *RCResult) Summary() Summary {
	return Summary{
		Experiment: r.Experiment,
		Parameters: []Row{
			row("resistance_ohm", r.Parameters.ResistanceOhm),
			row("capacitance_f", r.Parameters.CapacitanceF),
			row("voltage_v", r.Parameters.VoltageV),
		},
		Metrics: []Row{
			row("time_constant_s", r.TimeConstantS),
			row("time_63_percent", r.KeyTimes.Time63Percent),
			row("time_95_percent", r.KeyTimes.Time95Percent),
			row("time_99_percent", r.KeyTimes.Time99Percent),
		},
		Conclusion: r.Conclusion,
	}
}

func runRC(p Params) (*RCResult, error) {
	in, err := take(p, map[string]*float64{"duration_multiplier": def(5)},
		"resistance", "capacitance", "voltage", "duration_multiplier")
	if err != nil {
		return nil, err
	}
	r, c, v, mult := in["resistance"], in["capacitance"], in["voltage"], in["duration_multiplier"]
	if err := validate.First(
		validate.Positive("resistance", r),
		validate.Positive("capacitance", c),
		validate.Range("duration_multiplier", mult, 0.1, 100),
	); err != nil {
		return nil, err
	}

	tau := r * c
	t := floats.Span(make([]float64, rcSamples), 0, tau*mult)
	charging := Waveform{Time: t, Voltage: make([]float64, rcSamples), Current: make([]float64, rcSamples)}
	discharging := Waveform{Time: t, Voltage: make([]float64, rcSamples), Current: make([]float64, rcSamples)}
	for i, ti := range t {
		decay := math.Exp(-ti / tau)
		charging.Voltage[i] = v * (1 - decay)
		charging.Current[i] = v / r * decay
		discharging.Voltage[i] = v * decay
		discharging.Current[i] = -v / r * decay
	}

	keys := KeyTimes{Time63Percent: tau, Time95Percent: 3 * tau, Time99Percent: 5 * tau}
	return &RCResult{
		base: base{
			Experiment: "RC Transient Response",
			Conclusion: fmt.Sprintf("The RC circuit has a time constant of %.6f seconds. "+
				"The capacitor reaches 63.2%% charge in %.6fs, 95%% in %.6fs, and 99.3%% in %.6fs.",
				tau, keys.Time63Percent, keys.Time95Percent, keys.Time99Percent),
		},
		Parameters:    RCParameters{ResistanceOhm: r, CapacitanceF: c, VoltageV: v},
		TimeConstantS: tau,
		Charging:      charging,
		Discharging:   discharging,
		KeyTimes:      keys,
	}, nil
}

// Damping regimes of a series RLC circuit.
const (
	Underdamped      = "Underdamped"
	CriticallyDamped = "Critically Damped"
	Overdamped       = "Overdamped"
)

// RLCParameters echo the RLC inputs with units.
type RLCParameters struct {
	ResistanceOhm float64 `json:"resistance_ohm"`
	InductanceH   float64 `json:"inductance_h"`
	CapacitanceF  float64 `json:"capacitance_f"`
}

// RLCSweep is the impedance sweep of the resonance experiment.
type RLCSweep struct {
	Frequencies []float64 `json:"frequencies"`
	Impedances  []float64 `json:"impedances"`
	Phases      []float64 `json:"phases"`
	GainsDB     []float64 `json:"gains_db"`
}

// RLCResult is the RLC resonance experiment.
type RLCResult struct {
	base
	Parameters          RLCParameters `json:"parameters"`
	ResonantFrequencyHz float64       `json:"resonant_frequency_hz"`
	QFactor             float64       `json:"q_factor"`
	BandwidthHz         float64       `json:"bandwidth_hz"`
	DampingFactor       float64       `json:"damping_factor"`
	ResponseType        string        `json:"response_type"`
	FrequencyResponse   RLCSweep      `json:"frequency_response"`
}

// Summary implements Result.
func (r *RLCResult) Summary() Summary {
	return Summary{
		Experiment: r.Experiment,
		Parameters: []Row{
			row("resistance_ohm", r.Parameters.ResistanceOhm),
			row("inductance_h", r.Parameters.InductanceH),
			row("capacitance_f", r.Parameters.CapacitanceF),
		},
		Metrics: []Row{
			row("resonant_frequency_hz", r.ResonantFrequencyHz),
			row("q_factor", r.QFactor),
			row("bandwidth_hz", r.BandwidthHz),
			row("damping_factor", r.DampingFactor),
			{Name: title("response_type"), Value: r.ResponseType},
		},
		Conclusion: r.Conclusion,
	}
}

func runRLC(p Params) (*RLCResult, error) {
	in, err := take(p, map[string]*float64{
		"freq_start": def(10),
		"freq_end":   def(1e5),
		"points":     def(500),
	}, "resistance", "inductance", "capacitance", "freq_start", "freq_end", "points")
	if err != nil {
		return nil, err
	}
	r, l, c := in["resistance"], in["inductance"], in["capacitance"]
	if err := validate.First(
		validate.Positive("resistance", r),
		validate.Positive("inductance", l),
		validate.Positive("capacitance", c),
		span("freq_start", "freq_end", in["freq_start"], in["freq_end"]),
	); err != nil {
		return nil, err
	}
	n, err := points("points", in["points"])
	if err != nil {
		return nil, err
	}

	z0 := math.Sqrt(l / c)
	f0 := 1 / (2 * math.Pi * math.Sqrt(l*c))
	q := z0 / r
	damping := r / (2 * z0)
	response := Overdamped
	switch {
	case damping < 1:
		response = Underdamped
	case damping == 1:
		response = CriticallyDamped
	}

	sweep := RLCSweep{
		Frequencies: logspace(in["freq_start"], in["freq_end"], n),
		Impedances:  make([]float64, n),
		Phases:      make([]float64, n),
		GainsDB:     make([]float64, n),
	}
	for i, f := range sweep.Frequencies {
		omega := 2 * math.Pi * f
		x := omega*l - 1/(omega*c)
		z := math.Hypot(r, x)
		sweep.Impedances[i] = z
		sweep.Phases[i] = math.Atan2(x, r) * 180 / math.Pi
		sweep.GainsDB[i] = 20 * math.Log10(r/z)
	}

	return &RLCResult{
		base: base{
			Experiment: "RLC Resonance",
			Conclusion: fmt.Sprintf("The RLC circuit resonates at %.2f Hz with a Q-factor of %.2f. "+
				"The -3dB bandwidth is %.2f Hz. The circuit is %s.",
				f0, q, f0/q, strings.ToLower(response)),
		},
		Parameters:          RLCParameters{ResistanceOhm: r, InductanceH: l, CapacitanceF: c},
		ResonantFrequencyHz: f0,
		QFactor:             q,
		BandwidthHz:         f0 / q,
		DampingFactor:       damping,
		ResponseType:        response,
		FrequencyResponse:   sweep,
	}, nil
}

// DiodeParameters echo the diode model inputs with units.
type DiodeParameters struct {
	SaturationCurrentA float64 `json:"saturation_current_a"`
	IdealityFactor     float64 `json:"ideality_factor"`
	TemperatureK       float64 `json:"temperature_k"`
}

// IVCurve is a sampled current-voltage characteristic.
type IVCurve struct {
	Voltage []float64 `json:"voltage"`
	Current []float64 `json:"current"`
}

// DiodeResult is the diode I-V experiment.
type DiodeResult struct {
	base
	Parameters             DiodeParameters `json:"parameters"`
	ThermalVoltageV        float64         `json:"thermal_voltage_v"`
	ForwardVoltageV        float64         `json:"forward_voltage_v"`
	ForwardCharacteristics IVCurve         `json:"forward_characteristics"`
	ReverseCharacteristics IVCurve         `json:"reverse_characteristics"`
}

// Summary implements Result.
func (r *DiodeResult) Summary() Summary {
	return Summary{
		Experiment: r.Experiment,
		Parameters: []Row{
			row("saturation_current_a", r.Parameters.SaturationCurrentA),
			row("ideality_factor", r.Parameters.IdealityFactor),
			row("temperature_k", r.Parameters.TemperatureK),
		},
		Metrics: []Row{
			row("thermal_voltage_v", r.ThermalVoltageV),
			row("forward_voltage_v", r.ForwardVoltageV),
		},
		Conclusion: r.Conclusion,
	}
}

// DefaultForwardVoltage is reported when the forward sweep never reaches 1 mA.
const DefaultForwardVoltage = 0.7

func runDiode(p Params) (*DiodeResult, error) {
	in, err := take(p, map[string]*float64{
		"saturation_current": def(1e-12),
		"ideality_factor":    def(1),
		"temperature":        def(300),
	}, "saturation_current", "ideality_factor", "temperature")
	if err != nil {
		return nil, err
	}
	is, n, temp := in["saturation_current"], in["ideality_factor"], in["temperature"]
	if err := validate.First(
		validate.Positive("saturation_current", is),
		validate.Range("ideality_factor", n, 0.5, 10),
		validate.Range("temperature", temp, 1, 1000),
	); err != nil {
		return nil, err
	}

	vt := boltzmann * temp / elementaryCharge
	shockley := func(v []float64) ([]float64, error) {
		out := make([]float64, len(v))
		for i, vi := range v {
			out[i] = is * (math.Exp(vi/(n*vt)) - 1)
			if math.IsInf(out[i], 0) || math.IsNaN(out[i]) {
				return nil, validate.Errorf("temperature", "is too low for the forward sweep")
			}
		}
		return out, nil
	}

	fwd := IVCurve{Voltage: floats.Span(make([]float64, forwardSamples), 0, 0.8)}
	if fwd.Current, err = shockley(fwd.Voltage); err != nil {
		return nil, err
	}
	rev := IVCurve{Voltage: floats.Span(make([]float64, reverseSamples), -5, 0)}
	if rev.Current, err = shockley(rev.Voltage); err != nil {
		return nil, err
	}

	vOn := DefaultForwardVoltage
	for i, c := range fwd.Current {
		if c > 1e-3 {
			if i > 0 {
				vOn = fwd.Voltage[i]
			}
			break
		}
	}

	return &DiodeResult{
		base: base{
			Experiment: "Diode I-V Characteristics",
			Conclusion: fmt.Sprintf("The diode has a forward voltage of approximately %.3fV at 1mA. "+
				"At %sK, the thermal voltage is %.2fmV. The reverse leakage current is %.2fpA.",
				vOn, strconv.FormatFloat(temp, 'f', -1, 64), vt*1000, is*1e12),
		},
		Parameters:             DiodeParameters{SaturationCurrentA: is, IdealityFactor: n, TemperatureK: temp},
		ThermalVoltageV:        vt,
		ForwardVoltageV:        vOn,
		ForwardCharacteristics: fwd,
		ReverseCharacteristics: rev,
	}, nil
}

// AmplifierParameters echo the amplifier model inputs.
type AmplifierParameters struct {
	DCGainLinear      float64 `json:"dc_gain_linear"`
	DCGainDB          float64 `json:"dc_gain_db"`
	BandwidthHz       float64 `json:"bandwidth_hz"`
	InputImpedanceOhm float64 `json:"input_impedance_ohm"`
}

// GainSweep is the amplifier frequency response.
type GainSweep struct {
	Frequencies []float64 `json:"frequencies"`
	GainsDB     []float64 `json:"gains_db"`
	Phases      []float64 `json:"phases"`
}

// AmplifierResult is the single-pole amplifier experiment.
type AmplifierResult struct {
	base
	Parameters           AmplifierParameters `json:"parameters"`
	GainBandwidthProduct float64             `json:"gain_bandwidth_product"`
	MeasuredBandwidthHz  float64             `json:"measured_bandwidth_hz"`
	FrequencyResponse    GainSweep           `json:"frequency_response"`
}

// Summary implements Result.
func (r *AmplifierResult) Summary() Summary {
	return Summary{
		Experiment: r.Experiment,
		Parameters: []Row{
			row("dc_gain_linear", r.Parameters.DCGainLinear),
			row("dc_gain_db", r.Parameters.DCGainDB),
			row("bandwidth_hz", r.Parameters.BandwidthHz),
			row("input_impedance_ohm", r.Parameters.InputImpedanceOhm),
		},
		Metrics: []Row{
			row("gain_bandwidth_product", r.GainBandwidthProduct),
			row("measured_bandwidth_hz", r.MeasuredBandwidthHz),
		},
		Conclusion: r.Conclusion,
	}
}

func runAmplifier(p Params) (*AmplifierResult, error) {
	in, err := take(p, map[string]*float64{
		"dc_gain":         def(100),
		"bandwidth":       def(1e6),
		"input_impedance": def(1e4),
		"freq_start":      def(10),
		"freq_end":        def(1e8),
		"points":          def(500),
	}, "dc_gain", "bandwidth", "input_impedance", "freq_start", "freq_end", "points")
	if err != nil {
		return nil, err
	}
	gain, bw := in["dc_gain"], in["bandwidth"]
	if err := validate.First(
		validate.Positive("dc_gain", gain),
		validate.Positive("bandwidth", bw),
		validate.Positive("input_impedance", in["input_impedance"]),
		span("freq_start", "freq_end", in["freq_start"], in["freq_end"]),
	); err != nil {
		return nil, err
	}
	n, err := points("points", in["points"])
	if err != nil {
		return nil, err
	}

	gainDB := 20 * math.Log10(gain)
	sweep := GainSweep{
		Frequencies: logspace(in["freq_start"], in["freq_end"], n),
		GainsDB:     make([]float64, n),
		Phases:      make([]float64, n),
	}
	cutoff, best := 0, math.Inf(1)
	for i, f := range sweep.Frequencies {
		g := gain / math.Sqrt(1+(f/bw)*(f/bw))
		sweep.GainsDB[i] = 20 * math.Log10(g)
		sweep.Phases[i] = -math.Atan(f/bw) * 180 / math.Pi
		if d := math.Abs(sweep.GainsDB[i] - (gainDB - 3)); d < best {
			cutoff, best = i, d
		}
	}
	measured := sweep.Frequencies[cutoff]
	gbw := gain * bw

	return &AmplifierResult{
		base: base{
			Experiment: "Amplifier Gain Measurement",
			Conclusion: fmt.Sprintf("The amplifier has a DC gain of %s (%.1fdB) with a -3dB bandwidth of %.0fHz. "+
				"The gain-bandwidth product is %.2fMHz.",
				strconv.FormatFloat(gain, 'f', -1, 64), gainDB, measured, gbw/1e6),
		},
		Parameters: AmplifierParameters{
			DCGainLinear:      gain,
			DCGainDB:          gainDB,
			BandwidthHz:       bw,
			InputImpedanceOhm: in["input_impedance"],
		},
		GainBandwidthProduct: gbw,
		MeasuredBandwidthHz:  measured,
		FrequencyResponse:    sweep,
	}, nil
}

// logspace samples n points evenly in log10 between lo and hi.
func logspace(lo, hi float64, n int) []float64 {
	return floats.LogSpan(make([]float64, n), lo, hi)
}
