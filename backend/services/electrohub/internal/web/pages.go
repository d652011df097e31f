package web

import (
	"sort"
	"strconv"

	"electrohub/backend/services/electrohub/internal/antenna"
	"electrohub/backend/services/electrohub/internal/calculator"
	"electrohub/backend/services/electrohub/internal/energy"
	"electrohub/backend/services/electrohub/internal/fault"
	"electrohub/backend/services/electrohub/internal/iot"
	"electrohub/backend/services/electrohub/internal/lab"
	"electrohub/backend/services/electrohub/internal/signalproc"
)

func num(name, label, value string) Field {
	return Field{Name: name, Label: label, Kind: KindNumber, Value: value}
}

func list(name, label, value string) Field {
	return Field{Name: name, Label: label, Kind: KindNumbers, Value: value}
}

func raw(name, label, value string) Field {
	return Field{Name: name, Label: label, Kind: KindJSON, Value: value}
}

func choice(name, label string, options ...string) Field {
	return Field{Name: name, Label: label, Kind: KindSelect, Value: options[0], Options: options}
}

func post(id, title, endpoint string, fields ...Field) Tool {
	return Tool{ID: id, Title: title, Endpoint: endpoint, Method: "POST", Fields: fields}
}

func query(id, title, endpoint string, fields ...Field) Tool {
	return Tool{ID: id, Title: title, Endpoint: endpoint, Method: "GET", Fields: fields}
}

const sampleSignal = "0, 0.59, 0.95, 0.95, 0.59, 0, -0.59, -0.95, -0.95, -0.59"

// Pages is the site map in navigation order.
func Pages() []Page {
	return []Page{
		calculatorPage(),
		circuitPage(),
		signalPage(),
		antennaPage(),
		solarPage(),
		energyPage(),
		iotPage(),
		labPage(),
	}
}

func calculatorPage() Page {
	return Page{
		Path:        "/calculator",
		Title:       "Calculators",
		Description: "Ohm's law, reactive circuits, filters, amplifiers and component checks",
		Tools: []Tool{
			post("ohms-law", "Ohm's Law", "/api/calculator/ohms-law",
				num("voltage", "Voltage (V)", "12"), num("current", "Current (A)", ""), num("resistance", "Resistance (Ω)", "6")),
			post("rc-circuit", "RC Circuit", "/api/calculator/rc-circuit",
				num("resistance", "Resistance (Ω)", "1000"), num("capacitance", "Capacitance (F)", "0.000001"), num("frequency", "Frequency (Hz)", "")),
			post("rl-circuit", "RL Circuit", "/api/calculator/rl-circuit",
				num("resistance", "Resistance (Ω)", "100"), num("inductance", "Inductance (H)", "0.01"), num("frequency", "Frequency (Hz)", "")),
			post("rlc-circuit", "RLC Circuit", "/api/calculator/rlc-circuit",
				num("resistance", "Resistance (Ω)", "10"), num("inductance", "Inductance (H)", "0.001"), num("capacitance", "Capacitance (F)", "0.000001")),
			post("filter", "RC Filter", "/api/calculator/filter",
				choice("filter_type", "Type", "lowpass", "highpass"), num("cutoff_freq", "Cutoff (Hz)", "1000"), num("resistance", "Resistance (Ω)", "1000"), num("capacitance", "Capacitance (F)", "")),
			post("amplifier", "Amplifier Gain", "/api/calculator/amplifier",
				num("input_voltage", "Input (V)", "0.1"), num("output_voltage", "Output (V)", "1"), num("gain_db", "Gain (dB)", ""), num("gain_linear", "Gain (V/V)", "")),
			post("tolerance", "Component Tolerance", "/api/calculator/tolerance",
				num("nominal_value", "Nominal value", "1000"), num("tolerance_percent", "Tolerance (%)", "5")),
			post("power-rating", "Power Rating", "/api/calculator/power-rating",
				num("voltage", "Voltage (V)", "5"), num("current", "Current (A)", "0.1"), num("rated_power", "Rated power (W)", "1"), num("derating_factor", "Derating factor", "0.8")),
			post("voltage-divider", "Voltage Divider", "/api/calculator/voltage-divider",
				num("vin", "Vin (V)", "12"), num("r1", "R1 (Ω)", "10000"), num("r2", "R2 (Ω)", "10000")),
			post("unit-convert", "Unit Conversion", "/api/calculator/unit-convert",
				num("value", "Value", "4.7"), choice("from_prefix", "From", calculator.PrefixOrder...), choice("to_prefix", "To", calculator.PrefixOrder...)),
			post("series", "Series Resistance", "/api/calculator/series", list("resistances", "Resistances (Ω)", "100, 220, 330")),
			post("parallel", "Parallel Resistance", "/api/calculator/parallel", list("resistances", "Resistances (Ω)", "100, 220, 330")),
			post("what-if", "What-if Sweep", "/api/calculator/what-if",
				choice("calculator", "Calculator", "ohms_law", "rc_circuit", "voltage_divider"),
				raw("base_params", "Base parameters", `{"voltage": 12, "resistance": 100}`),
				Field{Name: "param", Label: "Swept parameter", Kind: KindText, Value: "resistance"},
				list("values", "Values", "50, 100, 200")),
			query("history", "Calculation History", "/api/calculator/history",
				Field{Name: "module", Label: "Module", Kind: KindText}, num("limit", "Limit", "10")),
		},
		Tables: []Table{
			numberTable("Engineering constants", "Constant", calculator.EngineeringConstants),
			prefixTable(),
		},
	}
}

func circuitPage() Page {
	return Page{
		Path:        "/circuit",
		Title:       "Circuit Analysis",
		Description: "DC loops, AC phasors, frequency sweeps and efficiency",
		Tools: []Tool{
			post("dc-analysis", "DC Analysis", "/api/circuit/dc-analysis",
				list("voltage_sources", "Voltage sources (V)", "12"), list("resistances", "Resistances (Ω)", "100, 220")),
			post("ac-analysis", "AC Analysis", "/api/circuit/ac-analysis",
				num("voltage_amplitude", "Amplitude (V)", "10"), num("frequency", "Frequency (Hz)", "1000"),
				num("resistance", "Resistance (Ω)", "100"), num("inductance", "Inductance (H)", "0.01"), num("capacitance", "Capacitance (F)", "0.000001")),
			post("frequency-response", "Frequency Response", "/api/circuit/frequency-response",
				num("resistance", "Resistance (Ω)", "100"), num("inductance", "Inductance (H)", "0.01"), num("capacitance", "Capacitance (F)", "0.000001"),
				num("freq_start", "Start (Hz)", "1"), num("freq_end", "End (Hz)", "1000000"), num("points", "Points", "100")),
			post("efficiency", "Efficiency", "/api/circuit/efficiency",
				num("input_power", "Input (W)", "100"), num("output_power", "Output (W)", "85")),
			post("compare", "Compare Circuits", "/api/circuit/compare",
				raw("circuits", "Circuits", `[{"voltage_amplitude": 10, "frequency": 1000, "resistance": 100}, {"voltage_amplitude": 10, "frequency": 1000, "resistance": 50, "inductance": 0.01}]`)),
		},
	}
}

func signalPage() Page {
	return Page{
		Path:        "/signal",
		Title:       "Signal Processing",
		Description: "Waveform generation, spectra, noise and digital filters",
		Tools: []Tool{
			post("generate", "Signal Generator", "/api/signal/generate",
				choice("signal_type", "Waveform", signalproc.Sine, signalproc.Square, signalproc.Triangle, signalproc.Sawtooth),
				num("frequency", "Frequency (Hz)", "1000"), num("amplitude", "Amplitude", "1"),
				num("duration", "Duration (s)", "0.01"), num("sample_rate", "Sample rate (Hz)", "44100")),
			post("fft", "FFT Spectrum", "/api/signal/fft", list("signal_data", "Samples", sampleSignal), num("sample_rate", "Sample rate (Hz)", "1000")),
			post("noise", "Noise Injection", "/api/signal/noise", list("signal_data", "Samples", sampleSignal),
				choice("noise_type", "Noise", signalproc.NoiseGaussian, signalproc.NoiseUniform, signalproc.NoisePink), num("snr_db", "SNR (dB)", "20")),
			post("bandwidth", "Bandwidth", "/api/signal/bandwidth", list("signal_data", "Samples", sampleSignal),
				num("sample_rate", "Sample rate (Hz)", "1000"), num("threshold_db", "Threshold (dB)", "-3")),
			post("filter", "Butterworth Filter", "/api/signal/filter", list("signal_data", "Samples", sampleSignal),
				num("sample_rate", "Sample rate (Hz)", "1000"), choice("filter_type", "Type", "lowpass", "highpass", "bandpass", "bandstop"),
				raw("cutoff_freq", "Cutoff (Hz or [lo, hi])", "100"), num("order", "Order", "4")),
			post("statistics", "Statistics", "/api/signal/statistics", list("signal_data", "Samples", sampleSignal)),
		},
	}
}

func antennaPage() Page {
	return Page{
		Path:        "/antenna",
		Title:       "Antenna & RF",
		Description: "Wavelength, antenna dimensions, matching and link budgets",
		Tools: []Tool{
			post("frequency-wavelength", "Frequency / Wavelength", "/api/antenna/frequency-wavelength",
				num("frequency", "Frequency (Hz)", "100000000"), num("wavelength", "Wavelength (m)", "")),
			post("dipole", "Dipole", "/api/antenna/dipole", num("frequency", "Frequency (Hz)", "146000000"), num("wire_diameter", "Wire diameter (m)", "0.002")),
			post("yagi", "Yagi-Uda", "/api/antenna/yagi", num("frequency", "Frequency (Hz)", "146000000"), num("num_elements", "Elements", "3"), num("boom_length", "Boom length (m)", "")),
			post("impedance", "Impedance Matching", "/api/antenna/impedance",
				raw("source_impedance", "Source (Ω)", "50"), raw("load_impedance", "Load (Ω or \"75+25j\")", "75"), num("frequency", "Frequency (Hz)", "100000000")),
			post("link-budget", "Link Budget", "/api/antenna/link-budget",
				num("tx_power_dbm", "TX power (dBm)", "30"), num("tx_gain_dbi", "TX gain (dBi)", "6"), num("rx_gain_dbi", "RX gain (dBi)", "6"),
				num("distance_km", "Distance (km)", "10"), num("frequency", "Frequency (Hz)", "2400000000")),
		},
		Tables: []Table{numberTable("RF constants", "Constant", antenna.RFConstants())},
	}
}

func solarPage() Page {
	return Page{
		Path:        "/solar",
		Title:       "Solar Design",
		Description: "Array, battery and inverter sizing with losses and payback",
		Tools: []Tool{
			post("panel-sizing", "Panel Sizing", "/api/solar/panel-sizing",
				num("daily_energy_kwh", "Daily energy (kWh)", "10"), num("peak_sun_hours", "Peak sun hours", "5"),
				num("system_efficiency", "System efficiency", "0.8"), num("panel_wattage", "Panel wattage (W)", "400")),
			post("battery-sizing", "Battery Sizing", "/api/solar/battery-sizing",
				num("daily_energy_kwh", "Daily energy (kWh)", "10"), num("autonomy_days", "Autonomy (days)", "2"),
				num("depth_of_discharge", "Depth of discharge", "0.8"), num("battery_voltage", "Bank voltage (V)", "48"), num("battery_efficiency", "Efficiency", "0.9")),
			post("inverter-sizing", "Inverter Sizing", "/api/solar/inverter-sizing",
				num("peak_load_w", "Peak load (W)", "3000"), num("surge_factor", "Surge factor", "1.25"), num("continuous_factor", "Continuous factor", "1.1")),
			post("losses", "System Losses", "/api/solar/losses",
				num("panel_capacity_kw", "Array (kW)", "5"), num("soiling", "Soiling", "0.02"), num("shading", "Shading", "0.03"),
				num("wiring", "Wiring", "0.02"), num("inverter_loss", "Inverter", "0.04"), num("temperature", "Temperature", "0.05"), num("mismatch", "Mismatch", "0.02")),
			post("roi", "Return on Investment", "/api/solar/roi",
				num("system_cost", "System cost", "15000"), num("annual_production_kwh", "Annual production (kWh)", "7000"),
				num("electricity_rate", "Rate per kWh", "0.15"), num("incentives", "Incentives", "3000"), num("annual_degradation", "Degradation", "0.005"), num("years", "Years", "25")),
			post("compare", "Compare Systems", "/api/solar/compare",
				raw("systems", "Systems", `[{"name": "Small", "daily_energy": 10}, {"name": "Large", "daily_energy": 20, "panel_wattage": 450}]`)),
			post("report", "PDF Report", "/api/solar/report",
				num("daily_energy_kwh", "Daily energy (kWh)", "10"), num("peak_sun_hours", "Peak sun hours", "5"),
				num("system_efficiency", "System efficiency", "0.8"), num("num_panels", "Panels", "7"), num("actual_capacity_kw", "Capacity (kW)", "2.8")),
		},
	}
}

func energyPage() Page {
	return Page{
		Path:        "/energy",
		Title:       "Energy Analyzer",
		Description: "Consumption logs, efficiency, tariffs and demand peaks",
		Tools: []Tool{
			{
				ID: "analyze", Title: "Analyze CSV Log", Endpoint: "/api/energy/analyze", Method: "POST", Multipart: true,
				Fields: []Field{{Name: "file", Label: "CSV file", Kind: KindFile}, num("cost_per_kwh", "Cost per kWh", "0.12")},
			},
			post("efficiency", "Efficiency", "/api/energy/efficiency",
				num("input_energy", "Input (kWh)", "100"), num("output_energy", "Output (kWh)", "85"),
				num("standby_power", "Standby (W)", "5"), num("operating_hours", "Hours", "24")),
			post("cost", "Cost Estimate", "/api/energy/cost",
				num("energy_kwh", "Energy (kWh)", "500"), choice("rate_structure", "Tariff", energy.RateFlat, energy.RateTOU),
				num("flat_rate", "Flat rate", "0.12"), num("peak_rate", "Peak rate", "0.20"),
				num("offpeak_rate", "Off-peak rate", "0.08"), num("peak_percentage", "Peak share", "0.4")),
			post("peaks", "Peak Detection", "/api/energy/peaks",
				list("power_data", "Power (W)", "100, 120, 400, 110, 90, 500, 100"), num("threshold_factor", "Threshold factor", "1.5")),
			post("compare", "Compare Datasets", "/api/energy/compare",
				raw("datasets", "Datasets", `[{"name": "Site A", "power_data": [100, 200, 150]}, {"name": "Site B", "power_data": [120, 130, 125]}]`)),
			query("history", "Analysis History", "/api/energy/history", num("limit", "Limit", "10")),
		},
	}
}

func iotPage() Page {
	devices := Table{Title: "Devices", Header: []string{"Device", "Type", "Location", "Base value"}}
	for _, id := range iot.DeviceIDs {
		d := iot.Devices[id]
		devices.Rows = append(devices.Rows, []string{id, d.Type, d.Location, format(d.BaseValue)})
	}
	thresholds := Table{Title: "Alert thresholds", Header: []string{"Type", "Unit", "Low alert", "High alert"}}
	for _, kind := range sortedKeys(iot.Thresholds) {
		th := iot.Thresholds[kind]
		thresholds.Rows = append(thresholds.Rows, []string{kind, th.Unit, format(th.AlertLow), format(th.AlertHigh)})
	}
	sensors := append([]string{""}, iot.DeviceIDs...)

	return Page{
		Path:        "/iot",
		Title:       "IoT Dashboard",
		Description: "Sensor ingestion, simulation, alerts and live readings",
		Live:        true,
		Tools: []Tool{
			post("data", "Submit Reading", "/api/iot/data",
				Field{Name: "sensor_id", Label: "Sensor", Kind: KindText, Value: "temp_sensor_1"}, num("value", "Value", "23.5"),
				Field{Name: "sensor_type", Label: "Type", Kind: KindText}),
			post("simulate", "Simulate Reading", "/api/iot/simulate", choice("sensor_id", "Sensor", sensors...)),
			post("simulate-batch", "Simulate Batch", "/api/iot/simulate-batch", num("num_readings", "Rounds", "10")),
			query("status", "Device Status", "/api/iot/status"),
			query("history", "History", "/api/iot/history", choice("sensor_id", "Sensor", sensors...), num("limit", "Limit", "100")),
			query("alerts", "Alerts", "/api/iot/alerts", choice("sensor_id", "Sensor", sensors...)),
			query("statistics", "Statistics", "/api/iot/statistics", choice("sensor_id", "Sensor", iot.DeviceIDs...), num("hours", "Hours", "24")),
			query("export", "Export", "/api/iot/export", choice("sensor_id", "Sensor", sensors...), choice("format", "Format", "json", "csv")),
		},
		Tables: []Table{devices, thresholds},
	}
}

func labPage() Page {
	experiments := Table{Title: "Experiments", Header: []string{"ID", "Name", "Parameters", "Description"}}
	for _, id := range lab.ExperimentIDs {
		e := lab.Experiments[id]
		params := ""
		for i, p := range e.Parameters {
			if i > 0 {
				params += ", "
			}
			params += p
		}
		experiments.Rows = append(experiments.Rows, []string{id, e.Name, params, e.Description})
	}
	symptoms := Table{Title: "Known symptoms", Header: []string{"Symptom"}}
	for _, s := range fault.AllSymptoms() {
		symptoms.Rows = append(symptoms.Rows, []string{s})
	}

	return Page{
		Path:        "/lab",
		Title:       "Virtual Lab",
		Description: "Bench experiments, tolerance runs, reports and fault finding",
		Tools: []Tool{
			post("run", "Run Experiment", "/api/lab/run",
				choice("experiment", "Experiment", lab.ExperimentIDs...),
				raw("parameters", "Parameters", `{"resistance": 1000, "capacitance": 0.000001, "voltage": 5}`),
				Field{Name: "with_tolerance", Label: "Apply tolerance", Kind: KindCheckbox},
				num("tolerance_percent", "Tolerance (%)", "5")),
			post("report", "Lab Report", "/api/lab/report", raw("result", "Result document", `{"experiment": "RC Circuit Transient Response", "conclusion": ""}`)),
			query("theory", "Theory", "/api/lab/theory", choice("experiment", "Experiment", lab.ExperimentIDs...)),
			query("reports", "Saved Reports", "/api/lab/reports", num("limit", "Limit", "10")),
			post("diagnose", "Fault Diagnosis", "/api/fault/diagnose",
				Field{Name: "symptoms", Label: "Symptoms", Kind: KindStrings, Value: "no_lights, no_display"}),
			post("repair-steps", "Repair Steps", "/api/fault/repair-steps",
				choice("fault_type", "Fault", fault.FaultTypes()...), num("cause_index", "Cause #", "0")),
			post("component-tests", "Component Tests", "/api/fault/component-tests",
				choice("component_type", "Component", sortedKeys(fault.ComponentTestProcedures)...)),
		},
		Tables: []Table{experiments, symptoms},
	}
}

func numberTable(title, label string, values map[string]float64) Table {
	t := Table{Title: title, Header: []string{label, "Value"}}
	for _, k := range sortedKeys(values) {
		t.Rows = append(t.Rows, []string{k, format(values[k])})
	}
	return t
}

func prefixTable() Table {
	t := Table{Title: "Unit prefixes", Header: []string{"Prefix", "Multiplier"}}
	for _, p := range calculator.PrefixOrder {
		label := p
		if label == "" {
			label = "(none)"
		}
		t.Rows = append(t.Rows, []string{label, format(calculator.UnitPrefixes[p])})
	}
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
