package fault

// Cause is a probable root cause with the checks that confirm it.
type Cause struct {
	Cause    string   `json:"cause"`
	Priority int      `json:"priority"`
	Checks   []string `json:"checks"`
}

// Rule ties a fault type to its symptoms and causes, most likely cause first.
type Rule struct {
	FaultType string
	Symptoms  []string
	Causes    []Cause
}

// Rules is the diagnosis knowledge base in evaluation order.
var Rules = []Rule{
	{
		FaultType: "no_power",
		Symptoms:  []string{"device_not_working", "no_lights", "no_display"},
		Causes: []Cause{
			{"Power supply failure", 1, []string{"Check power cable", "Test outlet", "Check fuse"}},
			{"Blown fuse", 2, []string{"Inspect fuse visually", "Test fuse continuity"}},
			{"Faulty power switch", 3, []string{"Test switch continuity", "Check switch connections"}},
			{"Damaged power cord", 4, []string{"Inspect cord for damage", "Test cord continuity"}},
		},
	},
	{
		FaultType: "overheating",
		Symptoms:  []string{"hot_to_touch", "thermal_shutdown", "burning_smell"},
		Causes: []Cause{
			{"Blocked ventilation", 1, []string{"Clean vents", "Ensure airflow clearance"}},
			{"Failed cooling fan", 2, []string{"Check fan rotation", "Test fan motor"}},
			{"Thermal paste degradation", 3, []string{"Reapply thermal compound"}},
			{"Component overload", 4, []string{"Check load levels", "Verify component ratings"}},
		},
	},
	{
		FaultType: "intermittent_operation",
		Symptoms:  []string{"random_shutdowns", "flickering", "erratic_behavior"},
		Causes: []Cause{
			{"Loose connections", 1, []string{"Check all connectors", "Reseat components"}},
			{"Dry solder joints", 2, []string{"Inspect PCB joints", "Reflow suspicious joints"}},
			{"Failing capacitors", 3, []string{"Visual inspection for bulging", "ESR testing"}},
			{"Power supply ripple", 4, []string{"Measure output ripple", "Check filter caps"}},
		},
	},
	{
		FaultType: "no_output",
		Symptoms:  []string{"no_signal", "no_response", "open_circuit"},
		Causes: []Cause{
			{"Open circuit", 1, []string{"Continuity test", "Trace signal path"}},
			{"Failed output stage", 2, []string{"Test output transistors", "Check driver circuit"}},
			{"Protection circuit triggered", 3, []string{"Check protection status", "Verify load conditions"}},
			{"Control circuit failure", 4, []string{"Check control signals", "Test IC functionality"}},
		},
	},
	{
		FaultType: "excessive_noise",
		Symptoms:  []string{"buzzing", "humming", "crackling", "interference"},
		Causes: []Cause{
			{"Ground loop", 1, []string{"Check grounding", "Use ground loop isolator"}},
			{"EMI/RFI interference", 2, []string{"Add shielding", "Use ferrite cores"}},
			{"Failing filter capacitors", 3, []string{"Test capacitor ESR", "Replace filters"}},
			{"Poor cable shielding", 4, []string{"Use shielded cables", "Check connections"}},
		},
	},
	{
		FaultType: "low_efficiency",
		Symptoms:  []string{"high_power_consumption", "excessive_heat", "poor_performance"},
		Causes: []Cause{
			{"Component degradation", 1, []string{"Test component parameters", "Compare to specifications"}},
			{"Incorrect biasing", 2, []string{"Measure bias points", "Adjust as needed"}},
			{"Parasitic losses", 3, []string{"Check for leakage", "Inspect insulation"}},
			{"Design issues", 4, []string{"Review circuit design", "Consider redesign"}},
		},
	},
	{
		FaultType: "voltage_issues",
		Symptoms:  []string{"low_voltage", "high_voltage", "voltage_fluctuation"},
		Causes: []Cause{
			{"Regulator failure", 1, []string{"Test regulator output", "Check input voltage"}},
			{"Excessive load", 2, []string{"Measure current draw", "Reduce load"}},
			{"Failing transformer", 3, []string{"Test transformer ratios", "Check windings"}},
			{"Filter capacitor failure", 4, []string{"Test capacitor values", "Replace if needed"}},
		},
	},
}

// ComponentTestProcedures maps a lowercase component kind to its bench tests.
var ComponentTestProcedures = map[string][]string{
	"resistor": {
		"Measure resistance with multimeter",
		"Compare to marked value and tolerance",
		"Check for discoloration or burning",
	},
	"capacitor": {
		"Visual inspection for bulging or leakage",
		"Measure capacitance with meter",
		"ESR test for electrolytic types",
		"Check for shorts",
	},
	"inductor": {
		"Measure DC resistance",
		"Test for shorts between windings",
		"Check inductance value",
	},
	"diode": {
		"Forward voltage drop test",
		"Reverse leakage test",
		"Check for shorts",
	},
	"transistor": {
		"Test junction voltages",
		"Check for shorts between terminals",
		"Measure hFE if applicable",
	},
	"ic": {
		"Check power supply pins",
		"Verify input/output signals",
		"Compare to datasheet specifications",
		"Check for overheating",
	},
	"transformer": {
		"Test primary and secondary resistance",
		"Check turns ratio",
		"Test for inter-winding shorts",
		"Measure output under load",
	},
	"relay": {
		"Test coil resistance",
		"Verify contact operation",
		"Check contact resistance",
		"Test with/without energizing",
	},
}
