// Package solar sizes off-grid photovoltaic systems: panels, batteries,
// inverters, derating losses and payback.
package solar

import (
	"encoding/json"
	"fmt"
	"math"

	"electrohub/backend/services/electrohub/internal/validate"
)

// Sizing defaults.
const (
	DefaultSystemEfficiency  = 0.8
	DefaultPanelWattage      = 400.0
	DefaultDepthOfDischarge  = 0.8
	DefaultBatteryVoltage    = 48.0
	DefaultBatteryEfficiency = 0.9
	DefaultSurgeFactor       = 1.25
	DefaultContinuousFactor  = 1.1

	panelAreaM2 = 2.0
)

// PanelInput describes the daily load and the site.
type PanelInput struct {
	DailyEnergyKWh   float64 `json:"daily_energy_kwh"`
	PeakSunHours     float64 `json:"peak_sun_hours"`
	SystemEfficiency float64 `json:"system_efficiency"`
	PanelWattage     float64 `json:"panel_wattage"`
}

// PanelResult is the array needed to cover the load.
type PanelResult struct {
	DailyEnergyRequiredKWh      float64 `json:"daily_energy_required_kwh"`
	PeakSunHours                float64 `json:"peak_sun_hours"`
	SystemEfficiency            float64 `json:"system_efficiency"`
	PanelWattage                float64 `json:"panel_wattage"`
	RequiredCapacityKW          float64 `json:"required_capacity_kw"`
	NumPanels                   int     `json:"num_panels"`
	ActualCapacityKW            float64 `json:"actual_capacity_kw"`
	EstimatedDailyProductionKWh float64 `json:"estimated_daily_production_kwh"`
	TotalArrayAreaM2            float64 `json:"total_array_area_m2"`
	ExcessCapacityPercent       float64 `json:"excess_capacity_percent"`
}

// PanelSizing rounds the panel count up so production covers the load after losses.
func PanelSizing(in PanelInput) (PanelResult, []string, error) {
	if err := validate.First(
		validate.Positive("daily_energy_kwh", in.DailyEnergyKWh),
		validate.Range("peak_sun_hours", in.PeakSunHours, 0, 24),
		validate.Positive("peak_sun_hours", in.PeakSunHours),
		validate.Range("system_efficiency", in.SystemEfficiency, 0, 1),
		validate.Positive("system_efficiency", in.SystemEfficiency),
		validate.Positive("panel_wattage", in.PanelWattage),
	); err != nil {
		return PanelResult{}, nil, err
	}

	required := in.DailyEnergyKWh / in.SystemEfficiency / in.PeakSunHours
	n := int(math.Ceil(required * 1000 / in.PanelWattage))
	actual := float64(n) * in.PanelWattage / 1000
	production := actual * in.PeakSunHours * in.SystemEfficiency

	res := PanelResult{
		DailyEnergyRequiredKWh:      in.DailyEnergyKWh,
		PeakSunHours:                in.PeakSunHours,
		SystemEfficiency:            in.SystemEfficiency,
		PanelWattage:                in.PanelWattage,
		RequiredCapacityKW:          validate.Round2(required),
		NumPanels:                   n,
		ActualCapacityKW:            validate.Round2(actual),
		EstimatedDailyProductionKWh: validate.Round2(production),
		TotalArrayAreaM2:            validate.RoundN(float64(n)*panelAreaM2, 1),
		ExcessCapacityPercent:       validate.RoundN((production/in.DailyEnergyKWh-1)*100, 1),
	}

	warnings := []string{}
	if in.PeakSunHours < 3 {
		warnings = append(warnings, "Low peak sun hours - consider location or seasonal variations")
	}
	if n > 50 {
		warnings = append(warnings, "Large array - consider structural and inverter requirements")
	}
	if in.SystemEfficiency < 0.7 {
		warnings = append(warnings, "Low system efficiency - check for shading or equipment issues")
	}
	return res, warnings, nil
}

// BatteryInput describes storage needs.
type BatteryInput struct {
	DailyEnergyKWh    float64 `json:"daily_energy_kwh"`
	AutonomyDays      float64 `json:"autonomy_days"`
	DepthOfDischarge  float64 `json:"depth_of_discharge"`
	BatteryVoltage    float64 `json:"battery_voltage"`
	BatteryEfficiency float64 `json:"battery_efficiency"`
}

// BatteryResult is the bank size in kWh and Ah.
type BatteryResult struct {
	DailyEnergyKWh        float64 `json:"daily_energy_kwh"`
	AutonomyDays          float64 `json:"autonomy_days"`
	DepthOfDischarge      float64 `json:"depth_of_discharge"`
	BatteryVoltage        float64 `json:"battery_voltage"`
	BatteryEfficiency     float64 `json:"battery_efficiency"`
	TotalEnergyStorageKWh float64 `json:"total_energy_storage_kwh"`
	UsableCapacityKWh     float64 `json:"usable_capacity_kwh"`
	CapacityAh            float64 `json:"capacity_ah"`
	RecommendedCRate      string  `json:"recommended_c_rate"`
}

// BatterySizing covers autonomy days of load after round-trip and depth-of-discharge limits.
func BatterySizing(in BatteryInput) (BatteryResult, []string, error) {
	if err := validate.First(
		validate.Positive("daily_energy_kwh", in.DailyEnergyKWh),
		validate.Positive("autonomy_days", in.AutonomyDays),
		validate.Range("depth_of_discharge", in.DepthOfDischarge, 0, 1),
		validate.Positive("depth_of_discharge", in.DepthOfDischarge),
		validate.Positive("battery_voltage", in.BatteryVoltage),
		validate.Range("battery_efficiency", in.BatteryEfficiency, 0, 1),
		validate.Positive("battery_efficiency", in.BatteryEfficiency),
	); err != nil {
		return BatteryResult{}, nil, err
	}

	usable := in.DailyEnergyKWh * in.AutonomyDays / in.BatteryEfficiency
	total := usable / in.DepthOfDischarge
	ah := total * 1000 / in.BatteryVoltage

	res := BatteryResult{
		DailyEnergyKWh:        in.DailyEnergyKWh,
		AutonomyDays:          in.AutonomyDays,
		DepthOfDischarge:      in.DepthOfDischarge,
		BatteryVoltage:        in.BatteryVoltage,
		BatteryEfficiency:     in.BatteryEfficiency,
		TotalEnergyStorageKWh: validate.Round2(total),
		UsableCapacityKWh:     validate.Round2(usable),
		CapacityAh:            validate.RoundN(ah, 1),
		RecommendedCRate:      "0.2C for longevity",
	}

	warnings := []string{}
	if in.AutonomyDays > 5 {
		warnings = append(warnings, "Extended autonomy requires large battery bank - consider costs")
	}
	if in.DepthOfDischarge > 0.8 {
		warnings = append(warnings, "High DoD may reduce battery lifespan")
	}
	if ah > 1000 {
		warnings = append(warnings, "Large capacity - consider parallel battery strings")
	}
	return res, warnings, nil
}

// StandardInverterSizes in watts, ascending.
var StandardInverterSizes = []int{1000, 1500, 2000, 3000, 4000, 5000, 6000, 8000, 10000}

// InverterInput carries the peak load and rating factors.
type InverterInput struct {
	PeakLoadW        float64 `json:"peak_load_w"`
	SurgeFactor      float64 `json:"surge_factor"`
	ContinuousFactor float64 `json:"continuous_factor"`
}

// InverterResult names the smallest standard inverter that carries the continuous load.
type InverterResult struct {
	PeakLoadW            float64 `json:"peak_load_w"`
	RequiredContinuousW  int     `json:"required_continuous_w"`
	RequiredSurgeW       int     `json:"required_surge_w"`
	RecommendedInverterW int     `json:"recommended_inverter_w"`
	HeadroomPercent      float64 `json:"headroom_percent"`
}

// InverterSizing picks the next standard size, or the largest one when none fits.
func InverterSizing(in InverterInput) (InverterResult, []string, error) {
	if err := validate.First(
		validate.Positive("peak_load_w", in.PeakLoadW),
		validate.Positive("surge_factor", in.SurgeFactor),
		validate.Positive("continuous_factor", in.ContinuousFactor),
	); err != nil {
		return InverterResult{}, nil, err
	}

	continuous := in.PeakLoadW * in.ContinuousFactor
	size := StandardInverterSizes[len(StandardInverterSizes)-1]
	for _, s := range StandardInverterSizes {
		if float64(s) >= continuous {
			size = s
			break
		}
	}

	res := InverterResult{
		PeakLoadW:            in.PeakLoadW,
		RequiredContinuousW:  int(math.Round(continuous)),
		RequiredSurgeW:       int(math.Round(in.PeakLoadW * in.SurgeFactor)),
		RecommendedInverterW: size,
		HeadroomPercent:      validate.RoundN((float64(size)/continuous-1)*100, 1),
	}

	warnings := []string{}
	if in.PeakLoadW > 10000 {
		warnings = append(warnings, "High load - consider multiple inverters or 3-phase system")
	}
	return res, warnings, nil
}

// LossesInput lists derating fractions. Each is a fraction of capacity, not a percentage.
type LossesInput struct {
	PanelCapacityKW float64 `json:"panel_capacity_kw"`
	Soiling         float64 `json:"soiling"`
	Shading         float64 `json:"shading"`
	Wiring          float64 `json:"wiring"`
	InverterLoss    float64 `json:"inverter_loss"`
	Temperature     float64 `json:"temperature"`
	Mismatch        float64 `json:"mismatch"`
}

// DefaultLossesInput returns typical derating fractions.
func DefaultLossesInput() LossesInput {
	return LossesInput{
		Soiling:      0.02,
		Shading:      0.03,
		Wiring:       0.02,
		InverterLoss: 0.04,
		Temperature:  0.05,
		Mismatch:     0.02,
	}
}

// LossesBreakdown expresses each loss in percent.
type LossesBreakdown struct {
	Soiling            float64 `json:"soiling"`
	Shading            float64 `json:"shading"`
	Wiring             float64 `json:"wiring"`
	Inverter           float64 `json:"inverter"`
	Temperature        float64 `json:"temperature"`
	Mismatch           float64 `json:"mismatch"`
	TotalLossesPercent float64 `json:"total_losses_percent"`
}

// LossesResult is the derated array.
type LossesResult struct {
	PanelCapacityKW     float64         `json:"panel_capacity_kw"`
	DerateFactor        float64         `json:"derate_factor"`
	EffectiveCapacityKW float64         `json:"effective_capacity_kw"`
	LossesBreakdown     LossesBreakdown `json:"losses_breakdown"`
	AnnualEnergyLossKWh float64         `json:"annual_energy_loss_kwh"`
}

// SystemLosses derates capacity additively. Annual loss assumes 4.5 sun hours a day.
func SystemLosses(in LossesInput) (LossesResult, error) {
	fractions := []struct {
		name string
		v    float64
	}{
		{"soiling", in.Soiling}, {"shading", in.Shading}, {"wiring", in.Wiring},
		{"inverter_loss", in.InverterLoss}, {"temperature", in.Temperature}, {"mismatch", in.Mismatch},
	}
	if err := validate.NonNegative("panel_capacity_kw", in.PanelCapacityKW); err != nil {
		return LossesResult{}, err
	}
	var sum float64
	for _, f := range fractions {
		if err := validate.Range(f.name, f.v, 0, 1); err != nil {
			return LossesResult{}, err
		}
		sum += f.v
	}
	if sum > 1 {
		return LossesResult{}, validate.Errorf("losses", "must add up to at most 1")
	}

	derate := 1 - sum
	return LossesResult{
		PanelCapacityKW:     in.PanelCapacityKW,
		DerateFactor:        validate.RoundN(derate, 3),
		EffectiveCapacityKW: validate.Round2(in.PanelCapacityKW * derate),
		LossesBreakdown: LossesBreakdown{
			Soiling:            in.Soiling * 100,
			Shading:            in.Shading * 100,
			Wiring:             in.Wiring * 100,
			Inverter:           in.InverterLoss * 100,
			Temperature:        in.Temperature * 100,
			Mismatch:           in.Mismatch * 100,
			TotalLossesPercent: (1 - derate) * 100,
		},
		AnnualEnergyLossKWh: validate.RoundN(in.PanelCapacityKW*(1-derate)*4.5*365, 1),
	}, nil
}

// ROIInput describes system economics.
type ROIInput struct {
	SystemCost          float64 `json:"system_cost"`
	AnnualProductionKWh float64 `json:"annual_production_kwh"`
	ElectricityRate     float64 `json:"electricity_rate"`
	AnnualDegradation   float64 `json:"annual_degradation"`
	Incentives          float64 `json:"incentives"`
	Years               int     `json:"years"`
}

// Default ROI horizon and degradation.
const (
	DefaultROIYears          = 25
	DefaultAnnualDegradation = 0.005
	MaxROIYears              = 100
)

// YearlySavings is one row of the ROI breakdown.
type YearlySavings struct {
	Year              int     `json:"year"`
	ProductionKWh     float64 `json:"production_kwh"`
	Savings           float64 `json:"savings"`
	CumulativeSavings float64 `json:"cumulative_savings"`
}

// ROIResult reports payback and lifetime savings. PaybackYears is null when
// the system never pays back within the horizon.
type ROIResult struct {
	SystemCost          float64         `json:"system_cost"`
	Incentives          float64         `json:"incentives"`
	NetCost             float64         `json:"net_cost"`
	AnnualProductionKWh float64         `json:"annual_production_kwh"`
	ElectricityRate     float64         `json:"electricity_rate"`
	PaybackYears        *int            `json:"payback_years"`
	TotalSavings        float64         `json:"total_savings_25yr"`
	NetSavings          float64         `json:"net_savings"`
	ROIPercent          float64         `json:"roi_percent"`
	YearlyBreakdown     []YearlySavings `json:"yearly_breakdown"`
}

// ROIAnalysis accumulates degraded yearly savings. Only the first five years are listed.
func ROIAnalysis(in ROIInput) (ROIResult, []string, error) {
	if err := validate.First(
		validate.NonNegative("system_cost", in.SystemCost),
		validate.NonNegative("annual_production_kwh", in.AnnualProductionKWh),
		validate.NonNegative("electricity_rate", in.ElectricityRate),
		validate.Range("annual_degradation", in.AnnualDegradation, 0, 1),
		validate.NonNegative("incentives", in.Incentives),
	); err != nil {
		return ROIResult{}, nil, err
	}
	if in.Years < 1 || in.Years > MaxROIYears {
		return ROIResult{}, nil, validate.Errorf("years", "must be between 1 and %d", MaxROIYears)
	}

	netCost := in.SystemCost - in.Incentives
	var cumulative float64
	var payback *int
	breakdown := make([]YearlySavings, 0, 5)
	for year := 1; year <= in.Years; year++ {
		production := in.AnnualProductionKWh * math.Pow(1-in.AnnualDegradation, float64(year-1))
		savings := production * in.ElectricityRate
		cumulative += savings
		if len(breakdown) < 5 {
			breakdown = append(breakdown, YearlySavings{
				Year:              year,
				ProductionKWh:     validate.RoundN(production, 1),
				Savings:           validate.Round2(savings),
				CumulativeSavings: validate.Round2(cumulative),
			})
		}
		if payback == nil && cumulative >= netCost {
			y := year
			payback = &y
		}
	}

	net := cumulative - netCost
	roi := 0.0
	if netCost > 0 {
		roi = net / netCost * 100
	}

	res := ROIResult{
		SystemCost:          in.SystemCost,
		Incentives:          in.Incentives,
		NetCost:             netCost,
		AnnualProductionKWh: in.AnnualProductionKWh,
		ElectricityRate:     in.ElectricityRate,
		PaybackYears:        payback,
		TotalSavings:        validate.Round2(cumulative),
		NetSavings:          validate.Round2(net),
		ROIPercent:          validate.RoundN(roi, 1),
		YearlyBreakdown:     breakdown,
	}

	warnings := []string{}
	if payback == nil || *payback > 15 {
		warnings = append(warnings, "Long payback period - review system cost or electricity rates")
	}
	return res, warnings, nil
}

// SystemSpec is one candidate in CompareSystems. Omitted fields take typical values.
type SystemSpec struct {
	Name         string  `json:"name"`
	DailyEnergy  float64 `json:"daily_energy"`
	SunHours     float64 `json:"sun_hours"`
	Efficiency   float64 `json:"efficiency"`
	PanelWattage float64 `json:"panel_wattage"`
}

// UnmarshalJSON fills defaults before decoding.
func (s *SystemSpec) UnmarshalJSON(data []byte) error {
	type plain SystemSpec
	p := plain{
		DailyEnergy:  30,
		SunHours:     4.5,
		Efficiency:   DefaultSystemEfficiency,
		PanelWattage: DefaultPanelWattage,
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = SystemSpec(p)
	return nil
}

// SystemComparison is one row of CompareSystems.
type SystemComparison struct {
	SystemID        int     `json:"system_id"`
	Name            string  `json:"name"`
	NumPanels       int     `json:"num_panels"`
	CapacityKW      float64 `json:"capacity_kw"`
	DailyProduction float64 `json:"daily_production"`
	AreaM2          float64 `json:"area_m2"`
}

// MaxComparedSystems bounds CompareSystems.
const MaxComparedSystems = 20

// CompareSystems runs PanelSizing for each candidate. Unnamed systems are numbered.
func CompareSystems(systems []SystemSpec) ([]SystemComparison, error) {
	if len(systems) == 0 {
		return nil, validate.Errorf("systems", "must not be empty")
	}
	if len(systems) > MaxComparedSystems {
		return nil, validate.Errorf("systems", "must contain at most %d entries", MaxComparedSystems)
	}
	out := make([]SystemComparison, 0, len(systems))
	for i, s := range systems {
		r, _, err := PanelSizing(PanelInput{
			DailyEnergyKWh:   s.DailyEnergy,
			PeakSunHours:     s.SunHours,
			SystemEfficiency: s.Efficiency,
			PanelWattage:     s.PanelWattage,
		})
		if err != nil {
			return nil, fmt.Errorf("system %d: %w", i+1, err)
		}
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("System %d", i+1)
		}
		out = append(out, SystemComparison{
			SystemID:        i + 1,
			Name:            name,
			NumPanels:       r.NumPanels,
			CapacityKW:      r.ActualCapacityKW,
			DailyProduction: r.EstimatedDailyProductionKWh,
			AreaM2:          r.TotalArrayAreaM2,
		})
	}
	return out, nil
}
