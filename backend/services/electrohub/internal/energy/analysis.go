package energy

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"electrohub/backend/services/electrohub/internal/validate"
)

// Peak detection defaults.
const (
	DefaultThresholdFactor = 1.5
	MinPeakDistance        = 5
)

// PeaksResult lists demand peaks above threshold_used.
type PeaksResult struct {
	NumPeaks      int       `json:"num_peaks"`
	PeakIndices   []int     `json:"peak_indices"`
	PeakValues    []float64 `json:"peak_values"`
	ThresholdUsed float64   `json:"threshold_used"`
	MeanPower     float64   `json:"mean_power"`
	MaxPeak       float64   `json:"max_peak"`
}

// DetectPeaks finds local maxima at least thresholdFactor times the mean.
// Peaks closer than MinPeakDistance samples to a higher peak are discarded.
func DetectPeaks(power []float64, thresholdFactor float64) (PeaksResult, error) {
	if err := validate.First(
		checkSeries("power_data", power),
		validate.Finite("threshold_factor", thresholdFactor),
	); err != nil {
		return PeaksResult{}, err
	}

	mean := stat.Mean(power, nil)
	threshold := mean * thresholdFactor

	candidates := localMaxima(power)
	high := candidates[:0]
	for _, i := range candidates {
		if power[i] >= threshold {
			high = append(high, i)
		}
	}
	peaks := selectByDistance(power, high, MinPeakDistance)

	res := PeaksResult{
		NumPeaks:      len(peaks),
		PeakIndices:   peaks,
		PeakValues:    make([]float64, len(peaks)),
		ThresholdUsed: threshold,
		MeanPower:     mean,
	}
	for k, i := range peaks {
		res.PeakValues[k] = power[i]
	}
	if len(peaks) > 0 {
		res.MaxPeak = floats.Max(res.PeakValues)
	}
	return res, nil
}

// localMaxima returns strict local maxima. A flat top counts once, at its middle sample.
// The first and last samples are never peaks.
func localMaxima(x []float64) []int {
	var out []int
	n := len(x)
	for i := 1; i < n-1; {
		if x[i-1] < x[i] {
			ahead := i + 1
			for ahead < n-1 && x[ahead] == x[i] {
				ahead++
			}
			if x[ahead] < x[i] {
				out = append(out, (i+ahead-1)/2)
				i = ahead
			}
		}
		i++
	}
	return out
}

// selectByDistance keeps the tallest peaks first and drops neighbours within distance.
func selectByDistance(x []float64, peaks []int, distance int) []int {
	if len(peaks) == 0 {
		return []int{}
	}
	order := make([]int, len(peaks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return x[peaks[order[a]]] < x[peaks[order[b]]]
	})

	keep := make([]bool, len(peaks))
	for i := range keep {
		keep[i] = true
	}
	for k := len(order) - 1; k >= 0; k-- {
		j := order[k]
		if !keep[j] {
			continue
		}
		for l := j - 1; l >= 0 && peaks[j]-peaks[l] < distance; l-- {
			keep[l] = false
		}
		for l := j + 1; l < len(peaks) && peaks[l]-peaks[j] < distance; l++ {
			keep[l] = false
		}
	}

	out := make([]int, 0, len(peaks))
	for i, p := range peaks {
		if keep[i] {
			out = append(out, p)
		}
	}
	return out
}

// EfficiencyInput carries energy in and out over a period.
type EfficiencyInput struct {
	InputEnergy    float64 `json:"input_energy"`
	OutputEnergy   float64 `json:"output_energy"`
	StandbyPower   float64 `json:"standby_power"`
	OperatingHours float64 `json:"operating_hours"`
}

// DefaultOperatingHours is one day.
const DefaultOperatingHours = 24.0

// EfficiencyResult adds standby consumption to conversion losses.
type EfficiencyResult struct {
	InputEnergyKWh    float64 `json:"input_energy_kwh"`
	OutputEnergyKWh   float64 `json:"output_energy_kwh"`
	LossesKWh         float64 `json:"losses_kwh"`
	EfficiencyPercent float64 `json:"efficiency_percent"`
	StandbyLossKWh    float64 `json:"standby_loss_kwh"`
	TotalLossesKWh    float64 `json:"total_losses_kwh"`
	Rating            string  `json:"rating"`
}

// CalculateEfficiency rates output over input energy. Standby power is in watts.
func CalculateEfficiency(in EfficiencyInput) (EfficiencyResult, error) {
	if err := validate.First(
		validate.Finite("input_energy", in.InputEnergy),
		validate.Finite("output_energy", in.OutputEnergy),
		validate.NonNegative("standby_power", in.StandbyPower),
		validate.NonNegative("operating_hours", in.OperatingHours),
	); err != nil {
		return EfficiencyResult{}, err
	}

	standby := in.StandbyPower * in.OperatingHours / 1000
	eff := 0.0
	if in.InputEnergy > 0 {
		eff = in.OutputEnergy / in.InputEnergy * 100
	}
	losses := in.InputEnergy - in.OutputEnergy

	res := EfficiencyResult{
		InputEnergyKWh:    in.InputEnergy,
		OutputEnergyKWh:   in.OutputEnergy,
		LossesKWh:         losses,
		EfficiencyPercent: validate.Round2(eff),
		StandbyLossKWh:    standby,
		TotalLossesKWh:    losses + standby,
	}
	switch {
	case eff < 50:
		res.Rating = "Poor"
	case eff < 70:
		res.Rating = "Fair"
	case eff < 85:
		res.Rating = "Good"
	default:
		res.Rating = "Excellent"
	}
	return res, nil
}

// Rate structures understood by CostEstimation. Anything else bills at the flat rate.
const (
	RateFlat = "flat"
	RateTOU  = "tou"
)

// CostInput describes a tariff.
type CostInput struct {
	EnergyKWh      float64 `json:"energy_kwh"`
	RateStructure  string  `json:"rate_structure"`
	FlatRate       float64 `json:"flat_rate"`
	PeakRate       float64 `json:"peak_rate"`
	OffpeakRate    float64 `json:"offpeak_rate"`
	PeakPercentage float64 `json:"peak_percentage"`
}

// DefaultCostInput returns the default tariff.
func DefaultCostInput() CostInput {
	return CostInput{
		RateStructure:  RateFlat,
		FlatRate:       0.12,
		PeakRate:       0.20,
		OffpeakRate:    0.08,
		PeakPercentage: 0.4,
	}
}

// CostLine is one tariff band.
type CostLine struct {
	KWh  float64 `json:"kwh"`
	Rate float64 `json:"rate"`
	Cost float64 `json:"cost"`
}

// CostResult is the bill with its per-band breakdown.
type CostResult struct {
	TotalEnergyKWh      float64             `json:"total_energy_kwh"`
	RateStructure       string              `json:"rate_structure"`
	TotalCost           float64             `json:"total_cost"`
	CostBreakdown       map[string]CostLine `json:"cost_breakdown"`
	CostPerKWhEffective float64             `json:"cost_per_kwh_effective"`
}

// CostEstimation bills energy under a flat or time-of-use tariff.
func CostEstimation(in CostInput) (CostResult, error) {
	if err := validate.First(
		validate.NonNegative("energy_kwh", in.EnergyKWh),
		validate.NonNegative("flat_rate", in.FlatRate),
		validate.NonNegative("peak_rate", in.PeakRate),
		validate.NonNegative("offpeak_rate", in.OffpeakRate),
		validate.Range("peak_percentage", in.PeakPercentage, 0, 1),
	); err != nil {
		return CostResult{}, err
	}

	var total float64
	breakdown := map[string]CostLine{}
	switch in.RateStructure {
	case RateFlat:
		total = in.EnergyKWh * in.FlatRate
		breakdown["all_hours"] = CostLine{KWh: in.EnergyKWh, Rate: in.FlatRate, Cost: total}
	case RateTOU:
		peak := in.EnergyKWh * in.PeakPercentage
		off := in.EnergyKWh * (1 - in.PeakPercentage)
		breakdown["peak"] = CostLine{KWh: peak, Rate: in.PeakRate, Cost: peak * in.PeakRate}
		breakdown["offpeak"] = CostLine{KWh: off, Rate: in.OffpeakRate, Cost: off * in.OffpeakRate}
		total = peak*in.PeakRate + off*in.OffpeakRate
	default:
		total = in.EnergyKWh * in.FlatRate
		breakdown["default"] = CostLine{KWh: in.EnergyKWh, Rate: in.FlatRate, Cost: total}
	}

	effective := 0.0
	if in.EnergyKWh > 0 {
		effective = validate.RoundN(total/in.EnergyKWh, 4)
	}
	return CostResult{
		TotalEnergyKWh:      in.EnergyKWh,
		RateStructure:       in.RateStructure,
		TotalCost:           validate.Round2(total),
		CostBreakdown:       breakdown,
		CostPerKWhEffective: effective,
	}, nil
}

// Dataset is either raw power samples or precomputed summary figures.
type Dataset struct {
	Name        string    `json:"name"`
	PowerData   []float64 `json:"power_data"`
	TotalEnergy float64   `json:"total_energy"`
	PeakLoad    float64   `json:"peak_load"`
	AvgLoad     float64   `json:"avg_load"`
	LoadFactor  float64   `json:"load_factor"`
}

// DatasetSummary is one row of a comparison.
type DatasetSummary struct {
	Name           string  `json:"name"`
	TotalEnergyKWh float64 `json:"total_energy_kwh"`
	PeakLoadW      float64 `json:"peak_load_w"`
	AverageLoadW   float64 `json:"average_load_w"`
	LoadFactor     float64 `json:"load_factor"`
}

// ComparisonResult names the best dataset per criterion. Conclusions are empty without data.
type ComparisonResult struct {
	ComparisonData []DatasetSummary  `json:"comparison_data"`
	Conclusions    map[string]string `json:"conclusions"`
}

// MaxDatasets bounds ComparativeAnalysis.
const MaxDatasets = 20

// ComparativeAnalysis summarizes each dataset. Raw samples are treated as
// one-hour readings. Ties go to the earliest dataset.
func ComparativeAnalysis(datasets []Dataset) (ComparisonResult, error) {
	if len(datasets) > MaxDatasets {
		return ComparisonResult{}, validate.Errorf("datasets", "must contain at most %d entries", MaxDatasets)
	}

	out := ComparisonResult{
		ComparisonData: make([]DatasetSummary, 0, len(datasets)),
		Conclusions:    map[string]string{},
	}
	for i, d := range datasets {
		name := d.Name
		if name == "" {
			name = fmt.Sprintf("Dataset %d", i+1)
		}
		total, peak, avg, lf := d.TotalEnergy, d.PeakLoad, d.AvgLoad, d.LoadFactor
		if len(d.PowerData) > 0 {
			if err := checkSeries(fmt.Sprintf("datasets[%d].power_data", i), d.PowerData); err != nil {
				return ComparisonResult{}, err
			}
			sum := floats.Sum(d.PowerData)
			total = sum / 1000
			peak = floats.Max(d.PowerData)
			avg = sum / float64(len(d.PowerData))
			lf = 0
			if peak > 0 {
				lf = avg / peak
			}
		}
		out.ComparisonData = append(out.ComparisonData, DatasetSummary{
			Name:           name,
			TotalEnergyKWh: validate.Round2(total),
			PeakLoadW:      validate.Round2(peak),
			AverageLoadW:   validate.Round2(avg),
			LoadFactor:     validate.RoundN(lf, 3),
		})
	}

	if len(out.ComparisonData) == 0 {
		return out, nil
	}
	best, lowPeak, lowUse := 0, 0, 0
	for i, s := range out.ComparisonData {
		if s.LoadFactor > out.ComparisonData[best].LoadFactor {
			best = i
		}
		if s.PeakLoadW < out.ComparisonData[lowPeak].PeakLoadW {
			lowPeak = i
		}
		if s.TotalEnergyKWh < out.ComparisonData[lowUse].TotalEnergyKWh {
			lowUse = i
		}
	}
	out.Conclusions["best_load_factor"] = out.ComparisonData[best].Name
	out.Conclusions["lowest_peak_demand"] = out.ComparisonData[lowPeak].Name
	out.Conclusions["lowest_consumption"] = out.ComparisonData[lowUse].Name
	return out, nil
}
