// Package antenna sizes dipole and Yagi antennas and evaluates impedance
// matching and free-space link budgets.
package antenna

import (
	"fmt"
	"math"
	"strconv"

	"electrohub/backend/services/electrohub/internal/validate"
)

// SpeedOfLight in m/s.
const SpeedOfLight = 299792458.0

// RFConstants are exposed on the antenna page and /api/constants.
func RFConstants() map[string]float64 {
	return map[string]float64{
		"speed_of_light":          SpeedOfLight,
		"free_space_impedance":    377,
		"permittivity_free_space": 8.854187817e-12,
		"permeability_free_space": 1.2566370614e-6,
	}
}

// WavelengthResult converts between frequency and wavelength.
type WavelengthResult struct {
	FrequencyHz  float64  `json:"frequency_hz"`
	FrequencyMHz float64  `json:"frequency_mhz"`
	FrequencyGHz float64  `json:"frequency_ghz"`
	WavelengthM  float64  `json:"wavelength_m"`
	WavelengthCM *float64 `json:"wavelength_cm,omitempty"`
	WavelengthMM *float64 `json:"wavelength_mm,omitempty"`
}

// FrequencyToWavelength returns the free-space wavelength of f in several units.
func FrequencyToWavelength(f float64) (WavelengthResult, error) {
	if err := validate.Positive("frequency", f); err != nil {
		return WavelengthResult{}, err
	}
	lambda := SpeedOfLight / f
	cm, mm := lambda*100, lambda*1000
	return WavelengthResult{
		FrequencyHz:  f,
		FrequencyMHz: f / 1e6,
		FrequencyGHz: f / 1e9,
		WavelengthM:  lambda,
		WavelengthCM: &cm,
		WavelengthMM: &mm,
	}, nil
}

// WavelengthToFrequency returns the frequency of a free-space wavelength in metres.
func WavelengthToFrequency(lambda float64) (WavelengthResult, error) {
	if err := validate.Positive("wavelength", lambda); err != nil {
		return WavelengthResult{}, err
	}
	f := SpeedOfLight / lambda
	return WavelengthResult{
		WavelengthM:  lambda,
		FrequencyHz:  f,
		FrequencyMHz: f / 1e6,
		FrequencyGHz: f / 1e9,
	}, nil
}

// BandInfo names the ITU band of a frequency.
type BandInfo struct {
	Band     string `json:"band"`
	Name     string `json:"name"`
	RangeMHz string `json:"range_mhz"`
}

var bands = []struct {
	low, high  float64
	abbr, name string
}{
	{0.003, 0.03, "VLF", "Very Low Frequency"},
	{0.03, 0.3, "LF", "Low Frequency"},
	{0.3, 3, "MF", "Medium Frequency"},
	{3, 30, "HF", "High Frequency"},
	{30, 300, "VHF", "Very High Frequency"},
	{300, 3000, "UHF", "Ultra High Frequency"},
	{3000, 30000, "SHF", "Super High Frequency"},
	{30000, 300000, "EHF", "Extremely High Frequency"},
}

// GetBandInfo looks up the band containing f (Hz). Bands are closed below and open above.
func GetBandInfo(f float64) BandInfo {
	mhz := f / 1e6
	for _, b := range bands {
		if mhz >= b.low && mhz < b.high {
			return BandInfo{
				Band:     b.abbr,
				Name:     b.name,
				RangeMHz: fmt.Sprintf("%s-%s", formatFloat(b.low), formatFloat(b.high)),
			}
		}
	}
	return BandInfo{Band: "Unknown", Name: "Outside defined bands", RangeMHz: "N/A"}
}

// DipoleResult describes a half-wave dipole.
type DipoleResult struct {
	FrequencyMHz           float64   `json:"frequency_mhz"`
	WavelengthM            float64   `json:"wavelength_m"`
	HalfWaveLengthM        float64   `json:"half_wave_length_m"`
	PracticalLengthM       float64   `json:"practical_length_m"`
	QuarterWaveLengthM     float64   `json:"quarter_wave_length_m"`
	RadiationResistanceOhm float64   `json:"radiation_resistance_ohm"`
	InputImpedance         string    `json:"input_impedance"`
	GainDBi                float64   `json:"gain_dbi"`
	GainDBd                float64   `json:"gain_dbd"`
	EffectiveApertureM2    float64   `json:"effective_aperture_m2"`
	BeamwidthEPlane        float64   `json:"beamwidth_e_plane"`
	BeamwidthHPlane        float64   `json:"beamwidth_h_plane"`
	VelocityFactor         float64   `json:"velocity_factor"`
	BandInfo               *BandInfo `json:"band_info,omitempty"`
}

// DefaultWireDiameter in metres.
const DefaultWireDiameter = 0.002

// Dipole sizes a half-wave dipole for frequency f (Hz).
func Dipole(f, wireDiameter float64) (DipoleResult, []string, error) {
	if err := validate.First(
		validate.Positive("frequency", f),
		validate.Positive("wire_diameter", wireDiameter),
	); err != nil {
		return DipoleResult{}, nil, err
	}

	const (
		velocityFactor = 0.95
		gainDBi        = 2.15
	)
	lambda := SpeedOfLight / f
	half := lambda / 2
	band := GetBandInfo(f)

	res := DipoleResult{
		FrequencyMHz:           f / 1e6,
		WavelengthM:            lambda,
		HalfWaveLengthM:        half,
		PracticalLengthM:       half * velocityFactor,
		QuarterWaveLengthM:     lambda / 4,
		RadiationResistanceOhm: 73,
		InputImpedance:         FormatImpedance(complex(73, 42.5)),
		GainDBi:                gainDBi,
		GainDBd:                0,
		EffectiveApertureM2:    lambda * lambda * math.Pow(10, gainDBi/10) / (4 * math.Pi),
		BeamwidthEPlane:        78,
		BeamwidthHPlane:        360,
		VelocityFactor:         velocityFactor,
		BandInfo:               &band,
	}

	warnings := []string{}
	if f < 1e6 {
		warnings = append(warnings, "Low frequency - antenna will be very long")
	}
	if f > 30e9 {
		warnings = append(warnings, "Very high frequency - consider manufacturing tolerances")
	}
	if wireDiameter > lambda/100 {
		warnings = append(warnings, "Wire diameter is significant compared to wavelength")
	}
	return res, warnings, nil
}

// YagiResult describes a Yagi-Uda array from rule-of-thumb element ratios.
type YagiResult struct {
	FrequencyMHz         float64 `json:"frequency_mhz"`
	WavelengthM          float64 `json:"wavelength_m"`
	NumElements          int     `json:"num_elements"`
	DrivenElementLengthM float64 `json:"driven_element_length_m"`
	ReflectorLengthM     float64 `json:"reflector_length_m"`
	DirectorLengthM      float64 `json:"director_length_m"`
	ReflectorSpacingM    float64 `json:"reflector_spacing_m"`
	DirectorSpacingM     float64 `json:"director_spacing_m"`
	BoomLengthM          float64 `json:"boom_length_m"`
	GainDBi              float64 `json:"gain_dbi"`
	FrontToBackDB        float64 `json:"front_to_back_db"`
	BeamwidthDegrees     float64 `json:"beamwidth_degrees"`
	InputImpedanceOhm    string  `json:"input_impedance_ohm"`
	BandwidthPercent     float64 `json:"bandwidth_percent"`
}

// DefaultYagiElements is used when the request omits num_elements.
const DefaultYagiElements = 3

// Yagi sizes an array of numElements. Fewer than three elements are raised to three with a warning.
// boomWavelengths overrides the boom length in wavelengths.
func Yagi(f float64, numElements int, boomWavelengths *float64) (YagiResult, []string, error) {
	if err := validate.Positive("frequency", f); err != nil {
		return YagiResult{}, nil, err
	}
	if numElements > 50 {
		return YagiResult{}, nil, validate.Errorf("num_elements", "must be at most 50")
	}
	if boomWavelengths != nil {
		if err := validate.Positive("boom_length", *boomWavelengths); err != nil {
			return YagiResult{}, nil, err
		}
	}

	warnings := []string{}
	if numElements < 3 {
		warnings = append(warnings, "Yagi antenna requires minimum 3 elements")
		numElements = 3
	}

	lambda := SpeedOfLight / f
	n := float64(numElements)
	boom := 0.25 + (n-2)*0.3
	if boomWavelengths != nil {
		boom = *boomWavelengths
	}
	gain := 7.0 + (n-3)*1.5

	res := YagiResult{
		FrequencyMHz:         f / 1e6,
		WavelengthM:          lambda,
		NumElements:          numElements,
		DrivenElementLengthM: 0.475 * lambda,
		ReflectorLengthM:     0.5 * lambda,
		DirectorLengthM:      0.45 * lambda,
		ReflectorSpacingM:    0.25 * lambda,
		DirectorSpacingM:     0.3 * lambda,
		BoomLengthM:          boom * lambda,
		GainDBi:              gain,
		FrontToBackDB:        15 + (n-3)*3,
		BeamwidthDegrees:     60 / (n - 1),
		InputImpedanceOhm:    FormatImpedance(complex(20, 0)),
		BandwidthPercent:     5 / n * 3,
	}

	if numElements > 10 {
		warnings = append(warnings, "Many elements - mechanical stability may be challenging")
	}
	if gain > 15 {
		warnings = append(warnings, "High gain - narrow beamwidth, precise aiming required")
	}
	return res, warnings, nil
}

// LinkBudgetResult is a free-space link budget against 1 MHz of thermal noise.
type LinkBudgetResult struct {
	TxPowerDBm     float64 `json:"tx_power_dbm"`
	TxGainDBi      float64 `json:"tx_gain_dbi"`
	RxGainDBi      float64 `json:"rx_gain_dbi"`
	DistanceKM     float64 `json:"distance_km"`
	FrequencyMHz   float64 `json:"frequency_mhz"`
	WavelengthM    float64 `json:"wavelength_m"`
	EIRPDBm        float64 `json:"eirp_dbm"`
	FSPLDB         float64 `json:"fspl_db"`
	RxPowerDBm     float64 `json:"rx_power_dbm"`
	EstimatedSNRDB float64 `json:"estimated_snr_db"`
}

// LinkBudgetInput carries transmitter, receiver and path parameters.
type LinkBudgetInput struct {
	TxPowerDBm float64 `json:"tx_power_dbm"`
	TxGainDBi  float64 `json:"tx_gain_dbi"`
	RxGainDBi  float64 `json:"rx_gain_dbi"`
	DistanceKM float64 `json:"distance_km"`
	Frequency  float64 `json:"frequency"`
}

// LinkBudget computes FSPL = 20log10(d) + 20log10(f) - 147.55 with d in metres.
func LinkBudget(in LinkBudgetInput) (LinkBudgetResult, []string, error) {
	if err := validate.First(
		validate.Finite("tx_power_dbm", in.TxPowerDBm),
		validate.Finite("tx_gain_dbi", in.TxGainDBi),
		validate.Finite("rx_gain_dbi", in.RxGainDBi),
		validate.Positive("distance_km", in.DistanceKM),
		validate.Positive("frequency", in.Frequency),
	); err != nil {
		return LinkBudgetResult{}, nil, err
	}

	fspl := 20*math.Log10(in.DistanceKM*1000) + 20*math.Log10(in.Frequency) - 147.55
	eirp := in.TxPowerDBm + in.TxGainDBi
	rx := eirp - fspl + in.RxGainDBi
	noise := -174 + 10*math.Log10(1e6)

	res := LinkBudgetResult{
		TxPowerDBm:     in.TxPowerDBm,
		TxGainDBi:      in.TxGainDBi,
		RxGainDBi:      in.RxGainDBi,
		DistanceKM:     in.DistanceKM,
		FrequencyMHz:   in.Frequency / 1e6,
		WavelengthM:    SpeedOfLight / in.Frequency,
		EIRPDBm:        eirp,
		FSPLDB:         fspl,
		RxPowerDBm:     rx,
		EstimatedSNRDB: rx - noise,
	}

	warnings := []string{}
	if rx < -100 {
		warnings = append(warnings, "Very weak received signal - may be below sensitivity")
	}
	if fspl > 150 {
		warnings = append(warnings, "High path loss - consider higher gain antennas or repeaters")
	}
	return res, warnings, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
