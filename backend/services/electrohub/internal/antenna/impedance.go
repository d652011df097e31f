package antenna

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/cmplx"
	"strconv"
	"strings"

	"electrohub/backend/services/electrohub/internal/validate"
)

// Impedance decodes from a JSON number (resistive) or a string such as
// "75+25j", "(50-10j)" or "30j".
type Impedance complex128

// UnmarshalJSON accepts numbers and engineering-notation strings.
func (z *Impedance) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		c, err := ParseImpedance(s)
		if err != nil {
			return err
		}
		*z = Impedance(c)
		return nil
	}
	var r float64
	if err := json.Unmarshal(data, &r); err != nil {
		return fmt.Errorf("impedance must be a number or a string like \"75+25j\": %w", err)
	}
	*z = Impedance(complex(r, 0))
	return nil
}

// ParseImpedance reads a complex impedance written with a j suffix.
func ParseImpedance(s string) (complex128, error) {
	clean := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	clean = strings.TrimSuffix(strings.TrimPrefix(clean, "("), ")")
	clean = strings.ReplaceAll(strings.ReplaceAll(clean, "j", "i"), "J", "i")
	if clean == "" {
		return 0, validate.Errorf("impedance", "is empty")
	}
	c, err := strconv.ParseComplex(clean, 128)
	if err != nil {
		return 0, validate.Errorf("impedance", "cannot parse %q", s)
	}
	return c, nil
}

// FormatImpedance renders z as "(73+42.5j)", or a plain number when it is purely resistive.
func FormatImpedance(z complex128) string {
	re, im := real(z), imag(z)
	if im == 0 {
		return formatFloat(re)
	}
	sign := "+"
	if im < 0 {
		sign = "-"
	}
	return fmt.Sprintf("(%s%s%sj)", formatFloat(re), sign, formatFloat(math.Abs(im)))
}

// LNetwork holds the two-element match between resistive source and load.
type LNetwork struct {
	SeriesReactance *float64 `json:"series_reactance,omitempty"`
	ShuntReactance  *float64 `json:"shunt_reactance,omitempty"`
	SeriesInductorH *float64 `json:"series_inductor_h,omitempty"`
	ShuntCapacitorF *float64 `json:"shunt_capacitor_f,omitempty"`
	Note            string   `json:"note,omitempty"`
}

// MatchResult reports the mismatch between source and load. Unbounded
// quantities (perfect match return loss, total reflection VSWR) are null.
type MatchResult struct {
	SourceImpedance         string   `json:"source_impedance"`
	LoadImpedance           string   `json:"load_impedance"`
	ReflectionCoefficient   float64  `json:"reflection_coefficient"`
	ReflectionCoefficientDB *float64 `json:"reflection_coefficient_db"`
	VSWR                    *float64 `json:"vswr"`
	ReturnLossDB            *float64 `json:"return_loss_db"`
	MismatchLossDB          *float64 `json:"mismatch_loss_db"`
	LNetworkMatch           LNetwork `json:"l_network_match"`
	FrequencyMHz            float64  `json:"frequency_mhz"`
}

// ImpedanceMatching computes the reflection coefficient and, for purely
// resistive terminations, the L-network that matches them at f.
func ImpedanceMatching(zs, zl complex128, f float64) (MatchResult, []string, error) {
	if err := validate.Positive("frequency", f); err != nil {
		return MatchResult{}, nil, err
	}
	if cmplx.IsNaN(zs) || cmplx.IsInf(zs) || cmplx.IsNaN(zl) || cmplx.IsInf(zl) {
		return MatchResult{}, nil, validate.Errorf("impedance", "must be finite")
	}
	if zs+zl == 0 {
		return MatchResult{}, nil, validate.Errorf("load_impedance", "source plus load impedance must not be zero")
	}

	gamma := cmplx.Abs((zl - zs) / (zl + zs))
	vswr := math.Inf(1)
	if gamma < 1 {
		vswr = (1 + gamma) / (1 - gamma)
	}
	returnLoss := math.Inf(1)
	if gamma > 0 {
		returnLoss = -20 * math.Log10(gamma)
	}
	mismatch := math.Inf(-1)
	if gamma < 1 {
		mismatch = 10 * math.Log10(1-gamma*gamma)
	}

	res := MatchResult{
		SourceImpedance:         FormatImpedance(zs),
		LoadImpedance:           FormatImpedance(zl),
		ReflectionCoefficient:   gamma,
		ReflectionCoefficientDB: validate.Nullable(returnLoss),
		VSWR:                    validate.Nullable(vswr),
		ReturnLossDB:            validate.Nullable(returnLoss),
		MismatchLossDB:          validate.Nullable(mismatch),
		LNetworkMatch:           lNetwork(zs, zl, f),
		FrequencyMHz:            f / 1e6,
	}

	warnings := []string{}
	if vswr > 3 {
		warnings = append(warnings, "High VSWR - significant power reflection")
	}
	if vswr > 1.5 {
		warnings = append(warnings, "Moderate mismatch - matching network recommended")
	}
	return res, warnings, nil
}

func lNetwork(zs, zl complex128, f float64) LNetwork {
	if math.Abs(imag(zs)) >= 1e-10 || math.Abs(imag(zl)) >= 1e-10 {
		return LNetwork{Note: "Complex impedance matching requires Smith chart analysis"}
	}
	rs, rl := real(zs), real(zl)
	if rs <= 0 || rl <= 0 {
		return LNetwork{Note: "L-network matching requires positive resistances"}
	}
	if rs == rl {
		return LNetwork{Note: "Impedances already matched"}
	}

	q := math.Sqrt(math.Max(rs, rl)/math.Min(rs, rl) - 1)
	var xl, xc float64
	if rs > rl {
		xl = q * rl
		xc = rs / q
	} else {
		xc = rl / q
		xl = q * rs
	}
	l := xl / (2 * math.Pi * f)
	c := 1 / (2 * math.Pi * f * xc)
	return LNetwork{
		SeriesReactance: &xl,
		ShuntReactance:  &xc,
		SeriesInductorH: &l,
		ShuntCapacitorF: &c,
	}
}
