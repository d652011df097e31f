package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/antenna"
)

// AntennaHandlers serves antenna and RF calculations.
type AntennaHandlers struct {
	history Recorder
	logger  *zap.Logger
}

// NewAntennaHandlers returns handler.
func NewAntennaHandlers(history Recorder, logger *zap.Logger) *AntennaHandlers {
	return &AntennaHandlers{history: history, logger: logger}
}

// FrequencyWavelength handles POST /api/antenna/frequency-wavelength. A
// non-zero frequency wins over wavelength.
func (h *AntennaHandlers) FrequencyWavelength(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Frequency  float64 `json:"frequency"`
		Wavelength float64 `json:"wavelength"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	var (
		res antenna.WavelengthResult
		err error
	)
	if req.Frequency != 0 {
		res, err = antenna.FrequencyToWavelength(req.Frequency)
	} else {
		res, err = antenna.WavelengthToFrequency(req.Wavelength)
	}
	if err != nil {
		failure(w, h.logger, "frequency wavelength", err)
		return
	}
	writeResult(w, res)
}

// Dipole handles POST /api/antenna/dipole.
func (h *AntennaHandlers) Dipole(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Frequency    float64 `json:"frequency"`
		WireDiameter float64 `json:"wire_diameter"`
	}{WireDiameter: antenna.DefaultWireDiameter}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := antenna.Dipole(req.Frequency, req.WireDiameter)
	if err != nil {
		failure(w, h.logger, "dipole", err)
		return
	}
	h.history.Record(r.Context(), "dipole_antenna", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Yagi handles POST /api/antenna/yagi.
func (h *AntennaHandlers) Yagi(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Frequency   float64  `json:"frequency"`
		NumElements int      `json:"num_elements"`
		BoomLength  *float64 `json:"boom_length"`
	}{NumElements: antenna.DefaultYagiElements}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := antenna.Yagi(req.Frequency, req.NumElements, req.BoomLength)
	if err != nil {
		failure(w, h.logger, "yagi", err)
		return
	}
	h.history.Record(r.Context(), "yagi_antenna", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Impedance handles POST /api/antenna/impedance.
func (h *AntennaHandlers) Impedance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceImpedance antenna.Impedance `json:"source_impedance"`
		LoadImpedance   antenna.Impedance `json:"load_impedance"`
		Frequency       float64           `json:"frequency"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	zs, zl := complex128(req.SourceImpedance), complex128(req.LoadImpedance)
	res, warnings, err := antenna.ImpedanceMatching(zs, zl, req.Frequency)
	if err != nil {
		failure(w, h.logger, "impedance matching", err)
		return
	}
	h.history.Record(r.Context(), "impedance_matching", map[string]interface{}{
		"source_impedance": antenna.FormatImpedance(zs),
		"load_impedance":   antenna.FormatImpedance(zl),
		"frequency":        req.Frequency,
	}, res, warnings)
	writeWarned(w, res, warnings)
}

// LinkBudget handles POST /api/antenna/link-budget.
func (h *AntennaHandlers) LinkBudget(w http.ResponseWriter, r *http.Request) {
	var req antenna.LinkBudgetInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := antenna.LinkBudget(req)
	if err != nil {
		failure(w, h.logger, "link budget", err)
		return
	}
	h.history.Record(r.Context(), "link_budget", req, res, warnings)
	writeWarned(w, res, warnings)
}
