package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/antenna"
	"electrohub/backend/services/electrohub/internal/calculator"
	"electrohub/backend/services/electrohub/internal/models"
)

// Recorder stores calculation history.
type Recorder interface {
	Record(ctx context.Context, module string, input, result interface{}, warnings []string)
}

// HistoryLister reads calculation history.
type HistoryLister interface {
	List(ctx context.Context, module string, limit int) ([]models.Calculation, error)
}

// CalculatorHandlers serves the basic calculators.
type CalculatorHandlers struct {
	history Recorder
	lister  HistoryLister
	logger  *zap.Logger
}

// NewCalculatorHandlers returns handler.
func NewCalculatorHandlers(history Recorder, lister HistoryLister, logger *zap.Logger) *CalculatorHandlers {
	return &CalculatorHandlers{history: history, lister: lister, logger: logger}
}

type circuitRequest struct {
	Resistance  float64  `json:"resistance"`
	Inductance  float64  `json:"inductance"`
	Capacitance float64  `json:"capacitance"`
	Frequency   *float64 `json:"frequency"`
}

// OhmsLaw handles POST /api/calculator/ohms-law.
func (h *CalculatorHandlers) OhmsLaw(w http.ResponseWriter, r *http.Request) {
	var req calculator.OhmsLawInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.OhmsLaw(req)
	if err != nil {
		failure(w, h.logger, "ohms law", err)
		return
	}
	if res.Power != nil {
		h.history.Record(r.Context(), "ohms_law", req, res, warnings)
	}
	writeWarned(w, res, warnings)
}

// RCCircuit handles POST /api/calculator/rc-circuit.
func (h *CalculatorHandlers) RCCircuit(w http.ResponseWriter, r *http.Request) {
	var req circuitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.RCCircuit(req.Resistance, req.Capacitance, req.Frequency)
	if err != nil {
		failure(w, h.logger, "rc circuit", err)
		return
	}
	h.history.Record(r.Context(), "rc_circuit", map[string]interface{}{
		"resistance": req.Resistance, "capacitance": req.Capacitance, "frequency": req.Frequency,
	}, res, warnings)
	writeWarned(w, res, warnings)
}

// RLCircuit handles POST /api/calculator/rl-circuit.
func (h *CalculatorHandlers) RLCircuit(w http.ResponseWriter, r *http.Request) {
	var req circuitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.RLCircuit(req.Resistance, req.Inductance, req.Frequency)
	if err != nil {
		failure(w, h.logger, "rl circuit", err)
		return
	}
	h.history.Record(r.Context(), "rl_circuit", map[string]interface{}{
		"resistance": req.Resistance, "inductance": req.Inductance, "frequency": req.Frequency,
	}, res, warnings)
	writeWarned(w, res, warnings)
}

// RLCCircuit handles POST /api/calculator/rlc-circuit.
func (h *CalculatorHandlers) RLCCircuit(w http.ResponseWriter, r *http.Request) {
	var req circuitRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.RLCCircuit(req.Resistance, req.Inductance, req.Capacitance, req.Frequency)
	if err != nil {
		failure(w, h.logger, "rlc circuit", err)
		return
	}
	h.history.Record(r.Context(), "rlc_circuit", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Filter handles POST /api/calculator/filter.
func (h *CalculatorHandlers) Filter(w http.ResponseWriter, r *http.Request) {
	var req calculator.FilterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.FilterDesign(req)
	if err != nil {
		failure(w, h.logger, "filter design", err)
		return
	}
	h.history.Record(r.Context(), "filter_design", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Amplifier handles POST /api/calculator/amplifier.
func (h *CalculatorHandlers) Amplifier(w http.ResponseWriter, r *http.Request) {
	var req calculator.AmplifierInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.AmplifierGain(req)
	if err != nil {
		failure(w, h.logger, "amplifier gain", err)
		return
	}
	h.history.Record(r.Context(), "amplifier_gain", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Tolerance handles POST /api/calculator/tolerance.
func (h *CalculatorHandlers) Tolerance(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NominalValue     float64 `json:"nominal_value"`
		TolerancePercent float64 `json:"tolerance_percent"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.ToleranceAnalysis(req.NominalValue, req.TolerancePercent)
	if err != nil {
		failure(w, h.logger, "tolerance analysis", err)
		return
	}
	h.history.Record(r.Context(), "tolerance_analysis", req, res, warnings)
	writeWarned(w, res, warnings)
}

// PowerRating handles POST /api/calculator/power-rating.
func (h *CalculatorHandlers) PowerRating(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Voltage        float64 `json:"voltage"`
		Current        float64 `json:"current"`
		RatedPower     float64 `json:"rated_power"`
		DeratingFactor float64 `json:"derating_factor"`
	}{DeratingFactor: calculator.DefaultDerating}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.PowerRatingCheck(req.Voltage, req.Current, req.RatedPower, req.DeratingFactor)
	if err != nil {
		failure(w, h.logger, "power rating", err)
		return
	}
	h.history.Record(r.Context(), "power_rating", req, res, warnings)
	writeWarned(w, res, warnings)
}

// VoltageDivider handles POST /api/calculator/voltage-divider.
func (h *CalculatorHandlers) VoltageDivider(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Vin float64 `json:"vin"`
		R1  float64 `json:"r1"`
		R2  float64 `json:"r2"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := calculator.VoltageDivider(req.Vin, req.R1, req.R2)
	if err != nil {
		failure(w, h.logger, "voltage divider", err)
		return
	}
	h.history.Record(r.Context(), "voltage_divider", req, res, warnings)
	writeWarned(w, res, warnings)
}

// UnitConvert handles POST /api/calculator/unit-convert.
func (h *CalculatorHandlers) UnitConvert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Value      float64 `json:"value"`
		FromPrefix string  `json:"from_prefix"`
		ToPrefix   string  `json:"to_prefix"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := calculator.ConvertUnit(req.Value, req.FromPrefix, req.ToPrefix)
	if err != nil {
		failure(w, h.logger, "unit convert", err)
		return
	}
	writeResult(w, res)
}

type resistorsRequest struct {
	Resistances []float64 `json:"resistances"`
}

// Series handles POST /api/calculator/series.
func (h *CalculatorHandlers) Series(w http.ResponseWriter, r *http.Request) {
	var req resistorsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := calculator.SeriesResistance(req.Resistances)
	if err != nil {
		failure(w, h.logger, "series resistance", err)
		return
	}
	writeResult(w, res)
}

// Parallel handles POST /api/calculator/parallel.
func (h *CalculatorHandlers) Parallel(w http.ResponseWriter, r *http.Request) {
	var req resistorsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := calculator.ParallelResistance(req.Resistances)
	if err != nil {
		failure(w, h.logger, "parallel resistance", err)
		return
	}
	writeResult(w, res)
}

// WhatIf handles POST /api/calculator/what-if.
func (h *CalculatorHandlers) WhatIf(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Calculator string             `json:"calculator"`
		BaseParams map[string]float64 `json:"base_params"`
		Param      string             `json:"param"`
		Values     []float64          `json:"values"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	points, err := calculator.WhatIf(strings.TrimSpace(req.Calculator), req.BaseParams, strings.TrimSpace(req.Param), req.Values)
	if err != nil {
		failure(w, h.logger, "what-if", err)
		return
	}
	writeResult(w, points)
}

// History handles GET /api/calculator/history.
func (h *CalculatorHandlers) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		failure(w, h.logger, "calculation history", err)
		return
	}
	rows, err := h.lister.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("module")), limit)
	if err != nil {
		failure(w, h.logger, "calculation history", err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// Constants handles GET /api/constants.
func (h *CalculatorHandlers) Constants(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"engineering_constants": calculator.EngineeringConstants,
		"unit_prefixes":         calculator.UnitPrefixes,
		"rf_constants":          antenna.RFConstants(),
	})
}
