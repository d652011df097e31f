package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/circuit"
)

// CircuitHandlers serves circuit analysis.
type CircuitHandlers struct {
	history Recorder
	logger  *zap.Logger
}

// NewCircuitHandlers returns handler.
func NewCircuitHandlers(history Recorder, logger *zap.Logger) *CircuitHandlers {
	return &CircuitHandlers{history: history, logger: logger}
}

type concludedResponse struct {
	Result     interface{} `json:"result"`
	Warnings   []string    `json:"warnings"`
	Conclusion string      `json:"conclusion"`
}

// DC handles POST /api/circuit/dc-analysis.
func (h *CircuitHandlers) DC(w http.ResponseWriter, r *http.Request) {
	var req circuit.DCInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := circuit.DCAnalysis(req)
	if err != nil {
		failure(w, h.logger, "dc analysis", err)
		return
	}
	h.history.Record(r.Context(), "dc_analysis", req, res, warnings)
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, concludedResponse{Result: res, Warnings: warnings, Conclusion: res.Conclusion()})
}

// AC handles POST /api/circuit/ac-analysis.
func (h *CircuitHandlers) AC(w http.ResponseWriter, r *http.Request) {
	var req circuit.ACInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := circuit.ACAnalysis(req)
	if err != nil {
		failure(w, h.logger, "ac analysis", err)
		return
	}
	h.history.Record(r.Context(), "ac_analysis", req, res, warnings)
	if warnings == nil {
		warnings = []string{}
	}
	writeJSON(w, http.StatusOK, concludedResponse{Result: res, Warnings: warnings, Conclusion: res.Conclusion()})
}

// FrequencyResponse handles POST /api/circuit/frequency-response.
func (h *CircuitHandlers) FrequencyResponse(w http.ResponseWriter, r *http.Request) {
	req := circuit.ResponseInput{
		FreqStart: circuit.DefaultFreqStart,
		FreqEnd:   circuit.DefaultFreqEnd,
		Points:    circuit.DefaultPoints,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := circuit.FrequencyResponse(req)
	if err != nil {
		failure(w, h.logger, "frequency response", err)
		return
	}
	writeResult(w, res)
}

// Efficiency handles POST /api/circuit/efficiency.
func (h *CircuitHandlers) Efficiency(w http.ResponseWriter, r *http.Request) {
	var req circuit.EfficiencyInput
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := circuit.EfficiencyAnalysis(req)
	if err != nil {
		failure(w, h.logger, "efficiency analysis", err)
		return
	}
	h.history.Record(r.Context(), "efficiency_analysis", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Compare handles POST /api/circuit/compare.
func (h *CircuitHandlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Circuits []circuit.ACInput `json:"circuits"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := circuit.ComparativeAnalysis(req.Circuits)
	if err != nil {
		failure(w, h.logger, "circuit comparison", err)
		return
	}
	writeResult(w, res)
}
