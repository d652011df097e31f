package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/fault"
)

// FaultHandlers serves the diagnostic expert system.
type FaultHandlers struct {
	history Recorder
	logger  *zap.Logger
}

// NewFaultHandlers returns handler.
func NewFaultHandlers(history Recorder, logger *zap.Logger) *FaultHandlers {
	return &FaultHandlers{history: history, logger: logger}
}

type diagnoseResponse struct {
	Diagnosis fault.Diagnosis `json:"diagnosis"`
	Report    fault.Report    `json:"report"`
}

// Diagnose handles POST /api/fault/diagnose.
func (h *FaultHandlers) Diagnose(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Symptoms []string `json:"symptoms"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Symptoms == nil {
		req.Symptoms = []string{}
	}
	d, err := fault.Diagnose(req.Symptoms)
	if err != nil {
		failure(w, h.logger, "fault diagnosis", err)
		return
	}
	h.history.Record(r.Context(), "fault_diagnosis", req, map[string]interface{}{
		"diagnosis":  d.PrimaryFault,
		"confidence": d.Confidence,
	}, nil)
	writeJSON(w, http.StatusOK, diagnoseResponse{Diagnosis: d, Report: fault.DiagnosisReport(req.Symptoms, d)})
}

// RepairSteps handles POST /api/fault/repair-steps.
func (h *FaultHandlers) RepairSteps(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FaultType  string `json:"fault_type"`
		CauseIndex int    `json:"cause_index"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := fault.GetRepairSteps(req.FaultType, req.CauseIndex)
	if errors.Is(err, fault.ErrUnknownFault) {
		writeError(w, http.StatusNotFound, "Fault type or cause not found")
		return
	}
	if err != nil {
		failure(w, h.logger, "repair steps", err)
		return
	}
	writeResult(w, res)
}

// ComponentTests handles POST /api/fault/component-tests.
func (h *FaultHandlers) ComponentTests(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ComponentType string `json:"component_type"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := fault.GetComponentTests(req.ComponentType)
	if errors.Is(err, fault.ErrUnknownComponent) {
		writeError(w, http.StatusNotFound, "No test procedures for "+req.ComponentType)
		return
	}
	if err != nil {
		failure(w, h.logger, "component tests", err)
		return
	}
	writeResult(w, res)
}

// Symptoms handles GET /api/fault/symptoms.
func (h *FaultHandlers) Symptoms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"symptoms":    fault.AllSymptoms(),
		"fault_types": fault.FaultTypes(),
	})
}
