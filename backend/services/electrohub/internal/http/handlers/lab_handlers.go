package handlers

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/lab"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/service"
)

// LabReporter renders and lists lab reports.
type LabReporter interface {
	Lab(ctx context.Context, doc map[string]interface{}) (service.GeneratedReport, error)
	Reports(ctx context.Context, limit int) ([]models.LabReport, error)
}

// LabHandlers serves the virtual lab.
type LabHandlers struct {
	reports LabReporter
	logger  *zap.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLabHandlers returns handler.
func NewLabHandlers(reports LabReporter, rng *rand.Rand, logger *zap.Logger) *LabHandlers {
	return &LabHandlers{reports: reports, rng: rng, logger: logger}
}

// Run handles POST /api/lab/run.
func (h *LabHandlers) Run(w http.ResponseWriter, r *http.Request) {
	req := struct {
		Experiment       string     `json:"experiment"`
		Parameters       lab.Params `json:"parameters"`
		WithTolerance    bool       `json:"with_tolerance"`
		TolerancePercent float64    `json:"tolerance_percent"`
	}{TolerancePercent: lab.DefaultTolerancePercent}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Parameters == nil {
		req.Parameters = lab.Params{}
	}

	var (
		res lab.Result
		err error
	)
	if req.WithTolerance {
		h.mu.Lock()
		res, err = lab.RunWithTolerance(req.Experiment, req.Parameters, req.TolerancePercent, h.rng)
		h.mu.Unlock()
	} else {
		res, err = lab.Run(req.Experiment, req.Parameters)
	}
	if errors.Is(err, lab.ErrUnknownExperiment) {
		writeError(w, http.StatusBadRequest, "Unknown experiment")
		return
	}
	if err != nil {
		failure(w, h.logger, "lab experiment", err)
		return
	}
	writeResult(w, res)
}

// Report handles POST /api/lab/report with {"result": {...}}.
func (h *LabHandlers) Report(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Result map[string]interface{} `json:"result"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Result == nil {
		writeError(w, http.StatusBadRequest, "result: is required")
		return
	}
	res, err := h.reports.Lab(r.Context(), req.Result)
	if err != nil {
		failure(w, h.logger, "lab report", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Theory handles GET /api/lab/theory?experiment=.
func (h *LabHandlers) Theory(w http.ResponseWriter, r *http.Request) {
	theory, err := lab.Theory(r.URL.Query().Get("experiment"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Unknown experiment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"theory": theory})
}

type experimentEntry struct {
	ID string `json:"id"`
	lab.Experiment
}

// Experiments handles GET /api/lab/experiments.
func (h *LabHandlers) Experiments(w http.ResponseWriter, _ *http.Request) {
	out := make([]experimentEntry, 0, len(lab.ExperimentIDs))
	for _, id := range lab.ExperimentIDs {
		out = append(out, experimentEntry{ID: id, Experiment: lab.Experiments[id]})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"experiments": out})
}

// Reports handles GET /api/lab/reports.
func (h *LabHandlers) Reports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reports, err := h.reports.Reports(r.Context(), limit)
	if err != nil {
		failure(w, h.logger, "lab reports", err)
		return
	}
	if reports == nil {
		reports = []models.LabReport{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"reports": reports})
}
