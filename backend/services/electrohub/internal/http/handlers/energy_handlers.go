package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/energy"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/service"
)

// EnergyAnalyzer analyses uploaded logs and lists past analyses.
type EnergyAnalyzer interface {
	Analyze(ctx context.Context, r io.Reader, filename string, costPerKWh float64) (service.EnergyReport, error)
	History(ctx context.Context, limit int) ([]models.EnergyRecord, error)
}

// EnergyHandlers serves energy analysis.
type EnergyHandlers struct {
	energy    EnergyAnalyzer
	maxUpload int64
	logger    *zap.Logger
}

// NewEnergyHandlers returns handler.
func NewEnergyHandlers(energy EnergyAnalyzer, maxUpload int64, logger *zap.Logger) *EnergyHandlers {
	return &EnergyHandlers{energy: energy, maxUpload: maxUpload, logger: logger}
}

// Analyze handles POST /api/energy/analyze with a multipart "file" field.
func (h *EnergyHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, "No file uploaded")
		default:
			writeError(w, http.StatusBadRequest, "invalid upload")
		}
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if header.Filename == "" || name == "." {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}

	cost := energy.DefaultCostPerKWh
	if raw := strings.TrimSpace(r.FormValue("cost_per_kwh")); raw != "" {
		cost, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cost_per_kwh: must be a number")
			return
		}
	}

	res, err := h.energy.Analyze(r.Context(), file, name, cost)
	if err != nil {
		failure(w, h.logger, "energy analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Efficiency handles POST /api/energy/efficiency.
func (h *EnergyHandlers) Efficiency(w http.ResponseWriter, r *http.Request) {
	req := energy.EfficiencyInput{OperatingHours: energy.DefaultOperatingHours}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := energy.CalculateEfficiency(req)
	if err != nil {
		failure(w, h.logger, "energy efficiency", err)
		return
	}
	writeResult(w, res)
}

// Cost handles POST /api/energy/cost.
func (h *EnergyHandlers) Cost(w http.ResponseWriter, r *http.Request) {
	req := energy.DefaultCostInput()
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := energy.CostEstimation(req)
	if err != nil {
		failure(w, h.logger, "cost estimation", err)
		return
	}
	writeResult(w, res)
}

// Peaks handles POST /api/energy/peaks.
func (h *EnergyHandlers) Peaks(w http.ResponseWriter, r *http.Request) {
	req := struct {
		PowerData       []float64 `json:"power_data"`
		ThresholdFactor float64   `json:"threshold_factor"`
	}{ThresholdFactor: energy.DefaultThresholdFactor}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := energy.DetectPeaks(req.PowerData, req.ThresholdFactor)
	if err != nil {
		failure(w, h.logger, "peak detection", err)
		return
	}
	writeResult(w, res)
}

// Compare handles POST /api/energy/compare.
func (h *EnergyHandlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Datasets []energy.Dataset `json:"datasets"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := energy.ComparativeAnalysis(req.Datasets)
	if err != nil {
		failure(w, h.logger, "energy comparison", err)
		return
	}
	writeResult(w, res)
}

// History handles GET /api/energy/history.
func (h *EnergyHandlers) History(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	records, err := h.energy.History(r.Context(), limit)
	if err != nil {
		failure(w, h.logger, "energy history", err)
		return
	}
	if records == nil {
		records = []models.EnergyRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}
