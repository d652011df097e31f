package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/report"
	"electrohub/backend/services/electrohub/internal/service"
	"electrohub/backend/services/electrohub/internal/solar"
)

// SolarReporter renders solar design reports.
type SolarReporter interface {
	Solar(ctx context.Context, d report.SolarData) (service.GeneratedReport, error)
}

// SolarHandlers serves solar sizing.
type SolarHandlers struct {
	history Recorder
	reports SolarReporter
	logger  *zap.Logger
}

// NewSolarHandlers returns handler.
func NewSolarHandlers(history Recorder, reports SolarReporter, logger *zap.Logger) *SolarHandlers {
	return &SolarHandlers{history: history, reports: reports, logger: logger}
}

// PanelSizing handles POST /api/solar/panel-sizing.
func (h *SolarHandlers) PanelSizing(w http.ResponseWriter, r *http.Request) {
	req := solar.PanelInput{
		SystemEfficiency: solar.DefaultSystemEfficiency,
		PanelWattage:     solar.DefaultPanelWattage,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := solar.PanelSizing(req)
	if err != nil {
		failure(w, h.logger, "panel sizing", err)
		return
	}
	h.history.Record(r.Context(), "panel_sizing", req, res, warnings)
	writeWarned(w, res, warnings)
}

// BatterySizing handles POST /api/solar/battery-sizing.
func (h *SolarHandlers) BatterySizing(w http.ResponseWriter, r *http.Request) {
	req := solar.BatteryInput{
		DepthOfDischarge:  solar.DefaultDepthOfDischarge,
		BatteryVoltage:    solar.DefaultBatteryVoltage,
		BatteryEfficiency: solar.DefaultBatteryEfficiency,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := solar.BatterySizing(req)
	if err != nil {
		failure(w, h.logger, "battery sizing", err)
		return
	}
	h.history.Record(r.Context(), "battery_sizing", req, res, warnings)
	writeWarned(w, res, warnings)
}

// InverterSizing handles POST /api/solar/inverter-sizing.
func (h *SolarHandlers) InverterSizing(w http.ResponseWriter, r *http.Request) {
	req := solar.InverterInput{
		SurgeFactor:      solar.DefaultSurgeFactor,
		ContinuousFactor: solar.DefaultContinuousFactor,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := solar.InverterSizing(req)
	if err != nil {
		failure(w, h.logger, "inverter sizing", err)
		return
	}
	h.history.Record(r.Context(), "inverter_sizing", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Losses handles POST /api/solar/losses.
func (h *SolarHandlers) Losses(w http.ResponseWriter, r *http.Request) {
	req := solar.DefaultLossesInput()
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := solar.SystemLosses(req)
	if err != nil {
		failure(w, h.logger, "system losses", err)
		return
	}
	writeResult(w, res)
}

// ROI handles POST /api/solar/roi.
func (h *SolarHandlers) ROI(w http.ResponseWriter, r *http.Request) {
	req := solar.ROIInput{
		AnnualDegradation: solar.DefaultAnnualDegradation,
		Years:             solar.DefaultROIYears,
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, warnings, err := solar.ROIAnalysis(req)
	if err != nil {
		failure(w, h.logger, "roi analysis", err)
		return
	}
	h.history.Record(r.Context(), "roi_analysis", req, res, warnings)
	writeWarned(w, res, warnings)
}

// Compare handles POST /api/solar/compare.
func (h *SolarHandlers) Compare(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Systems []solar.SystemSpec `json:"systems"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := solar.CompareSystems(req.Systems)
	if err != nil {
		failure(w, h.logger, "system comparison", err)
		return
	}
	writeResult(w, res)
}

// Report handles POST /api/solar/report.
func (h *SolarHandlers) Report(w http.ResponseWriter, r *http.Request) {
	var req report.SolarData
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.reports.Solar(r.Context(), req)
	if err != nil {
		failure(w, h.logger, "solar report", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
