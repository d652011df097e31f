package service

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/lab"
	"electrohub/backend/services/electrohub/internal/metrics"
	"electrohub/backend/services/electrohub/internal/models"
	"electrohub/backend/services/electrohub/internal/report"
)

// Report kinds.
const (
	ReportSolar = "solar"
	ReportLab   = "lab"
)

// LabReportStore persists generated lab reports.
type LabReportStore interface {
	Create(ctx context.Context, r *models.LabReport) error
	List(ctx context.Context, limit int) ([]models.LabReport, error)
}

// Renderer writes PDF reports and returns their file names.
type Renderer interface {
	Solar(d report.SolarData) (string, error)
	Lab(s lab.Summary) (string, error)
}

// GeneratedReport names a written PDF.
type GeneratedReport struct {
	Filepath    string `json:"filepath"`
	DownloadURL string `json:"download_url"`
	Message     string `json:"message"`
}

// ReportService renders reports and records lab reports.
type ReportService struct {
	renderer Renderer
	store    LabReportStore
	logger   *zap.Logger
}

// NewReportService builds service.
func NewReportService(renderer Renderer, store LabReportStore, logger *zap.Logger) *ReportService {
	return &ReportService{renderer: renderer, store: store, logger: logger}
}

// Solar renders a solar design report.
func (s *ReportService) Solar(ctx context.Context, d report.SolarData) (GeneratedReport, error) {
	name, err := s.renderer.Solar(d)
	if err != nil {
		return GeneratedReport{}, fmt.Errorf("solar report: %w", err)
	}
	metrics.RecordReport(ReportSolar)
	s.logger.Info("report generated", zap.String("kind", ReportSolar), zap.String("file", name))
	return generated(name, "Report generated successfully"), nil
}

// Lab renders a lab report for a posted result document and records it.
func (s *ReportService) Lab(ctx context.Context, doc map[string]interface{}) (GeneratedReport, error) {
	summary := lab.SummarizeJSON(doc)
	name, err := s.renderer.Lab(summary)
	if err != nil {
		return GeneratedReport{}, fmt.Errorf("lab report: %w", err)
	}
	metrics.RecordReport(ReportLab)

	params := make(map[string]string, len(summary.Parameters))
	for _, r := range summary.Parameters {
		params[r.Name] = r.Value
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return GeneratedReport{}, fmt.Errorf("encode parameters: %w", err)
	}
	rec := &models.LabReport{
		Experiment: summary.Experiment,
		Result:     string(raw),
		Conclusion: summary.Conclusion,
		PDFPath:    name,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		metrics.RecordHistoryFailure("lab_reports")
		s.logger.Warn("failed to record lab report", zap.String("file", name), zap.Error(err))
	}
	return generated(name, "Lab report generated successfully"), nil
}

// Reports lists recorded lab reports, newest first.
func (s *ReportService) Reports(ctx context.Context, limit int) ([]models.LabReport, error) {
	return s.store.List(ctx, limit)
}

func generated(name, msg string) GeneratedReport {
	return GeneratedReport{Filepath: name, DownloadURL: "/download/" + name, Message: msg}
}
