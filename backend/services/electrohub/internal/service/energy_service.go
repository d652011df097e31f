package service

import (
	"context"
	"io"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/energy"
	"electrohub/backend/services/electrohub/internal/metrics"
	"electrohub/backend/services/electrohub/internal/models"
)

// EnergyStore persists energy log summaries.
type EnergyStore interface {
	Create(ctx context.Context, e *models.EnergyRecord) error
	List(ctx context.Context, limit int) ([]models.EnergyRecord, error)
}

// EnergyReport is the response to an uploaded power log.
type EnergyReport struct {
	Result          energy.Analysis         `json:"result"`
	Warnings        []string                `json:"warnings"`
	Recommendations []energy.Recommendation `json:"recommendations"`
}

// EnergyService analyses uploaded power logs.
type EnergyService struct {
	store  EnergyStore
	logger *zap.Logger
}

// NewEnergyService builds service.
func NewEnergyService(store EnergyStore, logger *zap.Logger) *EnergyService {
	return &EnergyService{store: store, logger: logger}
}

// Analyze reads a CSV log and stores its summary. A failed insert is logged
// and does not fail the analysis.
func (s *EnergyService) Analyze(ctx context.Context, r io.Reader, filename string, costPerKWh float64) (EnergyReport, error) {
	a, warnings, err := energy.AnalyzeCSV(r, filename, costPerKWh)
	if err != nil {
		return EnergyReport{}, err
	}
	if warnings == nil {
		warnings = []string{}
	}

	rec := &models.EnergyRecord{
		Filename:    a.Filename,
		TotalEnergy: a.TotalEnergyKWh,
		PeakLoad:    a.PeakLoadW,
		Efficiency:  a.LoadFactor,
		Cost:        a.EstimatedCost,
	}
	if err := s.store.Create(ctx, rec); err != nil {
		metrics.RecordHistoryFailure("energy_data")
		s.logger.Warn("failed to record energy analysis", zap.String("filename", a.Filename), zap.Error(err))
	}

	return EnergyReport{
		Result:          a,
		Warnings:        warnings,
		Recommendations: energy.GenerateRecommendations(a),
	}, nil
}

// History lists stored analyses, newest first.
func (s *EnergyService) History(ctx context.Context, limit int) ([]models.EnergyRecord, error) {
	return s.store.List(ctx, limit)
}
