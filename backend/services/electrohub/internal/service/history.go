// Package service ties the formula packages to storage, cache, live push and
// report files.
package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"electrohub/backend/services/electrohub/internal/jsonsafe"
	"electrohub/backend/services/electrohub/internal/metrics"
	"electrohub/backend/services/electrohub/internal/models"
)

// CalculationStore persists calculator history.
type CalculationStore interface {
	Create(ctx context.Context, c *models.Calculation) error
	List(ctx context.Context, module string, limit int) ([]models.Calculation, error)
}

// HistoryRecorder writes calculation history on a best-effort basis.
type HistoryRecorder struct {
	store  CalculationStore
	logger *zap.Logger
}

// NewHistoryRecorder builds recorder.
func NewHistoryRecorder(store CalculationStore, logger *zap.Logger) *HistoryRecorder {
	return &HistoryRecorder{store: store, logger: logger}
}

// Record stores input and result as JSON text. Failures are logged and
// counted, never returned: history must not fail a calculation.
func (h *HistoryRecorder) Record(ctx context.Context, module string, input, result interface{}, warnings []string) {
	in, err := jsonsafe.Marshal(input)
	if err != nil {
		h.fail(module, err)
		return
	}
	out, err := jsonsafe.Marshal(result)
	if err != nil {
		h.fail(module, err)
		return
	}

	c := &models.Calculation{
		Module:    module,
		InputData: string(in),
		Result:    string(out),
		Warnings:  strings.Join(warnings, "; "),
	}
	if err := h.store.Create(ctx, c); err != nil {
		h.fail(module, err)
		return
	}
	metrics.RecordCalculation(module)
}

// List returns recorded calculations, newest first.
func (h *HistoryRecorder) List(ctx context.Context, module string, limit int) ([]models.Calculation, error) {
	return h.store.List(ctx, module, limit)
}

func (h *HistoryRecorder) fail(module string, err error) {
	metrics.RecordHistoryFailure("calculations")
	h.logger.Warn("failed to record calculation", zap.String("module", module), zap.Error(err))
}
