package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"electrohub/backend/services/electrohub/internal/models"
)

// LabReportRepository stores generated lab report references.
type LabReportRepository struct {
	db *sqlx.DB
}

// NewLabReportRepository returns repository.
func NewLabReportRepository(db *sqlx.DB) *LabReportRepository {
	return &LabReportRepository{db: db}
}

// Create inserts a report and fills its ID.
func (r *LabReportRepository) Create(ctx context.Context, lr *models.LabReport) error {
	const query = `
		INSERT INTO lab_reports (experiment, result, conclusion, pdf_path, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	stamp(&lr.CreatedAt)
	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		lr.Experiment,
		lr.Result,
		lr.Conclusion,
		lr.PDFPath,
		lr.CreatedAt,
	).Scan(&lr.ID)
}

// List returns the newest reports.
func (r *LabReportRepository) List(ctx context.Context, limit int) ([]models.LabReport, error) {
	const query = `
		SELECT id, experiment, result, conclusion, pdf_path, created_at
		FROM lab_reports
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	out := []models.LabReport{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), clampLimit(limit, DefaultLabReportLimit)); err != nil {
		return nil, err
	}
	return out, nil
}
