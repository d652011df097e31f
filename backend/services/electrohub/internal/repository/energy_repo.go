package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"electrohub/backend/services/electrohub/internal/models"
)

// EnergyRepository stores energy analysis summaries.
type EnergyRepository struct {
	db *sqlx.DB
}

// NewEnergyRepository returns repository.
func NewEnergyRepository(db *sqlx.DB) *EnergyRepository {
	return &EnergyRepository{db: db}
}

// Create inserts a summary and fills its ID.
func (r *EnergyRepository) Create(ctx context.Context, e *models.EnergyRecord) error {
	const query = `
		INSERT INTO energy_data (filename, total_energy, peak_load, efficiency, cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`
	stamp(&e.CreatedAt)
	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		e.Filename,
		e.TotalEnergy,
		e.PeakLoad,
		e.Efficiency,
		e.Cost,
		e.CreatedAt,
	).Scan(&e.ID)
}

// List returns the newest summaries.
func (r *EnergyRepository) List(ctx context.Context, limit int) ([]models.EnergyRecord, error) {
	const query = `
		SELECT id, filename, total_energy, peak_load, efficiency, cost, created_at
		FROM energy_data
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`
	out := []models.EnergyRecord{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), clampLimit(limit, DefaultEnergyLimit)); err != nil {
		return nil, err
	}
	return out, nil
}
