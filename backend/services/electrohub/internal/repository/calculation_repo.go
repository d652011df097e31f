package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"electrohub/backend/services/electrohub/internal/models"
)

// CalculationRepository stores calculator history.
type CalculationRepository struct {
	db *sqlx.DB
}

// NewCalculationRepository returns repository.
func NewCalculationRepository(db *sqlx.DB) *CalculationRepository {
	return &CalculationRepository{db: db}
}

// Create inserts a calculation and fills its ID.
func (r *CalculationRepository) Create(ctx context.Context, c *models.Calculation) error {
	const query = `
		INSERT INTO calculations (module, input_data, result, warnings, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	stamp(&c.CreatedAt)
	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		c.Module,
		c.InputData,
		c.Result,
		c.Warnings,
		c.CreatedAt,
	).Scan(&c.ID)
}

// List returns the newest calculations, optionally for one module.
func (r *CalculationRepository) List(ctx context.Context, module string, limit int) ([]models.Calculation, error) {
	limit = clampLimit(limit, DefaultCalculationLimit)

	query := `SELECT id, module, input_data, result, warnings, created_at FROM calculations`
	args := []interface{}{}
	if module != "" {
		query += ` WHERE module = ?`
		args = append(args, module)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	out := []models.Calculation{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}
