package repository

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"electrohub/backend/services/electrohub/internal/models"
)

// ReadingFilter narrows a reading query. Zero values disable a condition.
type ReadingFilter struct {
	Sensor    string
	Since     time.Time
	AlertOnly bool
	Limit     int
}

// ReadingRepository stores IoT sensor readings.
type ReadingRepository struct {
	db *sqlx.DB
}

// NewReadingRepository returns repository.
func NewReadingRepository(db *sqlx.DB) *ReadingRepository {
	return &ReadingRepository{db: db}
}

// Create inserts a reading and fills its ID.
func (r *ReadingRepository) Create(ctx context.Context, rd *models.IoTReading) error {
	const query = `
		INSERT INTO iot_readings (sensor, value, unit, alert, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id
	`
	stamp(&rd.CreatedAt)
	return r.db.QueryRowxContext(ctx, r.db.Rebind(query),
		rd.Sensor,
		rd.Value,
		rd.Unit,
		rd.Alert,
		rd.CreatedAt,
	).Scan(&rd.ID)
}

// List returns the newest readings matching f.
func (r *ReadingRepository) List(ctx context.Context, f ReadingFilter) ([]models.IoTReading, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Sensor != "" {
		where = append(where, "sensor = ?")
		args = append(args, f.Sensor)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	if f.AlertOnly {
		where = append(where, "alert = ?")
		args = append(args, true)
	}

	query := `SELECT id, sensor, value, unit, alert, created_at FROM iot_readings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, clampLimit(f.Limit, DefaultReadingLimit))

	out := []models.IoTReading{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return out, nil
}

// Latest returns the newest reading of a sensor, or nil when it has none.
func (r *ReadingRepository) Latest(ctx context.Context, sensor string) (*models.IoTReading, error) {
	readings, err := r.List(ctx, ReadingFilter{Sensor: sensor, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, nil
	}
	return &readings[0], nil
}
