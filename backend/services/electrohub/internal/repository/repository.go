// Package repository persists history rows with sqlx. Queries are written
// with ? placeholders and rebound for the connected driver.
package repository

import "time"

// Default list sizes per table.
const (
	DefaultCalculationLimit = 50
	DefaultReadingLimit     = 100
	DefaultEnergyLimit      = 20
	DefaultLabReportLimit   = 50

	maxLimit = 1000
)

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}

func stamp(t *time.Time) {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
}
