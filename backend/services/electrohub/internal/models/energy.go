package models

import "time"

// EnergyRecord summarizes one analyzed upload. Efficiency stores the load factor.
type EnergyRecord struct {
	ID          int64     `db:"id" json:"id"`
	Filename    string    `db:"filename" json:"filename"`
	TotalEnergy float64   `db:"total_energy" json:"total_energy"`
	PeakLoad    float64   `db:"peak_load" json:"peak_load"`
	Efficiency  float64   `db:"efficiency" json:"efficiency"`
	Cost        float64   `db:"cost" json:"cost"`
	CreatedAt   time.Time `db:"created_at" json:"timestamp"`
}
