package models

import "time"

// IoTReading is a stored sensor sample.
type IoTReading struct {
	ID        int64     `db:"id" json:"id"`
	Sensor    string    `db:"sensor" json:"sensor"`
	Value     float64   `db:"value" json:"value"`
	Unit      string    `db:"unit" json:"unit"`
	Alert     bool      `db:"alert" json:"alert"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}
