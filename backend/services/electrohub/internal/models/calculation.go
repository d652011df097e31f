package models

import "time"

// Calculation is one recorded calculator run. InputData and Result hold JSON text.
type Calculation struct {
	ID        int64     `db:"id" json:"id"`
	Module    string    `db:"module" json:"module"`
	InputData string    `db:"input_data" json:"input_data"`
	Result    string    `db:"result" json:"result"`
	Warnings  string    `db:"warnings" json:"warnings"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}
