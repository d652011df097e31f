package models

import "time"

// LabReport references a generated lab report PDF.
type LabReport struct {
	ID         int64     `db:"id" json:"id"`
	Experiment string    `db:"experiment" json:"experiment"`
	Result     string    `db:"result" json:"result"`
	Conclusion string    `db:"conclusion" json:"conclusion"`
	PDFPath    string    `db:"pdf_path" json:"pdf_path"`
	CreatedAt  time.Time `db:"created_at" json:"timestamp"`
}
