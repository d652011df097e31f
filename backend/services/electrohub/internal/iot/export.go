package iot

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"electrohub/backend/services/electrohub/internal/models"
)

// ExportHeader is the column order of WriteCSV.
var ExportHeader = []string{"id", "sensor", "value", "unit", "alert", "timestamp"}

// WriteCSV writes readings with a header row. Alerts are written as 0 or 1.
func WriteCSV(w io.Writer, readings []models.IoTReading) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return err
	}
	for _, r := range readings {
		alert := "0"
		if r.Alert {
			alert = "1"
		}
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Sensor,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.Unit,
			alert,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
