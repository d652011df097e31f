// Package report renders solar design and lab reports as PDF files in a
// single reports directory.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"

	"electrohub/backend/services/electrohub/internal/lab"
	"electrohub/backend/services/electrohub/internal/validate"
)

// ErrNotFound is returned for report names that do not resolve to a file.
var ErrNotFound = errors.New("file not found")

const (
	pageWidth  = 140.0
	rowHeight  = 8.0
	pdfExt     = ".pdf"
	notAvail   = "N/A"
	timeLayout = "20060102_150405"
)

// Generator writes reports into Dir.
type Generator struct {
	dir string
	now func() time.Time
}

// NewGenerator creates dir when missing.
func NewGenerator(dir string) (*Generator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &Generator{dir: dir, now: time.Now}, nil
}

// Dir returns the reports directory.
func (g *Generator) Dir() string {
	return g.dir
}

// SolarData holds the figures printed on a solar design report. Missing
// values print as N/A.
type SolarData struct {
	DailyEnergyKWh   *float64 `json:"daily_energy_kwh"`
	PeakSunHours     *float64 `json:"peak_sun_hours"`
	SystemEfficiency *float64 `json:"system_efficiency"`
	NumPanels        *float64 `json:"num_panels"`
	ActualCapacityKW *float64 `json:"actual_capacity_kw"`
	Warnings         []string `json:"warnings"`
}

// Solar writes a solar design report and returns its file name.
func (g *Generator) Solar(d SolarData) (string, error) {
	eff := notAvail
	if d.SystemEfficiency != nil {
		eff = num(*d.SystemEfficiency*100) + "%"
	}

	pdf := newDocument("Solar System Design Report")
	heading(pdf, "System Specifications")
	table(pdf, [2]string{"Parameter", "Value"}, [][2]string{
		{"Daily Energy Requirement", optional(d.DailyEnergyKWh) + " kWh"},
		{"Peak Sun Hours", optional(d.PeakSunHours) + " hours"},
		{"System Efficiency", eff},
		{"Number of Panels", optional(d.NumPanels)},
		{"Total Capacity", optional(d.ActualCapacityKW) + " kW"},
	}, [3]int{128, 128, 128})

	if len(d.Warnings) > 0 {
		pdf.Ln(6)
		heading(pdf, "Warnings and Recommendations")
		tr := pdf.UnicodeTranslatorFromDescriptor("")
		pdf.SetFont("Helvetica", "", 11)
		for _, w := range d.Warnings {
			pdf.MultiCell(0, 6, tr("• "+w), "", "L", false)
		}
	}
	return g.write(pdf, "solar_report")
}

// Lab writes a virtual lab report and returns its file name.
func (g *Generator) Lab(s lab.Summary) (string, error) {
	experiment := s.Experiment
	if experiment == "" {
		experiment = "Unknown"
	}
	conclusion := s.Conclusion
	if conclusion == "" {
		conclusion = "No conclusion available."
	}

	pdf := newDocument("Virtual Electronics Lab Report")
	heading(pdf, "Experiment: "+experiment)
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 6, "Date: "+g.now().Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	heading(pdf, "Parameters")
	table(pdf, [2]string{"Parameter", "Value"}, rows(s.Parameters), [3]int{128, 128, 128})
	if len(s.Metrics) > 0 {
		pdf.Ln(4)
		heading(pdf, "Results")
		table(pdf, [2]string{"Metric", "Value"}, rows(s.Metrics), [3]int{0, 0, 139})
	}

	pdf.Ln(4)
	heading(pdf, "Conclusion")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, pdf.UnicodeTranslatorFromDescriptor("")(conclusion), "", "L", false)
	return g.write(pdf, "lab_report")
}

// Path resolves a report file name inside the reports directory.
func (g *Generator) Path(name string) (string, error) {
	if name == "" || filepath.Base(name) != name || !strings.HasSuffix(name, pdfExt) {
		return "", ErrNotFound
	}
	p := filepath.Join(g.dir, name)
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", ErrNotFound
	}
	return p, nil
}

// Cleanup removes reports last modified before now-retention and returns how
// many were removed.
func (g *Generator) Cleanup(retention time.Duration) (int, error) {
	entries, err := os.ReadDir(g.dir)
	if err != nil {
		return 0, fmt.Errorf("read reports dir: %w", err)
	}
	cutoff := g.now().Add(-retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), pdfExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(g.dir, e.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}

func (g *Generator) write(pdf *fpdf.Fpdf, prefix string) (string, error) {
	name := fmt.Sprintf("%s_%s_%s%s", prefix, g.now().Format(timeLayout), uuid.NewString()[:8], pdfExt)
	if err := pdf.OutputFileAndClose(filepath.Join(g.dir, name)); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return name, nil
}

func newDocument(title string) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, title, "", 1, "C", false, 0, "")
	pdf.Ln(6)
	return pdf
}

func heading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, pdf.UnicodeTranslatorFromDescriptor("")(text), "", 1, "L", false, 0, "")
}

// table draws a two column grid with a coloured header row.
func table(pdf *fpdf.Fpdf, header [2]string, body [][2]string, headerFill [3]int) {
	left, _, _, _ := pdf.GetMargins()
	width, _ := pdf.GetPageSize()
	x := left + (width-2*left-pageWidth)/2
	col := pageWidth / 2
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 11)
	pdf.SetFillColor(headerFill[0], headerFill[1], headerFill[2])
	pdf.SetTextColor(245, 245, 245)
	pdf.SetX(x)
	for _, h := range header {
		pdf.CellFormat(col, rowHeight, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetFillColor(245, 245, 220)
	pdf.SetTextColor(0, 0, 0)
	for _, r := range body {
		pdf.SetX(x)
		pdf.CellFormat(col, rowHeight, tr(r[0]), "1", 0, "C", true, 0, "")
		pdf.CellFormat(col, rowHeight, tr(r[1]), "1", 0, "C", true, 0, "")
		pdf.Ln(-1)
	}
}

func rows(in []lab.Row) [][2]string {
	out := make([][2]string, 0, len(in))
	for _, r := range in {
		out = append(out, [2]string{r.Name, r.Value})
	}
	return out
}

func optional(v *float64) string {
	if v == nil {
		return notAvail
	}
	return num(*v)
}

func num(v float64) string {
	return strconv.FormatFloat(validate.RoundN(v, 6), 'f', -1, 64)
}
