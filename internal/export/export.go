// Package export writes the visible task list in portable formats.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fentz26/tasklist/internal/models"
	"github.com/fentz26/tasklist/internal/view"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatPDF  = "pdf"
	FormatICS  = "ics"
)

// Formats lists every supported export format.
var Formats = []string{FormatJSON, FormatCSV, FormatPDF, FormatICS}

// Exporter writes tasks in the requested format.
type Exporter struct {
	now func() time.Time
}

// New creates an Exporter.
func New() *Exporter {
	return &Exporter{now: time.Now}
}

// Export writes tasks (already filtered and ordered) to w.
func (e *Exporter) Export(w io.Writer, format string, tasks []models.Task, stats models.Stats) error {
	today := models.DateOf(e.now())
	m := view.Build(tasks, stats, today)

	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case FormatCSV:
		return writeCSV(w, m)
	case FormatPDF:
		return writePDF(w, m, e.now())
	case FormatICS:
		_, err := io.WriteString(w, BuildCalendarICS(tasks, e.now()))
		return err
	default:
		return fmt.Errorf("unknown format %s", format)
	}
}

func writeCSV(w io.Writer, m view.Model) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "completed", "text", "priority", "category", "due", "overdue"}); err != nil {
		return err
	}
	for _, r := range m.Rows {
		err := cw.Write([]string{
			fmt.Sprint(r.ID),
			fmt.Sprint(r.Checked),
			r.Text,
			string(r.Priority),
			r.CategoryLabel,
			r.DueLabel,
			fmt.Sprint(r.Overdue),
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, m view.Model, now time.Time) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task List")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(40, 6, fmt.Sprintf("%s  -  %d total, %d pending, %d completed",
		now.Format("Jan 2, 2006"), m.Stats.Total, m.Stats.Pending, m.Stats.Completed))
	pdf.Ln(10)

	if m.Empty {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(40, 6, "No tasks")
	}

	for _, r := range m.Rows {
		box := "[ ]"
		if r.Checked {
			box = "[x]"
		}
		style := ""
		if r.Overdue {
			style = "B"
		}
		pdf.SetFont("Arial", style, 10)
		line := fmt.Sprintf("%s %s  (%s | %s | %s)", box, r.Text, view.Capitalize(string(r.Priority)), r.CategoryLabel, r.DueLabel)
		if r.Overdue {
			line += "  OVERDUE"
		}
		pdf.MultiCell(0, 6, tr(line), "0", "L", false)
	}
	return pdf.Output(w)
}
