package pdf

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"projecthub/internal/service"

	"github.com/go-pdf/fpdf"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>?`)

// NotesRenderer produces the meeting notes PDF that gets mailed to project
// members: header block, attendee list, free-form notes, and a task table.
type NotesRenderer struct{}

func NewNotesRenderer() *NotesRenderer {
	return &NotesRenderer{}
}

func (r *NotesRenderer) Render(doc service.NotesDocument) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Meeting Notes", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 6, fmt.Sprintf("Project: %s", doc.ProjectName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Meeting: %s", doc.Meeting.Title), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Date: %s", doc.Meeting.Date.Format("1/2/2006")), "", 1, "L", false, 0, "")
	location := doc.Meeting.Location
	if location == "" {
		location = "Not specified"
	}
	pdf.CellFormat(0, 6, fmt.Sprintf("Location: %s", location), "", 1, "L", false, 0, "")

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "BU", 14)
	pdf.CellFormat(0, 8, "Attendees:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	for _, attendee := range doc.Attendees {
		pdf.CellFormat(0, 6, fmt.Sprintf("- %s", attendee.Name), "", 1, "L", false, 0, "")
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "BU", 14)
	pdf.CellFormat(0, 8, "Notes:", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	notes := stripHTML(doc.Meeting.Notes)
	if notes == "" {
		notes = "No notes provided"
	}
	pdf.MultiCell(0, 6, notes, "", "L", false)

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "BU", 14)
	pdf.CellFormat(0, 8, "Tasks:", "", 1, "L", false, 0, "")
	r.renderTaskTable(pdf, doc.Tasks)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render meeting notes pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *NotesRenderer) renderTaskTable(pdf *fpdf.Fpdf, tasks []service.TaskView) {
	widths := []float64{70, 40, 32, 32}
	headers := []string{"Task Description", "Responsible", "Due Date", "Status"}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		for i, header := range headers {
			pdf.CellFormat(widths[i], 7, header, "TB", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
	}
	writeHeader()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottomMargin := pdf.GetMargins()

	for _, task := range tasks {
		if pdf.GetY() > pageHeight-bottomMargin-30 {
			pdf.AddPage()
			writeHeader()
		}

		dueDate := "No due date"
		if task.DueDate != nil {
			dueDate = task.DueDate.Format("1/2/2006")
		}

		pdf.CellFormat(widths[0], 7, truncate(pdf, task.Description, widths[0]), "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, truncate(pdf, task.ResponsibleName, widths[1]), "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, dueDate, "B", 0, "L", false, 0, "")
		pdf.CellFormat(widths[3], 7, titleCase(string(task.Status)), "B", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}
}

func stripHTML(s string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(s, ""))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func truncate(pdf *fpdf.Fpdf, s string, width float64) string {
	for pdf.GetStringWidth(s) > width-2 && len(s) > 3 {
		s = s[:len(s)-4] + "..."
	}
	return s
}
