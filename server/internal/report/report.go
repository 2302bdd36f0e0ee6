package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-pdf/fpdf"

	"github.com/resultcard/resultcard/server/internal/store"
)

// Filename is the download name used for rendered cards.
const Filename = "result_card.pdf"

// Footer is printed at the bottom of every page.
const Footer = "computer generated result error and omission if any are accepted"

const (
	marginLeft   = 20.0
	headingWidth = 160.0
	lineHeight   = 10.0
	rowHeight    = 8.0
)

var columns = []struct {
	title string
	width float64
	align string
}{
	{"Subject Name", 90, "L"},
	{"Credit Hours", 40, "C"},
	{"GPA", 40, "C"},
}

// Render writes r as a PDF to w.
func Render(w io.Writer, r store.Result) error {
	return render(w, r, true)
}

func render(w io.Writer, r store.Result, compress bool) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetTitle(fmt.Sprintf("Result card: %s", r.StudentName), true)
	pdf.SetCreator("resultcard", true)
	// Stamp the record's own time so the same result renders identically.
	pdf.SetCreationDate(r.CreatedAt)
	pdf.SetModificationDate(r.CreatedAt)
	pdf.SetCatalogSort(true)
	pdf.SetAutoPageBreak(true, 20)

	// The core fonts are cp1252; map UTF-8 input onto it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(0, lineHeight, Footer, "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY((pageW-headingWidth)/2, 18)
	pdf.MultiCell(headingWidth, lineHeight, tr(r.UniversityName), "", "C", false)

	pdf.SetFont("Helvetica", "", 16)
	pdf.SetY(45)
	for _, line := range []string{
		"Student Name: " + r.StudentName,
		"Department: " + r.DepartmentName,
		"Semester: " + r.Semester,
		fmt.Sprintf("SGPA: %.2f", r.CGPA),
	} {
		pdf.SetX(marginLeft)
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}

	pdf.Ln(lineHeight / 2)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetFillColor(41, 128, 185)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetX(marginLeft)
	for _, c := range columns {
		pdf.CellFormat(c.width, rowHeight, c.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 12)
	pdf.SetTextColor(0, 0, 0)
	for _, s := range r.Subjects {
		pdf.SetX(marginLeft)
		cells := []string{tr(s.Name), formatNumber(s.CreditHours), formatNumber(s.GPA)}
		for i, c := range columns {
			pdf.CellFormat(c.width, rowHeight, cells[i], "1", 0, c.align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("report: render %s: %w", r.ID, err)
	}
	return nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
