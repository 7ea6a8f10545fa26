package report

import (
	"fmt"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"

	"github.com/go-pdf/fpdf"
)

const (
	pdfLineHeight = 7.0
	pdfFontSize   = 11.0
)

var pdfColWidths = []float64{24, 55, 55, 22, 34}

// RenderPDF writes the PDF rendition of a monthly report and returns its
// filename relative to the reports directory.
func (g *Generator) RenderPDF(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	name := PDFName(user.ID, rep.Year, rep.Month)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	_, pageHeight := pdf.GetPageSize()
	_, _, _, marginBottom := pdf.GetMargins()
	maxY := pageHeight - marginBottom - 2*pdfLineHeight

	// header block
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Kilometer Report")
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.Cell(0, pdfLineHeight, user.FullName())
	pdf.Ln(pdfLineHeight)
	if user.Company != "" {
		pdf.Cell(0, pdfLineHeight, user.Company)
		pdf.Ln(pdfLineHeight)
	}
	pdf.Cell(0, pdfLineHeight, user.Email)
	pdf.Ln(pdfLineHeight)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 10, core.PeriodLabel(rep.Year, rep.Month))
	pdf.Ln(12)

	if len(trips) == 0 {
		pdf.SetFont("Helvetica", "I", pdfFontSize)
		pdf.Cell(0, pdfLineHeight, "No trips recorded for this period.")
		pdf.Ln(pdfLineHeight)
	} else {
		g.renderTripTable(pdf, trips, maxY)
	}

	// summary block
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", pdfFontSize)
	pdf.Cell(0, pdfLineHeight, fmt.Sprintf("Total trips: %d", rep.TripCount))
	pdf.Ln(pdfLineHeight)
	pdf.Cell(0, pdfLineHeight, fmt.Sprintf("Total distance: %s km", rep.TotalKm.StringFixed(2)))
	pdf.Ln(pdfLineHeight)

	// timestamp footer
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(0, pdfLineHeight, "Generated "+now.UTC().Format("2006-01-02 15:04 UTC"))

	if err := pdf.OutputFileAndClose(g.path(name)); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}

	g.logger.Info("pdf rendered",
		log.FieldOperation, log.OpRender,
		log.FieldUserID, user.ID,
		log.FieldYear, rep.Year,
		log.FieldMonth, rep.Month)
	return name, nil
}

func (g *Generator) renderTripTable(pdf *fpdf.Fpdf, trips []core.Trip, maxY float64) {
	headers := []string{"Date", "From", "To", "Km", "Purpose"}

	writeHeader := func() {
		pdf.SetFont("Helvetica", "B", pdfFontSize)
		for i, h := range headers {
			pdf.CellFormat(pdfColWidths[i], pdfLineHeight, h, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(pdfLineHeight)
		pdf.SetFont("Helvetica", "", pdfFontSize)
	}

	writeHeader()
	for _, t := range trips {
		if pdf.GetY()+pdfLineHeight > maxY {
			pdf.AddPage()
			writeHeader()
		}
		cells := []string{
			t.Date.Format("2006-01-02"),
			truncate(t.StartAddress, 30),
			truncate(t.EndAddress, 30),
			t.DistanceKm.StringFixed(2),
			purposeCell(t.Purpose),
		}
		for i, c := range cells {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(pdfColWidths[i], pdfLineHeight, c, "1", 0, align, false, 0, "")
		}
		pdf.Ln(pdfLineHeight)
	}
}
