package report

import (
	"fmt"
	"time"

	"kilometri/internal/core"
	"kilometri/internal/log"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Trips"

// RenderExcel writes the Excel rendition of a monthly report and returns
// its filename relative to the reports directory. Unlike the PDF, cells
// carry full untruncated values so the workbook is usable for further
// processing.
func (g *Generator) RenderExcel(user core.User, rep core.MonthlyReport, trips []core.Trip, now time.Time) (string, error) {
	name := ExcelName(user.ID, rep.Year, rep.Month)

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("drop default sheet: %w", err)
	}

	f.SetCellValue(sheetName, "A1", "Kilometer Report")
	f.SetCellValue(sheetName, "A2", user.FullName())
	f.SetCellValue(sheetName, "A3", user.Company)
	f.SetCellValue(sheetName, "A4", user.Email)
	f.SetCellValue(sheetName, "A5", core.PeriodLabel(rep.Year, rep.Month))

	headerRow := 7
	headers := []string{"Date", "From", "To", "Distance (km)", "Purpose", "Entry"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, headerRow)
		if err != nil {
			return "", fmt.Errorf("header cell: %w", err)
		}
		f.SetCellValue(sheetName, cell, h)
	}

	row := headerRow + 1
	if len(trips) == 0 {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "No trips recorded for this period.")
		row++
	}
	for _, t := range trips {
		entry := "automatic"
		if t.IsManual {
			entry = "manual"
		}
		km, _ := t.DistanceKm.Round(2).Float64()
		values := []any{
			t.Date.Format("2006-01-02"),
			t.StartAddress,
			t.EndAddress,
			km,
			t.Purpose,
			entry,
		}
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return "", fmt.Errorf("data cell: %w", err)
			}
			f.SetCellValue(sheetName, cell, v)
		}
		row++
	}

	row++
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Total trips")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), rep.TripCount)
	row++
	totalKm, _ := rep.TotalKm.Float64()
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Total km")
	f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), totalKm)
	row += 2
	f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), "Generated "+now.UTC().Format("2006-01-02 15:04 UTC"))

	if err := f.SaveAs(g.path(name)); err != nil {
		return "", fmt.Errorf("write excel: %w", err)
	}

	g.logger.Info("excel rendered",
		log.FieldOperation, log.OpRender,
		log.FieldUserID, user.ID,
		log.FieldYear, rep.Year,
		log.FieldMonth, rep.Month)
	return name, nil
}
