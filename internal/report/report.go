// Package report renders monthly trip reports as PDF and Excel files.
package report

import (
	"fmt"
	"path/filepath"

	"kilometri/internal/log"
)

// Generator renders report files into a flat directory. Filenames are
// deterministic per (user, period) so regeneration after a delete
// overwrites the stale file.
type Generator struct {
	dir    string
	logger *log.Logger
}

func NewGenerator(dir string, logger *log.Logger) *Generator {
	return &Generator{
		dir:    dir,
		logger: logger.WithComponent(log.ComponentReport),
	}
}

// Dir returns the directory report files are written to.
func (g *Generator) Dir() string { return g.dir }

// PDFName returns the relative filename for a report's PDF.
func PDFName(userID int64, year, month int) string {
	return fmt.Sprintf("report_%d_%d_%02d.pdf", userID, year, month)
}

// ExcelName returns the relative filename for a report's Excel workbook.
func ExcelName(userID int64, year, month int) string {
	return fmt.Sprintf("report_%d_%d_%02d.xlsx", userID, year, month)
}

func (g *Generator) path(name string) string {
	return filepath.Join(g.dir, name)
}

// truncate shortens s to at most n characters, marking the cut with an
// ellipsis. Report table cells have fixed widths. The limit counts runes,
// not bytes, so accented addresses are never cut mid-character.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

// purposeCell renders a trip purpose for a table cell.
func purposeCell(purpose string) string {
	if purpose == "" {
		return "-"
	}
	return truncate(purpose, 25)
}
