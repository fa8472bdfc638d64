// Package export writes forecasts as spreadsheet files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"Crypton/internal/model"
)

const (
	sheetName  = "Price Predictions"
	dateFormat = "mm/dd/yyyy hh:mm"
)

// XLSXExporter writes one workbook per forecast into Dir.
type XLSXExporter struct {
	Dir string
	Now func() time.Time
}

// NewXLSXExporter creates the report directory if needed.
func NewXLSXExporter(dir string) (*XLSXExporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &XLSXExporter{Dir: dir, Now: time.Now}, nil
}

// FileName builds "{strategy}-{horizon}-{symbol}-{MMDDYYYY-HHMMSS}.xlsx".
func FileName(f *model.Forecast, at time.Time) string {
	name := fmt.Sprintf("%s-%s-%s-%s.xlsx",
		f.Strategy, f.Horizon.Name, f.Symbol, at.Format("01022006-150405"))
	return strings.ReplaceAll(name, " ", "-")
}

// Export writes the forecast and returns the file path.
func (e *XLSXExporter) Export(f *model.Forecast) (string, error) {
	wb := excelize.NewFile()
	defer wb.Close()

	if err := wb.SetSheetName(wb.GetSheetName(0), sheetName); err != nil {
		return "", fmt.Errorf("name sheet: %w", err)
	}
	numFmt := dateFormat
	dateStyle, err := wb.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return "", fmt.Errorf("create date style: %w", err)
	}

	if err := wb.SetSheetRow(sheetName, "A1", &[]any{"Date", "Price"}); err != nil {
		return "", fmt.Errorf("write report header: %w", err)
	}
	for i, entry := range f.Entries {
		dateCell, _ := excelize.CoordinatesToCellName(1, i+2)
		priceCell, _ := excelize.CoordinatesToCellName(2, i+2)
		if err := wb.SetCellValue(sheetName, dateCell, wallClock(entry.When)); err != nil {
			return "", fmt.Errorf("write report row %d: %w", i+1, err)
		}
		if err := wb.SetCellStyle(sheetName, dateCell, dateCell, dateStyle); err != nil {
			return "", fmt.Errorf("style report row %d: %w", i+1, err)
		}
		if err := wb.SetCellValue(sheetName, priceCell, roundPrice(entry.Price)); err != nil {
			return "", fmt.Errorf("write report row %d: %w", i+1, err)
		}
	}
	if err := wb.SetColWidth(sheetName, "A", "B", 18); err != nil {
		return "", err
	}

	path := filepath.Join(e.Dir, FileName(f, e.Now()))
	if err := wb.SaveAs(path); err != nil {
		return "", fmt.Errorf("save report: %w", err)
	}
	return path, nil
}

// wallClock keeps the local date and time as shown to the user; workbook
// cells carry no zone.
func wallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
