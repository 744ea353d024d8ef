package excel

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/chronomed/chronology-service/internal/core/domain"
)

const sheetName = "Chronology"

var headerRow = []any{
	"Date", "Time", "Category", "Detail", "Page", "Quote", "Day Summary", "Source Document", "Tags",
}

// Exporter renders a flattened timeline into an xlsx workbook, one row
// per fact. It consumes the timeline read-only.
type Exporter struct{}

func New() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Export(_ context.Context, title string, entries []domain.TimelineEntry) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A2", &headerRow); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetRowStyle(sheetName, 2, 2, headerStyle); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	row := 3
	for _, entry := range entries {
		for _, fact := range entry.Facts {
			var page any
			if fact.PageNumber > 0 {
				page = fact.PageNumber
			}
			cells := []any{
				entry.Date,
				fact.TimeOfDay,
				string(fact.Category),
				fact.Detail,
				page,
				fact.Quote,
				entry.Summary,
				entry.SourceDocumentName,
				strings.Join(entry.Tags, ", "),
			}
			cell, err := excelize.CoordinatesToCellName(1, row)
			if err != nil {
				return nil, fmt.Errorf("cell name: %w", err)
			}
			if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
