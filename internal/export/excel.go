package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// HeatmapWorkbook writes the same grid as Heatmap into an xlsx
// workbook, one row per sheet ID with a header row of module names.
func HeatmapWorkbook(w io.Writer, sheetIDs, modules []string, grid [][]int) error {
	if len(grid) != len(sheetIDs) {
		return fmt.Errorf("grid has %d rows for %d sheets", len(grid), len(sheetIDs))
	}

	f := excelize.NewFile()
	defer f.Close()
	const sheet = "Sheet1"

	for j, module := range modules {
		cell, err := excelize.CoordinatesToCellName(j+2, 1)
		if err != nil {
			return fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, module); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}

	for i, sheetID := range sheetIDs {
		label, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to build row label cell: %w", err)
		}
		if err := f.SetCellValue(sheet, label, "Sheet "+sheetID); err != nil {
			return fmt.Errorf("failed to write row label: %w", err)
		}
		for j, v := range grid[i] {
			cell, err := excelize.CoordinatesToCellName(j+2, i+2)
			if err != nil {
				return fmt.Errorf("failed to build cell name: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
