package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"baselinebuilder/pkg/contracts/domain"
)

// SheetName is the worksheet holding the baseline in XLSX exports.
const SheetName = "Baseline"

// WriteXLSX writes rows as a single-sheet workbook. Rates are stored as
// numbers so spreadsheet formulas work on them.
func WriteXLSX(w io.Writer, rows []domain.SeasonAggregate) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		record := []interface{}{r.Season, r.StartDate, r.EndDate, r.DailyRate, r.WeeklyRate}
		if err := f.SetSheetRow(SheetName, cell, &record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "E1", bold); err != nil {
		return fmt.Errorf("failed to style headers: %w", err)
	}
	if err := f.SetColWidth(SheetName, "A", "E", 14); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
