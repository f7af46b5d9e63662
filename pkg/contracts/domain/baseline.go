package domain

import (
	"time"
)

// SeasonAggregate is one row of the final baseline table.
// Dates are already formatted as YYYY-MM-DD and rates rounded to 2 decimals.
type SeasonAggregate struct {
	Season     string  `json:"season"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	DailyRate  float64 `json:"daily_rate"`
	WeeklyRate float64 `json:"weekly_rate"`
	Nights     int     `json:"nights"`
}

// Summary holds the headline metrics shown with a baseline.
type Summary struct {
	MinimumDailyRate float64 `json:"minimum_daily_rate"`
	MinimumSeason    string  `json:"minimum_season"`
}

// Baseline is the computed seasonal rate table for one unit and discount.
type Baseline struct {
	UnitCode        string            `json:"unit_code"`
	DiscountPercent int               `json:"discount_percent" validate:"min=-100,max=100"`
	Rows            []SeasonAggregate `json:"rows"`
	Summary         *Summary          `json:"summary,omitempty"`
	Filename        string            `json:"filename"`
	GeneratedAt     time.Time         `json:"generated_at"`
}

// ExportFormat selects the download encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Valid reports whether f is a supported export format.
func (f ExportFormat) Valid() bool {
	return f == ExportFormatCSV || f == ExportFormatXLSX
}

// Extension returns the filename extension for f, including the dot.
func (f ExportFormat) Extension() string {
	if f == ExportFormatXLSX {
		return ".xlsx"
	}
	return ".csv"
}

// ContentType returns the MIME type for f.
func (f ExportFormat) ContentType() string {
	if f == ExportFormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
