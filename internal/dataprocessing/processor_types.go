package dataprocessing

import (
	"log/slog"
)

// ParseOptions configures rate table parsing
type ParseOptions struct {
	// UnitColumn is the header of the unit identifier column
	UnitColumn string

	// DropColumns are descriptive columns that carry no rates
	DropColumns []string

	// Logger receives debug output; nil disables it
	Logger *slog.Logger
}

// DefaultOptions returns the options matching the Escapia nightly-rates export
func DefaultOptions() ParseOptions {
	return ParseOptions{
		UnitColumn:  ColumnUnitCode,
		DropColumns: []string{ColumnUnitName},
	}
}
