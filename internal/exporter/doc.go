// Package exporter renders a computed baseline as a downloadable file.
//
// Two formats are supported: CSV, optionally prefixed with a UTF-8 BOM for
// Excel, and XLSX with a single "Baseline" sheet. Both carry the columns
// Season, Start_Date, End_Date, Daily_Rate and Weekly_Rate in season order.
//
// Example usage:
//
//	exp := exporter.New(cfg.Export, logger)
//	path, err := exp.WriteFile("out", b, domain.ExportFormatXLSX)
package exporter
