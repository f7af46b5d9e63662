// Package dataprocessing turns uploaded spreadsheets into the tables the baseline
// pipeline works on.
//
// # Architecture
//
// The package is organized into three parts:
//
// 1. Readers: ReadCSV, ReadXLSX and ReadUpload produce a raw Table (header + rows)
// 2. Rate parser: ParseRateTable reshapes the wide nightly-rates export into long RateRows
// 3. Season parser: ParseSeasonTable reads the season sheet into an ordered SeasonTable
//
// # Usage
//
//	raw, err := dataprocessing.ReadUpload(header.Filename, file)
//	if err != nil {
//	    return err
//	}
//	rates, err := dataprocessing.ParseRateTable(raw, dataprocessing.DefaultOptions())
//
// # Data Flow
//
//	CSV/XLSX → Table → ParseRateTable → RateTable (unit, date, rate)
//	Sheet values → Table → ParseSeasonTable → SeasonTable
//
// # Error Handling
//
// Parsing fails fast. Errors are *ParseError values carrying the 1-based row, the
// column header and the offending value, and wrap a sentinel such as ErrInvalidDate
// or ErrInvalidRate for errors.Is checks. No partial tables are returned.
package dataprocessing
