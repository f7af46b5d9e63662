package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Table is a raw rectangular sheet: one header row plus data rows, all cells as text.
// Data rows may be shorter than the header; missing trailing cells read as "".
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the index of the header named name (case-sensitive, trimmed),
// or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Cell returns row[i] or "" when the row is short.
func (t *Table) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// NewTable builds a Table from raw records. The first record is the header.
func NewTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, parseErr(0, "", "", ErrEmptyTable)
	}
	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	t := &Table{Header: header}
	for i, rec := range records[1:] {
		if len(rec) > len(header) && !blankTail(rec[len(header):]) {
			return nil, parseErr(i+2, "", "", ErrRaggedRow)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func blankTail(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadCSV reads a comma separated table. A UTF-8 BOM is tolerated.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, &ParseError{Row: pe.Line, Err: fmt.Errorf("malformed csv: %w", pe.Err)}
		}
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return NewTable(records)
}

// ReadXLSX reads the first sheet of a workbook. Header cells holding Excel date
// serials are converted to ISO dates so they parse like CSV headers.
func ReadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: fmt.Errorf("unreadable workbook: %w", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, parseErr(0, "", "", ErrEmptyTable)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(records) > 0 {
		for i, h := range records[0] {
			records[0][i] = serialHeaderToDate(h)
		}
	}
	return NewTable(records)
}

func serialHeaderToDate(h string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(h), 64)
	if err != nil || serial <= 0 {
		return h
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return h
	}
	return t.Format("2006-01-02")
}

// ReadUpload dispatches on the file name extension (.csv or .xlsx).
func ReadUpload(name string, r io.Reader) (*Table, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", "":
		return ReadCSV(r)
	case ".xlsx":
		// excelize needs random access; buffer the upload.
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload: %w", err)
		}
		return ReadXLSX(bytes.NewReader(data))
	default:
		return nil, parseErr(0, "", name, ErrUnsupportedInput)
	}
}

// ReadFile opens path and reads it with ReadUpload.
func ReadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadUpload(filepath.Base(path), f)
}
