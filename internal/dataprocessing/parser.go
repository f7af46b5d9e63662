package dataprocessing

import (
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"

	"baselinebuilder/pkg/contracts/domain"
)

// Column names of the nightly-rates export.
const (
	ColumnUnitCode = "Unit Code"
	ColumnUnitName = "Unit Name"
)

// groupedNumber matches a number with well-formed thousands separators, e.g. 1,250.50.
var groupedNumber = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

type dateColumn struct {
	index int
	date  civil.Date
}

// ParseRateTable reshapes a wide nightly-rates export (one row per unit, one column
// per date) into long RateRows ordered by unit code, then by column order.
//
// Descriptive columns listed in opts.DropColumns are ignored; every other column
// besides the unit column must have a date header. Blank rate cells are missing
// nights and produce no row.
func ParseRateTable(t *Table, opts ParseOptions) (*domain.RateTable, error) {
	if len(t.Rows) == 0 {
		return nil, parseErr(0, "", "", ErrEmptyTable)
	}

	unitCol := t.ColumnIndex(opts.UnitColumn)
	if unitCol < 0 {
		return nil, parseErr(1, opts.UnitColumn, "", ErrMissingColumn)
	}

	drop := make(map[string]bool, len(opts.DropColumns))
	for _, c := range opts.DropColumns {
		drop[c] = true
	}

	var columns []dateColumn
	for i, h := range t.Header {
		if i == unitCol || drop[h] {
			continue
		}
		if h == "" && columnBlank(t, i) {
			continue
		}
		d, err := ParseDate(h)
		if err != nil {
			return nil, parseErr(1, h, h, ErrInvalidDate)
		}
		columns = append(columns, dateColumn{index: i, date: d})
	}

	type unitRow struct {
		line  int
		cells []string
	}
	rows := make([]unitRow, 0, len(t.Rows))
	for i, r := range t.Rows {
		if blankTail(r) {
			continue
		}
		rows = append(rows, unitRow{line: i + 2, cells: r})
	}
	codes := make([]string, len(rows))
	for i, r := range rows {
		codes[i] = t.Cell(r.cells, unitCol)
	}
	less := unitOrder(codes)
	sort.SliceStable(rows, func(i, j int) bool {
		return less(t.Cell(rows[i].cells, unitCol), t.Cell(rows[j].cells, unitCol))
	})

	out := &domain.RateTable{}
	seen := make(map[string]bool)
	for _, r := range rows {
		unit := t.Cell(r.cells, unitCol)
		if unit == "" {
			return nil, parseErr(r.line, opts.UnitColumn, "", ErrMissingValue)
		}
		if !seen[unit] {
			seen[unit] = true
			out.Units = append(out.Units, unit)
		}
		for _, c := range columns {
			raw := t.Cell(r.cells, c.index)
			rate, ok, err := parseRate(raw)
			if err != nil {
				return nil, parseErr(r.line, t.Header[c.index], raw, err)
			}
			if !ok {
				continue
			}
			out.Rows = append(out.Rows, domain.RateRow{UnitCode: unit, Date: c.date, DailyRate: rate})
		}
	}

	if opts.Logger != nil {
		opts.Logger.Debug("rate table parsed",
			slog.Int("units", len(out.Units)),
			slog.Int("date_columns", len(columns)),
			slog.Int("rows", len(out.Rows)))
	}
	return out, nil
}

// unitOrder returns the comparison used to sort unit codes: numeric when every
// code is an integer, lexical otherwise.
func unitOrder(codes []string) func(a, b string) bool {
	for _, c := range codes {
		if _, err := strconv.ParseInt(c, 10, 64); err != nil {
			return func(a, b string) bool { return a < b }
		}
	}
	return func(a, b string) bool {
		x, _ := strconv.ParseInt(a, 10, 64)
		y, _ := strconv.ParseInt(b, 10, 64)
		return x < y
	}
}

// parseRate returns ok=false for a blank (missing) cell. A leading $ and
// well-formed thousands separators are accepted; anything else must be a
// plain number.
func parseRate(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return 0, false, nil
	}
	if groupedNumber.MatchString(s) {
		s = strings.ReplaceAll(s, ",", "")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false, ErrInvalidRate
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	return v, true, nil
}

func columnBlank(t *Table, i int) bool {
	for _, r := range t.Rows {
		if t.Cell(r, i) != "" {
			return false
		}
	}
	return true
}
