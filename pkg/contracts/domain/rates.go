package domain

import (
	"cloud.google.com/go/civil"
)

// RateRow is one nightly rate for one unit on one date.
type RateRow struct {
	UnitCode  string     `json:"unit_code" validate:"required"`
	Date      civil.Date `json:"date"`
	DailyRate float64    `json:"daily_rate"`
}

// RateTable is the long form of a nightly-rates export, ordered by unit code.
type RateTable struct {
	Rows  []RateRow `json:"rows"`
	Units []string  `json:"units"`
}

// ForUnit returns the rows belonging to unitCode, preserving order.
func (t *RateTable) ForUnit(unitCode string) []RateRow {
	var out []RateRow
	for _, r := range t.Rows {
		if r.UnitCode == unitCode {
			out = append(out, r)
		}
	}
	return out
}

// HasUnit reports whether the table contains unitCode.
func (t *RateTable) HasUnit(unitCode string) bool {
	for _, u := range t.Units {
		if u == unitCode {
			return true
		}
	}
	return false
}
