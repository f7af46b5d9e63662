package dataprocessing

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// dateLayouts are tried in order. Exports and spreadsheets disagree on date
// formatting, so both ISO and US month-first forms are accepted.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"Mon, Jan 2, 2006",
	"Mon 1/2/2006",
}

// ParseDate parses s as a calendar date using the accepted layouts. Any time of
// day is discarded.
func ParseDate(s string) (civil.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return civil.Date{}, ErrMissingValue
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return civil.DateOf(t), nil
		}
	}
	return civil.Date{}, ErrInvalidDate
}
