package dataprocessing

import (
	"errors"
	"fmt"
)

// Parse failures. Every error returned by the parsers wraps one of these in a *ParseError.
var (
	ErrEmptyTable       = errors.New("table has no rows")
	ErrMissingColumn    = errors.New("required column missing")
	ErrInvalidDate      = errors.New("unparseable date")
	ErrInvalidRate      = errors.New("non-numeric rate")
	ErrRaggedRow        = errors.New("row has more cells than the header")
	ErrMissingValue     = errors.New("required value missing")
	ErrDuplicateSeason  = errors.New("duplicate season name")
	ErrUnsupportedInput = errors.New("unsupported file type")
)

// ParseError locates a parse failure. Row is the 1-based line in the source table
// (the header is row 1); zero when the failure is not tied to a row.
type ParseError struct {
	Row    int    `json:"row,omitempty"`
	Column string `json:"column,omitempty"`
	Value  string `json:"value,omitempty"`
	Err    error  `json:"-"`
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Column != "" {
		msg = fmt.Sprintf("%s (column %q", msg, e.Column)
		if e.Value != "" {
			msg = fmt.Sprintf("%s, value %q", msg, e.Value)
		}
		msg += ")"
	} else if e.Value != "" {
		msg = fmt.Sprintf("%s (value %q)", msg, e.Value)
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(row int, column, value string, err error) *ParseError {
	return &ParseError{Row: row, Column: column, Value: value, Err: err}
}
