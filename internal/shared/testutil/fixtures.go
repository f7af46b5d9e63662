package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/civil"

	"baselinebuilder/pkg/contracts/domain"
)

// RatesCSV is a two-unit nightly rate export. U1 carries the rates used in the
// Winter/Summer examples; U2 has a blank night on 2024-02-02.
const RatesCSV = `Unit Code,Unit Name,2024-02-01,2024-02-02,2024-07-01,2024-10-15
U1,Harbour View,100,200,300,999
U2,Garden Loft,80,,120,50
`

// SeasonsCSV matches the season table layout of the shared season sheet.
const SeasonsCSV = `Season,Start_Date,End_Date
Winter,2024-01-01,2024-03-31
Summer,2024-06-01,2024-08-31
`

// Date parses a YYYY-MM-DD literal and fails the test on error.
func Date(t testing.TB, s string) civil.Date {
	t.Helper()
	d, err := civil.ParseDate(s)
	if err != nil {
		t.Fatalf("bad date literal %q: %v", s, err)
	}
	return d
}

// WinterSummer returns the two seasons described by SeasonsCSV.
func WinterSummer(t testing.TB) []domain.Season {
	t.Helper()
	return []domain.Season{
		{Name: "Winter", StartDate: Date(t, "2024-01-01"), EndDate: Date(t, "2024-03-31"), Position: 0},
		{Name: "Summer", StartDate: Date(t, "2024-06-01"), EndDate: Date(t, "2024-08-31"), Position: 1},
	}
}

// WriteFile writes content to name inside a fresh temp dir and returns the path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture %s: %v", name, err)
	}
	return path
}
