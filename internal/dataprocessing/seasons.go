package dataprocessing

import (
	"cloud.google.com/go/civil"

	"baselinebuilder/pkg/contracts/domain"
)

// Column names of the season sheet.
const (
	ColumnSeason    = "Season"
	ColumnStartDate = "Start_Date"
	ColumnEndDate   = "End_Date"
)

// ParseSeasonTable converts the season sheet into an ordered SeasonTable. Extra
// columns are ignored and rows without a season name are skipped. Position is the
// index among kept rows, so sheet order defines season order. A season that ends
// before it starts is kept; it matches no date.
func ParseSeasonTable(t *Table, sourceID string) (*domain.SeasonTable, error) {
	cols := make(map[string]int, 3)
	for _, name := range []string{ColumnSeason, ColumnStartDate, ColumnEndDate} {
		i := t.ColumnIndex(name)
		if i < 0 {
			return nil, parseErr(1, name, "", ErrMissingColumn)
		}
		cols[name] = i
	}

	out := &domain.SeasonTable{SourceID: sourceID}
	seen := make(map[string]bool)
	for i, r := range t.Rows {
		line := i + 2
		name := t.Cell(r, cols[ColumnSeason])
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, parseErr(line, ColumnSeason, name, ErrDuplicateSeason)
		}
		seen[name] = true

		start, err := seasonDate(t, r, cols[ColumnStartDate], line, ColumnStartDate)
		if err != nil {
			return nil, err
		}
		end, err := seasonDate(t, r, cols[ColumnEndDate], line, ColumnEndDate)
		if err != nil {
			return nil, err
		}

		out.Seasons = append(out.Seasons, domain.Season{
			Name:      name,
			StartDate: start,
			EndDate:   end,
			Position:  len(out.Seasons),
		})
	}
	return out, nil
}

func seasonDate(t *Table, r []string, col, line int, column string) (civil.Date, error) {
	raw := t.Cell(r, col)
	d, err := ParseDate(raw)
	if err != nil {
		return civil.Date{}, parseErr(line, column, raw, err)
	}
	return d, nil
}
