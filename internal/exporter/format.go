package exporter

import (
	"strconv"
	"strings"

	"baselinebuilder/pkg/contracts/domain"
)

// Columns is the header of every exported baseline table.
var Columns = []string{"Season", "Start_Date", "End_Date", "Daily_Rate", "Weekly_Rate"}

// formatRate renders a rounded rate with the shortest exact representation,
// always keeping one decimal: 150 -> "150.0", 165.5 -> "165.5".
func formatRate(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// Records converts the baseline rows into CSV records in Columns order.
// Nights is not exported.
func Records(rows []domain.SeasonAggregate) [][]string {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{
			r.Season,
			r.StartDate,
			r.EndDate,
			formatRate(r.DailyRate),
			formatRate(r.WeeklyRate),
		})
	}
	return out
}
