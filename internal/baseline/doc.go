// Package baseline computes the seasonal rate baseline for a rental unit.
//
// The pipeline is pure and is rerun from scratch for every interaction:
//
//  1. ApplyDiscount scales every nightly rate by 1 + discount/100.
//  2. AssignSeason maps each date to the first season (in table order) whose
//     inclusive interval contains it, or to domain.OtherSeason.
//  3. Aggregate groups rates by season, computes the mean daily rate and night
//     count, derives the weekly rate, drops "Other", orders groups by season
//     position and merges the season start/end dates.
//  4. Summarize picks the cheapest season of the final table.
//
// Rounding to 2 decimals happens once, on the final values: the weekly rate is
// round(mean*7, 2), never round(round(mean, 2)*7, 2).
//
// Usage:
//
//	b := baseline.Build("UNIT-7", 10, table.ForUnit("UNIT-7"), seasons.Seasons, time.Now())
//	for _, row := range b.Rows {
//	    fmt.Println(row.Season, row.DailyRate, row.WeeklyRate)
//	}
package baseline
