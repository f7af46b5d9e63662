package baseline

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"baselinebuilder/pkg/contracts/domain"
)

const (
	dateLayout   = "2006-01-02"
	nightsInWeek = 7
	ratePlaces   = 2
)

type seasonGroup struct {
	name  string
	sum   float64
	count int
}

func (g *seasonGroup) mean() float64 {
	return g.sum / float64(g.count)
}

// Aggregate groups already-discounted rows by season and returns the final table in
// season-table order. Seasons with no rows and the "Other" bucket are left out.
func Aggregate(rows []domain.RateRow, seasons []domain.Season) []domain.SeasonAggregate {
	groups := make(map[string]*seasonGroup)
	for _, r := range rows {
		name := AssignSeason(r.Date, seasons)
		g, ok := groups[name]
		if !ok {
			g = &seasonGroup{name: name}
			groups[name] = g
		}
		g.sum += r.DailyRate
		g.count++
	}
	delete(groups, domain.OtherSeason)

	order := sequenceIndex(seasons)
	meta := make(map[string]domain.Season, len(seasons))
	for _, s := range seasons {
		if _, ok := meta[s.Name]; !ok {
			meta[s.Name] = s
		}
	}

	// Inner join on season name: groups without metadata are dropped.
	ordered := make([]*seasonGroup, 0, len(groups))
	for name, g := range groups {
		if _, ok := meta[name]; ok {
			ordered = append(ordered, g)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return order[ordered[i].name] < order[ordered[j].name]
	})

	out := make([]domain.SeasonAggregate, 0, len(ordered))
	for _, g := range ordered {
		s := meta[g.name]
		mean := g.mean()
		out = append(out, domain.SeasonAggregate{
			Season:     g.name,
			StartDate:  s.StartDate.String(),
			EndDate:    s.EndDate.String(),
			DailyRate:  Round(mean),
			WeeklyRate: Round(mean * nightsInWeek),
			Nights:     g.count,
		})
	}
	return out
}

// Round rounds v to 2 decimal places the way numpy does: scale by 100 in
// float64, round half to even, scale back.
func Round(v float64) float64 {
	scale := math.Pow10(ratePlaces)
	return decimal.NewFromFloat(v * scale).RoundBank(0).Div(decimal.NewFromFloat(scale)).InexactFloat64()
}

// Summarize returns the minimum daily rate of rows and the season holding it.
// Ties keep the earliest row. ok is false when rows is empty.
func Summarize(rows []domain.SeasonAggregate) (summary domain.Summary, ok bool) {
	if len(rows) == 0 {
		return domain.Summary{}, false
	}
	best := rows[0]
	for _, r := range rows[1:] {
		if r.DailyRate < best.DailyRate {
			best = r
		}
	}
	return domain.Summary{
		MinimumDailyRate: Round(best.DailyRate),
		MinimumSeason:    best.Season,
	}, true
}

// Build runs the whole pipeline for one unit: discount, season assignment,
// aggregation, summary and download filename.
func Build(unitCode string, discountPercent int, rows []domain.RateRow, seasons []domain.Season, now time.Time) *domain.Baseline {
	table := Aggregate(ApplyDiscount(rows, discountPercent), seasons)
	b := &domain.Baseline{
		UnitCode:        unitCode,
		DiscountPercent: discountPercent,
		Rows:            table,
		Filename:        Filename(unitCode, discountPercent, now, domain.ExportFormatCSV),
		GeneratedAt:     now,
	}
	if s, ok := Summarize(table); ok {
		b.Summary = &s
	}
	return b
}
