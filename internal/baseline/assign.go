package baseline

import (
	"cloud.google.com/go/civil"

	"baselinebuilder/pkg/contracts/domain"
)

// AssignSeason returns the name of the first season, in table order, whose
// inclusive [StartDate, EndDate] interval contains d. Overlapping intervals are
// resolved by that first match. Dates outside every interval map to domain.OtherSeason.
func AssignSeason(d civil.Date, seasons []domain.Season) string {
	for _, s := range seasons {
		if s.Contains(d) {
			return s.Name
		}
	}
	return domain.OtherSeason
}

// Overlap describes two seasons whose intervals share at least one day.
type Overlap struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// FindOverlaps lists every pair of overlapping seasons in table order. Overlaps are
// not an error: AssignSeason keeps the earlier season for shared days.
func FindOverlaps(seasons []domain.Season) []Overlap {
	var out []Overlap
	for i := 0; i < len(seasons); i++ {
		for j := i + 1; j < len(seasons); j++ {
			if seasons[i].Overlaps(seasons[j]) {
				out = append(out, Overlap{First: seasons[i].Name, Second: seasons[j].Name})
			}
		}
	}
	return out
}

// sequenceIndex maps each season name to its first position in the table.
func sequenceIndex(seasons []domain.Season) map[string]int {
	idx := make(map[string]int, len(seasons))
	for i, s := range seasons {
		if _, ok := idx[s.Name]; !ok {
			idx[s.Name] = i
		}
	}
	return idx
}
