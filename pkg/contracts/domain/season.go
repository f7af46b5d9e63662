package domain

import (
	"cloud.google.com/go/civil"
)

// OtherSeason is the season name given to dates outside every season interval.
const OtherSeason = "Other"

// Season is a named, inclusive calendar interval. Position is the row index in the
// season table and defines output ordering.
type Season struct {
	Name      string     `json:"season" validate:"required"`
	StartDate civil.Date `json:"start_date"`
	EndDate   civil.Date `json:"end_date"`
	Position  int        `json:"position" validate:"min=0"`
}

// Contains reports whether d falls inside [StartDate, EndDate].
func (s Season) Contains(d civil.Date) bool {
	return !d.Before(s.StartDate) && !d.After(s.EndDate)
}

// Inverted reports whether EndDate is before StartDate. Such a season
// contains no day.
func (s Season) Inverted() bool {
	return s.EndDate.Before(s.StartDate)
}

// Overlaps reports whether the two intervals share at least one day.
func (s Season) Overlaps(o Season) bool {
	if s.Inverted() || o.Inverted() {
		return false
	}
	return !s.EndDate.Before(o.StartDate) && !o.EndDate.Before(s.StartDate)
}

// SeasonTable is an ordered season list as read from the season source.
type SeasonTable struct {
	SourceID string   `json:"source_id"`
	Seasons  []Season `json:"seasons" validate:"dive"`
}

// Names returns season names in table order.
func (t SeasonTable) Names() []string {
	names := make([]string, len(t.Seasons))
	for i, s := range t.Seasons {
		names[i] = s.Name
	}
	return names
}
