package catalog

import (
	"sort"
	"time"

	"evcal/internal/calmath"
	"evcal/internal/model"
)

// MonthRef names one calendar month.
type MonthRef struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// MonthGrid is a month calendar page: occurrences bucketed by day of month
// plus navigation to the neighbouring months and years.
type MonthGrid struct {
	MonthRef
	DaysInMonth int `json:"days_in_month"`
	// FirstWeekday is the weekday of day 1, for laying out the grid.
	FirstWeekday time.Weekday `json:"first_weekday"`

	// Days maps day of month (1-based) to the occurrences starting on it,
	// ordered by start time.
	Days map[int][]model.Occurrence `json:"days"`

	Prev     MonthRef `json:"prev"`
	Next     MonthRef `json:"next"`
	PrevYear MonthRef `json:"prev_year"`
	NextYear MonthRef `json:"next_year"`
}

// Month builds the grid for year/month from occurrences. Occurrences that
// start outside the month are ignored.
func Month(year int, month time.Month, occurrences []model.Occurrence) MonthGrid {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	ref := func(t time.Time) MonthRef { return MonthRef{Year: t.Year(), Month: t.Month()} }

	grid := MonthGrid{
		MonthRef:     ref(first),
		DaysInMonth:  calmath.DaysInMonth(first.Year(), first.Month()),
		FirstWeekday: first.Weekday(),
		Days:         make(map[int][]model.Occurrence),
		Prev:         ref(first.AddDate(0, -1, 0)),
		Next:         ref(first.AddDate(0, 1, 0)),
		PrevYear:     ref(first.AddDate(-1, 0, 0)),
		NextYear:     ref(first.AddDate(1, 0, 0)),
	}

	for _, occ := range occurrences {
		if occ.Start.Year() != grid.Year || occ.Start.Month() != grid.Month {
			continue
		}
		day := occ.Start.Day()
		grid.Days[day] = append(grid.Days[day], occ)
	}
	for _, occs := range grid.Days {
		SortByStart(occs)
	}
	return grid
}

// SortByStart orders occurrences by start, then token, in place.
func SortByStart(occs []model.Occurrence) {
	sort.SliceStable(occs, func(i, j int) bool {
		if !occs[i].Start.Equal(occs[j].Start) {
			return occs[i].Start.Before(occs[j].Start)
		}
		return occs[i].Token < occs[j].Token
	})
}
