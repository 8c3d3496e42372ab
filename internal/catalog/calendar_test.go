package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcal/internal/model"
)

func TestMonth(t *testing.T) {
	occs := []model.Occurrence{
		{Token: "bbb", Start: time.Date(2024, 2, 14, 18, 0, 0, 0, time.UTC)},
		{Token: "aaa", Start: time.Date(2024, 2, 14, 9, 0, 0, 0, time.UTC)},
		{Token: "ccc", Start: time.Date(2024, 2, 29, 9, 0, 0, 0, time.UTC)},
		{Token: "ddd", Start: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)},
	}

	grid := Month(2024, time.February, occs)
	assert.Equal(t, 2024, grid.Year)
	assert.Equal(t, time.February, grid.Month)
	assert.Equal(t, 29, grid.DaysInMonth)
	assert.Equal(t, time.Thursday, grid.FirstWeekday)

	require.Len(t, grid.Days, 2)
	require.Len(t, grid.Days[14], 2)
	assert.Equal(t, "aaa", grid.Days[14][0].Token)
	assert.Equal(t, "ccc", grid.Days[29][0].Token)

	assert.Equal(t, MonthRef{Year: 2024, Month: time.January}, grid.Prev)
	assert.Equal(t, MonthRef{Year: 2024, Month: time.March}, grid.Next)
	assert.Equal(t, MonthRef{Year: 2023, Month: time.February}, grid.PrevYear)
	assert.Equal(t, MonthRef{Year: 2025, Month: time.February}, grid.NextYear)
}

func TestMonth_YearBoundary(t *testing.T) {
	grid := Month(2024, time.December, nil)
	assert.Equal(t, MonthRef{Year: 2025, Month: time.January}, grid.Next)
	assert.Empty(t, grid.Days)
}

func TestSortByStart(t *testing.T) {
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	occs := []model.Occurrence{
		{Token: "b", Start: at},
		{Token: "z", Start: at.Add(-time.Hour)},
		{Token: "a", Start: at},
	}
	SortByStart(occs)
	assert.Equal(t, "z", occs[0].Token)
	assert.Equal(t, "a", occs[1].Token)
	assert.Equal(t, "b", occs[2].Token)
}
