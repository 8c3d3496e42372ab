package recur

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcal/internal/model"
)

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func starts(instances []Instance) []time.Time {
	out := make([]time.Time, 0, len(instances))
	for _, in := range instances {
		out = append(out, in.Start)
	}
	return out
}

func TestExpand_SingleOccurrence(t *testing.T) {
	g := &Generator{WeekStart: time.Sunday}
	start := at(2024, 1, 1, 10, 0)
	end := at(2024, 1, 1, 11, 30)

	exp, err := g.Expand(start, end, model.RecurrenceRule{})
	require.NoError(t, err)
	assert.Equal(t, []Instance{{Start: start, End: end}}, exp.Instances)
	assert.False(t, exp.Truncated)
}

func TestExpand_WeekdayMask(t *testing.T) {
	g := &Generator{WeekStart: time.Sunday}
	start := at(2024, 1, 1, 10, 0) // Monday
	end := at(2024, 1, 1, 11, 0)

	tests := []struct {
		name     string
		mask     []time.Weekday
		expected []time.Time
	}{
		{
			name:     "own weekday only",
			mask:     []time.Weekday{time.Monday},
			expected: []time.Time{start},
		},
		{
			name:     "mask includes own weekday",
			mask:     []time.Weekday{time.Monday, time.Wednesday, time.Friday},
			expected: []time.Time{start, at(2024, 1, 3, 10, 0), at(2024, 1, 5, 10, 0)},
		},
		{
			name:     "start fills first slot of mask without own weekday",
			mask:     []time.Weekday{time.Tuesday, time.Thursday},
			expected: []time.Time{start, at(2024, 1, 4, 10, 0)},
		},
		{
			name:     "single foreign weekday leaves only the start",
			mask:     []time.Weekday{time.Tuesday},
			expected: []time.Time{start},
		},
		{
			name:     "sunday snaps backwards with sunday week start",
			mask:     []time.Weekday{time.Monday, time.Sunday},
			expected: []time.Time{start, at(2023, 12, 31, 10, 0)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp, err := g.Expand(start, end, model.RecurrenceRule{Weekdays: tt.mask})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, starts(exp.Instances))
			for _, in := range exp.Instances {
				assert.Equal(t, time.Hour, in.End.Sub(in.Start))
			}
		})
	}
}

func TestExpand_WeekStartMonday(t *testing.T) {
	g := &Generator{WeekStart: time.Monday}
	start := at(2024, 1, 1, 10, 0) // Monday

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Weekdays: []time.Weekday{time.Monday, time.Sunday},
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{start, at(2024, 1, 7, 10, 0)}, starts(exp.Instances))
}

func TestExpand_Weekly(t *testing.T) {
	g := &Generator{WeekStart: time.Sunday}
	start := at(2024, 1, 1, 10, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyWeekly,
		Until:     mo.Some(at(2024, 1, 22, 0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 1, 1, 10, 0),
		at(2024, 1, 8, 10, 0),
		at(2024, 1, 15, 10, 0),
	}, starts(exp.Instances))
}

func TestExpand_Daily(t *testing.T) {
	g := &Generator{}
	start := at(2024, 2, 27, 9, 0)

	exp, err := g.Expand(start, start.Add(30*time.Minute), model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Until:     mo.Some(at(2024, 3, 2, 0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 2, 27, 9, 0),
		at(2024, 2, 28, 9, 0),
		at(2024, 2, 29, 9, 0),
		at(2024, 3, 1, 9, 0),
	}, starts(exp.Instances))
}

func TestExpand_MonthlyKeepsOrdinalWeekday(t *testing.T) {
	g := &Generator{}
	start := at(2024, 1, 23, 18, 0) // 4th Tuesday

	exp, err := g.Expand(start, start.Add(2*time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyMonthly,
		Until:     mo.Some(at(2024, 5, 1, 0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 1, 23, 18, 0),
		at(2024, 2, 27, 18, 0),
		at(2024, 3, 26, 18, 0),
	}, starts(exp.Instances))
}

func TestExpand_MonthlySkipsMissingFifthWeekday(t *testing.T) {
	g := &Generator{}
	start := at(2024, 3, 29, 9, 0) // 5th Friday
	until := at(2024, 6, 30, 0, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyMonthly,
		Until:     mo.Some(until),
	})
	require.NoError(t, err)
	// April has no 5th Friday; May 31 is one.
	assert.Equal(t, []time.Time{at(2024, 3, 29, 9, 0), at(2024, 5, 31, 9, 0)}, starts(exp.Instances))
	assert.Less(t, len(exp.Instances), 3)
}

func TestExpand_Yearly(t *testing.T) {
	g := &Generator{}
	start := at(2024, 7, 4, 12, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyYearly,
		Until:     mo.Some(at(2027, 7, 4, 0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{
		at(2024, 7, 4, 12, 0),
		at(2025, 7, 4, 12, 0),
		at(2026, 7, 4, 12, 0),
	}, starts(exp.Instances))
}

func TestExpand_MaskAndFrequencyChains(t *testing.T) {
	g := &Generator{WeekStart: time.Sunday}
	start := at(2024, 1, 2, 19, 0) // Tuesday

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Weekdays:  []time.Weekday{time.Tuesday, time.Thursday},
		Frequency: model.FrequencyWeekly,
		Until:     mo.Some(at(2024, 1, 20, 0, 0)),
	})
	require.NoError(t, err)
	// Tuesday chain counts 18 days (2 weeks), Thursday chain 16 days (2 weeks).
	assert.Equal(t, []time.Time{
		at(2024, 1, 2, 19, 0),
		at(2024, 1, 4, 19, 0),
		at(2024, 1, 9, 19, 0),
		at(2024, 1, 11, 19, 0),
	}, starts(exp.Instances))
}

func TestExpand_UntilBeforeStart(t *testing.T) {
	g := &Generator{}
	start := at(2024, 5, 1, 10, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Until:     mo.Some(at(2024, 4, 1, 0, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{start}, starts(exp.Instances))
}

func TestExpand_Ceiling(t *testing.T) {
	g := &Generator{MaxOccurrences: 10}
	start := at(2024, 1, 1, 10, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Until:     mo.Some(at(2124, 1, 1, 0, 0)),
	})
	require.ErrorIs(t, err, model.ErrIterationCeilingExceeded)
	assert.True(t, exp.Truncated)
	assert.Len(t, exp.Instances, 10)
}

func TestExpand_ExactlyAtCeilingIsNotTruncated(t *testing.T) {
	g := &Generator{MaxOccurrences: 3}
	start := at(2024, 1, 1, 10, 0)

	exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{
		Frequency: model.FrequencyDaily,
		Until:     mo.Some(at(2024, 1, 4, 0, 0)),
	})
	require.NoError(t, err)
	assert.False(t, exp.Truncated)
	assert.Len(t, exp.Instances, 3)
}

func TestExpand_MaskOfNDaysYieldsN(t *testing.T) {
	g := &Generator{WeekStart: time.Sunday}
	masks := [][]time.Weekday{
		{time.Tuesday, time.Thursday},
		{time.Tuesday},
		{time.Monday, time.Wednesday, time.Friday},
		{time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday},
	}
	for day := 1; day <= 7; day++ {
		start := at(2024, 1, day, 10, 0)
		for _, mask := range masks {
			exp, err := g.Expand(start, start.Add(time.Hour), model.RecurrenceRule{Weekdays: mask})
			require.NoError(t, err)
			assert.Len(t, exp.Instances, len(mask), "start %s mask %v", start.Weekday(), mask)
		}
	}
}

func TestSiblings(t *testing.T) {
	assert.Nil(t, Siblings(time.Monday, nil))
	assert.Equal(t, []time.Weekday{time.Wednesday}, Siblings(time.Monday, []time.Weekday{time.Monday, time.Wednesday}))
	assert.Equal(t, []time.Weekday{time.Wednesday}, Siblings(time.Monday, []time.Weekday{time.Wednesday, time.Monday}))
	assert.Equal(t, []time.Weekday{time.Thursday}, Siblings(time.Monday, []time.Weekday{time.Tuesday, time.Thursday}))
	assert.Empty(t, Siblings(time.Monday, []time.Weekday{time.Friday}))
}

func TestGenerator_Limit(t *testing.T) {
	assert.Equal(t, 5000, (&Generator{}).Limit())
	assert.Equal(t, 12, (&Generator{MaxOccurrences: 12}).Limit())
}
