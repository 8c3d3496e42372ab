package recur

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"evcal/internal/calmath"
	"evcal/internal/model"
)

const (
	defaultMaxOccurrences = 5000
)

// Instance is one generated start/end pair, before identity is assigned.
type Instance struct {
	Start time.Time
	End   time.Time
}

// Expansion is the full, unfiltered instance set of one template.
type Expansion struct {
	Instances []Instance
	// Truncated is set when the ceiling cut the expansion short.
	Truncated bool
}

// Generator expands templates. It holds configuration only; every call
// works on its own arguments.
type Generator struct {
	// WeekStart fixes the weekday numbering used to snap repeat-mask
	// siblings within a week.
	WeekStart time.Weekday

	// MaxOccurrences caps the instances produced per template. If zero,
	// defaultMaxOccurrences is used.
	MaxOccurrences int
}

// Expand produces the occurrence set of one template span under rule:
//
//   - the template's own instance, always exactly once
//   - one sibling per remaining repeat-mask weekday (see Siblings)
//   - a frequency chain for each of the above, counted from that
//     instance's own start up to rule.Until
//
// If the ceiling is hit the truncated expansion is returned together with
// model.ErrIterationCeilingExceeded.
func (g *Generator) Expand(start, end time.Time, rule model.RecurrenceRule) (Expansion, error) {
	limit := g.Limit()

	out := Expansion{}
	emit := func(in Instance) bool {
		if len(out.Instances) >= limit {
			out.Truncated = true
			return false
		}
		out.Instances = append(out.Instances, in)
		return true
	}

	// Axis 1: siblings across the week.
	row := g.expandWeek(start, end, rule.Weekdays)
	for _, in := range row {
		if !emit(in) {
			return out, ceilingError(limit)
		}
	}

	// Axis 2: chains down the calendar.
	until, ok := rule.Until.Get()
	if !rule.Repeats() || !ok {
		return out, nil
	}
	for _, base := range row {
		if err := expandChain(base, rule.Frequency, until, emit); err != nil {
			if errors.Is(err, model.ErrIterationCeilingExceeded) {
				return out, ceilingError(limit)
			}
			return out, err
		}
	}
	return out, nil
}

func (g *Generator) expandWeek(start, end time.Time, days []time.Weekday) []Instance {
	row := []Instance{{Start: start, End: end}}
	for _, d := range Siblings(start.Weekday(), days) {
		offset := calmath.WeekdayOffset(start, d, g.WeekStart)
		row = append(row, Instance{
			Start: calmath.AddDays(start, offset),
			End:   calmath.AddDays(end, offset),
		})
	}
	return row
}

// expandChain emits base shifted by i = 1..count-1 frequency units.
func expandChain(base Instance, freq model.Frequency, until time.Time, emit func(Instance) bool) error {
	count := calmath.UnitsBetween(base.Start, until, freq)
	dur := base.End.Sub(base.Start)

	var nth calmath.NthWeekday
	if freq == model.FrequencyMonthly {
		nth = calmath.NthWeekdayOfMonth(base.Start)
	}

	for i := 1; i < count; i++ {
		var next time.Time
		switch freq {
		case model.FrequencyDaily:
			next = base.Start.AddDate(0, 0, i)
		case model.FrequencyWeekly:
			next = base.Start.AddDate(0, 0, 7*i)
		case model.FrequencyMonthly:
			t, err := calmath.ResolveNthWeekday(nth, i, base.Start)
			if errors.Is(err, model.ErrUnresolvableOrdinal) {
				// No such weekday this month; the period is simply empty.
				continue
			}
			if err != nil {
				return err
			}
			next = t
		case model.FrequencyYearly:
			next = base.Start.AddDate(i, 0, 0)
		default:
			return fmt.Errorf("expand: unsupported frequency %q", freq)
		}

		if !emit(Instance{Start: next, End: next.Add(dur)}) {
			return model.ErrIterationCeilingExceeded
		}
	}
	return nil
}

// Siblings returns the mask weekdays that get an instance next to the
// template's own. The template fills one mask slot: its own weekday when
// the mask lists it, the first symbol otherwise. A mask of N days thus
// always yields N instances per week.
func Siblings(own time.Weekday, mask []time.Weekday) []time.Weekday {
	if len(mask) == 0 {
		return nil
	}
	filled := mask[0]
	if slices.Contains(mask, own) {
		filled = own
	}
	out := make([]time.Weekday, 0, len(mask)-1)
	for _, d := range mask {
		if d != filled {
			out = append(out, d)
		}
	}
	return out
}

// Limit is the effective per-template ceiling.
func (g *Generator) Limit() int {
	if g.MaxOccurrences <= 0 {
		return defaultMaxOccurrences
	}
	return g.MaxOccurrences
}

func ceilingError(limit int) error {
	return fmt.Errorf("expand: more than %d occurrences: %w", limit, model.ErrIterationCeilingExceeded)
}
