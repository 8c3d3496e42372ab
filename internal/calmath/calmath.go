// Package calmath holds the pure calendar arithmetic the recurrence engine
// is built on. All functions operate on naive wall-clock times and keep the
// location of their input.
package calmath

import (
	"fmt"
	"math"
	"time"

	"evcal/internal/model"
)

// NthWeekday is a date decomposed as "the Ordinal-th Weekday of its month"
// plus the time of day.
type NthWeekday struct {
	Ordinal int // 1..5
	Weekday time.Weekday
	Hour    int
	Minute  int
	Second  int
}

// WeekdayOffset returns the signed number of days from the weekday of from
// to target, inside the week beginning on weekStart.
//
// With weekStart Sunday a Monday snapped to Sunday moves back one day;
// with weekStart Monday the same snap moves six days forward.
func WeekdayOffset(from time.Time, target, weekStart time.Weekday) int {
	return weekIndex(target, weekStart) - weekIndex(from.Weekday(), weekStart)
}

func weekIndex(d, weekStart time.Weekday) int {
	return (int(d) - int(weekStart) + 7) % 7
}

// NthWeekdayOfMonth decomposes t into its ordinal weekday within the month.
func NthWeekdayOfMonth(t time.Time) NthWeekday {
	return NthWeekday{
		Ordinal: (t.Day()-1)/7 + 1,
		Weekday: t.Weekday(),
		Hour:    t.Hour(),
		Minute:  t.Minute(),
		Second:  t.Second(),
	}
}

// ResolveNthWeekday finds the n.Ordinal-th n.Weekday of the month that lies
// monthsAhead months after from's month, at n's time of day. It returns
// model.ErrUnresolvableOrdinal when that month has no such day.
func ResolveNthWeekday(n NthWeekday, monthsAhead int, from time.Time) (time.Time, error) {
	if n.Ordinal < 1 || n.Ordinal > 5 {
		return time.Time{}, fmt.Errorf("ordinal %d out of range: %w", n.Ordinal, model.ErrUnresolvableOrdinal)
	}

	first := time.Date(from.Year(), from.Month()+time.Month(monthsAhead), 1,
		n.Hour, n.Minute, n.Second, 0, from.Location())

	day := 1 + (int(n.Weekday)-int(first.Weekday())+7)%7 + (n.Ordinal-1)*7
	if day > DaysInMonth(first.Year(), first.Month()) {
		return time.Time{}, fmt.Errorf("%d %s of %s %d: %w",
			n.Ordinal, n.Weekday, first.Month(), first.Year(), model.ErrUnresolvableOrdinal)
	}

	return first.AddDate(0, 0, day-1), nil
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// AddDays shifts t by n calendar days, keeping the time of day.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// AddMonths shifts t by n calendar months. Unlike time.AddDate it never rolls
// over into the following month: Jan 31 + 1 month is the last day of February.
func AddMonths(t time.Time, n int) time.Time {
	first := time.Date(t.Year(), t.Month()+time.Month(n), 1,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	day := t.Day()
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return first.AddDate(0, 0, day-1)
}

// UnitsBetween is the whole number of frequency units from start to until,
// compared on calendar dates. It is the iteration count of a frequency
// chain and never negative.
func UnitsBetween(start, until time.Time, freq model.Frequency) int {
	var n int
	switch freq {
	case model.FrequencyDaily:
		n = daysBetween(start, until)
	case model.FrequencyWeekly:
		n = daysBetween(start, until)
		if n > 0 {
			n /= 7
		}
	case model.FrequencyMonthly:
		n = monthsBetween(start, until)
	case model.FrequencyYearly:
		n = monthsBetween(start, until)
		if n > 0 {
			n /= 12
		}
	}
	if n < 0 {
		return 0
	}
	return n
}

func daysBetween(start, until time.Time) int {
	h := DateOnly(until).Sub(DateOnly(start)).Hours()
	return int(math.Round(h / 24))
}

func monthsBetween(start, until time.Time) int {
	n := (until.Year()-start.Year())*12 + int(until.Month()) - int(start.Month())
	if until.Day() < start.Day() {
		n--
	}
	return n
}
