package catalog

import (
	"time"

	"evcal/internal/calmath"
	"evcal/internal/model"
)

// MonthWindow covers a whole calendar month, from the first day at 00:00
// to the last day at 23:59:59.
func MonthWindow(year int, month time.Month) model.ViewWindow {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, month, calmath.DaysInMonth(year, month), 23, 59, 59, 0, time.UTC)
	return model.ViewWindow{Start: start, End: end}
}

// RollingWindow covers now up to now + months.
func RollingWindow(now time.Time, months int) model.ViewWindow {
	return model.ViewWindow{Start: now, End: calmath.AddMonths(now, months)}
}

// TemplateWindow is the single-event lookback: from the template's start to
// the end of its recurrence, or to its own end when it does not repeat.
func TemplateWindow(tpl model.EventTemplate, rule model.RecurrenceRule) model.ViewWindow {
	end := tpl.End
	if until, ok := rule.Until.Get(); ok && until.After(end) {
		end = until
	}
	// Mask siblings snap up to six days either side of their base.
	return model.ViewWindow{
		Start: calmath.AddDays(tpl.Start, -6),
		End:   calmath.AddDays(end, 6),
	}
}

// NaiveNow returns the current wall-clock time re-expressed as a naive
// time.UTC value, matching how template times are parsed.
func NaiveNow(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	n := time.Now().In(loc)
	return time.Date(n.Year(), n.Month(), n.Day(), n.Hour(), n.Minute(), n.Second(), 0, time.UTC)
}
