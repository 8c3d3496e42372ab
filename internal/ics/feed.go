package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"evcal/internal/calmath"
	"evcal/internal/model"
	"evcal/internal/recur"
)

const (
	productID = "-//evcal//occurrence feed//EN"
	// floatingLayout renders DATE-TIME values without a zone, which
	// calendar clients read as local time.
	floatingLayout = "20060102T150405"
)

var now = time.Now

// WriteFeed renders occurrences as an iCalendar feed named name. Each
// occurrence becomes one VEVENT with floating start and end times.
func WriteFeed(w io.Writer, name string, occurrences []model.Occurrence) error {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := now().UTC()
	for _, occ := range occurrences {
		ev := cal.AddEvent(occ.Token + "@" + strings.TrimPrefix(occ.Route, "/"))
		ev.SetDtStampTime(stamp)
		ev.SetProperty(ical.ComponentPropertyDtStart, occ.Start.Format(floatingLayout))
		ev.SetProperty(ical.ComponentPropertyDtEnd, occ.End.Format(floatingLayout))
		ev.SetSummary(occ.Title)
		if occ.Location != "" {
			ev.SetLocation(occ.Location)
		}
		if occ.Route != "" {
			ev.SetURL(occ.Route)
		}
		for _, c := range occ.Taxonomy["category"] {
			ev.AddCategory(c)
		}
	}

	if err := cal.SerializeTo(w, ical.WithNewLineWindows); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}

// RRuleFor renders the rule of a template starting at start as an RRULE
// value. ok is false when the rule has no frequency, or when a weekday
// mask is combined with a frequency other than weekly, since RRULE cannot
// express those expansions. A weekly BYDAY list holds the start's own
// weekday followed by the mask siblings the generator adds.
func RRuleFor(start time.Time, rule model.RecurrenceRule) (value string, ok bool) {
	opt := rrule.ROption{}
	switch rule.Frequency {
	case model.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case model.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case model.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
		nth := calmath.NthWeekdayOfMonth(start)
		wd := rruleWeekday(nth.Weekday)
		opt.Byweekday = []rrule.Weekday{wd.Nth(nth.Ordinal)}
	case model.FrequencyYearly:
		opt.Freq = rrule.YEARLY
	default:
		return "", false
	}

	if len(rule.Weekdays) > 0 {
		if rule.Frequency != model.FrequencyWeekly {
			return "", false
		}
		opt.Byweekday = append(opt.Byweekday, rruleWeekday(start.Weekday()))
		for _, d := range recur.Siblings(start.Weekday(), rule.Weekdays) {
			opt.Byweekday = append(opt.Byweekday, rruleWeekday(d))
		}
	}
	if until, has := rule.Until.Get(); has {
		opt.Until = until
	}
	return opt.RRuleString(), true
}

func rruleWeekday(d time.Weekday) rrule.Weekday {
	return [...]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}[d]
}
