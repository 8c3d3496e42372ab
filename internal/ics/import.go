package ics

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/teambition/rrule-go"

	"evcal/internal/calmath"
	"evcal/internal/catalog"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/recur"
)

// TemplateType is the host type given to every imported VEVENT.
const TemplateType = "event"

// untilLayout is how a decoded UNTIL is handed back to template ingestion.
const untilLayout = "2006-01-02 15:04"

// ParseTemplates reads the VEVENTs of one iCalendar payload as event
// templates. feed names the payload and becomes the first route segment.
//
// Events without UID or DTSTART are logged and skipped. Recurrence
// exceptions (RECURRENCE-ID) are ignored; every other VEVENT is one
// template.
func ParseTemplates(feed string, body []byte) ([]catalog.Template, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", feed, err)
	}

	out := make([]catalog.Template, 0)
	for _, ve := range cal.Events() {
		rec, err := eventRecord(feed, ve)
		if err != nil {
			appLog.Error("ics: vevent skipped", err, "feed", feed)
			continue
		}
		if rec == nil {
			continue
		}
		out = append(out, rec)
	}

	appLog.Info("ics: import completed", "feed", feed, "template_count", len(out))
	return out, nil
}

func eventRecord(feed string, ve *ical.VEvent) (*catalog.Record, error) {
	if ve.GetProperty(ical.ComponentPropertyRecurrenceId) != nil {
		return nil, nil
	}

	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return nil, errors.New("missing UID")
	}
	start := propValue(ve, ical.ComponentPropertyDtStart)
	if start == "" {
		return nil, fmt.Errorf("event %s: missing DTSTART", uid)
	}
	end := propValue(ve, ical.ComponentPropertyDtEnd)
	if end == "" {
		end = start
	}

	rec := &catalog.Record{
		TemplateID:    uid,
		TemplateTitle: propValue(ve, ical.ComponentPropertySummary),
		TemplateRoute: EventRoute(feed, uid),
		TemplateType:  TemplateType,
		Start:         start,
		End:           end,
		Location:      optional(propValue(ve, ical.ComponentPropertyLocation)),
	}

	if cats := categories(ve); len(cats) > 0 {
		rec.Tags = map[string][]string{"category": cats}
	}

	if raw := propValue(ve, ical.ComponentPropertyRrule); raw != "" {
		dtstart, err := model.ParseTime(start)
		if err != nil {
			// Ingestion reports the bad start; the rule is irrelevant then.
			return rec, nil
		}
		rec.Repeat, rec.Freq, rec.Until = decodeRRule(raw, dtstart)
	}
	return rec, nil
}

// EventRoute is the host route of an imported event: the feed name plus a
// stable short id derived from the UID.
func EventRoute(feed, uid string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(feed+"/"+uid)).String()
	return path.Join("/", slug(feed), id[:8])
}

// decodeRRule maps an RRULE onto repeat mask, frequency and until.
//
// Only rules the fixed vocabulary can express are translated:
//
//	FREQ=DAILY|YEARLY            no BY* parts
//	FREQ=WEEKLY                  optional plain BYDAY list
//	FREQ=MONTHLY;BYDAY=<n><day>  n and day matching DTSTART
//
// with INTERVAL 1 and an optional UNTIL. Anything else is passed through as
// the frequency, which the catalog rejects, leaving a single occurrence.
func decodeRRule(raw string, dtstart time.Time) (repeat, freq, until mo.Option[string]) {
	unsupported := func(reason string) (mo.Option[string], mo.Option[string], mo.Option[string]) {
		appLog.Debug("ics: rrule outside supported vocabulary", "rrule", raw, "reason", reason)
		return mo.None[string](), mo.Some(raw), mo.None[string]()
	}

	opt, err := rrule.StrToROption(raw)
	if err != nil {
		return unsupported(err.Error())
	}
	if opt.Interval > 1 {
		return unsupported("interval")
	}
	if opt.Count != 0 {
		return unsupported("count")
	}
	if len(opt.Bysetpos)+len(opt.Bymonth)+len(opt.Bymonthday)+len(opt.Byyearday)+
		len(opt.Byweekno)+len(opt.Byhour)+len(opt.Byminute)+len(opt.Bysecond)+len(opt.Byeaster) > 0 {
		return unsupported("by-rule")
	}

	if !opt.Until.IsZero() {
		until = mo.Some(opt.Until.Format(untilLayout))
	}

	switch opt.Freq {
	case rrule.DAILY, rrule.YEARLY:
		if len(opt.Byweekday) > 0 {
			return unsupported("byday")
		}
		if opt.Freq == rrule.DAILY {
			return mo.None[string](), mo.Some(string(model.FrequencyDaily)), until
		}
		return mo.None[string](), mo.Some(string(model.FrequencyYearly)), until

	case rrule.WEEKLY:
		days := make([]time.Weekday, 0, len(opt.Byweekday)+1)
		for _, wd := range opt.Byweekday {
			if wd.N() != 0 {
				return unsupported("byday ordinal")
			}
			days = append(days, goWeekday(wd))
		}
		// DTSTART is always an instance; listing its weekday first keeps
		// every BYDAY day a sibling.
		if len(days) > 0 && !slices.Contains(days, dtstart.Weekday()) {
			days = append([]time.Weekday{dtstart.Weekday()}, days...)
		}
		if len(days) > 0 {
			repeat = mo.Some(recur.FormatMask(days))
		}
		return repeat, mo.Some(string(model.FrequencyWeekly)), until

	case rrule.MONTHLY:
		if len(opt.Byweekday) != 1 {
			return unsupported("monthly without single byday")
		}
		wd := opt.Byweekday[0]
		nth := calmath.NthWeekdayOfMonth(dtstart)
		if wd.N() != nth.Ordinal || goWeekday(wd) != nth.Weekday {
			return unsupported("monthly byday differs from dtstart")
		}
		return mo.None[string](), mo.Some(string(model.FrequencyMonthly)), until
	}
	return unsupported("frequency " + opt.Freq.String())
}

// goWeekday converts rrule's Monday-first numbering.
func goWeekday(wd rrule.Weekday) time.Weekday {
	return time.Weekday((wd.Day() + 1) % 7)
}

func propValue(ve *ical.VEvent, p ical.ComponentProperty) string {
	if prop := ve.GetProperty(p); prop != nil {
		return strings.TrimSpace(prop.Value)
	}
	return ""
}

func categories(ve *ical.VEvent) []string {
	var out []string
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				out = append(out, c)
			}
		}
	}
	return out
}

func optional(v string) mo.Option[string] {
	if v == "" {
		return mo.None[string]()
	}
	return mo.Some(v)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	dash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
