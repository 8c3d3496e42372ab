// Package recur expands an event template into its concrete occurrences:
// rule parsing, horizontal (weekday) and vertical (frequency) expansion,
// window filtering and occurrence identity.
package recur

import (
	"strings"
	"time"

	"github.com/samber/mo"

	"evcal/internal/calmath"
	"evcal/internal/model"
)

// weekdaySymbols maps the repeat-mask alphabet to weekdays.
// R is Thursday, U is Sunday.
var weekdaySymbols = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

const symbolOrder = "UMTWRFS"

// Symbol returns the mask character for d.
func Symbol(d time.Weekday) string {
	return string(symbolOrder[d])
}

// FormatMask renders weekdays back into a repeat mask.
func FormatMask(days []time.Weekday) string {
	var b strings.Builder
	for _, d := range days {
		b.WriteString(Symbol(d))
	}
	return b.String()
}

// ParseMask splits a repeat mask into its ordered weekdays. Unknown and
// duplicate symbols are rejected.
func ParseMask(raw string) ([]time.Weekday, error) {
	mask := strings.ToUpper(strings.TrimSpace(raw))
	if mask == "" {
		return nil, nil
	}

	days := make([]time.Weekday, 0, len(mask))
	seen := make(map[time.Weekday]bool, 7)
	for _, r := range mask {
		d, ok := weekdaySymbols[r]
		if !ok {
			return nil, &model.InvalidRuleError{Field: "repeat", Value: raw, Reason: "unknown weekday symbol " + string(r)}
		}
		if seen[d] {
			return nil, &model.InvalidRuleError{Field: "repeat", Value: raw, Reason: "duplicate weekday symbol " + string(r)}
		}
		seen[d] = true
		days = append(days, d)
	}
	return days, nil
}

// ParseFrequency normalizes a frequency keyword. Empty means none.
func ParseFrequency(raw string) (model.Frequency, error) {
	switch f := model.Frequency(strings.ToLower(strings.TrimSpace(raw))); f {
	case model.FrequencyNone, model.FrequencyDaily, model.FrequencyWeekly,
		model.FrequencyMonthly, model.FrequencyYearly:
		return f, nil
	default:
		return model.FrequencyNone, &model.InvalidRuleError{Field: "freq", Value: raw, Reason: "expected daily, weekly, monthly or yearly"}
	}
}

// ParseRule builds the normalized rule of tpl. When a frequency is set
// without an until date, until defaults to start + horizonMonths.
func ParseRule(tpl model.EventTemplate, horizonMonths int) (model.RecurrenceRule, error) {
	var rule model.RecurrenceRule

	if mask, ok := tpl.RepeatMask.Get(); ok {
		days, err := ParseMask(mask)
		if err != nil {
			return model.RecurrenceRule{}, err
		}
		rule.Weekdays = days
	}

	if raw, ok := tpl.Frequency.Get(); ok {
		freq, err := ParseFrequency(raw)
		if err != nil {
			return model.RecurrenceRule{}, err
		}
		rule.Frequency = freq
	}

	if !rule.Repeats() {
		return rule, nil
	}

	if until, ok := tpl.Until.Get(); ok {
		rule.Until = mo.Some(until)
	} else {
		rule.Until = mo.Some(calmath.AddMonths(tpl.Start, horizonMonths))
	}
	return rule, nil
}
