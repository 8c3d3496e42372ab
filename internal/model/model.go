package model

import (
	"time"

	"github.com/samber/mo"
)

// DisplayLayout is the fixed DD-MM-YYYY HH:mm format occurrences are handed
// to the host in. The identity token is computed over the same rendering.
const DisplayLayout = "02-01-2006 15:04"

// Frequency is the vertical repeat step of a template.
type Frequency string

const (
	FrequencyNone    Frequency = ""
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
	FrequencyYearly  Frequency = "yearly"
)

// EventTemplate is the authoring-time event as read from the host, parsed
// once at ingestion. Absent optional fields are mo.None, never zero values.
type EventTemplate struct {
	ID    string
	Title string
	// Route is the host route of the template page, e.g. "/events/yoga".
	Route string
	// Type is the host template name ("event", "calendar", ...).
	Type string

	// Start / End are naive wall-clock times carried in time.UTC.
	Start time.Time
	End   time.Time

	RepeatMask mo.Option[string]
	Frequency  mo.Option[string]
	Until      mo.Option[time.Time]
	Location   mo.Option[string]

	Taxonomy map[string][]string
}

// Duration is End - Start.
func (t EventTemplate) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// RecurrenceRule is the normalized view of a template's repeat and
// frequency fields. It is derived per processing pass and never stored.
type RecurrenceRule struct {
	// Weekdays is the ordered, distinct repeat mask. Empty means the
	// template only occurs on its own day.
	Weekdays  []time.Weekday
	Frequency Frequency
	Until     mo.Option[time.Time]
}

// Repeats reports whether the rule has a vertical (frequency) component.
func (r RecurrenceRule) Repeats() bool {
	return r.Frequency != FrequencyNone
}

// Occurrence is one concrete instance of a template.
type Occurrence struct {
	TemplateID string
	Title      string

	Start time.Time
	End   time.Time

	// Token is the 6 character identity of this occurrence.
	Token string
	// Route is the template route with "/<token>" appended.
	Route string

	Location string
	Taxonomy map[string][]string
}

func (o Occurrence) StartFormatted() string {
	return o.Start.Format(DisplayLayout)
}

func (o Occurrence) EndFormatted() string {
	return o.End.Format(DisplayLayout)
}

// ViewWindow is the inclusive [Start, End] range a caller wants to see.
type ViewWindow struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w ViewWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}
