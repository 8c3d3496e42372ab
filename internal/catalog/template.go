package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/mo"

	"evcal/internal/model"
)

// Template is the view of one host content item the catalog needs.
// Optional fields report mo.None when the author left them out.
type Template interface {
	ID() string
	Title() string
	Route() string
	Type() string
	StartRaw() string
	EndRaw() string
	RepeatMaskRaw() mo.Option[string]
	FrequencyRaw() mo.Option[string]
	UntilRaw() mo.Option[string]
	LocationRaw() mo.Option[string]
	Taxonomy() map[string][]string
}

// Source enumerates event templates from the host.
type Source interface {
	Templates(ctx context.Context) ([]Template, error)
}

// Registry receives every generated occurrence. Registration order carries
// no meaning.
type Registry interface {
	Register(occ model.Occurrence) error
}

// Ingest parses the raw fields of t into a typed template.
//
// A missing or unparsable start/end, or an end before the start, fails
// with model.ErrMissingRequiredField. An unparsable until fails with
// model.ErrInvalidRule and the partially filled template, so callers can
// still fall back to a single occurrence.
func Ingest(t Template) (model.EventTemplate, error) {
	out := model.EventTemplate{
		ID:         t.ID(),
		Title:      t.Title(),
		Route:      t.Route(),
		Type:       t.Type(),
		RepeatMask: nonEmpty(t.RepeatMaskRaw()),
		Frequency:  nonEmpty(t.FrequencyRaw()),
		Location:   nonEmpty(t.LocationRaw()),
		Taxonomy:   t.Taxonomy(),
	}

	startRaw, endRaw := strings.TrimSpace(t.StartRaw()), strings.TrimSpace(t.EndRaw())
	if startRaw == "" {
		return out, fmt.Errorf("template %s: start: %w", out.ID, model.ErrMissingRequiredField)
	}
	if endRaw == "" {
		return out, fmt.Errorf("template %s: end: %w", out.ID, model.ErrMissingRequiredField)
	}

	start, err := model.ParseTime(startRaw)
	if err != nil {
		return out, fmt.Errorf("template %s: start: %v: %w", out.ID, err, model.ErrMissingRequiredField)
	}
	end, err := model.ParseTime(endRaw)
	if err != nil {
		return out, fmt.Errorf("template %s: end: %v: %w", out.ID, err, model.ErrMissingRequiredField)
	}
	if end.Before(start) {
		return out, fmt.Errorf("template %s: end %s before start %s: %w",
			out.ID, endRaw, startRaw, model.ErrMissingRequiredField)
	}
	out.Start = start
	out.End = end

	if raw, ok := nonEmpty(t.UntilRaw()).Get(); ok {
		until, err := model.ParseTime(raw)
		if err != nil {
			return out, fmt.Errorf("template %s: %w", out.ID,
				&model.InvalidRuleError{Field: "until", Value: raw, Reason: err.Error()})
		}
		out.Until = mo.Some(until)
	}

	return out, nil
}

// nonEmpty treats a present but blank value as absent.
func nonEmpty(o mo.Option[string]) mo.Option[string] {
	v, ok := o.Get()
	if !ok || strings.TrimSpace(v) == "" {
		return mo.None[string]()
	}
	return mo.Some(strings.TrimSpace(v))
}
