package catalog

import (
	"errors"
	"slices"
	"strings"
	"time"

	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/recur"
)

const (
	defaultHorizonMonths = 3
)

// Config controls how templates are turned into occurrences.
type Config struct {
	// WeekStart fixes the weekday numbering for repeat-mask offsets.
	WeekStart time.Weekday

	// HorizonMonths is added to a template's start when a frequency is set
	// without an until date. If zero, defaultHorizonMonths is used.
	HorizonMonths int

	// MaxOccurrences is the per-template expansion ceiling.
	MaxOccurrences int

	// TemplateTypes restricts processing to host items of these types.
	// Empty means every item is treated as an event template.
	TemplateTypes []string

	// TaxonomyType is the value of the "type" taxonomy given to events.
	TaxonomyType string
}

// TemplateError records a template that was skipped or degraded.
type TemplateError struct {
	TemplateID string
	Err        error
}

// Result is the outcome of one catalog build.
type Result struct {
	Occurrences []model.Occurrence
	// Skipped lists templates that produced nothing (missing start/end).
	Skipped []TemplateError
	// Fallbacks lists templates whose rule was invalid and which were
	// published as a single occurrence.
	Fallbacks []TemplateError
	// Truncated lists template IDs that hit the expansion ceiling.
	Truncated []string
}

// Builder runs rule parsing, expansion, filtering and identity for every
// template and registers the results.
type Builder struct {
	cfg Config
	gen *recur.Generator
}

func NewBuilder(cfg Config) *Builder {
	if cfg.HorizonMonths <= 0 {
		cfg.HorizonMonths = defaultHorizonMonths
	}
	return &Builder{
		cfg: cfg,
		gen: &recur.Generator{
			WeekStart:      cfg.WeekStart,
			MaxOccurrences: cfg.MaxOccurrences,
		},
	}
}

// Build expands every event template into the occurrences that start inside
// window and registers them with reg (which may be nil). A failing template
// is logged and recorded in the result; it never stops the others.
func (b *Builder) Build(templates []Template, window model.ViewWindow, reg Registry) Result {
	res := b.build(templates, func(model.EventTemplate, model.RecurrenceRule) model.ViewWindow {
		return window
	}, reg)

	appLog.Debug("catalog: build completed",
		"templates", len(templates),
		"occurrences", len(res.Occurrences),
		"skipped", len(res.Skipped),
		"fallbacks", len(res.Fallbacks),
		"truncated", len(res.Truncated),
		"range_start", window.Start.Format(model.DisplayLayout),
		"range_end", window.End.Format(model.DisplayLayout),
	)
	return res
}

// Publish registers every occurrence of every event template over the
// template's own recurrence span, so any occurrence can later be found by
// route or token.
func (b *Builder) Publish(templates []Template, reg Registry) Result {
	res := b.build(templates, TemplateWindow, reg)
	appLog.Debug("catalog: publish completed",
		"templates", len(templates),
		"occurrences", len(res.Occurrences),
		"skipped", len(res.Skipped),
	)
	return res
}

func (b *Builder) build(templates []Template, windowFor func(model.EventTemplate, model.RecurrenceRule) model.ViewWindow, reg Registry) Result {
	var res Result

	for _, t := range templates {
		if !b.Accepts(t.Type()) {
			continue
		}

		tpl, err := Ingest(t)
		if errors.Is(err, model.ErrMissingRequiredField) {
			appLog.Error("catalog: skipping template", err, "id", t.ID())
			res.Skipped = append(res.Skipped, TemplateError{TemplateID: t.ID(), Err: err})
			continue
		}

		rule, ruleErr := b.rule(tpl, err)
		if ruleErr != nil {
			appLog.Error("catalog: invalid rule, publishing single occurrence", ruleErr, "id", tpl.ID)
			res.Fallbacks = append(res.Fallbacks, TemplateError{TemplateID: tpl.ID, Err: ruleErr})
		}

		occs, truncated := b.expand(tpl, rule, windowFor(tpl, rule))
		if truncated {
			res.Truncated = append(res.Truncated, tpl.ID)
		}

		for _, occ := range occs {
			if reg != nil {
				if err := reg.Register(occ); err != nil {
					appLog.Error("catalog: register occurrence failed", err, "id", tpl.ID, "token", occ.Token)
					continue
				}
			}
			res.Occurrences = append(res.Occurrences, occ)
		}
	}
	return res
}

// Lookback expands a single template over its own full recurrence span,
// ignoring any calendar window. It is used for single-event views.
func (b *Builder) Lookback(t Template) ([]model.Occurrence, error) {
	tpl, rule, err := b.Rule(t)
	if errors.Is(err, model.ErrMissingRequiredField) {
		return nil, err
	}
	if err != nil {
		appLog.Error("catalog: invalid rule, publishing single occurrence", err, "id", tpl.ID)
	}
	occs, _ := b.expand(tpl, rule, TemplateWindow(tpl, rule))
	return occs, nil
}

// Rule ingests t and parses its recurrence rule. On an invalid rule the
// template is returned with the empty rule and the rule error.
func (b *Builder) Rule(t Template) (model.EventTemplate, model.RecurrenceRule, error) {
	tpl, err := Ingest(t)
	if errors.Is(err, model.ErrMissingRequiredField) {
		return tpl, model.RecurrenceRule{}, err
	}
	rule, err := b.rule(tpl, err)
	return tpl, rule, err
}

// rule parses the template's rule. ingestErr is a non-fatal error from
// Ingest (an invalid until); any rule error yields the empty rule.
func (b *Builder) rule(tpl model.EventTemplate, ingestErr error) (model.RecurrenceRule, error) {
	if ingestErr != nil {
		return model.RecurrenceRule{}, ingestErr
	}
	rule, err := recur.ParseRule(tpl, b.cfg.HorizonMonths)
	if err != nil {
		return model.RecurrenceRule{}, err
	}
	return rule, nil
}

func (b *Builder) expand(tpl model.EventTemplate, rule model.RecurrenceRule, window model.ViewWindow) ([]model.Occurrence, bool) {
	exp, err := b.gen.Expand(tpl.Start, tpl.End, rule)
	if err != nil {
		if errors.Is(err, model.ErrIterationCeilingExceeded) {
			appLog.Warn("catalog: expansion truncated at ceiling",
				"id", tpl.ID,
				"cap", b.gen.Limit(),
				"err", err.Error(),
			)
		} else {
			appLog.Error("catalog: expansion failed", err, "id", tpl.ID)
		}
	}

	instances := recur.Filter(exp.Instances, window)
	taxonomy := TaxonomyFor(tpl, rule, b.cfg.TaxonomyType)

	occs := make([]model.Occurrence, 0, len(instances))
	for _, in := range instances {
		occs = append(occs, newOccurrence(tpl, in, taxonomy))
	}
	return occs, exp.Truncated
}

func newOccurrence(tpl model.EventTemplate, in recur.Instance, taxonomy map[string][]string) model.Occurrence {
	token := recur.Token(tpl.ID, in.Start)
	return model.Occurrence{
		TemplateID: tpl.ID,
		Title:      tpl.Title,
		Start:      in.Start,
		End:        in.End,
		Token:      token,
		Route:      OccurrenceRoute(tpl, token),
		Location:   tpl.Location.OrElse(""),
		Taxonomy:   taxonomy,
	}
}

// OccurrenceRoute appends the token to the template's route. Templates
// without a route are addressed under their ID.
func OccurrenceRoute(tpl model.EventTemplate, token string) string {
	route := strings.TrimRight(tpl.Route, "/")
	if route == "" {
		route = "/" + strings.Trim(tpl.ID, "/")
	}
	return route + "/" + token
}

// Accepts reports whether items of host type typ are event templates.
func (b *Builder) Accepts(typ string) bool {
	if len(b.cfg.TemplateTypes) == 0 {
		return true
	}
	return slices.Contains(b.cfg.TemplateTypes, typ)
}
