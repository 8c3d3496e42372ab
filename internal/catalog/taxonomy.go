package catalog

import (
	"evcal/internal/model"
	"evcal/internal/recur"
)

// Taxonomy keys added to every event template.
const (
	TaxonomyKeyType     = "type"
	TaxonomyKeyFreq     = "event_freq"
	TaxonomyKeyRepeat   = "event_repeat"
	TaxonomyKeyLocation = "event_location"
)

// TaxonomyFor merges the template's own taxonomy with the event keys
// derived from its rule. Keys the author already set are left alone.
func TaxonomyFor(tpl model.EventTemplate, rule model.RecurrenceRule, taxonomyType string) map[string][]string {
	out := make(map[string][]string, len(tpl.Taxonomy)+4)
	for k, v := range tpl.Taxonomy {
		out[k] = append([]string(nil), v...)
	}

	setDefault := func(key string, values []string) {
		if _, ok := out[key]; ok || len(values) == 0 {
			return
		}
		out[key] = values
	}

	if taxonomyType != "" {
		setDefault(TaxonomyKeyType, []string{taxonomyType})
	}
	if rule.Repeats() {
		setDefault(TaxonomyKeyFreq, []string{string(rule.Frequency)})
	}
	if len(rule.Weekdays) > 0 {
		symbols := make([]string, 0, len(rule.Weekdays))
		for _, d := range rule.Weekdays {
			symbols = append(symbols, recur.Symbol(d))
		}
		setDefault(TaxonomyKeyRepeat, symbols)
	}
	if loc, ok := tpl.Location.Get(); ok {
		setDefault(TaxonomyKeyLocation, []string{loc})
	}
	return out
}

// MatchTaxonomy reports whether occ carries value under key.
func MatchTaxonomy(occ model.Occurrence, key, value string) bool {
	for _, v := range occ.Taxonomy[key] {
		if v == value {
			return true
		}
	}
	return false
}
