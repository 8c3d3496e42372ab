package catalog

import (
	"context"
	"errors"

	appLog "evcal/internal/log"
)

// Sources combines several sources into one. A failing source is logged
// and reported in the joined error, but the templates of the others are
// still returned.
type Sources []Source

func (s Sources) Templates(ctx context.Context) ([]Template, error) {
	var (
		out  []Template
		errs []error
	)
	for _, src := range s {
		if src == nil {
			continue
		}
		templates, err := src.Templates(ctx)
		if err != nil {
			appLog.Error("catalog: template source failed", err)
			errs = append(errs, err)
		}
		out = append(out, templates...)
	}
	return out, errors.Join(errs...)
}
