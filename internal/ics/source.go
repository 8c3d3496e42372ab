package ics

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"evcal/internal/catalog"
	appLog "evcal/internal/log"
)

// Source imports event templates from local .ics files and http(s)
// calendar URLs.
type Source struct {
	// Locations are file paths or http(s) URLs.
	Locations []string
	// Fetcher serves URL locations. If nil, URLs fail.
	Fetcher *Fetcher
}

var _ catalog.Source = (*Source)(nil)

// Templates reads every location. A location that cannot be read or
// parsed is logged and reported, and the others are still returned.
func (s *Source) Templates(ctx context.Context) ([]catalog.Template, error) {
	var (
		out  []catalog.Template
		errs []error
	)
	for _, loc := range s.Locations {
		body, err := s.read(ctx, loc)
		if err != nil {
			appLog.Error("ics: read failed", err, "location", displayLocation(loc))
			errs = append(errs, err)
			continue
		}
		templates, err := ParseTemplates(FeedName(loc), body)
		if err != nil {
			appLog.Error("ics: parse failed", err, "location", displayLocation(loc))
			errs = append(errs, err)
			continue
		}
		out = append(out, templates...)
	}
	return out, errors.Join(errs...)
}

func (s *Source) read(ctx context.Context, loc string) ([]byte, error) {
	if !isURL(loc) {
		return os.ReadFile(loc)
	}
	if s.Fetcher == nil {
		return nil, fmt.Errorf("ics: no fetcher for %s", redactURL(loc))
	}
	body, _, err := s.Fetcher.Fetch(ctx, loc)
	return body, err
}

// FeedName derives the route segment of a location: the file name
// without extension, or the host of a URL.
func FeedName(loc string) string {
	if isURL(loc) {
		rest := loc[strings.Index(loc, "://")+3:]
		if i := strings.IndexAny(rest, "/?"); i >= 0 {
			rest = rest[:i]
		}
		return rest
	}
	base := filepath.Base(loc)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func isURL(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}

func displayLocation(loc string) string {
	if isURL(loc) {
		return redactURL(loc)
	}
	return loc
}
