// Package pages reads event templates from a directory tree of Markdown
// pages with YAML front matter. Folder names give the route, with numeric
// ordering prefixes ("01.events") removed.
package pages

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"evcal/internal/catalog"
	appLog "evcal/internal/log"
)

var orderPrefix = regexp.MustCompile(`^\d+\.`)

// Source walks Dir for *.md pages.
type Source struct {
	Dir string
}

var _ catalog.Source = (*Source)(nil)

// Templates returns one template per page that has an event block. Pages
// that fail to parse are logged and skipped.
func (s *Source) Templates(ctx context.Context) ([]catalog.Template, error) {
	var out []catalog.Template

	err := filepath.WalkDir(s.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		rec, err := s.load(path)
		if err != nil {
			if !errors.Is(err, errNoFrontMatter) {
				appLog.Error("pages: skipping page", err, "path", path)
			}
			return nil
		}
		if rec != nil {
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return out, err
	}

	appLog.Debug("pages: scan completed", "dir", s.Dir, "template_count", len(out))
	return out, nil
}

func (s *Source) load(path string) (*catalog.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Event == nil {
		return nil, nil
	}

	rel, err := filepath.Rel(s.Dir, filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	route := Route(rel)

	rec := &catalog.Record{
		TemplateID:    h.ID,
		TemplateTitle: h.Title,
		TemplateRoute: route,
		TemplateType:  h.Template,
		Start:         h.Event.Start,
		End:           h.Event.End,
		Repeat:        present(h.Event.Repeat),
		Freq:          present(h.Event.Freq),
		Until:         present(h.Event.Until),
		Location:      present(h.Event.Location),
		Tags:          h.taxonomy(),
	}
	if rec.TemplateID == "" {
		rec.TemplateID = PageID(route)
	}
	if rec.TemplateType == "" {
		base := filepath.Base(path)
		rec.TemplateType = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return rec, nil
}

// Route turns a folder path relative to the pages root into a route.
func Route(rel string) string {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" || p == "." {
			continue
		}
		segs = append(segs, orderPrefix.ReplaceAllString(p, ""))
	}
	return "/" + strings.Join(segs, "/")
}

// PageID is the stable id of a page without an explicit one.
func PageID(route string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(route)).String()
}

func present(v string) mo.Option[string] {
	if strings.TrimSpace(v) == "" {
		return mo.None[string]()
	}
	return mo.Some(v)
}
