package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"evcal/internal/catalog"
	"evcal/internal/ics"
	appLog "evcal/internal/log"
	"evcal/internal/model"
)

const (
	contentTypeJSON = "application/json"
	contentTypeICS  = "text/calendar; charset=utf-8"

	maxWindowMonths = 24
	dateLayout      = "2006-01-02"
)

type occurrenceResponse struct {
	TemplateID string              `json:"template_id"`
	Title      string              `json:"title"`
	Start      string              `json:"start"`
	End        string              `json:"end"`
	Token      string              `json:"token"`
	Route      string              `json:"route"`
	Location   string              `json:"location,omitempty"`
	Taxonomy   map[string][]string `json:"taxonomy,omitempty"`
}

type occurrencesResponse struct {
	RangeStart  string               `json:"range_start"`
	RangeEnd    string               `json:"range_end"`
	Count       int                  `json:"count"`
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type calendarResponse struct {
	catalog.MonthRef
	DaysInMonth  int                          `json:"days_in_month"`
	FirstWeekday time.Weekday                 `json:"first_weekday"`
	Days         map[int][]occurrenceResponse `json:"days"`
	Prev         catalog.MonthRef             `json:"prev"`
	Next         catalog.MonthRef             `json:"next"`
	PrevYear     catalog.MonthRef             `json:"prev_year"`
	NextYear     catalog.MonthRef             `json:"next_year"`
}

type templateResponse struct {
	ID          string               `json:"id"`
	Title       string               `json:"title"`
	Route       string               `json:"route"`
	RRule       string               `json:"rrule,omitempty"`
	RuleError   string               `json:"rule_error,omitempty"`
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type errResp struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	write(w, http.StatusOK, "text/plain; charset=utf-8", []byte("OK"))
}

// handleOccurrences lists occurrences in a rolling window (?months=N) or an
// explicit one (?from=YYYY-MM-DD&to=YYYY-MM-DD). Repeated
// ?taxonomy=key:value parameters narrow the result.
func (s *Server) handleOccurrences(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (int, string, []byte) {
		window, err := s.requestWindow(r)
		if err != nil {
			return jsonBody(http.StatusBadRequest, errResp{Error: err.Error()})
		}
		filters, err := taxonomyFilters(r.URL.Query()["taxonomy"])
		if err != nil {
			return jsonBody(http.StatusBadRequest, errResp{Error: err.Error()})
		}

		templates, _ := s.snapshot()
		res := s.builder.Build(templates, window, nil)
		occs := make([]model.Occurrence, 0, len(res.Occurrences))
		for _, occ := range res.Occurrences {
			if matchesAll(occ, filters) {
				occs = append(occs, occ)
			}
		}
		catalog.SortByStart(occs)

		return jsonBody(http.StatusOK, occurrencesResponse{
			RangeStart:  window.Start.Format(model.DisplayLayout),
			RangeEnd:    window.End.Format(model.DisplayLayout),
			Count:       len(occs),
			Occurrences: toResponses(occs),
		})
	})
}

func (s *Server) handleOccurrence(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	_, reg := s.snapshot()

	matches := reg.ByToken(token)
	switch len(matches) {
	case 0:
		writeJSON(w, http.StatusNotFound, errResp{Error: "occurrence not found"})
	case 1:
		writeJSON(w, http.StatusOK, toResponse(matches[0]))
	default:
		// Token collision between templates; let the caller pick by route.
		writeJSON(w, http.StatusConflict, toResponses(matches))
	}
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (int, string, []byte) {
		year, err := strconv.Atoi(chi.URLParam(r, "year"))
		if err != nil || year < 1 || year > 9999 {
			return jsonBody(http.StatusBadRequest, errResp{Error: "invalid year"})
		}
		month, err := strconv.Atoi(chi.URLParam(r, "month"))
		if err != nil || month < 1 || month > 12 {
			return jsonBody(http.StatusBadRequest, errResp{Error: "invalid month"})
		}

		templates, _ := s.snapshot()
		res := s.builder.Build(templates, catalog.MonthWindow(year, time.Month(month)), nil)
		grid := catalog.Month(year, time.Month(month), res.Occurrences)

		days := make(map[int][]occurrenceResponse, len(grid.Days))
		for day, occs := range grid.Days {
			days[day] = toResponses(occs)
		}
		return jsonBody(http.StatusOK, calendarResponse{
			MonthRef:     grid.MonthRef,
			DaysInMonth:  grid.DaysInMonth,
			FirstWeekday: grid.FirstWeekday,
			Days:         days,
			Prev:         grid.Prev,
			Next:         grid.Next,
			PrevYear:     grid.PrevYear,
			NextYear:     grid.NextYear,
		})
	})
}

// handleTemplate is the single-event view: every occurrence of one
// template over its whole recurrence.
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	templates, _ := s.snapshot()

	var found catalog.Template
	for _, t := range templates {
		if t.ID() == id && s.builder.Accepts(t.Type()) {
			found = t
			break
		}
	}
	if found == nil {
		writeJSON(w, http.StatusNotFound, errResp{Error: "template not found"})
		return
	}

	tpl, rule, err := s.builder.Rule(found)
	if errors.Is(err, model.ErrMissingRequiredField) {
		writeJSON(w, http.StatusUnprocessableEntity, errResp{Error: err.Error()})
		return
	}
	occs, _ := s.builder.Lookback(found)

	resp := templateResponse{
		ID:          tpl.ID,
		Title:       tpl.Title,
		Route:       tpl.Route,
		Occurrences: toResponses(occs),
	}
	if err != nil {
		resp.RuleError = err.Error()
	} else if rrule, ok := ics.RRuleFor(tpl.Start, rule); ok {
		resp.RRule = rrule
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	s.cached(w, r, func() (int, string, []byte) {
		window, err := s.requestWindow(r)
		if err != nil {
			return jsonBody(http.StatusBadRequest, errResp{Error: err.Error()})
		}
		templates, _ := s.snapshot()
		res := s.builder.Build(templates, window, nil)
		catalog.SortByStart(res.Occurrences)

		var buf bytes.Buffer
		if err := ics.WriteFeed(&buf, "evcal", res.Occurrences); err != nil {
			appLog.Error("web: feed render failed", err)
			return jsonBody(http.StatusInternalServerError, errResp{Error: "failed to render feed"})
		}
		return http.StatusOK, contentTypeICS, buf.Bytes()
	})
}

// requestWindow reads ?from/?to or ?months. Without parameters the rolling
// window of the configured horizon is used.
func (s *Server) requestWindow(r *http.Request) (model.ViewWindow, error) {
	q := r.URL.Query()
	from, to := q.Get("from"), q.Get("to")

	if from != "" || to != "" {
		if from == "" || to == "" {
			return model.ViewWindow{}, errors.New("from and to must be given together")
		}
		start, err := time.ParseInLocation(dateLayout, from, time.UTC)
		if err != nil {
			return model.ViewWindow{}, fmt.Errorf("invalid from: %q", from)
		}
		end, err := time.ParseInLocation(dateLayout, to, time.UTC)
		if err != nil {
			return model.ViewWindow{}, fmt.Errorf("invalid to: %q", to)
		}
		if end.Before(start) {
			return model.ViewWindow{}, errors.New("to is before from")
		}
		if end.After(start.AddDate(0, maxWindowMonths, 0)) {
			return model.ViewWindow{}, fmt.Errorf("window longer than %d months", maxWindowMonths)
		}
		// to is inclusive of the whole day.
		end = end.Add(24*time.Hour - time.Second)
		return model.ViewWindow{Start: start, End: end}, nil
	}

	months := parseIntDefault(q.Get("months"), s.cfg.HorizonMonths)
	if months < 1 || months > maxWindowMonths {
		return model.ViewWindow{}, fmt.Errorf("months must be between 1 and %d", maxWindowMonths)
	}
	return catalog.RollingWindow(s.now(), months), nil
}

type taxonomyFilter struct{ key, value string }

func taxonomyFilters(raw []string) ([]taxonomyFilter, error) {
	out := make([]taxonomyFilter, 0, len(raw))
	for _, f := range raw {
		key, value, ok := strings.Cut(f, ":")
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("invalid taxonomy filter %q, want key:value", f)
		}
		out = append(out, taxonomyFilter{key: key, value: value})
	}
	return out, nil
}

func matchesAll(occ model.Occurrence, filters []taxonomyFilter) bool {
	for _, f := range filters {
		if !catalog.MatchTaxonomy(occ, f.key, f.value) {
			return false
		}
	}
	return true
}

func toResponse(occ model.Occurrence) occurrenceResponse {
	return occurrenceResponse{
		TemplateID: occ.TemplateID,
		Title:      occ.Title,
		Start:      occ.StartFormatted(),
		End:        occ.EndFormatted(),
		Token:      occ.Token,
		Route:      occ.Route,
		Location:   occ.Location,
		Taxonomy:   occ.Taxonomy,
	}
}

func toResponses(occs []model.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, 0, len(occs))
	for _, occ := range occs {
		out = append(out, toResponse(occ))
	}
	return out
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

func jsonBody(status int, v any) (int, string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		appLog.Error("web: json encode failed", err)
		return http.StatusInternalServerError, contentTypeJSON, []byte(`{"error":"internal error"}`)
	}
	return status, contentTypeJSON, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	status, contentType, body := jsonBody(status, v)
	write(w, status, contentType, body)
}
