package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// inputLayouts lists the date formats authors write in front matter and
// feeds, tried in order. Lower-case am/pm is normalized before matching.
var inputLayouts = []string{
	"2006-01-02 15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
	DisplayLayout,
	"02-01-2006",
	"01/02/2006 3:04pm",
	"01/02/2006 3:04 pm",
	"01/02/2006 15:04",
	"01/02/2006",
	"20060102T150405Z",
	"20060102T150405",
	"20060102",
}

// ParseTime parses a raw date string into a naive wall-clock time carried
// in time.UTC.
func ParseTime(raw string) (time.Time, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	v = strings.ToLower(v)
	v = strings.ReplaceAll(v, "t", "T")
	v = strings.ReplaceAll(v, "z", "Z")

	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time value %q", raw)
}
