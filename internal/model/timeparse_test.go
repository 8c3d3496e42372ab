package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTime(t *testing.T) {
	date := func(y int, m time.Month, d, hh, mm, ss int) time.Time {
		return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
	}

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"iso minutes", "2024-01-05 09:30", date(2024, 1, 5, 9, 30, 0)},
		{"iso seconds", "2024-01-05 09:30:15", date(2024, 1, 5, 9, 30, 15)},
		{"iso T seconds", "2024-01-05T09:30:15", date(2024, 1, 5, 9, 30, 15)},
		{"iso T minutes", "2024-01-05T09:30", date(2024, 1, 5, 9, 30, 0)},
		{"lower-case t", "2024-01-05t09:30", date(2024, 1, 5, 9, 30, 0)},
		{"date only", "2024-01-05", date(2024, 1, 5, 0, 0, 0)},
		{"display format is day first", "05-01-2024 14:00", date(2024, 1, 5, 14, 0, 0)},
		{"dashed date is day first", "05-01-2024", date(2024, 1, 5, 0, 0, 0)},
		{"slashed am/pm is month first", "05/01/2024 3:04pm", date(2024, 5, 1, 15, 4, 0)},
		{"upper-case PM with space", "05/01/2024 3:04 PM", date(2024, 5, 1, 15, 4, 0)},
		{"slashed 24h", "05/01/2024 18:45", date(2024, 5, 1, 18, 45, 0)},
		{"slashed date", "05/01/2024", date(2024, 5, 1, 0, 0, 0)},
		{"basic utc", "20240105T093000Z", date(2024, 1, 5, 9, 30, 0)},
		{"basic lower-case", "20240105t093000z", date(2024, 1, 5, 9, 30, 0)},
		{"basic floating", "20240105T093000", date(2024, 1, 5, 9, 30, 0)},
		{"basic date", "20240105", date(2024, 1, 5, 0, 0, 0)},
		{"surrounding space", "  2024-01-05 09:30\n", date(2024, 1, 5, 9, 30, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTime(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestParseTime_Rejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"next tuesday",
		"2024-02-30 10:00",
		"2024/01/05",
		"13/40/2024",
	} {
		_, err := ParseTime(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}
