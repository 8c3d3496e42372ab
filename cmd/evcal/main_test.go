package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evcal/internal/config"
	"evcal/internal/model"
)

func TestDump(t *testing.T) {
	occs := []model.Occurrence{{
		TemplateID: "yoga",
		Title:      "Yoga",
		Start:      time.Date(2024, 1, 8, 10, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 1, 8, 11, 0, 0, 0, time.UTC),
		Token:      "a1b2c3",
		Route:      "/events/yoga/a1b2c3",
	}}

	var buf bytes.Buffer
	require.NoError(t, dump(&buf, occs))

	var got []map[string]string
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "08-01-2024 10:00", got[0]["start"])
	assert.Equal(t, "/events/yoga/a1b2c3", got[0]["route"])
	assert.NotContains(t, got[0], "location")
}

func TestBuildSources(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.PagesDir = filepath.Join(dir, "missing")
	cfg.ICSFiles = []string{filepath.Join(dir, "club.ics")}

	sources, closeFn, err := buildSources(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.Len(t, sources, 1, "missing pages dir is skipped")

	require.NoError(t, os.MkdirAll(cfg.PagesDir, 0o755))
	sources, _, err = buildSources(context.Background(), cfg)
	require.NoError(t, err)
	assert.Len(t, sources, 2)
}

func TestWriteFeedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ics")
	require.NoError(t, writeFeedFile(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
}
