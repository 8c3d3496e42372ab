package ics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tinyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//t//EN\r\nEND:VCALENDAR\r\n"

func TestFetcher_ConditionalRequests(t *testing.T) {
	var hits, conditional atomic.Int32
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if down.Load() {
			http.Error(w, "down", http.StatusBadGateway)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			conditional.Add(1)
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(tinyCalendar))
	}))
	defer srv.Close()

	f := NewFetcher(t.TempDir())
	ctx := context.Background()

	body, fromCache, err := f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.False(t, fromCache)
	assert.Equal(t, tinyCalendar, string(body))

	body, fromCache, err = f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, tinyCalendar, string(body))
	assert.Equal(t, int32(1), conditional.Load())

	down.Store(true)
	body, fromCache, err = f.Fetch(ctx, srv.URL+"/cal.ics")
	require.NoError(t, err)
	assert.True(t, fromCache)
	assert.Equal(t, tinyCalendar, string(body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestFetcher_ErrorWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, _, err := NewFetcher(t.TempDir()).Fetch(context.Background(), srv.URL+"/missing.ics")
	assert.Error(t, err)

	_, _, err = NewFetcher(t.TempDir()).Fetch(context.Background(), "")
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://cal.example.com/...(redacted)", redactURL("https://cal.example.com/private/abc.ics?token=secret"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
