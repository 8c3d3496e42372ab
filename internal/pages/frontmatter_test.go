package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeader(t *testing.T) {
	h, err := ParseHeader([]byte("---\r\ntitle: Gig\r\nevent:\r\n  start: 2024-05-01\r\n  end: 2024-05-01 23:00\r\n---\r\nbody\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "Gig", h.Title)
	require.NotNil(t, h.Event)
	assert.Equal(t, "2024-05-01", h.Event.Start)
	assert.Equal(t, "2024-05-01 23:00", h.Event.End)
}

func TestParseHeader_Errors(t *testing.T) {
	_, err := ParseHeader([]byte("title: no delimiters\n"))
	assert.ErrorIs(t, err, errNoFrontMatter)

	_, err = ParseHeader([]byte("---\ntitle: open\n"))
	assert.Error(t, err)

	_, err = ParseHeader([]byte("---\ntaxonomy:\n  category: {a: b}\n---\n"))
	assert.Error(t, err)
}
