package recur

import (
	"crypto/md5"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken(t *testing.T) {
	start := at(2024, 1, 8, 10, 0)

	tok := Token("events/yoga", start)
	assert.Len(t, tok, TokenLength)
	assert.Equal(t, tok, Token("events/yoga", start))

	sum := md5.Sum([]byte("events/yoga" + "08-01-2024 10:00"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:6], tok)
}

func TestToken_DiffersByInput(t *testing.T) {
	start := at(2024, 1, 8, 10, 0)

	assert.NotEqual(t, Token("a", start), Token("b", start))
	assert.NotEqual(t, Token("a", start), Token("a", start.AddDate(0, 0, 7)))
}
