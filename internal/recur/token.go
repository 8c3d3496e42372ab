package recur

import (
	"crypto/md5"
	"encoding/hex"
	"time"

	"evcal/internal/model"
)

// TokenLength is the number of hex characters kept from the digest.
const TokenLength = 6

// Token derives the short identity of the occurrence of templateID that
// starts at start. Equal inputs always give the same token; collisions
// between different inputs are possible and not detected.
func Token(templateID string, start time.Time) string {
	sum := md5.Sum([]byte(templateID + start.Format(model.DisplayLayout)))
	return hex.EncodeToString(sum[:])[:TokenLength]
}
