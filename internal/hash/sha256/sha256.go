// Package sha256 derives strong HTTP entity tags from profile bytes.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// ETagger tags content with a truncated SHA-256 digest.
type ETagger struct {
	// hexLen is the number of hex digits kept; 0 keeps the full digest.
	hexLen int
}

// New returns an ETagger keeping the full 64-digit digest.
func New() *ETagger {
	return &ETagger{}
}

// NewTruncated returns an ETagger keeping the first n hex digits.
func NewTruncated(n int) *ETagger {
	return &ETagger{hexLen: n}
}

// ETag returns the quoted digest of data, usable as a strong validator.
func (e *ETagger) ETag(data []byte) string {
	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	if e.hexLen > 0 && e.hexLen < len(digest) {
		digest = digest[:e.hexLen]
	}
	return `"` + digest + `"`
}
