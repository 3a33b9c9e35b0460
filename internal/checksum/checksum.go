// Package checksum provides content digests for frame cache keys and
// artifact integrity fields.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
)

// Sum returns the hex-encoded SHA-256 digest of data.
func Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// Key digests several strings into one cache key. Parts are separated by a
// NUL byte so ("ab", "c") and ("a", "bc") never collide.
func Key(parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Short returns the first n hex characters of the digest of data. Used for
// compact run identifiers.
func Short(data []byte, n int) string {
	s := Sum(data)
	if n > len(s) {
		n = len(s)
	}
	return s[:n]
}
