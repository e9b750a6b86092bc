// Package imaging holds the pure, I/O free processing applied to uploaded
// image bytes: content addressing and embedded metadata.
package imaging

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// DigestLength is the length of a hex encoded digest.
const DigestLength = 64

// Digest returns the hex encoded BLAKE3-256 hash of data. It is the
// image identity and the blob file name stem.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// IsDigest reports whether s looks like a value returned by Digest.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
