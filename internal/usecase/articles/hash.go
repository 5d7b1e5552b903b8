package articles

import (
	"crypto/sha1" // #nosec G505 -- SHA-1 is used for content addressing, not security.
	"encoding/hex"
)

// HashValue returns the lowercase hex SHA-1 of a UTF-8 string. Every
// hash starts from a fresh state, so concurrent polls never share hasher
// internals.
func HashValue(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
