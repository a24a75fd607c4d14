package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateShareToken returns a fresh share token for a session. The token
// is the only authorization factor on the public tracker, so it carries
// 128 bits from crypto/rand and is never derived from time or user IDs.
func GenerateShareToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails if the OS entropy source is broken
		panic("failed to read random bytes for share token: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
