package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the SHA-256 hex digest of a refresh token. Only the
// fingerprint is ever persisted; the raw token stays with the client, and
// equality of fingerprints stands in for equality of tokens.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
