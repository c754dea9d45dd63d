package helpers

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// TokenFingerprint returns a short, stable digest of a secret (bearer token)
// that is safe to put in logs and audit rows.
func TokenFingerprint(secret string) string {
	if secret == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:8])
}
