// Package ledger records issued refresh credentials and their revocation
// state. Plaintext secrets never touch storage; every operation works on the
// SHA-256 hash of the presented secret.
package ledger

import (
	"crypto/sha256"
	"encoding/hex"
)

func hashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
