// Package verifier implements signature verification for wallet challenges.
package verifier

import (
	"crypto/ed25519"
	"fmt"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

// Ed25519Verifier verifies Ed25519 signatures over challenge message bytes.
type Ed25519Verifier struct{}

// NewEd25519Verifier creates the production signature verifier.
func NewEd25519Verifier() ports.SignatureVerifier {
	return Ed25519Verifier{}
}

// Verify checks the signature over the message. A wrong-length key is a
// structural error; a wrong or wrong-length signature is an ordinary false.
func (Ed25519Verifier) Verify(publicKey, message, signature []byte) (bool, error) {
	if len(publicKey) != ed25519.PublicKeySize {
		return false, fmt.Errorf("%w: got %d bytes, want %d", core.ErrInvalidKeyLength, len(publicKey), ed25519.PublicKeySize)
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, signature), nil
}
