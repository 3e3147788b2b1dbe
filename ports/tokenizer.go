package ports

import (
	"time"

	"github.com/cardpass/gatekeeper/core"
)

// Tokenizer mints and verifies access tokens and generates the opaque
// secrets used as refresh credentials.
type Tokenizer interface {
	// MintAccess builds and signs a short-lived access token for the wallet.
	MintAccess(wallet, nonce, purpose, domain string) (token string, expiresAt time.Time, err error)

	// VerifyAccess validates signature, expiry, issuer and (when configured)
	// audience, and returns the decoded claim set.
	VerifyAccess(token string) (*core.Principal, error)

	// NewRefreshSecret generates a high-entropy opaque refresh secret.
	// The plaintext is handed to the caller once and never stored.
	NewRefreshSecret() (string, error)
}
