package core

import "time"

// Challenge represents an open invitation to prove wallet ownership.
// It is owned exclusively by the challenge store; consumers receive copies.
type Challenge struct {
	Wallet    string    // Base58-encoded Ed25519 public key of the subject
	Nonce     string    // single-use random token keying the record
	IssuedAt  time.Time // when the challenge was created
	ExpiresAt time.Time // when the challenge stops being redeemable
	Purpose   string    // free-form purpose string, e.g. "Login"
	Domain    string    // domain the signed message is bound to
	Message   string    // canonical rendered message, immutable once created
	Used      bool      // set exactly once, when the nonce is consumed
}

// Principal is the decoded claim set of a verified access token.
type Principal struct {
	Wallet    string    // subject wallet identity
	Issuer    string    // token issuer
	IssuedAt  time.Time // when the token was minted
	ExpiresAt time.Time // when the token expires
	Nonce     string    // nonce the token was minted against
	Purpose   string    // purpose carried over from the challenge
	Domain    string    // domain carried over from the challenge
	Audience  string    // optional audience, empty when not configured
}

// RefreshToken is the server-side record of an issued refresh credential.
// Only the SHA-256 hash of the opaque secret is ever stored; records are
// never physically deleted, rotation and logout flip the revoked flag.
type RefreshToken struct {
	ID         string
	Wallet     string
	TokenHash  string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	Revoked    bool
	ReplacedBy string // ID of the token this one was rotated into, if any
}

// Valid reports whether the record may still authorize a refresh.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t != nil && !t.Revoked && t.ExpiresAt.After(now)
}
