package ports

import (
	"context"
	"time"

	"github.com/cardpass/gatekeeper/core"
)

// ChallengeStore is the time-bound, single-use nonce registry.
type ChallengeStore interface {
	// Issue generates a nonce, renders the challenge message and stores the
	// record keyed by nonce. Nonce collisions are retried internally.
	Issue(ctx context.Context, wallet, purpose, domain string, ttl time.Duration) (*core.Challenge, error)

	// Consume atomically looks up, validates and removes a challenge. For a
	// given nonce at most one caller ever succeeds; all others observe
	// core.ErrUnknownOrExpiredNonce or core.ErrNonceAlreadyUsed.
	Consume(ctx context.Context, nonce string) (*core.Challenge, error)

	// Close stops the expiry sweep and releases store resources.
	Close() error
}
