package ports

import (
	"context"
	"time"

	"github.com/cardpass/gatekeeper/core"
)

// RefreshLedger is the persistent record of issued refresh credentials.
// Implementations store only a one-way hash of the opaque secret.
type RefreshLedger interface {
	// Record stores a new refresh token for the wallet.
	Record(ctx context.Context, wallet, secret string, expiresAt time.Time) (*core.RefreshToken, error)

	// Lookup hashes the presented secret and returns the matching record, or
	// core.ErrInvalidRefreshToken when no record exists.
	Lookup(ctx context.Context, secret string) (*core.RefreshToken, error)

	// Rotate atomically revokes the record matching oldSecret and inserts a
	// record for newSecret. The old record must be found, unrevoked and
	// unexpired, otherwise core.ErrInvalidRefreshToken is returned and
	// nothing changes.
	Rotate(ctx context.Context, oldSecret, newSecret string, expiresAt time.Time) (*core.RefreshToken, error)

	// Revoke marks the record matching the secret as revoked. Revoking an
	// already-revoked or unknown token is a no-op.
	Revoke(ctx context.Context, secret string) error
}
