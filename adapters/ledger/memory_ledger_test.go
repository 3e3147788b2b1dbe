package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardpass/gatekeeper/core"
)

const testWallet = "4Nd1mYvR7GxqudmCGPPXbUNskBAaFN4Wqjvb5gSJkgcW"

func TestMemoryLedger_RecordAndLookup(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	expiry := time.Now().Add(24 * time.Hour)

	recorded, err := l.Record(ctx, testWallet, "secret-1", expiry)
	require.NoError(t, err)
	assert.NotEmpty(t, recorded.ID)
	assert.Equal(t, testWallet, recorded.Wallet)
	assert.NotContains(t, recorded.TokenHash, "secret-1", "plaintext must never be stored")
	assert.False(t, recorded.Revoked)

	found, err := l.Lookup(ctx, "secret-1")
	require.NoError(t, err)
	assert.Equal(t, recorded.ID, found.ID)
	assert.True(t, found.Valid(time.Now()))

	_, err = l.Lookup(ctx, "secret-2")
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)
}

func TestMemoryLedger_Rotate(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()
	expiry := time.Now().Add(24 * time.Hour)

	_, err := l.Record(ctx, testWallet, "secret-a", expiry)
	require.NoError(t, err)

	rotated, err := l.Rotate(ctx, "secret-a", "secret-b", expiry)
	require.NoError(t, err)
	assert.Equal(t, testWallet, rotated.Wallet)

	// The old token is terminally revoked, even though unexpired.
	old, err := l.Lookup(ctx, "secret-a")
	require.NoError(t, err)
	assert.True(t, old.Revoked)
	assert.Equal(t, rotated.ID, old.ReplacedBy)
	assert.False(t, old.Valid(time.Now()))

	_, err = l.Rotate(ctx, "secret-a", "secret-c", expiry)
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)

	// The replacement remains valid and rotatable.
	_, err = l.Rotate(ctx, "secret-b", "secret-c", expiry)
	assert.NoError(t, err)
}

func TestMemoryLedger_RotateUnknownOrExpired(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, err := l.Rotate(ctx, "never-issued", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)

	_, err = l.Record(ctx, testWallet, "expired", time.Now().Add(-time.Minute))
	require.NoError(t, err)

	_, err = l.Rotate(ctx, "expired", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)
}

func TestMemoryLedger_RevokeIsIdempotent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	_, err := l.Record(ctx, testWallet, "secret", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, l.Revoke(ctx, "secret"))
	require.NoError(t, l.Revoke(ctx, "secret"))
	require.NoError(t, l.Revoke(ctx, "never-issued"))

	found, err := l.Lookup(ctx, "secret")
	require.NoError(t, err)
	assert.True(t, found.Revoked)
	assert.False(t, found.Valid(time.Now()))
}

func TestMemoryLedger_RevokedNeverAcceptedRegardlessOfExpiry(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	// Expiry far in the future; revocation must still win.
	_, err := l.Record(ctx, testWallet, "secret", time.Now().Add(365*24*time.Hour))
	require.NoError(t, err)
	require.NoError(t, l.Revoke(ctx, "secret"))

	_, err = l.Rotate(ctx, "secret", "new", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, core.ErrInvalidRefreshToken)
}
