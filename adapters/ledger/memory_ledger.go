package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

// MemoryLedger is an in-memory refresh ledger, primarily for tests and
// single-instance deployments. Revoked records are retained, matching the
// durable implementation's audit behavior.
type MemoryLedger struct {
	mu     sync.Mutex
	byHash map[string]*core.RefreshToken
}

// NewMemoryLedger creates an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{byHash: make(map[string]*core.RefreshToken)}
}

// Record stores a new refresh token record for the wallet.
func (l *MemoryLedger) Record(ctx context.Context, wallet, secret string, expiresAt time.Time) (*core.RefreshToken, error) {
	token := &core.RefreshToken{
		ID:        uuid.New().String(),
		Wallet:    wallet,
		TokenHash: hashSecret(secret),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.byHash[token.TokenHash] = token

	copied := *token
	return &copied, nil
}

// Lookup returns the record matching the secret's hash.
func (l *MemoryLedger) Lookup(ctx context.Context, secret string) (*core.RefreshToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	token, ok := l.byHash[hashSecret(secret)]
	if !ok {
		return nil, core.ErrInvalidRefreshToken
	}

	copied := *token
	return &copied, nil
}

// Rotate revokes the old record and inserts the new one under the lock, so
// no interleaving can observe the old token revoked without its replacement.
func (l *MemoryLedger) Rotate(ctx context.Context, oldSecret, newSecret string, expiresAt time.Time) (*core.RefreshToken, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	old, ok := l.byHash[hashSecret(oldSecret)]
	if !ok || !old.Valid(time.Now()) {
		return nil, core.ErrInvalidRefreshToken
	}

	replacement := &core.RefreshToken{
		ID:        uuid.New().String(),
		Wallet:    old.Wallet,
		TokenHash: hashSecret(newSecret),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	old.Revoked = true
	old.ReplacedBy = replacement.ID
	l.byHash[replacement.TokenHash] = replacement

	copied := *replacement
	return &copied, nil
}

// Revoke marks the matching record revoked; unknown or already-revoked
// tokens are a no-op.
func (l *MemoryLedger) Revoke(ctx context.Context, secret string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if token, ok := l.byHash[hashSecret(secret)]; ok {
		token.Revoked = true
	}
	return nil
}

var _ ports.RefreshLedger = (*MemoryLedger)(nil)
