package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

// PostgresLedger is the durable refresh ledger. Revocation flips revoked_at
// rather than deleting rows, keeping the rotation chain for audit.
type PostgresLedger struct {
	db *sql.DB
}

// NewPostgresLedger wraps an open database handle.
func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Migrate creates the ledger schema if it does not exist. The unique
// constraint on token_hash backs the cross-record hash uniqueness invariant.
func (l *PostgresLedger) Migrate(ctx context.Context) error {
	_, err := l.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS auth_refresh_tokens (
			id          TEXT PRIMARY KEY,
			wallet      TEXT NOT NULL,
			token_hash  TEXT NOT NULL UNIQUE,
			expires_at  TIMESTAMPTZ NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			revoked_at  TIMESTAMPTZ,
			replaced_by TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("create auth_refresh_tokens table: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_auth_refresh_tokens_wallet
		ON auth_refresh_tokens (wallet)
	`)
	if err != nil {
		return fmt.Errorf("create wallet index: %w", err)
	}

	return nil
}

// Record inserts a new refresh token row.
func (l *PostgresLedger) Record(ctx context.Context, wallet, secret string, expiresAt time.Time) (*core.RefreshToken, error) {
	token := &core.RefreshToken{
		ID:        uuid.New().String(),
		Wallet:    wallet,
		TokenHash: hashSecret(secret),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: time.Now().UTC(),
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO auth_refresh_tokens (id, wallet, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, token.ID, token.Wallet, token.TokenHash, token.ExpiresAt, token.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert refresh token: %w", err)
	}

	return token, nil
}

// Lookup finds the row matching the secret's hash.
func (l *PostgresLedger) Lookup(ctx context.Context, secret string) (*core.RefreshToken, error) {
	token, err := scanToken(l.db.QueryRowContext(ctx, `
		SELECT id, wallet, token_hash, expires_at, created_at, revoked_at, replaced_by
		FROM auth_refresh_tokens
		WHERE token_hash = $1
	`, hashSecret(secret)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("query refresh token: %w", err)
	}

	return token, nil
}

// Rotate revokes the old row and inserts the replacement inside one
// transaction; if either step fails the old token stays valid.
func (l *PostgresLedger) Rotate(ctx context.Context, oldSecret, newSecret string, expiresAt time.Time) (*core.RefreshToken, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin rotation tx: %w", err)
	}
	defer tx.Rollback()

	old, err := scanToken(tx.QueryRowContext(ctx, `
		SELECT id, wallet, token_hash, expires_at, created_at, revoked_at, replaced_by
		FROM auth_refresh_tokens
		WHERE token_hash = $1
		FOR UPDATE
	`, hashSecret(oldSecret)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrInvalidRefreshToken
		}
		return nil, fmt.Errorf("read refresh token for rotation: %w", err)
	}

	now := time.Now().UTC()
	if !old.Valid(now) {
		return nil, core.ErrInvalidRefreshToken
	}

	replacement := &core.RefreshToken{
		ID:        uuid.New().String(),
		Wallet:    old.Wallet,
		TokenHash: hashSecret(newSecret),
		ExpiresAt: expiresAt.UTC(),
		CreatedAt: now,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO auth_refresh_tokens (id, wallet, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, replacement.ID, replacement.Wallet, replacement.TokenHash, replacement.ExpiresAt, replacement.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert rotated refresh token: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE auth_refresh_tokens
		SET revoked_at = $2, replaced_by = $3
		WHERE id = $1
	`, old.ID, now, replacement.ID)
	if err != nil {
		return nil, fmt.Errorf("revoke rotated refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit rotation tx: %w", err)
	}

	return replacement, nil
}

// Revoke marks the matching row revoked, keeping the earliest revocation
// time; unknown hashes affect zero rows.
func (l *PostgresLedger) Revoke(ctx context.Context, secret string) error {
	_, err := l.db.ExecContext(ctx, `
		UPDATE auth_refresh_tokens
		SET revoked_at = COALESCE(revoked_at, $2)
		WHERE token_hash = $1
	`, hashSecret(secret), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	return nil
}

func scanToken(row *sql.Row) (*core.RefreshToken, error) {
	var token core.RefreshToken
	var revokedAt sql.NullTime
	var replacedBy sql.NullString

	err := row.Scan(&token.ID, &token.Wallet, &token.TokenHash,
		&token.ExpiresAt, &token.CreatedAt, &revokedAt, &replacedBy)
	if err != nil {
		return nil, err
	}

	token.Revoked = revokedAt.Valid
	if replacedBy.Valid {
		token.ReplacedBy = replacedBy.String
	}

	return &token, nil
}

var _ ports.RefreshLedger = (*PostgresLedger)(nil)
