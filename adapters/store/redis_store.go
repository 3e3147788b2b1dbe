package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

// RedisStore is a Redis-backed challenge store for multi-instance
// deployments. Key TTLs replace the background sweep; GETDEL makes Consume a
// single atomic operation so the at-most-one-winner guarantee holds across
// instances.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a Redis challenge store. The client is shared with
// the caller and is not closed by the store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "gatekeeper:challenge:",
	}
}

// Issue stores the challenge under its nonce with SET NX so that a colliding
// nonce is detected and retried rather than overwritten.
func (s *RedisStore) Issue(ctx context.Context, wallet, purpose, domain string, ttl time.Duration) (*core.Challenge, error) {
	for attempt := 0; attempt < maxIssueAttempts; attempt++ {
		nonce, err := generateNonce()
		if err != nil {
			return nil, err
		}

		now := time.Now().UTC()
		challenge := &core.Challenge{
			Wallet:    wallet,
			Nonce:     nonce,
			IssuedAt:  now,
			ExpiresAt: now.Add(ttl),
			Purpose:   purpose,
			Domain:    domain,
			Message:   core.RenderMessage(domain, wallet, nonce, now, now.Add(ttl), purpose),
		}

		payload, err := json.Marshal(challenge)
		if err != nil {
			return nil, fmt.Errorf("failed to encode challenge: %w", err)
		}

		stored, err := s.client.SetNX(ctx, s.prefix+nonce, payload, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
		}
		if !stored {
			continue
		}

		return challenge, nil
	}

	return nil, fmt.Errorf("%w: could not generate a unique nonce", core.ErrStoreOperationFailed)
}

// Consume removes and returns the record in one GETDEL round trip.
func (s *RedisStore) Consume(ctx context.Context, nonce string) (*core.Challenge, error) {
	payload, err := s.client.GetDel(ctx, s.prefix+nonce).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrUnknownOrExpiredNonce
		}
		return nil, fmt.Errorf("%w: %v", core.ErrStoreOperationFailed, err)
	}

	var challenge core.Challenge
	if err := json.Unmarshal([]byte(payload), &challenge); err != nil {
		return nil, fmt.Errorf("%w: corrupt challenge record", core.ErrStoreOperationFailed)
	}

	// The key TTL normally evicts expired records; re-check in case the
	// record was read in the window before eviction.
	if time.Now().After(challenge.ExpiresAt) {
		return nil, core.ErrUnknownOrExpiredNonce
	}

	challenge.Used = true
	return &challenge, nil
}

// Close is a no-op; the Redis client belongs to the caller.
func (s *RedisStore) Close() error {
	return nil
}

var _ ports.ChallengeStore = (*RedisStore)(nil)
