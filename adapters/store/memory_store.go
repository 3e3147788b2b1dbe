// Package store provides challenge store implementations.
package store

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/cardpass/gatekeeper/core"
	"github.com/cardpass/gatekeeper/ports"
)

const (
	nonceBytes       = 24
	maxIssueAttempts = 5
	defaultSweepTick = time.Minute
)

// MemoryStore is an in-memory challenge store. It owns its records and its
// expiry sweep; construct one at service start and Close it on shutdown.
type MemoryStore struct {
	mu         sync.Mutex
	challenges map[string]*core.Challenge

	sweepTick time.Duration
	done      chan struct{}
	closeOnce sync.Once
}

// NewMemoryStore creates the store and starts its background expiry sweep.
func NewMemoryStore() *MemoryStore {
	return newMemoryStore(defaultSweepTick)
}

func newMemoryStore(sweepTick time.Duration) *MemoryStore {
	s := &MemoryStore{
		challenges: make(map[string]*core.Challenge),
		sweepTick:  sweepTick,
		done:       make(chan struct{}),
	}
	go s.sweep()
	return s
}

// Issue generates a nonce, renders the message and stores the record.
// A nonce collision is retried with fresh randomness.
func (s *MemoryStore) Issue(ctx context.Context, wallet, purpose, domain string, ttl time.Duration) (*core.Challenge, error) {
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

		s.mu.Lock()
		if _, exists := s.challenges[nonce]; exists {
			s.mu.Unlock()
			continue
		}
		s.challenges[nonce] = challenge
		s.mu.Unlock()

		copied := *challenge
		return &copied, nil
	}

	return nil, fmt.Errorf("%w: could not generate a unique nonce", core.ErrStoreOperationFailed)
}

// Consume atomically validates, marks used and removes the record. The whole
// check-mark-remove sequence runs under the lock so that for any nonce at
// most one caller succeeds.
func (s *MemoryStore) Consume(ctx context.Context, nonce string) (*core.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	challenge, ok := s.challenges[nonce]
	if !ok {
		return nil, core.ErrUnknownOrExpiredNonce
	}
	// This store deletes on consume, so a replay is caught by the lookup
	// above; the Used guard only matters for stores that retain records.
	if challenge.Used {
		delete(s.challenges, nonce)
		return nil, core.ErrNonceAlreadyUsed
	}
	if time.Now().After(challenge.ExpiresAt) {
		delete(s.challenges, nonce)
		return nil, core.ErrUnknownOrExpiredNonce
	}

	challenge.Used = true
	delete(s.challenges, nonce)

	copied := *challenge
	return &copied, nil
}

// Close stops the expiry sweep.
func (s *MemoryStore) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// sweep removes expired records on a fixed interval, independent of request
// traffic. Expired keys are collected first, then removed, so the sweep never
// mutates the map while ranging over it.
func (s *MemoryStore) sweep() {
	ticker := time.NewTicker(s.sweepTick)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			var expired []string
			for nonce, challenge := range s.challenges {
				if now.After(challenge.ExpiresAt) {
					expired = append(expired, nonce)
				}
			}
			for _, nonce := range expired {
				delete(s.challenges, nonce)
			}
			s.mu.Unlock()
		}
	}
}

func generateNonce() (string, error) {
	raw := make([]byte, nonceBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ ports.ChallengeStore = (*MemoryStore)(nil)
