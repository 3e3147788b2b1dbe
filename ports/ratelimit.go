package ports

import "context"

// RateLimiter throttles requests per (client identity, operation scope) pair
// over a sliding window.
type RateLimiter interface {
	// Admit records the request and returns core.ErrTooManyRequests when the
	// window is full. Safe under concurrent admission for the same key.
	Admit(ctx context.Context, identity, scope string) error
}
