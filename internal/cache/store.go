package cache

import (
	"context"
	"time"
)

// Store is a key-value store with per-key expiry, used as the backing for
// the read-through mediator. Implementations must be safe for concurrent
// use. The store is best-effort: callers treat any error as a miss.
type Store interface {
	// Get returns the value for key and whether it was present and unexpired.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// SetWithTTL stores value under key, expiring after ttl.
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key unconditionally; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}
