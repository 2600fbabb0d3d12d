package cache

import (
	"context"
	"strings"
	"time"

	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/metrics"
)

// FetchFunc loads the value for a key from the source of truth.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Mediator implements the read-through / write-invalidate pattern over a
// best-effort Store. Store failures degrade to direct fetches; the cache is
// an optimization, never a correctness dependency. Fetch failures propagate
// to the caller and never populate the cache.
//
// Concurrent misses for the same key may each call fetch independently;
// single-flight deduplication is an efficiency concern, not a correctness
// one, and is deliberately not implemented here.
type Mediator struct {
	store     Store
	collector *metrics.Metrics
}

// NewMediator wraps a Store.
func NewMediator(store Store, collector *metrics.Metrics) *Mediator {
	return &Mediator{store: store, collector: collector}
}

// ReadThrough returns the cached value for key when present and unexpired,
// otherwise fetches, caches with ttl, and returns the fetched value. The
// second return value reports whether the read was a cache hit.
func (m *Mediator) ReadThrough(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, bool, error) {
	log := logger.FromContext(ctx)

	value, ok, err := m.store.Get(ctx, key)
	if err != nil {
		// Degrade to direct fetch when the store is unreachable.
		m.collector.ObserveCacheError("get")
		log.Warn().Err(err).Str("key", key).Msg("cache.get_failed")
	} else if ok {
		m.collector.ObserveCacheRead(resourceOf(key), true)
		return value, true, nil
	}
	m.collector.ObserveCacheRead(resourceOf(key), false)

	value, err = fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := m.store.SetWithTTL(ctx, key, value, ttl); err != nil {
		m.collector.ObserveCacheError("set")
		log.Warn().Err(err).Str("key", key).Msg("cache.set_failed")
	}

	return value, false, nil
}

// resourceOf reports the resource type for a cache key, the segment before
// the first colon ("sheet:abc" -> "sheet").
func resourceOf(key string) string {
	if i := strings.IndexByte(key, ':'); i >= 0 {
		return key[:i]
	}
	return key
}

// Invalidate removes key so the next read is guaranteed a miss. A store
// failure is absorbed: an unreachable store cannot serve the stale entry
// either, so reads still see fresh data.
func (m *Mediator) Invalidate(ctx context.Context, key string) {
	if err := m.store.Delete(ctx, key); err != nil {
		m.collector.ObserveCacheError("delete")
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Str("key", key).Msg("cache.invalidate_failed")
	}
}
