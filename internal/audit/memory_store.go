package audit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps the trail in process memory. Used for tests and
// development; the trail is lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryStore creates an empty in-memory trail.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append implements the Store interface.
func (m *MemoryStore) Append(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

// List implements the Store interface.
func (m *MemoryStore) List(_ context.Context, limit, offset int) ([]Record, error) {
	limit, offset = clampPage(limit, offset)

	m.mu.RLock()
	defer m.mu.RUnlock()

	// Records are appended in arrival order; walk backwards for newest-first.
	n := len(m.records)
	if offset >= n {
		return []Record{}, nil
	}
	out := make([]Record, 0, limit)
	for i := n - 1 - offset; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

// Stats implements the Store interface.
func (m *MemoryStore) Stats(_ context.Context, now time.Time) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var stats Stats
	var successes int64
	since := monthStart(now)
	for _, rec := range m.records {
		stats.TotalCalls++
		if rec.CacheHit {
			stats.CachedCalls++
		}
		if !rec.CreatedAt.Before(since) {
			stats.CallsThisMonth++
		}
		if succeeded(rec.Status) {
			successes++
		}
	}
	if stats.TotalCalls > 0 {
		stats.SuccessRate = float64(successes) / float64(stats.TotalCalls)
		stats.CacheHitRate = float64(stats.CachedCalls) / float64(stats.TotalCalls)
	}
	return stats, nil
}

// Close implements the Store interface.
func (m *MemoryStore) Close() error { return nil }
