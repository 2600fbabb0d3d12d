package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/GridPay/server/internal/logger"
	"github.com/GridPay/server/internal/metrics"
)

// failingStore simulates an unreachable cache backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) SetWithTTL(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Delete(context.Context, string) error { return errors.New("store down") }
func (failingStore) Close() error                         { return nil }

func countingFetch(value []byte, err error) (FetchFunc, *int) {
	calls := 0
	return func(context.Context) ([]byte, error) {
		calls++
		if err != nil {
			return nil, err
		}
		return value, nil
	}, &calls
}

func TestReadThroughMissThenHit(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	m := NewMediator(store, nil)

	fetch, calls := countingFetch([]byte(`{"rows":[]}`), nil)
	ctx := context.Background()

	value, hit, err := m.ReadThrough(ctx, "sheet:abc", time.Hour, fetch)
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	if hit {
		t.Error("first read should be a miss")
	}
	if string(value) != `{"rows":[]}` {
		t.Errorf("value = %q", value)
	}

	value, hit, err = m.ReadThrough(ctx, "sheet:abc", time.Hour, fetch)
	if err != nil {
		t.Fatalf("second read: %v", err)
	}
	if !hit {
		t.Error("second read should be a hit")
	}
	if string(value) != `{"rows":[]}` {
		t.Errorf("cached value = %q", value)
	}
	if *calls != 1 {
		t.Errorf("fetch called %d times, want 1", *calls)
	}
}

func TestReadThroughTTLExpiry(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	m := NewMediator(store, nil)
	fetch, calls := countingFetch([]byte("v"), nil)
	ctx := context.Background()

	if _, _, err := m.ReadThrough(ctx, "k", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}

	now = now.Add(time.Hour) // exactly at expiry: entry is absent, not stale
	_, hit, err := m.ReadThrough(ctx, "k", time.Hour, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("read at expiry boundary must be a miss")
	}
	if *calls != 2 {
		t.Errorf("fetch called %d times, want 2", *calls)
	}
}

func TestReadThroughFetchErrorLeavesCacheUntouched(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	m := NewMediator(store, nil)

	fetchErr := errors.New("upstream timeout")
	fetch, _ := countingFetch(nil, fetchErr)

	_, _, err := m.ReadThrough(context.Background(), "k", time.Hour, fetch)
	if !errors.Is(err, fetchErr) {
		t.Fatalf("error = %v, want %v", err, fetchErr)
	}
	if store.Len() != 0 {
		t.Error("failed fetch must not write a poisoned cache entry")
	}
}

func TestReadThroughDegradesWhenStoreDown(t *testing.T) {
	m := NewMediator(failingStore{}, nil)
	fetch, calls := countingFetch([]byte("direct"), nil)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		value, hit, err := m.ReadThrough(ctx, "k", time.Hour, fetch)
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if hit {
			t.Errorf("read %d: unreachable store cannot produce a hit", i)
		}
		if string(value) != "direct" {
			t.Errorf("read %d: value = %q", i, value)
		}
	}
	if *calls != 2 {
		t.Errorf("fetch called %d times, want 2 (every call degrades to fetch)", *calls)
	}
}

func TestReadThroughRecordsHitAndMiss(t *testing.T) {
	collector := metrics.New(prometheus.NewRegistry())
	store := NewMemoryStore()
	defer store.Close()
	m := NewMediator(store, collector)

	fetch, _ := countingFetch([]byte("v"), nil)
	ctx := context.Background()

	if _, _, err := m.ReadThrough(ctx, "sheet:abc", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.ReadThrough(ctx, "sheet:abc", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}

	if got := promtest.ToFloat64(collector.CacheMissesTotal.WithLabelValues("sheet")); got != 1 {
		t.Errorf("misses = %.0f, want 1", got)
	}
	if got := promtest.ToFloat64(collector.CacheHitsTotal.WithLabelValues("sheet")); got != 1 {
		t.Errorf("hits = %.0f, want 1", got)
	}
}

func TestInvalidateAbsorbsStoreFailure(t *testing.T) {
	collector := metrics.New(prometheus.NewRegistry())
	m := NewMediator(failingStore{}, collector)

	ctx := logger.WithContext(context.Background(), zerolog.New(io.Discard))
	m.Invalidate(ctx, "k") // must log and return, not panic or error
}

func TestInvalidateGuaranteesMiss(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	m := NewMediator(store, nil)

	fetch, calls := countingFetch([]byte("v1"), nil)
	ctx := context.Background()

	if _, _, err := m.ReadThrough(ctx, "k", time.Hour, fetch); err != nil {
		t.Fatal(err)
	}
	m.Invalidate(ctx, "k")

	_, hit, err := m.ReadThrough(ctx, "k", time.Hour, fetch)
	if err != nil {
		t.Fatal(err)
	}
	if hit {
		t.Error("read after invalidate must be a miss")
	}
	if *calls != 2 {
		t.Errorf("fetch called %d times, want 2", *calls)
	}
}
