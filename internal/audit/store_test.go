package audit

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"
)

func appendN(t *testing.T, store *MemoryStore, n int, mutate func(i int, rec *Record)) {
	t.Helper()
	base := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		rec := Record{
			ID:            fmt.Sprintf("rec-%d", i),
			ResourceID:    "sheet-abc",
			Method:        "GET",
			Status:        200,
			CallerAddress: "erd1caller",
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}
		if mutate != nil {
			mutate(i, &rec)
		}
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	store := NewMemoryStore()
	appendN(t, store, 5, nil)

	recs, err := store.List(context.Background(), 3, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	if recs[0].ID != "rec-4" || recs[2].ID != "rec-2" {
		t.Errorf("order = [%s %s %s], want newest first", recs[0].ID, recs[1].ID, recs[2].ID)
	}
}

func TestMemoryStoreListOffset(t *testing.T) {
	store := NewMemoryStore()
	appendN(t, store, 5, nil)

	recs, err := store.List(context.Background(), 10, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].ID != "rec-1" {
		t.Errorf("first = %s, want rec-1", recs[0].ID)
	}

	// An offset past the end is an empty page, not an error.
	recs, err = store.List(context.Background(), 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 0 {
		t.Errorf("len = %d, want 0", len(recs))
	}
}

func TestMemoryStoreStats(t *testing.T) {
	store := NewMemoryStore()
	appendN(t, store, 10, func(i int, rec *Record) {
		if i%2 == 0 {
			rec.CacheHit = true
		}
		if i >= 8 {
			rec.Status = 502
		}
		// Two records fall in July, the rest in August.
		if i < 2 {
			rec.CreatedAt = time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)
		}
	})

	now := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	stats, err := store.Stats(context.Background(), now)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if stats.TotalCalls != 10 {
		t.Errorf("totalCalls = %d, want 10", stats.TotalCalls)
	}
	if stats.CachedCalls != 5 {
		t.Errorf("cachedCalls = %d, want 5", stats.CachedCalls)
	}
	if stats.CallsThisMonth != 8 {
		t.Errorf("callsThisMonth = %d, want 8", stats.CallsThisMonth)
	}
	if math.Abs(stats.SuccessRate-0.8) > 1e-9 {
		t.Errorf("successRate = %v, want 0.8", stats.SuccessRate)
	}
	if math.Abs(stats.CacheHitRate-0.5) > 1e-9 {
		t.Errorf("cacheHitRate = %v, want 0.5", stats.CacheHitRate)
	}
}

func TestMemoryStoreStatsEmpty(t *testing.T) {
	store := NewMemoryStore()
	stats, err := store.Stats(context.Background(), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if stats != (Stats{}) {
		t.Errorf("stats = %+v, want zero value", stats)
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 50, 0},
		{-5, -3, 50, 0},
		{1000, 10, 500, 10},
		{25, 5, 25, 5},
	}
	for _, tt := range tests {
		gotLimit, gotOffset := clampPage(tt.limit, tt.offset)
		if gotLimit != tt.wantLimit || gotOffset != tt.wantOffset {
			t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, gotLimit, gotOffset, tt.wantLimit, tt.wantOffset)
		}
	}
}

func TestNewStoreDefaultsToMemory(t *testing.T) {
	store, err := NewStore(StoreConfig{})
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("store = %T, want *MemoryStore", store)
	}
}
