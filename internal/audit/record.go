// Package audit keeps an append-only trail of API calls and derives the
// aggregate counters the dashboard reports.
package audit

import "time"

// Record is a single API call observation. Records are append-only;
// nothing ever updates or deletes one.
type Record struct {
	ID            string    `json:"id" bson:"_id"`
	ResourceID    string    `json:"resourceId" bson:"resource_id"`
	Method        string    `json:"method" bson:"method"`
	Status        int       `json:"status" bson:"status"`
	CacheHit      bool      `json:"cacheHit" bson:"cache_hit"`
	CallerAddress string    `json:"callerAddress" bson:"caller_address"`
	CreatedAt     time.Time `json:"createdAt" bson:"created_at"`
}

// Stats aggregates the trail into the dashboard counters. Rates are
// fractions in [0,1]; the HTTP layer formats them.
type Stats struct {
	TotalCalls     int64   `json:"totalCalls"`
	CachedCalls    int64   `json:"cachedCalls"`
	CallsThisMonth int64   `json:"callsThisMonth"`
	SuccessRate    float64 `json:"successRate"`
	CacheHitRate   float64 `json:"cacheHitRate"`
}

// monthStart returns midnight UTC on the first day of now's month.
func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// succeeded reports whether a recorded status counts toward the success
// rate. Client errors (4xx) count as failures too: a rejected call is
// still a call the caller did not get served.
func succeeded(status int) bool {
	return status >= 200 && status < 400
}
