package ratelimit

import (
	"sync"
	"time"
)

// UnknownClient is the shared bucket for requests whose client identifier
// could not be determined. Unidentifiable clients share one quota rather
// than bypassing the limiter (fail closed).
const UnknownClient = "unknown"

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed    bool
	Remaining  int           // admissions left in the current window
	RetryAfter time.Duration // > 0 only when rejected
}

// Limiter is a fixed-window request limiter keyed by client identifier.
//
// Each client gets `quota` admissions per `window`; when the window elapses
// the counter resets to a fresh window rather than decaying. Bursts of up to
// 2x quota across a window boundary are possible, which is the documented
// trade-off of the fixed-window algorithm. State is process-local: a
// horizontally scaled deployment multiplies the effective quota by the
// instance count.
type Limiter struct {
	quota  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	clients map[string]*clientWindow

	stopSweep chan struct{}
	sweepDone chan struct{}
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

// NewLimiter creates a Limiter and starts its background sweep of stale
// client windows. Call Close to stop the sweep.
func NewLimiter(quota int, window time.Duration) *Limiter {
	l := &Limiter{
		quota:     quota,
		window:    window,
		now:       time.Now,
		clients:   make(map[string]*clientWindow),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Admit records a request for clientID and decides whether it is allowed.
// The check and increment happen atomically under the limiter's lock, so
// concurrent requests for the same client cannot both consume the last slot.
func (l *Limiter) Admit(clientID string) Decision {
	if clientID == "" {
		clientID = UnknownClient
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	win, ok := l.clients[clientID]
	if !ok || !now.Before(win.windowStart.Add(l.window)) {
		l.clients[clientID] = &clientWindow{windowStart: now, count: 1}
		return Decision{Allowed: true, Remaining: l.quota - 1}
	}

	if win.count < l.quota {
		win.count++
		return Decision{Allowed: true, Remaining: l.quota - win.count}
	}

	return Decision{
		Allowed:    false,
		RetryAfter: win.windowStart.Add(l.window).Sub(now),
	}
}

// Quota returns the configured per-window quota.
func (l *Limiter) Quota() int { return l.quota }

// Window returns the configured window duration.
func (l *Limiter) Window() time.Duration { return l.window }

// sweep periodically drops client entries whose window has long elapsed so
// the map does not grow without bound.
func (l *Limiter) sweep() {
	defer close(l.sweepDone)

	ticker := time.NewTicker(l.window)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopSweep:
			return
		case <-ticker.C:
			cutoff := l.now().Add(-2 * l.window)
			l.mu.Lock()
			for id, win := range l.clients {
				if win.windowStart.Before(cutoff) {
					delete(l.clients, id)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Close stops the background sweep.
func (l *Limiter) Close() error {
	close(l.stopSweep)
	<-l.sweepDone
	return nil
}
