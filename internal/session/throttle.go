package session

import (
	"time"

	"golang.org/x/time/rate"
)

// Throttle accepts at most one event per interval. Rejected events do not
// push the window forward.
type Throttle struct {
	interval time.Duration
	limiter  *rate.Limiter
}

// NewThrottle creates a throttle; a non-positive interval accepts everything
func NewThrottle(interval time.Duration) *Throttle {
	t := &Throttle{interval: interval}
	t.Reset()
	return t
}

// Allow reports whether an event at now is accepted
func (t *Throttle) Allow(now time.Time) bool {
	return t.limiter.AllowN(now, 1)
}

// Reset forgets the last accepted event
func (t *Throttle) Reset() {
	if t.interval <= 0 {
		t.limiter = rate.NewLimiter(rate.Inf, 1)
		return
	}
	t.limiter = rate.NewLimiter(rate.Every(t.interval), 1)
}
