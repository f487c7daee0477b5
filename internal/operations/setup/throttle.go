package setup

import (
	"time"

	"golang.org/x/time/rate"
)

// rowThrottler gates progress emissions per row so handlers report at most
// one update per throttle interval, always letting the final 100% update
// through. Uses a rate.Limiter per row instead of per tool ID.
type rowThrottler struct {
	interval time.Duration
	limiters map[string]*rate.Limiter
}

func newRowThrottler(interval time.Duration) *rowThrottler {
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	return &rowThrottler{
		interval: interval,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (t *rowThrottler) allow(row string, percent int) bool {
	if percent >= 100 {
		return true
	}
	limiter, ok := t.limiters[row]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(t.interval), 1)
		t.limiters[row] = limiter
	}
	return limiter.Allow()
}
