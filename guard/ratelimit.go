// guard/ratelimit.go
package guard

import (
	"sync"
	"time"
)

// Limiter enforces a minimum delay between two accepted submissions.
//
// The zero "last" time means nothing has been sent yet, so the first check
// always passes.
type Limiter struct {
	mu     sync.Mutex
	window time.Duration
	last   time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter with the given window.
func NewLimiter(window time.Duration) *Limiter {
	return &Limiter{
		window: window,
		now:    time.Now,
	}
}

// SetClock replaces the time source. Intended for tests.
func (l *Limiter) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	l.now = now
}

// Check reports whether a submission is allowed now. When it is not, it
// also returns the remaining wait in whole seconds, rounded up.
//
// Check never records anything; see Record.
func (l *Limiter) Check() (allowed bool, remainingSeconds int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.last.IsZero() {
		return true, 0
	}

	elapsed := l.now().Sub(l.last).Milliseconds()
	windowMs := l.window.Milliseconds()
	if elapsed >= windowMs {
		return true, 0
	}
	return false, ceilDiv(windowMs-elapsed, 1000)
}

// Record marks now as the last accepted submission.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.last = l.now()
}

// Last returns the time of the last accepted submission, or the zero time.
func (l *Limiter) Last() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

// Window returns the configured window.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// ceilDiv divides a by b rounding toward positive infinity.
func ceilDiv(a, b int64) int {
	q := a / b
	if a%b != 0 && (a > 0) == (b > 0) {
		q++
	}
	return int(q)
}
