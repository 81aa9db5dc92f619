package guard

import (
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestLimiter_FirstCheckAllowed(t *testing.T) {
	l := NewLimiter(time.Minute)
	if ok, rem := l.Check(); !ok || rem != 0 {
		t.Errorf("Check() = %v, %d; want true, 0", ok, rem)
	}
	if !l.Last().IsZero() {
		t.Errorf("Check must not record a submission")
	}
}

func TestLimiter_RemainingSeconds(t *testing.T) {
	tests := []struct {
		elapsed time.Duration
		allowed bool
		want    int
	}{
		{0, false, 60},
		{1 * time.Millisecond, false, 60},
		{999 * time.Millisecond, false, 60},
		{1000 * time.Millisecond, false, 59},
		{15 * time.Second, false, 45},
		{59001 * time.Millisecond, false, 1},
		{59999 * time.Millisecond, false, 1},
		{60 * time.Second, true, 0},
		{10 * time.Minute, true, 0},
	}

	for _, tt := range tests {
		clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		l := NewLimiter(60 * time.Second)
		l.SetClock(clock.Now)
		l.Record()
		clock.Advance(tt.elapsed)

		ok, rem := l.Check()
		if ok != tt.allowed || rem != tt.want {
			t.Errorf("elapsed %v: Check() = %v, %d; want %v, %d", tt.elapsed, ok, rem, tt.allowed, tt.want)
		}
		if !ok {
			elapsedMs := tt.elapsed.Milliseconds()
			formula := int((60000 - elapsedMs + 999) / 1000)
			if rem != formula {
				t.Errorf("elapsed %v: remaining %d, formula gives %d", tt.elapsed, rem, formula)
			}
		}
	}
}

func TestLimiter_RecordMovesWindow(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	l := NewLimiter(time.Minute)
	l.SetClock(clock.Now)

	l.Record()
	clock.Advance(61 * time.Second)
	if ok, _ := l.Check(); !ok {
		t.Fatal("expected allowed after the window")
	}

	l.Record()
	clock.Advance(30 * time.Second)
	if ok, rem := l.Check(); ok || rem != 30 {
		t.Errorf("Check() = %v, %d; want false, 30", ok, rem)
	}
}

func TestCeilDiv(t *testing.T) {
	tests := []struct {
		a, b int64
		want int
	}{
		{0, 1000, 0},
		{1, 1000, 1},
		{1000, 1000, 1},
		{1001, 1000, 2},
		{-1, 1000, 0},
		{-1001, 1000, -1},
	}
	for _, tt := range tests {
		if got := ceilDiv(tt.a, tt.b); got != tt.want {
			t.Errorf("ceilDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}
