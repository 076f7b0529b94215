package clock

import (
	"sync"
	"time"
)

// Fake is a test Clock whose time only moves when Advance is called.
// Timers scheduled via AfterFunc fire synchronously, in schedule order,
// as Advance crosses their deadlines.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

// NewFake creates a Fake clock starting at the given instant.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Since(t time.Time) time.Duration {
	return Duration(t, f.Now())
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{
		at:    f.now.Add(d),
		clock: f,
		fn:    fn,
		seq:   f.seq,
	}
	f.timers = append(f.timers, t)
	return t
}

// Advance moves the clock forward, firing every timer whose deadline is
// crossed. Callbacks run on the calling goroutine with the clock set to
// the timer's deadline, so time observed inside a callback is exact.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	for {
		t := f.popDueLocked(target)
		if t == nil {
			break
		}
		f.now = t.at
		f.mu.Unlock()
		t.fn()
		f.mu.Lock()
	}
	f.now = target
	f.mu.Unlock()
}

// popDueLocked removes and returns the earliest timer due at or before
// target, ties broken by schedule order. Returns nil when none are due.
func (f *Fake) popDueLocked(target time.Time) *fakeTimer {
	best := -1
	for i, t := range f.timers {
		if t.at.After(target) {
			continue
		}
		if best == -1 ||
			t.at.Before(f.timers[best].at) ||
			(t.at.Equal(f.timers[best].at) && t.seq < f.timers[best].seq) {
			best = i
		}
	}
	if best == -1 {
		return nil
	}
	t := f.timers[best]
	f.timers = append(f.timers[:best], f.timers[best+1:]...)
	return t
}

type fakeTimer struct {
	at    time.Time
	clock *Fake
	fn    func()
	seq   int
}

func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, pending := range c.timers {
		if pending == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
