// Package debounce provides a resettable timer that only fires the most
// recently armed callback.
package debounce

import (
	"sync"
	"time"
)

// Timer runs fn once the delay has elapsed without another Trigger.
// The zero value is not usable; use New.
type Timer struct {
	mu    sync.Mutex
	delay time.Duration
	fn    func()
	timer *time.Timer
	seq   uint64
}

// New returns a Timer that calls fn after delay of inactivity.
func New(delay time.Duration, fn func()) *Timer {
	return &Timer{delay: delay, fn: fn}
}

// Trigger arms the timer, replacing any pending fire.
func (t *Timer) Trigger() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.timer != nil {
		t.timer.Stop()
	}
	t.seq++
	seq := t.seq
	t.timer = time.AfterFunc(t.delay, func() { t.fire(seq) })
}

// Cancel drops the pending fire, if any. It reports whether one was pending.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

// Flush cancels the pending fire and runs fn synchronously instead. It
// reports whether a fire was pending.
func (t *Timer) Flush() bool {
	t.mu.Lock()
	pending := t.cancelLocked()
	t.mu.Unlock()

	if pending {
		t.fn()
	}
	return pending
}

// Pending reports whether a fire is armed.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timer != nil
}

func (t *Timer) cancelLocked() bool {
	if t.timer == nil {
		return false
	}
	t.timer.Stop()
	t.timer = nil
	// A callback that already started waiting for the lock sees a stale seq.
	t.seq++
	return true
}

func (t *Timer) fire(seq uint64) {
	t.mu.Lock()
	if seq != t.seq {
		t.mu.Unlock()
		return
	}
	t.timer = nil
	t.mu.Unlock()

	t.fn()
}
