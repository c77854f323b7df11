package syncutil

import (
	"sync"
	"time"
)

// Timer wraps time.Timer with a Pending flag so Start is idempotent: calling
// Start while already pending is a no-op rather than rearming the deadline.
// The overlay's 500ms retry tick is a plain time.Ticker and pairing-session
// expiry is checked against timestamps; neither uses Timer.
type Timer struct {
	mutex   sync.Mutex
	pending bool
	timer   *time.Timer
}

func NewTimer() (t Timer) {
	t.timer = time.NewTimer(time.Hour)
	t.timer.Stop()
	drain(t.timer)
	return
}

// Start arms the timer if it is not already pending. Returns true if this
// call armed it.
func (t *Timer) Start(dur time.Duration) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	started := !t.pending
	if started {
		t.pending = true
		t.timer.Reset(dur)
	}
	return started
}

func (t *Timer) Stop() {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.timer.Stop()
	drain(t.timer)
	t.pending = false
}

func (t *Timer) Pending() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.pending
}

// Wait returns the underlying fire channel. Callers must call Stop (or let
// Wait fire) to clear pending before the next Start.
func (t *Timer) Wait() <-chan time.Time {
	return t.timer.C
}

func drain(timer *time.Timer) {
	select {
	case <-timer.C:
	default:
	}
}
