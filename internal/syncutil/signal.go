package syncutil

// Signal is a resettable, single-slot notifier. A single Send wakes exactly
// one pending waiter; Broadcast wakes all of them permanently. It backs the
// overlay manager's stop signal.
type Signal struct {
	enabled AtomicBool
	C       chan struct{}
}

func NewSignal() (s Signal) {
	s.C = make(chan struct{}, 1)
	s.Enable()
	return
}

func (s *Signal) Enable() {
	s.enabled.Set(true)
}

func (s *Signal) Disable() {
	s.enabled.Set(false)
	s.Clear()
}

// Send unblocks exactly one listener, if the signal is enabled.
func (s *Signal) Send() {
	if s.enabled.Get() {
		select {
		case s.C <- struct{}{}:
		default:
		}
	}
}

// Clear drains a pending, unconsumed signal.
func (s *Signal) Clear() {
	select {
	case <-s.C:
	default:
	}
}

// Broadcast unblocks all current and future listeners forever by closing C.
func (s *Signal) Broadcast() {
	if s.enabled.Swap(false) {
		close(s.C)
	}
}

// Wait returns the channel to select/receive on.
func (s *Signal) Wait() chan struct{} {
	return s.C
}
