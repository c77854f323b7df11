// Package syncutil provides small concurrency primitives shared across the
// daemon: an atomic boolean flag, a resettable one-shot signal, and a timer
// wrapper with idempotent start/stop semantics.
package syncutil

import "sync/atomic"

const (
	atomicFalse = int32(iota)
	atomicTrue
)

// AtomicBool is a boolean flag that can be read, set, and swapped without a
// mutex. Used for guard flags such as the overlay manager's "started" flag
// that must be checked and flipped from multiple goroutines without blocking.
type AtomicBool struct {
	flag int32
}

func (a *AtomicBool) Get() bool {
	return atomic.LoadInt32(&a.flag) == atomicTrue
}

// Swap stores val and returns the previous value.
func (a *AtomicBool) Swap(val bool) bool {
	flag := atomicFalse
	if val {
		flag = atomicTrue
	}
	return atomic.SwapInt32(&a.flag, flag) == atomicTrue
}

func (a *AtomicBool) Set(val bool) {
	flag := atomicFalse
	if val {
		flag = atomicTrue
	}
	atomic.StoreInt32(&a.flag, flag)
}
