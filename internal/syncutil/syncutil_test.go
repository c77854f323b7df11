package syncutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAtomicBoolSetGetSwap(t *testing.T) {
	var b AtomicBool
	require.False(t, b.Get())

	b.Set(true)
	require.True(t, b.Get())

	prev := b.Swap(false)
	require.True(t, prev)
	require.False(t, b.Get())
}

func TestSignalSendWakesSingleWaiter(t *testing.T) {
	s := NewSignal()
	s.Send()
	select {
	case <-s.Wait():
	default:
		t.Fatal("expected a pending signal")
	}
}

func TestSignalDisableDropsPendingSend(t *testing.T) {
	s := NewSignal()
	s.Disable()
	s.Send()
	select {
	case <-s.Wait():
		t.Fatal("disabled signal should not deliver")
	default:
	}
}

func TestSignalBroadcastWakesAllAndIsIdempotent(t *testing.T) {
	s := NewSignal()
	s.Broadcast()

	_, ok := <-s.Wait()
	require.False(t, ok)

	require.NotPanics(t, func() { s.Broadcast() })
}

func TestTimerStartIsIdempotentWhilePending(t *testing.T) {
	timer := NewTimer()
	require.True(t, timer.Start(50*time.Millisecond))
	require.False(t, timer.Start(time.Hour))
	require.True(t, timer.Pending())

	<-timer.Wait()
	timer.Stop()
	require.False(t, timer.Pending())
}
