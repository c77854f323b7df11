package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEchoGuardSuppressesRemoteEcho(t *testing.T) {
	g := NewEchoGuard()

	g.MarkReceived("hash-a")

	require.False(t, g.ShouldBroadcast(true, "hash-a"), "a hash just received from a peer must not be re-broadcast")
}

func TestEchoGuardSuppressesRepeatedLocalBroadcast(t *testing.T) {
	g := NewEchoGuard()

	require.True(t, g.ShouldBroadcast(true, "hash-b"))
	g.MarkBroadcast("hash-b")
	require.False(t, g.ShouldBroadcast(true, "hash-b"))
}

func TestEchoGuardIgnoresRemoteOriginatedChanges(t *testing.T) {
	g := NewEchoGuard()
	require.False(t, g.ShouldBroadcast(false, "hash-c"))
}

func TestEchoGuardExpiresReceivedEntries(t *testing.T) {
	g := NewEchoGuard()
	g.recentReceived["hash-d"] = time.Now().Add(-time.Second)

	require.True(t, g.ShouldBroadcast(true, "hash-d"), "an expired recent-received entry must not keep suppressing broadcast")
}

func TestEchoGuardHalvesOnOverflow(t *testing.T) {
	g := NewEchoGuard()
	for i := 0; i < recentReceivedCapacity+1; i++ {
		g.MarkReceived(string(rune('a' + i%26)) + time.Now().String())
	}
	require.Equal(t, recentReceivedCapacity/2+1, len(g.recentReceived))
}
