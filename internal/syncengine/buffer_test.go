package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

func TestOfflineBuffersTrimsToMaxSize(t *testing.T) {
	b := NewOfflineBuffers(2, time.Minute)

	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h1"})
	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h2"})
	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h3"})

	hashes := b.HashesFor("peer-1")
	require.Len(t, hashes, 2)
	require.Equal(t, []string{"h2", "h3"}, hashes)
}

func TestOfflineBuffersExpireEntries(t *testing.T) {
	b := NewOfflineBuffers(8, time.Millisecond)
	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h1"})

	time.Sleep(5 * time.Millisecond)

	require.Empty(t, b.HashesFor("peer-1"))
	_, ok := b.ContentFor("peer-1", "h1")
	require.False(t, ok)
}

func TestOfflineBuffersContentForMissingHashIsSilent(t *testing.T) {
	b := NewOfflineBuffers(8, time.Minute)
	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h1"})

	_, ok := b.ContentFor("peer-1", "does-not-exist")
	require.False(t, ok)

	_, ok = b.ContentFor("peer-1", "h1")
	require.True(t, ok)
}

func TestOfflineBuffersPerPeerIsolation(t *testing.T) {
	b := NewOfflineBuffers(8, time.Minute)
	b.Append("peer-1", protocol.ClipboardMessage{ContentHash: "h1"})
	b.Append("peer-2", protocol.ClipboardMessage{ContentHash: "h2"})

	require.Equal(t, []string{"h1"}, b.HashesFor("peer-1"))
	require.Equal(t, []string{"h2"}, b.HashesFor("peer-2"))
}
