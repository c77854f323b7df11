package appstate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/model"
)

func newTestState() *State {
	return New(nil, nil, nil, nil, nil)
}

func TestAddOrUpdatePairedPeerReplacesByID(t *testing.T) {
	s := newTestState()
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1", DeviceName: "a"})
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1", DeviceName: "b"})

	peers := s.PairedPeers()
	require.Len(t, peers, 1)
	require.Equal(t, "b", peers[0].DeviceName)
}

func TestRemovePairedPeerClearsConnectionTracking(t *testing.T) {
	s := newTestState()
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1"})
	s.MarkReady("p1")

	s.RemovePairedPeer("p1")

	require.Empty(t, s.PairedPeers())
	require.Equal(t, model.ConnectionState{}, s.ConnectionState("p1"))
}

func TestDiscoveredPeersExcludesPaired(t *testing.T) {
	s := newTestState()
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "paired"})
	s.UpsertDiscoveredPeer(model.DiscoveredPeer{PeerID: "paired"})
	s.UpsertDiscoveredPeer(model.DiscoveredPeer{PeerID: "new"})

	discovered := s.DiscoveredPeers()
	require.Len(t, discovered, 1)
	require.Equal(t, "new", discovered[0].PeerID)
}

func TestTakePendingClipboardClearsAfterRead(t *testing.T) {
	s := newTestState()
	s.SetPendingClipboard(&model.PendingClipboard{Content: "x", FromDevice: "d"})

	got := s.TakePendingClipboard()
	require.NotNil(t, got)
	require.Nil(t, s.TakePendingClipboard())
}

func TestInsertClipboardEntryDedupesAndOrders(t *testing.T) {
	s := newTestState()
	now := time.Now()
	s.InsertClipboardEntry(model.ClipboardEntry{ContentHash: "h1", Timestamp: now.Add(-time.Minute)})
	s.InsertClipboardEntry(model.ClipboardEntry{ContentHash: "h2", Timestamp: now})
	s.InsertClipboardEntry(model.ClipboardEntry{ContentHash: "h1", Timestamp: now.Add(time.Minute)})

	history := s.ClipboardHistory(0)
	require.Len(t, history, 2)
	require.Equal(t, "h1", history[0].ContentHash)
}
