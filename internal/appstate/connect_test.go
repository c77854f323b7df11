package appstate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
)

func TestEnsureConnectedNoopWhenAllConnected(t *testing.T) {
	s := newTestState()
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1"})
	s.MarkReady("p1")

	summary := s.EnsureConnected(context.Background(), 100*time.Millisecond)
	require.Equal(t, model.ConnectionSummary{TotalPeers: 1, Connected: 1}, summary)
}

func TestEnsureConnectedTimesOutAndMarksFailed(t *testing.T) {
	cmdCh := make(chan overlay.Command, 4)
	s := New(cmdCh, nil, nil, nil, nil)
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1", LastKnownAddresses: []string{"/ip4/127.0.0.1/tcp/4001"}})

	start := time.Now()
	summary := s.EnsureConnected(context.Background(), 50*time.Millisecond)
	elapsed := time.Since(start)

	require.Equal(t, 1, summary.TotalPeers)
	require.Equal(t, 1, summary.Failed)
	require.Less(t, elapsed, time.Second)

	select {
	case cmd := <-cmdCh:
		require.Equal(t, overlay.CmdReconnectPeers, cmd.Kind)
	default:
		t.Fatal("expected a ReconnectPeers command to have been issued")
	}
}

func TestEnsureConnectedOnPeerReadyUnblocksWaiters(t *testing.T) {
	s := New(make(chan overlay.Command, 4), nil, nil, nil, nil)
	s.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1"})

	done := make(chan model.ConnectionSummary, 1)
	go func() {
		done <- s.EnsureConnected(context.Background(), time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	s.MarkReady("p1")
	s.OnPeerReady()

	select {
	case summary := <-done:
		require.Equal(t, 1, summary.Connected)
	case <-time.After(time.Second):
		t.Fatal("ensure_connected did not unblock on PeerReady")
	}
}
