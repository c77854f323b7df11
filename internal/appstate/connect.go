package appstate

import (
	"context"
	"time"

	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
)

// EnsureConnected implements the barrier: dial every paired peer not
// already Connected, wait for them to become ready or for timeout, then
// return a summary. A concurrent caller arriving while a cycle is already
// running piggybacks on it rather than starting a second one.
func (s *State) EnsureConnected(ctx context.Context, timeout time.Duration) model.ConnectionSummary {
	if !s.reconnectInProgress.CompareAndSwap(false, true) {
		s.dialsComplete.waitTimeout(timeout)
		return s.connectionSummary()
	}
	defer s.reconnectInProgress.Store(false)

	toDial := s.peersNeedingDial()
	if len(toDial) == 0 {
		return s.connectionSummary()
	}

	s.mutex.Lock()
	for _, p := range toDial {
		cur := s.peerConnections[p.PeerID]
		cur.Status = model.Connecting
		s.peerConnections[p.PeerID] = cur
	}
	s.mutex.Unlock()
	s.pendingDials.Store(int64(len(toDial)))

	addrs := make(map[string][]string, len(toDial))
	for _, p := range toDial {
		addrs[p.PeerID] = p.LastKnownAddresses
	}
	if s.overlayCmd != nil {
		select {
		case s.overlayCmd <- overlay.Command{Kind: overlay.CmdReconnectPeers, PeerAddresses: addrs}:
		case <-ctx.Done():
		}
	}

	s.dialsComplete.waitTimeout(timeout)

	s.mutex.Lock()
	for _, p := range toDial {
		if s.peerConnections[p.PeerID].Status == model.Connecting {
			cur := s.peerConnections[p.PeerID]
			cur.Status = model.Disconnected
			s.peerConnections[p.PeerID] = cur
		}
	}
	s.mutex.Unlock()

	return s.connectionSummary()
}

func (s *State) peersNeedingDial() []model.PairedPeer {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	var out []model.PairedPeer
	for _, p := range s.pairedPeers {
		if s.peerConnections[p.PeerID].Status != model.Connected {
			out = append(out, p)
		}
	}
	return out
}

func (s *State) connectionSummary() model.ConnectionSummary {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	summary := model.ConnectionSummary{TotalPeers: len(s.pairedPeers)}
	for _, p := range s.pairedPeers {
		switch s.peerConnections[p.PeerID].Status {
		case model.Connected:
			summary.Connected++
		case model.Disconnected:
			summary.Failed++
		}
	}
	return summary
}

// OnPeerReady is called by the event-consuming loop for every PeerReady
// event; it decrements pending_dials and, once it reaches zero, wakes every
// ensure_connected waiter.
func (s *State) OnPeerReady() {
	if s.pendingDials.Load() <= 0 {
		return
	}
	if s.pendingDials.Add(-1) <= 0 {
		s.dialsComplete.broadcast()
	}
}
