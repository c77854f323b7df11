package appstate

import (
	"context"

	"github.com/decentpaste/decentpaste/internal/overlay"
)

// SetForeground implements the mobile foreground/background transition
// contract. Going to background clears ready_peers (so a subsequent resume
// re-derives connection state from scratch rather than trusting stale
// readiness) and flushes everything as a safety net; resuming issues
// ReconnectPeers and surfaces any clipboard value that arrived while
// backgrounded.
func (s *State) SetForeground(ctx context.Context, foreground bool) *AppEvent {
	s.mutex.Lock()
	wasForeground := s.isForeground
	s.isForeground = foreground
	s.mutex.Unlock()

	if foreground == wasForeground {
		return nil
	}

	if !foreground {
		s.mutex.Lock()
		s.readyPeers = make(map[string]bool)
		s.mutex.Unlock()
		s.FlushAll()
		return nil
	}

	addrs := make(map[string][]string)
	for _, p := range s.PairedPeers() {
		addrs[p.PeerID] = p.LastKnownAddresses
	}
	if s.overlayCmd != nil && len(addrs) > 0 {
		select {
		case s.overlayCmd <- overlay.Command{Kind: overlay.CmdReconnectPeers, PeerAddresses: addrs}:
		case <-ctx.Done():
		}
	}

	if pending := s.TakePendingClipboard(); pending != nil {
		return &AppEvent{Kind: "clipboard-synced-from-background", Peer: pending.FromDevice}
	}
	return nil
}
