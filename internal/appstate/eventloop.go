package appstate

import (
	"context"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/vaultstore"
)

// AppEvent is the typed notification handed to the command bridge for
// translation into whatever the frontend's event system expects. Kind
// values match the frontend event names from the external interface.
type AppEvent struct {
	Kind   string
	Peer   string
	Status model.ConnectionStatus
	Entry  *model.ClipboardEntry
	Pin    string
	Err    string
}

// RunEventLoop is the single consumer of overlay events described by the
// concurrency model: because all clipboard inserts and connection-state
// transitions go through this one goroutine, clipboard_history gets a
// total order on this device without an extra lock around the insert.
func (s *State) RunEventLoop(ctx context.Context, events <-chan overlay.Event, appEvents chan<- AppEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.handleOverlayEvent(ctx, ev, appEvents)
		}
	}
}

func (s *State) handleOverlayEvent(ctx context.Context, ev overlay.Event, out chan<- AppEvent) {
	switch ev.Kind {
	case overlay.EvtPeerDiscovered:
		s.UpsertDiscoveredPeer(model.DiscoveredPeer{
			PeerID:       ev.PeerID,
			DeviceName:   ev.DeviceName,
			Addresses:    ev.Addresses,
			DiscoveredAt: ev.DiscoveredAt,
			IsPaired:     s.IsPaired(ev.PeerID),
		})
		if peer, ok := s.FindPairedPeer(ev.PeerID); ok && len(ev.Addresses) > 0 {
			peer.LastKnownAddresses = ev.Addresses
			peer.LastSeen = ev.DiscoveredAt
			s.AddOrUpdatePairedPeer(peer)
		}
		emit(out, AppEvent{Kind: "peer-discovered", Peer: ev.PeerID})

	case overlay.EvtPeerReady:
		s.MarkReady(ev.PeerID)
		s.OnPeerReady()
		emit(out, AppEvent{Kind: "peer-connected", Peer: ev.PeerID, Status: model.Connected})
		if s.vaultUnlocked() {
			s.requestSyncFrom(ctx, ev.PeerID)
		}

	case overlay.EvtPeerNotReady:
		s.MarkNotReady(ev.PeerID)
		emit(out, AppEvent{Kind: "peer-disconnected", Peer: ev.PeerID, Status: model.Disconnected})

	case overlay.EvtPeerNameUpdated:
		if peer, ok := s.FindPairedPeer(ev.PeerID); ok {
			peer.DeviceName = ev.DeviceName
			s.AddOrUpdatePairedPeer(peer)
			emit(out, AppEvent{Kind: "peer-name-updated", Peer: ev.PeerID})
		}

	case overlay.EvtClipboardReceived:
		s.applyReceivedClipboard(ev, out)

	case overlay.EvtClipboardSent:
		appEvent := AppEvent{Kind: "clipboard-sent"}
		for _, e := range s.ClipboardHistory(0) {
			if e.ContentHash == ev.Hash && e.IsLocal {
				redacted := redactEntry(e, s.Settings().HideClipboardContent)
				appEvent.Entry = &redacted
				break
			}
		}
		emit(out, appEvent)

	case overlay.EvtSyncHashList:
		s.diffSyncHashes(ctx, ev)

	case overlay.EvtSyncContentResp:
		if ev.Clipboard != nil {
			s.applyReceivedClipboard(overlay.Event{Kind: overlay.EvtClipboardReceived, Clipboard: ev.Clipboard}, out)
		}

	case overlay.EvtPairingRequest:
		if sess, err := s.beginResponderSession(ev); err == nil {
			s.PutPairingSession(sess)
			emit(out, AppEvent{Kind: "pairing-request", Peer: ev.PeerID})
		}

	case overlay.EvtPairingChallenge:
		if s.pairingChallengeHandler != nil {
			s.pairingChallengeHandler(ev, out)
		}

	case overlay.EvtPairingConfirm:
		if s.pairingConfirmHandler != nil {
			s.pairingConfirmHandler(ev, out)
		}

	case overlay.EvtNetworkError:
		emit(out, AppEvent{Kind: "network-error", Peer: ev.PeerID, Err: ev.Error})
	}
}

func emit(out chan<- AppEvent, e AppEvent) {
	select {
	case out <- e:
	default:
	}
}

func (s *State) vaultUnlocked() bool {
	return s.vault != nil && s.vault.Status() == vaultstore.Unlocked
}

// applyReceivedClipboard decrypts with the first paired peer's shared secret
// that opens the message and reproduces its content hash, inserts into
// history, marks the hash as recently received for echo suppression, and
// applies it to the pending-clipboard slot when the app is backgrounded —
// matching the receiving-side steps and the mobile background/foreground
// contract.
func (s *State) applyReceivedClipboard(ev overlay.Event, out chan<- AppEvent) {
	if ev.Clipboard == nil {
		return
	}
	msg := *ev.Clipboard
	peers := s.PairedPeers()
	if len(peers) == 0 {
		return
	}
	var plaintext []byte
	decrypted := false
	for _, peer := range peers {
		pt, err := cryptoprim.Decrypt(msg.EncryptedContent, peer.SharedSecret)
		if err == nil && cryptoprim.HashContent(string(pt)) == msg.ContentHash {
			plaintext, decrypted = pt, true
			break
		}
	}
	if !decrypted {
		emit(out, AppEvent{Kind: "network-error", Peer: msg.OriginDeviceID, Err: "undecryptable clipboard message dropped"})
		return
	}

	if s.echo != nil {
		s.echo.MarkReceived(msg.ContentHash)
	}

	entry := model.NewRemoteClipboardEntry(string(plaintext), msg.ContentHash, msg.Timestamp, msg.OriginDeviceID, msg.OriginDeviceName)
	s.InsertClipboardEntry(entry)
	hide := s.Settings().HideClipboardContent

	if !s.IsForeground() {
		// The OS clipboard itself always gets the real content on resume —
		// hide_clipboard_content governs what's shown in notifications and
		// events, not whether sync actually works.
		s.SetPendingClipboard(&model.PendingClipboard{Content: entry.Content, FromDevice: entry.OriginDeviceName})
		redacted := redactEntry(entry, hide)
		emit(out, AppEvent{Kind: "clipboard-synced-from-background", Peer: msg.OriginDeviceID, Entry: &redacted})
		return
	}
	redacted := redactEntry(entry, hide)
	emit(out, AppEvent{Kind: "clipboard-received", Peer: msg.OriginDeviceID, Entry: &redacted})
}

// redactEntry strips plaintext from an entry bound for an AppEvent payload
// when hide_clipboard_content is set, keeping only the metadata a
// notification needs (hash, origin, timestamp) — a privacy-screen mode for
// screen-sharing. The underlying history and pending-clipboard apply path
// are untouched; this only affects what gets surfaced in events.
func redactEntry(e model.ClipboardEntry, hide bool) model.ClipboardEntry {
	if !hide {
		return e
	}
	e.Content = ""
	return e
}

// diffSyncHashes compares a peer's advertised hash list against local
// history and requests content for anything missing.
func (s *State) diffSyncHashes(ctx context.Context, ev overlay.Event) {
	known := make(map[string]bool)
	for _, e := range s.ClipboardHistory(0) {
		known[e.ContentHash] = true
	}
	for _, h := range ev.Hashes {
		if !known[h] && s.overlayManagerSyncer != nil {
			s.overlayManagerSyncer.RequestContent(ctx, ev.PeerID, h)
		}
	}
}

func (s *State) requestSyncFrom(ctx context.Context, peerID string) {
	if s.overlayManagerSyncer != nil {
		s.overlayManagerSyncer.RequestSync(ctx, peerID)
	}
}

// beginResponderSession is a thin seam the pairing package's HandleRequest
// is wired through once its Manager exists; declared here to keep the event
// loop self-contained for testing via a stub.
func (s *State) beginResponderSession(ev overlay.Event) (*model.PairingSession, error) {
	if s.pairingHandler == nil {
		return nil, errNoPairingHandler
	}
	return s.pairingHandler(ev.SessionID, ev.PeerID, ev.DeviceName, ev.PublicKey)
}

var errNoPairingHandler = &pairingHandlerError{"no pairing handler wired"}

type pairingHandlerError struct{ msg string }

func (e *pairingHandlerError) Error() string { return e.msg }

// syncRequester is the subset of *overlay.Manager the event loop needs to
// drive pull-based resync after a peer becomes ready.
type syncRequester interface {
	RequestSync(ctx context.Context, peerID string)
	RequestContent(ctx context.Context, peerID, hash string)
}

// pairingHandlerFunc lets appstate trigger pairing.Manager.HandleRequest
// without importing the pairing package directly, avoiding a cycle since
// pairing has no need to know about appstate.
type pairingHandlerFunc func(sessionID, peerID, peerName string, peerPublicKey []byte) (*model.PairingSession, error)

func (s *State) WireSyncer(sync syncRequester)            { s.overlayManagerSyncer = sync }
func (s *State) WirePairingHandler(fn pairingHandlerFunc) { s.pairingHandler = fn }

// WirePairingChallengeHandler and WirePairingConfirmHandler let the command
// bridge — which owns the pairing state machine and the identity keypair —
// react to the wire-level Challenge and Confirm events the overlay manager
// emits, without appstate needing to import the pairing package itself.
func (s *State) WirePairingChallengeHandler(fn func(overlay.Event, chan<- AppEvent)) {
	s.pairingChallengeHandler = fn
}

func (s *State) WirePairingConfirmHandler(fn func(overlay.Event, chan<- AppEvent)) {
	s.pairingConfirmHandler = fn
}
