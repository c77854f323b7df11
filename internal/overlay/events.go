package overlay

import (
	"time"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

type EventKind string

const (
	EvtStatusChanged      EventKind = "StatusChanged"
	EvtPeerDiscovered     EventKind = "PeerDiscovered"
	EvtPeerLost           EventKind = "PeerLost"
	EvtPeerConnected      EventKind = "PeerConnected"
	EvtPeerDisconnected   EventKind = "PeerDisconnected"
	EvtPeerReady          EventKind = "PeerReady"
	EvtPeerNotReady       EventKind = "PeerNotReady"
	EvtPeerNameUpdated    EventKind = "PeerNameUpdated"
	EvtPairingRequest     EventKind = "PairingRequest"
	EvtPairingChallenge   EventKind = "PairingChallenge"
	EvtPairingConfirm     EventKind = "PairingConfirm"
	EvtClipboardSent      EventKind = "ClipboardSent"
	EvtClipboardReceived  EventKind = "ClipboardReceived"
	EvtSyncRequest        EventKind = "SyncRequest"
	EvtSyncHashList       EventKind = "SyncHashList"
	EvtSyncContentRequest EventKind = "SyncContentRequest"
	EvtSyncContentResp    EventKind = "SyncContentResponse"
	EvtNetworkError       EventKind = "NetworkError"
)

// Event is emitted by the manager on its event channel for the application
// layer's single consuming goroutine to drain and turn into state mutations
// and frontend events.
type Event struct {
	Kind EventKind

	PeerID       string
	DeviceName   string
	Addresses    []string
	DiscoveredAt time.Time

	SessionID    string
	Pin          string
	PublicKey    []byte
	SharedSecret []byte
	Success      bool
	Error        string

	Clipboard *protocol.ClipboardMessage
	Hashes    []string
	Hash      string

	PeerCount int
}
