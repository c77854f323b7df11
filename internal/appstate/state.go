// Package appstate owns the single in-memory state object shared between
// the overlay manager's event stream and the command bridge exposed to the
// frontend. Exactly one State exists per process; every field lives behind
// its mutex, and flush-on-write keeps the vault's on-disk copy of
// paired_peers, clipboard_history, and device_identity consistent with
// memory without making the caller wait on a transaction.
package appstate

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/decentpaste/decentpaste/internal/corelog"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/settings"
	"github.com/decentpaste/decentpaste/internal/syncengine"
	"github.com/decentpaste/decentpaste/internal/vaultstore"
)

// State is the process-wide object described by the concurrency core: a set
// of mutex-guarded containers, a handle to the overlay command channel, and
// the atomics backing the ensure_connected barrier. Lock order when more
// than one is needed: mutex, then vault's own internal lock (State never
// holds its own mutex across a vault call that might block on disk I/O for
// long, but correctness does not depend on that ordering since the vault
// has no back-reference into State).
type State struct {
	log *corelog.Logger

	mutex sync.RWMutex

	deviceIdentity   *model.DeviceIdentity
	settings         settings.AppSettings
	pairedPeers      []model.PairedPeer
	discoveredPeers  []model.DiscoveredPeer
	clipboardHistory []model.ClipboardEntry
	networkStatus    model.NetworkStatus
	pairingSessions  map[string]*model.PairingSession

	pendingClipboard *model.PendingClipboard

	isForeground bool

	readyPeers      map[string]bool
	peerConnections map[string]model.ConnectionState

	vaultStatus vaultstore.Status

	reconnectInProgress atomic.Bool
	pendingDials        atomic.Int64
	dialsComplete       *notifier

	overlayCmd chan<- overlay.Command
	vault      *vaultstore.Vault
	buffers    *syncengine.OfflineBuffers
	echo       *syncengine.EchoGuard

	settingsStore *settings.Store

	overlayManagerSyncer     syncRequester
	pairingHandler           pairingHandlerFunc
	pairingChallengeHandler  func(overlay.Event, chan<- AppEvent)
	pairingConfirmHandler    func(overlay.Event, chan<- AppEvent)
}

// New constructs a State ready to receive overlay events. The overlay
// command channel and vault are supplied once the overlay manager and vault
// exist, mirroring those packages' own late-binding constructors.
func New(overlayCmd chan<- overlay.Command, vault *vaultstore.Vault, store *settings.Store, buffers *syncengine.OfflineBuffers, echo *syncengine.EchoGuard) *State {
	return &State{
		log:             corelog.New("appstate"),
		settings:        settings.Default(),
		pairingSessions: make(map[string]*model.PairingSession),
		readyPeers:      make(map[string]bool),
		peerConnections: make(map[string]model.ConnectionState),
		vaultStatus:     vaultstore.NotSetup,
		overlayCmd:      overlayCmd,
		vault:           vault,
		settingsStore:   store,
		buffers:         buffers,
		echo:            echo,
		isForeground:    true,
		dialsComplete:   newNotifier(),
	}
}

func (s *State) Settings() settings.AppSettings {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.settings
}

func (s *State) SetSettings(v settings.AppSettings) error {
	s.mutex.Lock()
	s.settings = v
	s.mutex.Unlock()
	if s.settingsStore != nil {
		return s.settingsStore.Save(v)
	}
	return nil
}

func (s *State) DeviceIdentity() *model.DeviceIdentity {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.deviceIdentity
}

// SetDeviceIdentity installs the identity and flushes it, since identity is
// one of the three flush-on-write containers.
func (s *State) SetDeviceIdentity(id *model.DeviceIdentity) {
	s.mutex.Lock()
	s.deviceIdentity = id
	s.mutex.Unlock()
	s.flushDeviceIdentity(id)
}

func (s *State) flushDeviceIdentity(id *model.DeviceIdentity) {
	if s.vault == nil || s.vault.Status() != vaultstore.Unlocked || id == nil {
		return
	}
	if err := s.vault.SetDeviceIdentity(id); err != nil {
		s.log.Warnf("flush device identity failed: %v", err)
	}
}

func (s *State) PairedPeers() []model.PairedPeer {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]model.PairedPeer, len(s.pairedPeers))
	copy(out, s.pairedPeers)
	return out
}

func (s *State) FindPairedPeer(peerID string) (model.PairedPeer, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	for _, p := range s.pairedPeers {
		if p.PeerID == peerID {
			return p, true
		}
	}
	return model.PairedPeer{}, false
}

func (s *State) IsPaired(peerID string) bool {
	_, ok := s.FindPairedPeer(peerID)
	return ok
}

// AddOrUpdatePairedPeer inserts peer, replacing any existing entry with the
// same PeerID, then flushes.
func (s *State) AddOrUpdatePairedPeer(peer model.PairedPeer) {
	s.mutex.Lock()
	replaced := false
	for i, p := range s.pairedPeers {
		if p.PeerID == peer.PeerID {
			s.pairedPeers[i] = peer
			replaced = true
			break
		}
	}
	if !replaced {
		s.pairedPeers = append(s.pairedPeers, peer)
	}
	snapshot := make([]model.PairedPeer, len(s.pairedPeers))
	copy(snapshot, s.pairedPeers)
	s.mutex.Unlock()
	s.flushPairedPeers(snapshot)
}

// RemovePairedPeer deletes peerID from paired_peers and its connection
// tracking, then flushes.
func (s *State) RemovePairedPeer(peerID string) {
	s.mutex.Lock()
	filtered := s.pairedPeers[:0:0]
	for _, p := range s.pairedPeers {
		if p.PeerID != peerID {
			filtered = append(filtered, p)
		}
	}
	s.pairedPeers = filtered
	delete(s.peerConnections, peerID)
	delete(s.readyPeers, peerID)
	snapshot := make([]model.PairedPeer, len(s.pairedPeers))
	copy(snapshot, s.pairedPeers)
	s.mutex.Unlock()
	s.flushPairedPeers(snapshot)
}

func (s *State) flushPairedPeers(peers []model.PairedPeer) {
	if s.vault == nil || s.vault.Status() != vaultstore.Unlocked {
		return
	}
	if err := s.vault.SetPairedPeers(peers); err != nil {
		s.log.Warnf("flush paired peers failed: %v", err)
	}
}

func (s *State) DiscoveredPeers() []model.DiscoveredPeer {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	paired := make(map[string]bool, len(s.pairedPeers))
	for _, p := range s.pairedPeers {
		paired[p.PeerID] = true
	}
	out := make([]model.DiscoveredPeer, 0, len(s.discoveredPeers))
	for _, d := range s.discoveredPeers {
		if !paired[d.PeerID] {
			out = append(out, d)
		}
	}
	return out
}

func (s *State) UpsertDiscoveredPeer(d model.DiscoveredPeer) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for i, existing := range s.discoveredPeers {
		if existing.PeerID == d.PeerID {
			s.discoveredPeers[i] = d
			return
		}
	}
	s.discoveredPeers = append(s.discoveredPeers, d)
}

func (s *State) RemoveDiscoveredPeer(peerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	filtered := s.discoveredPeers[:0:0]
	for _, d := range s.discoveredPeers {
		if d.PeerID != peerID {
			filtered = append(filtered, d)
		}
	}
	s.discoveredPeers = filtered
}

func (s *State) ClipboardHistory(limit int) []model.ClipboardEntry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if limit <= 0 || limit > len(s.clipboardHistory) {
		limit = len(s.clipboardHistory)
	}
	out := make([]model.ClipboardEntry, limit)
	copy(out, s.clipboardHistory[:limit])
	return out
}

// InsertClipboardEntry applies the dedup-by-hash, newest-first, bounded
// insertion policy and flushes the result.
func (s *State) InsertClipboardEntry(entry model.ClipboardEntry) {
	s.mutex.Lock()
	s.clipboardHistory = syncengine.InsertHistoryEntry(s.clipboardHistory, entry, s.settings.ClipboardHistoryLimit)
	snapshot := make([]model.ClipboardEntry, len(s.clipboardHistory))
	copy(snapshot, s.clipboardHistory)
	s.mutex.Unlock()
	s.flushClipboardHistory(snapshot)
}

func (s *State) ClearClipboardHistory() {
	s.mutex.Lock()
	s.clipboardHistory = nil
	s.mutex.Unlock()
	s.flushClipboardHistory(nil)
}

func (s *State) flushClipboardHistory(history []model.ClipboardEntry) {
	if s.vault == nil || s.vault.Status() != vaultstore.Unlocked {
		return
	}
	if err := s.vault.SetClipboardHistory(history); err != nil {
		s.log.Warnf("flush clipboard history failed: %v", err)
	}
}

func (s *State) NetworkStatus() model.NetworkStatus {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.networkStatus
}

func (s *State) SetNetworkStatus(v model.NetworkStatus) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.networkStatus = v
}

func (s *State) PendingClipboard() *model.PendingClipboard {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.pendingClipboard
}

func (s *State) SetPendingClipboard(p *model.PendingClipboard) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pendingClipboard = p
}

// TakePendingClipboard returns and clears the pending value, implementing
// process_pending_clipboard's "applies & clears" contract.
func (s *State) TakePendingClipboard() *model.PendingClipboard {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	p := s.pendingClipboard
	s.pendingClipboard = nil
	return p
}

func (s *State) IsForeground() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isForeground
}

func (s *State) ConnectionState(peerID string) model.ConnectionState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.peerConnections[peerID]
}

func (s *State) SetConnectionState(peerID string, st model.ConnectionState) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.peerConnections[peerID] = st
}

func (s *State) MarkReady(peerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.readyPeers[peerID] = true
	now := time.Now()
	s.peerConnections[peerID] = model.ConnectionState{Status: model.Connected, LastConnected: &now}
}

func (s *State) MarkNotReady(peerID string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.readyPeers, peerID)
	cur := s.peerConnections[peerID]
	cur.Status = model.Disconnected
	s.peerConnections[peerID] = cur
}

func (s *State) ReadyPeerCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.readyPeers)
}

func (s *State) VaultStatus() vaultstore.Status {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.vaultStatus
}

func (s *State) SetVaultStatus(v vaultstore.Status) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.vaultStatus = v
}

// PairingSession looks up a session by id.
func (s *State) PairingSession(id string) (*model.PairingSession, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	sess, ok := s.pairingSessions[id]
	return sess, ok
}

func (s *State) PutPairingSession(sess *model.PairingSession) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.pairingSessions[sess.SessionID] = sess
}

func (s *State) RemovePairingSession(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.pairingSessions, id)
}

// FlushAll writes every flush-on-write container to the vault as a safety
// net on lock, background transition, and exit.
func (s *State) FlushAll() {
	s.mutex.RLock()
	peers := make([]model.PairedPeer, len(s.pairedPeers))
	copy(peers, s.pairedPeers)
	history := make([]model.ClipboardEntry, len(s.clipboardHistory))
	copy(history, s.clipboardHistory)
	id := s.deviceIdentity
	s.mutex.RUnlock()

	s.flushPairedPeers(peers)
	s.flushClipboardHistory(history)
	if id != nil {
		s.flushDeviceIdentity(id)
	}
}
