package overlay

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

// SyncBufferProvider answers the pull-based resync protocol's two queries
// against the per-recipient offline buffer owned by the sync engine. The
// overlay package depends on this interface rather than importing
// syncengine directly, keeping wire I/O separate from buffer policy.
type SyncBufferProvider interface {
	HashesFor(peerID string) []string
	ContentFor(peerID, hash string) (protocol.ClipboardMessage, bool)
}

// SetSyncProvider wires the buffer provider in after construction. Until it
// is called, incoming sync streams are closed without a reply.
func (m *Manager) SetSyncProvider(p SyncBufferProvider) {
	m.net.mutex.Lock()
	m.syncProvider = p
	m.net.mutex.Unlock()
}

func (m *Manager) handleSyncStream(s network.Stream) {
	defer s.Close()
	s.SetDeadline(time.Now().Add(pairingStreamTimeout))
	remote := s.Conn().RemotePeer().String()

	msg, err := readEnvelope(s)
	if err != nil {
		m.log.Warnf("sync stream read failed from %s: %v", remote, err)
		return
	}

	m.net.mutex.RLock()
	provider := m.syncProvider
	m.net.mutex.RUnlock()
	if provider == nil {
		return
	}

	switch msg.Kind {
	case protocol.KindSyncRequest:
		hashes := provider.HashesFor(remote)
		m.emit(Event{Kind: EvtSyncRequest, PeerID: remote})
		_ = writeEnvelope(s, &protocol.Message{
			Kind:         protocol.KindSyncHashList,
			SyncHashList: &protocol.SyncHashList{Hashes: hashes},
		})
	case protocol.KindSyncContentReq:
		if msg.SyncContentReq == nil {
			return
		}
		content, ok := provider.ContentFor(remote, msg.SyncContentReq.Hash)
		if !ok {
			return
		}
		_ = writeEnvelope(s, &protocol.Message{
			Kind:            protocol.KindSyncContentResp,
			SyncContentResp: &protocol.SyncContentResp{Message: content},
		})
	}
}

// RequestSync opens a stream to peer_id, sends Sync::Request, and emits the
// HashListResponse as an event for the sync engine to diff against local
// history. Called when a peer transitions to ready, and on app resume.
func (m *Manager) RequestSync(ctx context.Context, peerID string) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return
	}
	s, err := m.net.host.NewStream(ctx, pid, syncProtocolID)
	if err != nil {
		m.log.Warnf("sync stream open failed to %s: %v", peerID, err)
		return
	}
	defer s.Close()
	if err := writeEnvelope(s, &protocol.Message{
		Kind:        protocol.KindSyncRequest,
		SyncRequest: &protocol.SyncRequest{PeerID: m.net.host.ID().String()},
	}); err != nil {
		return
	}
	reply, err := readEnvelope(s)
	if err != nil || reply.Kind != protocol.KindSyncHashList || reply.SyncHashList == nil {
		return
	}
	m.emit(Event{Kind: EvtSyncHashList, PeerID: peerID, Hashes: reply.SyncHashList.Hashes})
}

// RequestContent fetches one missing message by hash from peer_id, used
// after diffing a HashListResponse against local history.
func (m *Manager) RequestContent(ctx context.Context, peerID, hash string) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return
	}
	s, err := m.net.host.NewStream(ctx, pid, syncProtocolID)
	if err != nil {
		m.log.Warnf("content request open failed to %s: %v", peerID, err)
		return
	}
	defer s.Close()
	if err := writeEnvelope(s, &protocol.Message{
		Kind:           protocol.KindSyncContentReq,
		SyncContentReq: &protocol.SyncContentReq{Hash: hash},
	}); err != nil {
		return
	}
	reply, err := readEnvelope(s)
	if err != nil || reply.Kind != protocol.KindSyncContentResp || reply.SyncContentResp == nil {
		return
	}
	msg := reply.SyncContentResp.Message
	m.emit(Event{Kind: EvtSyncContentResp, PeerID: peerID, Hash: hash, Clipboard: &msg})
}
