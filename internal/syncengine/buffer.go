package syncengine

import (
	"sync"
	"time"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

// bufferedMessage pairs a queued message with its expiry, implementing the
// per-recipient TTL the pull-based resync protocol relies on: once
// SyncTTLSeconds has elapsed the message is dropped and is not offered to a
// peer that reconnects later.
type bufferedMessage struct {
	msg      protocol.ClipboardMessage
	expireAt time.Time
}

// OfflineBuffers holds, per paired peer, the most recent messages sent while
// that peer may not have been reachable, bounded by both count and age so a
// peer offline for a long time does not accumulate unbounded state. It
// implements overlay.SyncBufferProvider.
type OfflineBuffers struct {
	mutex    sync.Mutex
	maxSize  int
	ttl      time.Duration
	byPeer   map[string][]bufferedMessage
}

func NewOfflineBuffers(maxSize int, ttl time.Duration) *OfflineBuffers {
	return &OfflineBuffers{
		maxSize: maxSize,
		ttl:     ttl,
		byPeer:  make(map[string][]bufferedMessage),
	}
}

// Append records msg as sent to peerID, trimming the oldest entry once the
// buffer exceeds maxSize.
func (b *OfflineBuffers) Append(peerID string, msg protocol.ClipboardMessage) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	entries := b.expireLocked(peerID)
	entries = append(entries, bufferedMessage{msg: msg, expireAt: time.Now().Add(b.ttl)})
	if len(entries) > b.maxSize {
		entries = entries[len(entries)-b.maxSize:]
	}
	b.byPeer[peerID] = entries
}

// HashesFor returns the content hashes currently buffered for peerID, oldest
// first, answering the HashListResponse half of the resync protocol.
func (b *OfflineBuffers) HashesFor(peerID string) []string {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	entries := b.expireLocked(peerID)
	hashes := make([]string, len(entries))
	for i, e := range entries {
		hashes[i] = e.msg.ContentHash
	}
	return hashes
}

// ContentFor returns the buffered message matching hash for peerID, if any
// is both present and unexpired. Per the resync protocol's failure
// semantics, a miss here is silent — the requester simply does not receive
// that one message, and any other in-flight requests are unaffected.
func (b *OfflineBuffers) ContentFor(peerID, hash string) (protocol.ClipboardMessage, bool) {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	for _, e := range b.expireLocked(peerID) {
		if e.msg.ContentHash == hash {
			return e.msg, true
		}
	}
	return protocol.ClipboardMessage{}, false
}

// expireLocked drops expired entries for peerID and stores the filtered
// slice back, returning it for the caller's convenience.
func (b *OfflineBuffers) expireLocked(peerID string) []bufferedMessage {
	existing := b.byPeer[peerID]
	if len(existing) == 0 {
		return existing
	}
	now := time.Now()
	fresh := existing[:0:0]
	for _, e := range existing {
		if now.Before(e.expireAt) {
			fresh = append(fresh, e)
		}
	}
	b.byPeer[peerID] = fresh
	return fresh
}
