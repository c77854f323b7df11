package overlay

import (
	"context"
	"time"

	pubsub "github.com/libp2p/go-libp2p-pubsub"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

// readGossipLoop drains the clipboard topic subscription and turns every
// non-self message into an Event. It never blocks the manager's command
// loop: subscription reads happen on their own goroutine, matching the
// "never hold locks across awaits on channels or swarm polling" policy.
func (m *Manager) readGossipLoop(ctx context.Context, sub *pubsub.Subscription) {
	selfID := m.net.host.ID()
	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			return // context cancelled or subscription closed
		}
		if msg.ReceivedFrom == selfID {
			continue
		}
		parsed, err := protocol.Unmarshal(msg.Data)
		if err != nil {
			m.log.Warnf("dropping malformed gossip message from %s: %v", msg.ReceivedFrom, err)
			continue
		}
		switch parsed.Kind {
		case protocol.KindClipboard:
			if parsed.Clipboard != nil && parsed.Clipboard.OriginDeviceID != m.ownDeviceID() {
				m.emit(Event{Kind: EvtClipboardReceived, Clipboard: parsed.Clipboard})
			}
		case protocol.KindDeviceAnnounce:
			if parsed.DeviceAnnounce != nil {
				m.emit(Event{
					Kind:       EvtPeerNameUpdated,
					PeerID:     parsed.DeviceAnnounce.PeerID,
					DeviceName: parsed.DeviceAnnounce.DeviceName,
				})
			}
		default:
			m.log.Warnf("unexpected gossip message kind %s", parsed.Kind)
		}
	}
}

// readTopicEventsLoop translates gossipsub topic join/leave into
// application-level readiness events: Connected means "subscribed to the
// clipboard topic", not merely "TCP connected".
func (m *Manager) readTopicEventsLoop(ctx context.Context, topic *pubsub.Topic) {
	handler, err := topic.EventHandler()
	if err != nil {
		m.log.Warnf("topic event handler unavailable: %v", err)
		return
	}
	defer handler.Cancel()
	for {
		evt, err := handler.NextPeerEvent(ctx)
		if err != nil {
			return
		}
		switch evt.Type {
		case pubsub.PeerJoin:
			m.peers.mutex.Lock()
			m.peers.ready[evt.Peer] = true
			m.peers.mutex.Unlock()
			m.emit(Event{Kind: EvtPeerReady, PeerID: evt.Peer.String()})
		case pubsub.PeerLeave:
			m.peers.mutex.Lock()
			delete(m.peers.ready, evt.Peer)
			m.peers.mutex.Unlock()
			m.emit(Event{Kind: EvtPeerNotReady, PeerID: evt.Peer.String()})
		}
	}
}

func (m *Manager) broadcastClipboard(ctx context.Context, cmd Command) {
	m.net.mutex.RLock()
	topic := m.net.topic
	m.net.mutex.RUnlock()

	peerCount := 0
	m.peers.mutex.RLock()
	peerCount = len(m.peers.ready)
	m.peers.mutex.RUnlock()

	if topic != nil && cmd.Clipboard != nil {
		env := &protocol.Message{Kind: protocol.KindClipboard, Clipboard: cmd.Clipboard}
		data, err := env.Marshal()
		if err != nil {
			m.emit(Event{Kind: EvtNetworkError, Error: err.Error()})
			return
		}
		if err := topic.Publish(ctx, data); err != nil {
			m.log.Warnf("publish failed: %v", err)
		}
	}
	// ClipboardSent fires even with zero current subscribers: the message
	// is retained in the per-recipient offline buffer by the sync engine
	// regardless, and will reach the peer on reconnect via pull resync.
	m.emit(Event{Kind: EvtClipboardSent, Hash: clipboardHash(cmd.Clipboard), PeerCount: peerCount})
}

func clipboardHash(cm *protocol.ClipboardMessage) string {
	if cm == nil {
		return ""
	}
	return cm.ContentHash
}

func (m *Manager) announceDeviceName(ctx context.Context, cmd Command) {
	m.net.mutex.Lock()
	m.net.deviceName = cmd.DeviceName
	topic := m.net.topic
	selfID := m.net.host.ID().String()
	m.net.mutex.Unlock()

	if topic == nil {
		return
	}
	env := &protocol.Message{Kind: protocol.KindDeviceAnnounce, DeviceAnnounce: &protocol.DeviceAnnounce{
		PeerID:     selfID,
		DeviceName: cmd.DeviceName,
		Timestamp:  time.Now().UTC(),
	}}
	data, err := env.Marshal()
	if err != nil {
		return
	}
	if err := topic.Publish(ctx, data); err != nil {
		m.log.Warnf("announce publish failed: %v", err)
	}
}
