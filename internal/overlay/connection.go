package overlay

import (
	"github.com/libp2p/go-libp2p/core/network"
	ma "github.com/multiformats/go-multiaddr"
)

// connNotifiee implements network.Notifiee. Connection-level events are
// distinct and less meaningful than gossip-topic readiness (see
// readTopicEventsLoop). On connect it clears retry state, emits the raw
// PeerConnected event and queues a DeviceAnnounce; on disconnect it clears
// the peer's readiness and emits PeerDisconnected followed by PeerNotReady.
type connNotifiee struct {
	m *Manager
}

func (m *Manager) connectionNotifiee() network.Notifiee {
	return &connNotifiee{m: m}
}

func (n *connNotifiee) Connected(_ network.Network, c network.Conn) {
	pid := c.RemotePeer()
	n.m.retry.mutex.Lock()
	delete(n.m.retry.table, pid)
	n.m.retry.mutex.Unlock()
	n.m.emit(Event{Kind: EvtPeerConnected, PeerID: pid.String()})
	n.m.announceOnConnect()
}

// announceOnConnect queues a DeviceAnnounce publish so a peer that just
// connected learns the local device's name without waiting for the next
// settings change. Non-blocking: the command queue is large relative to
// connection frequency, and a dropped announce here is harmless — the peer
// still gets one the next time settings are saved or another peer connects.
func (m *Manager) announceOnConnect() {
	m.net.mutex.RLock()
	name := m.net.deviceName
	m.net.mutex.RUnlock()
	select {
	case m.cmd <- Command{Kind: CmdAnnounceDeviceName, DeviceName: name}:
	default:
		m.log.Warnf("command queue full, dropping connect-time device announce")
	}
}

func (n *connNotifiee) Disconnected(_ network.Network, c network.Conn) {
	pid := c.RemotePeer()
	n.m.peers.mutex.Lock()
	delete(n.m.peers.ready, pid)
	n.m.peers.mutex.Unlock()
	n.m.emit(Event{Kind: EvtPeerDisconnected, PeerID: pid.String()})
	n.m.emit(Event{Kind: EvtPeerNotReady, PeerID: pid.String()})
}

func (n *connNotifiee) Listen(network.Network, ma.Multiaddr)      {}
func (n *connNotifiee) ListenClose(network.Network, ma.Multiaddr) {}
