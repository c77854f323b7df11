package overlay

import (
	"time"

	"github.com/libp2p/go-libp2p/core/peer"
)

type mdnsNotifee struct {
	m *Manager
}

func (m *Manager) discoveryNotifee() *mdnsNotifee {
	return &mdnsNotifee{m: m}
}

// HandlePeerFound implements mdns.Notifee. It does not dial: discovery only
// informs the application layer, which decides whether and when to connect
// (e.g. because the peer is already paired).
func (n *mdnsNotifee) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == n.m.net.host.ID() {
		return
	}
	n.m.peerstore().AddAddrs(info.ID, info.Addrs, time.Hour)

	addrs := make([]string, 0, len(info.Addrs))
	for _, a := range info.Addrs {
		addrs = append(addrs, a.String())
	}
	n.m.emit(Event{
		Kind:         EvtPeerDiscovered,
		PeerID:       info.ID.String(),
		Addresses:    addrs,
		DiscoveredAt: time.Now(),
	})
}
