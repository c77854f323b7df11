package overlay

import (
	"context"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
)

// reconnectPeers dials any known address for each paired peer not currently
// connected. It never closes an already-open connection, and seeds the
// retry table so runRetryTick can back off failed dials up to
// maxConnectionRetries times at retryDelay apart.
func (m *Manager) reconnectPeers(ctx context.Context, cmd Command) {
	for peerID, addrs := range cmd.PeerAddresses {
		info, err := m.addrInfoFor(peerID, addrs)
		if err != nil {
			continue
		}
		if m.net.host.Network().Connectedness(info.ID) == network.Connected {
			continue
		}
		m.dial(ctx, info)
	}
}

func (m *Manager) dial(ctx context.Context, info peer.AddrInfo) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.net.host.Connect(dialCtx, info); err != nil {
		m.log.Warnf("dial %s failed: %v", info.ID, err)
		m.scheduleRetry(info)
		return
	}
}

func (m *Manager) scheduleRetry(info peer.AddrInfo) {
	m.retry.mutex.Lock()
	defer m.retry.mutex.Unlock()

	st, ok := m.retry.table[info.ID]
	if !ok {
		st = &retryState{addrs: info.Addrs}
		m.retry.table[info.ID] = st
	}
	st.count++
	if st.count > maxConnectionRetries {
		delete(m.retry.table, info.ID)
		m.emit(Event{Kind: EvtPeerNotReady, PeerID: info.ID.String()})
		return
	}
	st.nextRetry = time.Now().Add(retryDelay)
}

// runRetryTick is invoked every 500ms from Run; it dials any peer whose
// backoff window has elapsed.
func (m *Manager) runRetryTick(ctx context.Context) {
	now := time.Now()
	var due []peer.AddrInfo

	m.retry.mutex.Lock()
	for pid, st := range m.retry.table {
		if now.After(st.nextRetry) {
			due = append(due, peer.AddrInfo{ID: pid, Addrs: st.addrs})
		}
	}
	m.retry.mutex.Unlock()

	for _, info := range due {
		m.dial(ctx, info)
	}
}

// refreshPeer re-emits a discovery event for a known peer id — used after
// unpair, so the application layer re-learns it as a plain discovered peer
// rather than leaving a stale paired reference.
func (m *Manager) refreshPeer(cmd Command) {
	pid, err := peer.Decode(cmd.PeerID)
	if err != nil {
		return
	}
	addrs := m.peerstore().Addrs(pid)
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		out = append(out, a.String())
	}
	m.emit(Event{Kind: EvtPeerDiscovered, PeerID: cmd.PeerID, Addresses: out, DiscoveredAt: time.Now()})
}
