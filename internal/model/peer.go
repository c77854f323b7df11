package model

import "time"

// PairedPeer is a remote device with which a shared AES key has been
// mutually derived via PIN-confirmed ECDH. Updated on every fresh discovery
// of the same peer or device-name announce; deleted by unpair.
type PairedPeer struct {
	PeerID             string    `json:"peer_id"`
	DeviceName         string    `json:"device_name"`
	SharedSecret       []byte    `json:"shared_secret"`
	PairedAt           time.Time `json:"paired_at"`
	LastSeen           time.Time `json:"last_seen"`
	LastKnownAddresses []string  `json:"last_known_addresses"`
}

// DiscoveredPeer is a remote device seen via local discovery but not (yet)
// paired. Removed once pairing completes; entries do not expire.
type DiscoveredPeer struct {
	PeerID       string    `json:"peer_id"`
	DeviceName   string    `json:"device_name,omitempty"`
	Addresses    []string  `json:"addresses"`
	DiscoveredAt time.Time `json:"discovered_at"`
	IsPaired     bool      `json:"is_paired"`
}

type ConnectionStatus string

const (
	Disconnected ConnectionStatus = "Disconnected"
	Connecting   ConnectionStatus = "Connecting"
	Connected    ConnectionStatus = "Connected"
)

// ConnectionState tracks application-level readiness for one peer.
// Connected means the peer is gossip-subscribed to the clipboard topic, not
// merely that a TCP connection is open.
type ConnectionState struct {
	Status        ConnectionStatus `json:"status"`
	LastConnected *time.Time       `json:"last_connected,omitempty"`
}
