package vaultstore

import "github.com/decentpaste/decentpaste/internal/model"

// Data is everything the vault protects: clipboard history, paired-peer
// shared secrets, this device's identity, and the overlay keypair bootstrap
// material. It is serialized to JSON and encrypted as a single blob.
type Data struct {
	ClipboardHistory []model.ClipboardEntry `json:"clipboard_history"`
	PairedPeers      []model.PairedPeer     `json:"paired_peers"`
	DeviceIdentity   *model.DeviceIdentity  `json:"device_identity,omitempty"`
	OverlayKeypair   []byte                 `json:"overlay_keypair,omitempty"`
}
