// Package model defines the data types shared across the daemon: device and
// peer records, clipboard entries, pairing sessions, and connection state.
// None of these types know how to persist or transmit themselves; that is
// the job of vaultstore, protocol, and the overlay manager respectively.
package model

import "time"

// DeviceIdentity is this device's stable identity: a UUID, a user-editable
// display name, and an X25519 keypair used for ECDH during pairing. Created
// once at vault setup and persisted only inside the vault.
//
// PublicKey and PrivateKey are 32-byte X25519 values; encoding/json encodes
// []byte as base64, which is what the vault and wire formats use.
type DeviceIdentity struct {
	DeviceID   string    `json:"device_id"`
	DeviceName string    `json:"device_name"`
	PublicKey  []byte    `json:"public_key"`
	PrivateKey []byte    `json:"private_key"`
	CreatedAt  time.Time `json:"created_at"`
}
