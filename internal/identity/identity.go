// Package identity creates and manages this device's DeviceIdentity: a
// stable UUID, a user-editable display name, and a real X25519 keypair used
// for pairing ECDH. Unlike the identity bootstrap this was distilled from,
// the keypair here is always generated with an actual X25519 scalar
// multiplication, never placeholder random bytes, since every downstream
// ECDH derivation and the pairing MITM check depend on it being a real
// curve point.
package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/model"
)

// New generates a fresh DeviceIdentity with a freshly drawn X25519 keypair.
func New(deviceName string) (*model.DeviceIdentity, error) {
	priv, pub, err := cryptoprim.GenerateX25519Keypair()
	if err != nil {
		return nil, err
	}
	return &model.DeviceIdentity{
		DeviceID:   uuid.NewString(),
		DeviceName: deviceName,
		PublicKey:  append([]byte(nil), pub[:]...),
		PrivateKey: append([]byte(nil), priv[:]...),
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// PrivateKeyArray narrows the variable-length stored private key to the
// fixed 32-byte array cryptoprim's ECDH functions expect.
func PrivateKeyArray(id *model.DeviceIdentity) [32]byte {
	var out [32]byte
	copy(out[:], id.PrivateKey)
	return out
}

func PublicKeyArray(id *model.DeviceIdentity) [32]byte {
	var out [32]byte
	copy(out[:], id.PublicKey)
	return out
}
