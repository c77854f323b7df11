package identity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
)

func TestNewGeneratesDistinctIdentitiesWithValidKeys(t *testing.T) {
	a, err := New("Alice's Phone")
	require.NoError(t, err)
	b, err := New("Bob's Laptop")
	require.NoError(t, err)

	require.NotEqual(t, a.DeviceID, b.DeviceID)
	require.Len(t, a.PublicKey, 32)
	require.Len(t, a.PrivateKey, 32)
	require.Equal(t, "Alice's Phone", a.DeviceName)
}

func TestPrivateAndPublicKeyArraysRoundTripThroughECDH(t *testing.T) {
	a, err := New("A")
	require.NoError(t, err)
	b, err := New("B")
	require.NoError(t, err)

	secretFromA, err := cryptoprim.DeriveSharedSecret(PrivateKeyArray(a), PublicKeyArray(b))
	require.NoError(t, err)
	secretFromB, err := cryptoprim.DeriveSharedSecret(PrivateKeyArray(b), PublicKeyArray(a))
	require.NoError(t, err)

	require.Equal(t, secretFromA, secretFromB)
}
