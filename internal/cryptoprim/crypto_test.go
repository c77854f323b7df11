package cryptoprim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashContentIsDeterministicAndTotal(t *testing.T) {
	require.Equal(t, HashContent("hello"), HashContent("hello"))
	require.NotEqual(t, HashContent("hello"), HashContent("world"))
	require.NotEmpty(t, HashContent(""))
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("hello"),
		make([]byte, 1<<20),
	}
	var key [KeySize]byte
	for i := range key {
		key[i] = byte(i)
	}
	for _, plaintext := range cases {
		blob, err := Encrypt(plaintext, key[:])
		require.NoError(t, err)
		got, err := Decrypt(blob, key[:])
		require.NoError(t, err)
		require.Equal(t, string(plaintext), string(got))
	}
}

func TestEncryptRejectsWrongKeySize(t *testing.T) {
	_, err := Encrypt([]byte("x"), make([]byte, 16))
	require.Error(t, err)
}

func TestDecryptRejectsShortBlob(t *testing.T) {
	var key [KeySize]byte
	_, err := Decrypt([]byte{1, 2, 3}, key[:])
	require.Error(t, err)
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	var key [KeySize]byte
	blob, err := Encrypt([]byte("hello"), key[:])
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xFF
	_, err = Decrypt(blob, key[:])
	require.Error(t, err)
}

func TestECDHIsSymmetric(t *testing.T) {
	privA, pubA, err := GenerateX25519Keypair()
	require.NoError(t, err)
	privB, pubB, err := GenerateX25519Keypair()
	require.NoError(t, err)

	secretA, err := DeriveSharedSecret(privA, pubB)
	require.NoError(t, err)
	secretB, err := DeriveSharedSecret(privB, pubA)
	require.NoError(t, err)
	require.Equal(t, secretA, secretB)
}

func TestDeriveKeyFromPinIsDeterministicAndSaltSensitive(t *testing.T) {
	salt1 := []byte("0123456789abcdef")
	salt2 := []byte("fedcba9876543210")

	k1 := DeriveKeyFromPin("1234", salt1)
	k2 := DeriveKeyFromPin("1234", salt1)
	require.Equal(t, k1, k2)

	k3 := DeriveKeyFromPin("9999", salt1)
	require.NotEqual(t, k1, k3)

	k4 := DeriveKeyFromPin("1234", salt2)
	require.NotEqual(t, k1, k4)
}

func TestZeroOverwritesBuffer(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Zero(b)
	for _, v := range b {
		require.Equal(t, byte(0), v)
	}
}
