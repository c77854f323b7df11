// Package cryptoprim implements the fixed set of cryptographic primitives
// the rest of the daemon builds on: content hashing, AES-256-GCM symmetric
// encryption, X25519 key agreement, and Argon2id key derivation from a PIN.
package cryptoprim

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/curve25519"

	"github.com/decentpaste/decentpaste/internal/errs"
)

const (
	KeySize   = 32
	NonceSize = 12
	TagSize   = 16

	argon2Memory      = 64 * 1024 // KiB
	argon2Time        = 3
	argon2Parallelism = 4
)

// HashContent returns the lowercase hex SHA-256 digest of text. Total
// function: every input produces a value.
func HashContent(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Encrypt returns nonce||ciphertext||tag for plaintext under key, drawing a
// fresh random nonce from the OS CSPRNG on every call.
func Encrypt(plaintext, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errs.New(errs.Encryption, fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)))
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, err)
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, errs.Wrap(errs.Encryption, err)
	}
	sealed := gcm.Seal(nil, nonce, plaintext, nil)
	return append(nonce, sealed...), nil
}

// Decrypt reverses Encrypt. Any AEAD authentication failure or truncated
// input surfaces uniformly as an Encryption error; callers must not attempt
// to distinguish tampering from corruption from this error alone.
func Decrypt(blob, key []byte) ([]byte, error) {
	if len(key) != KeySize {
		return nil, errs.New(errs.Encryption, fmt.Sprintf("key must be %d bytes, got %d", KeySize, len(key)))
	}
	if len(blob) < NonceSize {
		return nil, errs.New(errs.Encryption, "ciphertext shorter than nonce")
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, err)
	}
	nonce, sealed := blob[:NonceSize], blob[NonceSize:]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Encryption, err)
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// GenerateX25519Keypair draws a fresh Curve25519 private scalar and derives
// its public point.
func GenerateX25519Keypair() (priv, pub [KeySize]byte, err error) {
	if _, err = rand.Read(priv[:]); err != nil {
		return priv, pub, errs.Wrap(errs.Encryption, err)
	}
	pubSlice, err := curve25519.X25519(priv[:], curve25519.Basepoint)
	if err != nil {
		return priv, pub, errs.Wrap(errs.Encryption, err)
	}
	copy(pub[:], pubSlice)
	return priv, pub, nil
}

// DeriveSharedSecret computes the X25519 ECDH shared point. It is symmetric:
// DeriveSharedSecret(privA, pubB) == DeriveSharedSecret(privB, pubA).
func DeriveSharedSecret(ourPriv, theirPub [KeySize]byte) ([KeySize]byte, error) {
	var secret [KeySize]byte
	out, err := curve25519.X25519(ourPriv[:], theirPub[:])
	if err != nil {
		return secret, errs.Wrap(errs.Encryption, err)
	}
	copy(secret[:], out)
	return secret, nil
}

// DeriveKeyFromPin runs Argon2id over a PIN and salt with the daemon's fixed
// parameters. Deterministic in (pin, salt); distinct inputs are extremely
// unlikely to collide.
func DeriveKeyFromPin(pin string, salt []byte) [KeySize]byte {
	var key [KeySize]byte
	out := argon2.IDKey([]byte(pin), salt, argon2Time, argon2Memory, argon2Parallelism, KeySize)
	copy(key[:], out)
	return key
}

// Zero overwrites a key buffer in place. Go's GC can still retain copies
// made before this call; this only bounds the lifetime of this one buffer.
func Zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
