package vaultstore

import (
	"crypto/rand"
	"os"
	"path/filepath"

	"github.com/decentpaste/decentpaste/internal/errs"
)

const saltSize = 16
const saltFileName = "salt.bin"

// getOrCreateSalt loads the persistent 16-byte Argon2id salt for dataDir,
// generating and persisting one on first use. The salt is immutable for the
// life of a vault; changing the PIN changes the derived key, not the salt.
func getOrCreateSalt(dataDir string) ([]byte, error) {
	path := filepath.Join(dataDir, saltFileName)

	bytes, err := os.ReadFile(path)
	if err == nil {
		if len(bytes) != saltSize {
			return nil, errs.New(errs.Storage, "invalid salt file size")
		}
		return bytes, nil
	}
	if !os.IsNotExist(err) {
		return nil, errs.Wrap(errs.IO, err)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, errs.Wrap(errs.Encryption, err)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, errs.Wrap(errs.IO, err)
	}
	return salt, nil
}

// deleteSalt removes the salt file, if present. Called on vault reset so a
// recovered old vault cannot be re-derived from a remembered PIN.
func deleteSalt(dataDir string) error {
	path := filepath.Join(dataDir, saltFileName)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}
