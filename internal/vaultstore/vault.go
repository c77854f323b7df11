// Package vaultstore implements the encrypted, file-backed container for
// all long-lived sensitive state: device identity, paired-peer shared
// secrets, clipboard history, and the overlay keypair. The file format is
// fixed: [12-byte nonce][AES-256-GCM ciphertext of JSON(Data) with a
// 16-byte tag], with the Argon2id salt kept in a sibling file.
package vaultstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/model"
)

const vaultFileName = "vault.enc"

type Status string

const (
	NotSetup Status = "NotSetup"
	Locked   Status = "Locked"
	Unlocked Status = "Unlocked"
)

// Vault guards its key and cached data behind a single mutex: the vault is
// never shared across goroutines directly (callers go through the state
// object's lock), but operations like flush-during-lock and concurrent
// getter/setter calls from the bridge still need a local guard.
//
// Key-material lifetime: the derived key lives in a buffer that is
// explicitly zeroed on Lock and on Destroy. As in the upstream Curve25519
// key-handling code this project's idioms are modeled on, Go's GC can
// still retain earlier copies; this bounds the lifetime of this one buffer,
// not a hard guarantee.
type Vault struct {
	mutex   sync.Mutex
	dataDir string
	status  Status
	key     []byte // nil unless Unlocked
	cached  Data
}

func New(dataDir string) *Vault {
	return &Vault{dataDir: dataDir, status: NotSetup}
}

func (v *Vault) path() string {
	return filepath.Join(v.dataDir, vaultFileName)
}

// Exists reports whether a vault file has already been created on disk.
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.path())
	return err == nil
}

func (v *Vault) Status() Status {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.status
}

// Create derives a key from pin and an initial (or existing) salt, and
// writes an empty Data blob. Fails if a vault already exists.
func (v *Vault) Create(pin string) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	if v.Exists() {
		return errs.New(errs.Storage, "vault already exists")
	}
	salt, err := getOrCreateSalt(v.dataDir)
	if err != nil {
		return err
	}
	key := cryptoprim.DeriveKeyFromPin(pin, salt)
	v.key = append([]byte(nil), key[:]...)
	v.cached = Data{}
	v.status = Unlocked
	return v.flushLocked()
}

// Open derives the key from pin and the persisted salt, then decrypts the
// vault file. Any AEAD failure (wrong PIN or corruption) surfaces uniformly
// as InvalidPin; this is the sole oracle, by design, so wrong-PIN attempts
// cannot be distinguished from a damaged file.
func (v *Vault) Open(pin string) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	salt, err := getOrCreateSalt(v.dataDir)
	if err != nil {
		return err
	}
	blob, err := os.ReadFile(v.path())
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	key := cryptoprim.DeriveKeyFromPin(pin, salt)
	plaintext, err := cryptoprim.Decrypt(blob, key[:])
	if err != nil {
		return errs.New(errs.InvalidPin, "invalid PIN")
	}
	var data Data
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return errs.New(errs.InvalidPin, "invalid PIN")
	}
	v.key = append([]byte(nil), key[:]...)
	v.cached = data
	v.status = Unlocked
	return nil
}

// Lock flushes the current state and zeroes the in-memory key. Further data
// accessors fail with VaultLocked until Open succeeds again.
func (v *Vault) Lock() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.lockLocked()
}

func (v *Vault) lockLocked() error {
	if v.status != Unlocked {
		return nil
	}
	err := v.flushLocked()
	cryptoprim.Zero(v.key)
	v.key = nil
	v.cached = Data{}
	v.status = Locked
	return err
}

// Destroy deletes the vault blob and salt file. Idempotent.
func (v *Vault) Destroy() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()

	cryptoprim.Zero(v.key)
	v.key = nil
	v.cached = Data{}
	v.status = NotSetup

	if err := os.Remove(v.path()); err != nil && !os.IsNotExist(err) {
		return errs.Wrap(errs.IO, err)
	}
	return deleteSalt(v.dataDir)
}

// Flush performs the atomic replace-on-write: serialize the cached Data,
// encrypt it, write to a temp file, fsync, and rename over the vault file.
func (v *Vault) Flush() error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	return v.flushLocked()
}

func (v *Vault) flushLocked() error {
	if v.status != Unlocked {
		return errs.New(errs.VaultLocked, "vault is not open")
	}
	plaintext, err := json.Marshal(v.cached)
	if err != nil {
		return errs.Wrap(errs.Serialization, err)
	}
	ciphertext, err := cryptoprim.Encrypt(plaintext, v.key)
	if err != nil {
		return err
	}

	tmpPath := v.path() + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return errs.Wrap(errs.IO, err)
	}
	if _, err := f.Write(ciphertext); err != nil {
		f.Close()
		return errs.Wrap(errs.IO, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errs.Wrap(errs.IO, err)
	}
	if err := f.Close(); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	if err := os.Chmod(tmpPath, 0o600); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	if err := os.Rename(tmpPath, v.path()); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}

// --- typed accessors, all requiring Unlocked ---

func (v *Vault) ClipboardHistory() ([]model.ClipboardEntry, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return nil, errs.New(errs.VaultLocked, "vault is not open")
	}
	return append([]model.ClipboardEntry(nil), v.cached.ClipboardHistory...), nil
}

func (v *Vault) SetClipboardHistory(entries []model.ClipboardEntry) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return errs.New(errs.VaultLocked, "vault is not open")
	}
	v.cached.ClipboardHistory = entries
	return v.flushLocked()
}

func (v *Vault) PairedPeers() ([]model.PairedPeer, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return nil, errs.New(errs.VaultLocked, "vault is not open")
	}
	return append([]model.PairedPeer(nil), v.cached.PairedPeers...), nil
}

func (v *Vault) SetPairedPeers(peers []model.PairedPeer) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return errs.New(errs.VaultLocked, "vault is not open")
	}
	v.cached.PairedPeers = peers
	return v.flushLocked()
}

func (v *Vault) DeviceIdentity() (*model.DeviceIdentity, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return nil, errs.New(errs.VaultLocked, "vault is not open")
	}
	return v.cached.DeviceIdentity, nil
}

func (v *Vault) SetDeviceIdentity(id *model.DeviceIdentity) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return errs.New(errs.VaultLocked, "vault is not open")
	}
	v.cached.DeviceIdentity = id
	return v.flushLocked()
}

func (v *Vault) OverlayKeypair() ([]byte, error) {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return nil, errs.New(errs.VaultLocked, "vault is not open")
	}
	return append([]byte(nil), v.cached.OverlayKeypair...), nil
}

func (v *Vault) SetOverlayKeypair(kp []byte) error {
	v.mutex.Lock()
	defer v.mutex.Unlock()
	if v.status != Unlocked {
		return errs.New(errs.VaultLocked, "vault is not open")
	}
	v.cached.OverlayKeypair = kp
	return v.flushLocked()
}
