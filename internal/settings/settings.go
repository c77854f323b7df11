// Package settings persists the plaintext, non-sensitive application
// configuration to settings.json. Unlike the vault, this file is not
// encrypted: it holds no secrets, only display and sync preferences.
package settings

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/decentpaste/decentpaste/internal/errs"
)

// defaultRelayServers lists the built-in circuit-relay-v2 bootstrap
// addresses offered when UseDefaultRelays is true.
var defaultRelayServers = []string{
	"/ip4/0.0.0.0/tcp/4001/p2p/12D3KooWGPxpmwDLnJwLJAueeG5yDAJRcXZbHekCDd5rTLbv1DTs",
}

// AppSettings holds the core display and sync settings plus the relay and
// privacy fields carried over from the original desktop app so upgrades
// don't silently lose user preferences. Load decodes the file over Default(),
// so a field missing from an older settings.json keeps its default value.
type AppSettings struct {
	DeviceName              string   `json:"device_name"`
	AutoSyncEnabled         bool     `json:"auto_sync_enabled"`
	ClipboardHistoryLimit   int      `json:"clipboard_history_limit"`
	KeepHistory             bool     `json:"keep_history"`
	ShowNotifications       bool     `json:"show_notifications"`
	ClipboardPollIntervalMs int      `json:"clipboard_poll_interval_ms"`
	AuthMethod              string   `json:"auth_method,omitempty"`
	HideClipboardContent    bool     `json:"hide_clipboard_content"`
	AutoLockMinutes         int      `json:"auto_lock_minutes"`
	InternetSyncEnabled     bool     `json:"internet_sync_enabled"`
	RelayServers            []string `json:"relay_servers"`
	UseDefaultRelays        bool     `json:"use_default_relays"`
	SyncMaxBufferSize       int      `json:"sync_max_buffer_size"`
	SyncTTLSeconds          int      `json:"sync_ttl_seconds"`
}

// Default returns the settings a fresh installation starts with. The
// device name defaults to the OS hostname, falling back to "Unknown Device".
func Default() AppSettings {
	return AppSettings{
		DeviceName:              defaultDeviceName(),
		AutoSyncEnabled:         true,
		ClipboardHistoryLimit:   50,
		KeepHistory:             true,
		ShowNotifications:       true,
		ClipboardPollIntervalMs: 500,
		HideClipboardContent:    false,
		AutoLockMinutes:         15,
		InternetSyncEnabled:     false,
		RelayServers:            append([]string(nil), defaultRelayServers...),
		UseDefaultRelays:        true,
		SyncMaxBufferSize:       8,
		SyncTTLSeconds:          300,
	}
}

func defaultDeviceName() string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return "Unknown Device"
	}
	return h
}

// Store loads and saves settings.json under a data directory.
type Store struct {
	path string
}

func NewStore(dataDir string) *Store {
	return &Store{path: filepath.Join(dataDir, "settings.json")}
}

// Load returns Default() if no settings file exists yet.
func (s *Store) Load() (AppSettings, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return AppSettings{}, errs.Wrap(errs.IO, err)
	}
	out := Default()
	if err := json.Unmarshal(data, &out); err != nil {
		return AppSettings{}, errs.Wrap(errs.Serialization, err)
	}
	return out, nil
}

func (s *Store) Save(settings AppSettings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return errs.Wrap(errs.Serialization, err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errs.Wrap(errs.IO, err)
	}
	return nil
}
