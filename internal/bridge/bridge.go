// Package bridge exposes the command surface and event stream the frontend
// talks to: one method per command in the external interface, all errors
// returned as *errs.Error so the host process can serialize {code, message}
// without inspecting Go error internals.
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/decentpaste/decentpaste/internal/appstate"
	"github.com/decentpaste/decentpaste/internal/corelog"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/identity"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/pairing"
	"github.com/decentpaste/decentpaste/internal/settings"
	"github.com/decentpaste/decentpaste/internal/vaultstore"
)

const refreshConnectionsTimeout = 5 * time.Second

// Bridge wires together the overlay manager, shared state, pairing state
// machine, vault, and settings store behind the command/event contract the
// frontend depends on. It owns no goroutine of its own beyond the one
// started by Run, which forwards appstate's AppEvent stream onto Events.
type Bridge struct {
	log *corelog.Logger

	state    *appstate.State
	overlay  *overlay.Manager
	pairing  *pairing.Manager
	vault    *vaultstore.Vault
	settings *settings.Store
	dataDir  string

	events chan appstate.AppEvent

	secretsMutex sync.Mutex
	// pendingInitiatorSecrets holds each initiator's own ECDH value between
	// ConfirmPairing (which computes it) and the responder's final ack
	// (which is what actually persists the PairedPeer); pairing.Manager's
	// PairingSession record intentionally never carries key material.
	pendingInitiatorSecrets map[string][32]byte
}

func New(state *appstate.State, ov *overlay.Manager, pm *pairing.Manager, vault *vaultstore.Vault, store *settings.Store, dataDir string) *Bridge {
	b := &Bridge{
		log:                     corelog.New("bridge"),
		state:                   state,
		overlay:                 ov,
		pairing:                 pm,
		vault:                   vault,
		settings:                store,
		dataDir:                 dataDir,
		events:                  make(chan appstate.AppEvent, 256),
		pendingInitiatorSecrets: make(map[string][32]byte),
	}
	state.WirePairingHandler(pm.HandleRequest)
	state.WirePairingChallengeHandler(b.onPairingChallenge)
	state.WirePairingConfirmHandler(b.onPairingConfirm)
	if ov != nil {
		state.WireSyncer(ov)
	}
	return b
}

// Run starts the appstate event loop and blocks until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) {
	b.state.RunEventLoop(ctx, b.overlay.Events(), b.events)
}

// Events returns the channel of frontend-facing events.
func (b *Bridge) Events() <-chan appstate.AppEvent { return b.events }

func (b *Bridge) enqueue(cmd overlay.Command) {
	if b.overlay == nil {
		b.log.Warnf("no overlay wired, dropping %s", cmd.Kind)
		return
	}
	select {
	case b.overlay.Commands() <- cmd:
	default:
		b.log.Warnf("overlay command queue full, dropping %s", cmd.Kind)
	}
}

// --- network ---

func (b *Bridge) GetNetworkStatus() model.NetworkStatus {
	return b.state.NetworkStatus()
}

func (b *Bridge) StartNetwork() {
	b.enqueue(overlay.Command{Kind: overlay.CmdStartListening})
}

func (b *Bridge) StopNetwork() {
	b.enqueue(overlay.Command{Kind: overlay.CmdStopListening})
}

func (b *Bridge) ReconnectPeers() {
	addrs := make(map[string][]string)
	for _, p := range b.state.PairedPeers() {
		addrs[p.PeerID] = p.LastKnownAddresses
	}
	b.enqueue(overlay.Command{Kind: overlay.CmdReconnectPeers, PeerAddresses: addrs})
}

func (b *Bridge) RefreshConnections(ctx context.Context) model.ConnectionSummary {
	return b.state.EnsureConnected(ctx, refreshConnectionsTimeout)
}

func (b *Bridge) SetAppVisibility(ctx context.Context, foreground bool) *appstate.AppEvent {
	return b.state.SetForeground(ctx, foreground)
}

func (b *Bridge) ProcessPendingClipboard() *model.PendingClipboard {
	return b.state.TakePendingClipboard()
}

// --- peers ---

func (b *Bridge) GetDiscoveredPeers() []model.DiscoveredPeer {
	return b.state.DiscoveredPeers()
}

func (b *Bridge) GetPairedPeers() []model.PairedPeer {
	return b.state.PairedPeers()
}

func (b *Bridge) RemovePairedPeer(peerID string) {
	b.state.RemovePairedPeer(peerID)
	b.enqueue(overlay.Command{Kind: overlay.CmdRefreshPeer, PeerID: peerID})
}

// --- clipboard ---

func (b *Bridge) GetClipboardHistory(limit int) []model.ClipboardEntry {
	return b.state.ClipboardHistory(limit)
}

func (b *Bridge) ShareClipboardContent(ctx context.Context, content string) (model.ShareResult, error) {
	return b.state.ShareClipboardContent(ctx, content)
}

func (b *Bridge) HandleSharedContent(ctx context.Context, content string) (model.ShareResult, error) {
	if len(b.state.PairedPeers()) == 0 {
		return model.ShareResult{}, errs.New(errs.NoPeersAvailable, "no paired peers")
	}
	return b.state.ShareClipboardContent(ctx, content)
}

func (b *Bridge) ClearClipboardHistory() {
	b.state.ClearClipboardHistory()
}

// --- settings ---

func (b *Bridge) GetSettings() settings.AppSettings {
	return b.state.Settings()
}

func (b *Bridge) UpdateSettings(v settings.AppSettings) (settings.AppSettings, error) {
	prev := b.state.Settings()
	if err := b.state.SetSettings(v); err != nil {
		return prev, err
	}
	if v.DeviceName != prev.DeviceName {
		b.enqueue(overlay.Command{Kind: overlay.CmdAnnounceDeviceName, DeviceName: v.DeviceName})
	}
	return v, nil
}

func (b *Bridge) GetDeviceInfo() (deviceID string, peerID string) {
	id := b.state.DeviceIdentity()
	if id != nil {
		deviceID = id.DeviceID
	}
	if b.overlay != nil {
		peerID = b.overlay.LocalPeerID()
	}
	return deviceID, peerID
}

// --- vault ---

func (b *Bridge) GetVaultStatus() vaultstore.Status {
	return b.vault.Status()
}

func (b *Bridge) SetupVault(pin, deviceName string) (vaultstore.Status, error) {
	if err := b.vault.Create(pin); err != nil {
		return b.vault.Status(), err
	}
	b.state.SetVaultStatus(b.vault.Status())

	id, err := identity.New(deviceName)
	if err != nil {
		return b.vault.Status(), err
	}
	b.state.SetDeviceIdentity(id)
	if b.overlay != nil {
		b.overlay.SetDeviceID(id.DeviceID)
	}
	return b.vault.Status(), nil
}

func (b *Bridge) UnlockVault(pin string) (vaultstore.Status, error) {
	if err := b.vault.Open(pin); err != nil {
		return b.vault.Status(), err
	}
	b.state.SetVaultStatus(b.vault.Status())

	if id, err := b.vault.DeviceIdentity(); err == nil && id != nil {
		b.state.SetDeviceIdentity(id)
		if b.overlay != nil {
			b.overlay.SetDeviceID(id.DeviceID)
		}
	}
	if peers, err := b.vault.PairedPeers(); err == nil {
		for _, p := range peers {
			b.state.AddOrUpdatePairedPeer(p)
		}
	}
	if history, err := b.vault.ClipboardHistory(); err == nil {
		for _, e := range history {
			b.state.InsertClipboardEntry(e)
		}
	}
	return b.vault.Status(), nil
}

func (b *Bridge) LockVault() (vaultstore.Status, error) {
	b.state.FlushAll()
	if err := b.vault.Lock(); err != nil {
		return b.vault.Status(), err
	}
	b.state.SetVaultStatus(b.vault.Status())
	return b.vault.Status(), nil
}

func (b *Bridge) ResetVault() (vaultstore.Status, error) {
	if err := b.vault.Destroy(); err != nil {
		return b.vault.Status(), err
	}
	b.state.SetVaultStatus(b.vault.Status())
	return b.vault.Status(), nil
}

func (b *Bridge) FlushVault() error {
	b.state.FlushAll()
	return b.vault.Flush()
}
