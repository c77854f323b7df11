package bridge

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/appstate"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/pairing"
	"github.com/decentpaste/decentpaste/internal/settings"
	"github.com/decentpaste/decentpaste/internal/vaultstore"
)

func newTestBridge(t *testing.T) *Bridge {
	t.Helper()
	dir := t.TempDir()
	vault := vaultstore.New(dir)
	store := settings.NewStore(dir)
	cmdCh := make(chan overlay.Command, 16)
	state := appstate.New(cmdCh, vault, store, nil, nil)
	return New(state, nil, pairing.NewManager(), vault, store, dir)
}

func TestSetupVaultCreatesVaultAndDeviceIdentity(t *testing.T) {
	b := newTestBridge(t)

	status, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)
	require.Equal(t, vaultstore.Unlocked, status)
	require.Equal(t, vaultstore.Unlocked, b.GetVaultStatus())

	deviceID, peerID := b.GetDeviceInfo()
	require.NotEmpty(t, deviceID)
	require.Empty(t, peerID) // no overlay wired in this test
}

func TestUnlockVaultWrongPinFails(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)
	require.NoError(t, b.vault.Lock())

	_, err = b.UnlockVault("0000")
	require.Error(t, err)
	require.True(t, errs.As(err, errs.InvalidPin))
}

func TestUnlockVaultRestoresPairedPeersAndHistory(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)

	require.NoError(t, b.vault.SetPairedPeers([]model.PairedPeer{{PeerID: "p1", DeviceName: "Bob"}}))
	require.NoError(t, b.vault.SetClipboardHistory([]model.ClipboardEntry{model.NewLocalClipboardEntry("hello", "dev-1", "Alice's Phone")}))
	require.NoError(t, b.vault.Lock())

	_, err = b.UnlockVault("1234")
	require.NoError(t, err)

	peers := b.GetPairedPeers()
	require.Len(t, peers, 1)
	require.Equal(t, "p1", peers[0].PeerID)

	history := b.GetClipboardHistory(0)
	require.Len(t, history, 1)
	require.Equal(t, "hello", history[0].Content)
}

func TestLockVaultFlushesThenLocks(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)

	status, err := b.LockVault()
	require.NoError(t, err)
	require.Equal(t, vaultstore.Locked, status)
}

func TestResetVaultDestroysState(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)

	status, err := b.ResetVault()
	require.NoError(t, err)
	require.Equal(t, vaultstore.NotSetup, status)
	require.False(t, b.vault.Exists())
}

func TestHandleSharedContentFailsWithNoPairedPeers(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)

	_, err = b.HandleSharedContent(context.Background(), "hello")
	require.Error(t, err)
	require.True(t, errs.As(err, errs.NoPeersAvailable))
}

func TestHandleSharedContentSucceedsWithPairedPeer(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)
	b.state.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1", DeviceName: "Bob", SharedSecret: make([]byte, 32)})

	result, err := b.HandleSharedContent(context.Background(), "hello")
	require.NoError(t, err)
	require.True(t, result.AddedToHistory)
	require.Equal(t, 1, result.Total)
}

func TestShareClipboardContentRejectsOversizeContent(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)

	oversize := strings.Repeat("a", model.MaxClipboardContentBytes+1)
	_, err = b.ShareClipboardContent(context.Background(), oversize)
	require.Error(t, err)
	require.True(t, errs.As(err, errs.InvalidInput))
}

func TestUpdateSettingsStoresChangedDeviceName(t *testing.T) {
	b := newTestBridge(t)
	initial := b.GetSettings()

	changed := initial
	changed.DeviceName = "New Name"
	_, err := b.UpdateSettings(changed)
	require.NoError(t, err)
	require.Equal(t, "New Name", b.GetSettings().DeviceName)
}

func TestGetClipboardHistoryAndClear(t *testing.T) {
	b := newTestBridge(t)
	_, err := b.SetupVault("1234", "Alice's Phone")
	require.NoError(t, err)
	b.state.AddOrUpdatePairedPeer(model.PairedPeer{PeerID: "p1", SharedSecret: make([]byte, 32)})

	_, err = b.HandleSharedContent(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, b.GetClipboardHistory(10), 1)

	b.ClearClipboardHistory()
	require.Empty(t, b.GetClipboardHistory(10))
}
