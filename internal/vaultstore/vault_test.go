package vaultstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/model"
)

func TestCreateThenOpenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.Equal(t, NotSetup, v.Status())
	require.False(t, v.Exists())

	require.NoError(t, v.Create("1234"))
	require.Equal(t, Unlocked, v.Status())
	require.True(t, v.Exists())

	peers := []model.PairedPeer{{PeerID: "P1", DeviceName: "laptop", PairedAt: time.Now().UTC()}}
	require.NoError(t, v.SetPairedPeers(peers))

	require.NoError(t, v.Lock())
	require.Equal(t, Locked, v.Status())

	_, err := v.PairedPeers()
	require.Error(t, err)
	require.True(t, errs.As(err, errs.VaultLocked))

	require.NoError(t, v.Open("1234"))
	require.Equal(t, Unlocked, v.Status())

	got, err := v.PairedPeers()
	require.NoError(t, err)
	require.Equal(t, peers, got)
}

func TestOpenWrongPinFailsWithInvalidPin(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))
	require.NoError(t, v.Lock())

	err := v.Open("9999")
	require.Error(t, err)
	require.True(t, errs.As(err, errs.InvalidPin))
	require.Equal(t, Locked, v.Status())
}

func TestCreateFailsWhenVaultAlreadyExists(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))

	v2 := New(dir)
	err := v2.Create("5678")
	require.Error(t, err)
	require.True(t, errs.As(err, errs.Storage))
}

func TestDestroyIsIdempotentAndResetsStatus(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))
	require.NoError(t, v.SetPairedPeers([]model.PairedPeer{{PeerID: "P1"}}))

	require.NoError(t, v.Destroy())
	require.Equal(t, NotSetup, v.Status())
	require.False(t, v.Exists())

	require.NoError(t, v.Destroy())

	require.NoError(t, v.Create("1234"))
	got, err := v.PairedPeers()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAccessorsFailWhenLocked(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))
	require.NoError(t, v.Lock())

	_, err := v.ClipboardHistory()
	require.True(t, errs.As(err, errs.VaultLocked))

	err = v.SetClipboardHistory(nil)
	require.True(t, errs.As(err, errs.VaultLocked))

	_, err = v.DeviceIdentity()
	require.True(t, errs.As(err, errs.VaultLocked))

	_, err = v.OverlayKeypair()
	require.True(t, errs.As(err, errs.VaultLocked))
}

func TestSetDeviceIdentityPersistsAcrossLockCycle(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))

	id := &model.DeviceIdentity{DeviceID: "dev-1", DeviceName: "phone"}
	require.NoError(t, v.SetDeviceIdentity(id))
	require.NoError(t, v.Lock())
	require.NoError(t, v.Open("1234"))

	got, err := v.DeviceIdentity()
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestSetOverlayKeypairRoundTrips(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Create("1234"))

	kp := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	require.NoError(t, v.SetOverlayKeypair(kp))
	require.NoError(t, v.Lock())
	require.NoError(t, v.Open("1234"))

	got, err := v.OverlayKeypair()
	require.NoError(t, err)
	require.Equal(t, kp, got)
}

func TestLockOnNotSetupIsNoop(t *testing.T) {
	dir := t.TempDir()
	v := New(dir)
	require.NoError(t, v.Lock())
	require.Equal(t, NotSetup, v.Status())
}
