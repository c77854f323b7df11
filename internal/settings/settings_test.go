package settings

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/errs"
)

func TestLoadReturnsDefaultWhenFileMissing(t *testing.T) {
	store := NewStore(t.TempDir())
	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, Default(), got)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	store := NewStore(t.TempDir())
	v := Default()
	v.DeviceName = "Custom Name"
	v.AutoLockMinutes = 30
	v.RelayServers = []string{"/ip4/1.2.3.4/tcp/4001/p2p/abc"}

	require.NoError(t, store.Save(v))

	got, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, v, got)
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)
	require.NoError(t, os.MkdirAll(dir, 0o700))
	require.NoError(t, os.WriteFile(store.path, []byte("not json"), 0o600))

	_, err := store.Load()
	require.Error(t, err)
	require.True(t, errs.As(err, errs.Serialization))
}

func TestDefaultFillsDeviceName(t *testing.T) {
	v := Default()
	require.NotEmpty(t, v.DeviceName)
	require.True(t, v.UseDefaultRelays)
	require.Equal(t, 8, v.SyncMaxBufferSize)
	require.Equal(t, 300, v.SyncTTLSeconds)
}
