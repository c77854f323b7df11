package overlay

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("", "test-device", nil, 32)
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m
}

func TestNewManagerGeneratesIdentityWhenNoneProvided(t *testing.T) {
	m := newTestManager(t)
	require.Len(t, m.Identity(), ed25519.PrivateKeySize)
	require.NotEmpty(t, m.LocalPeerID())
}

func TestNewManagerReusesProvidedIdentity(t *testing.T) {
	_, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	m, err := NewManager("", "test-device", priv, 32)
	require.NoError(t, err)
	defer m.Stop()

	require.Equal(t, priv, m.Identity())

	m2, err := NewManager("", "test-device-2", priv, 32)
	require.NoError(t, err)
	defer m2.Stop()

	require.Equal(t, m.LocalPeerID(), m2.LocalPeerID())
}

func TestSetDeviceIDIsReadableViaOwnDeviceID(t *testing.T) {
	m := newTestManager(t)
	require.Empty(t, m.ownDeviceID())

	m.SetDeviceID("dev-123")
	require.Equal(t, "dev-123", m.ownDeviceID())
}

func TestStartListeningEmitsStatusChanged(t *testing.T) {
	m := newTestManager(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go m.Run(ctx)
	m.Commands() <- Command{Kind: CmdStartListening}

	select {
	case ev := <-m.Events():
		require.Equal(t, EvtStatusChanged, ev.Kind)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a StatusChanged event after StartListening")
	}
}

func TestEventChannelDropsWhenFull(t *testing.T) {
	m, err := NewManager("", "test-device", nil, 1)
	require.NoError(t, err)
	defer m.Stop()

	m.emit(Event{Kind: EvtPeerDiscovered})
	require.NotPanics(t, func() { m.emit(Event{Kind: EvtPeerLost}) })

	ev := <-m.events
	require.Equal(t, EvtPeerDiscovered, ev.Kind)
}
