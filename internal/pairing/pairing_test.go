package pairing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/model"
)

func TestGeneratePinIsSixDigits(t *testing.T) {
	for i := 0; i < 50; i++ {
		pin := GeneratePin()
		require.Len(t, pin, 6)
		for _, r := range pin {
			require.True(t, r >= '0' && r <= '9')
		}
	}
}

func TestHandleRequestIsIdempotentWhileAwaitingConfirmation(t *testing.T) {
	m := NewManager()
	s1, err := m.HandleRequest("sess-1", "peer-A", "Alice's Phone", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, model.PairingAwaitingPinConfirmation, s1.State)

	s2, err := m.HandleRequest("sess-1", "peer-A", "Alice's Phone", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, s1.Pin, s2.Pin)
}

func TestHandleRequestFailsOnTerminalSession(t *testing.T) {
	m := NewManager()
	_, err := m.HandleRequest("sess-1", "peer-A", "Alice", nil)
	require.NoError(t, err)

	_, err = m.CompleteAsInitiator("sess-1", false, "rejected")
	require.NoError(t, err)

	_, err = m.HandleRequest("sess-1", "peer-A", "Alice", nil)
	require.Error(t, err)
}

func TestFullPairingHandshakeSucceedsOnMatchingPin(t *testing.T) {
	// Each device runs its own Manager; both sides share the session id.
	initM := NewManager()
	respM := NewManager()

	initPriv, initPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)
	respPriv, respPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)

	initSession := initM.Initiate("peer-responder", []string{"/ip4/127.0.0.1/tcp/4001"})
	require.Equal(t, model.PairingInitiated, initSession.State)

	respSession, err := respM.HandleRequest(initSession.SessionID, "peer-initiator", "Initiator", initPub[:])
	require.NoError(t, err)
	pin := respSession.Pin
	require.NotEmpty(t, pin)

	_, err = initM.ObserveChallenge(initSession.SessionID, pin, "Responder", respPub[:])
	require.NoError(t, err)

	_, initiatorSecret, ok, err := initM.ConfirmAsInitiator(initSession.SessionID, pin, initPriv)
	require.NoError(t, err)
	require.True(t, ok)

	finalResp, responderSecret, err := respM.VerifyAsResponder(respSession.SessionID, initiatorSecret, respPriv)
	require.NoError(t, err)
	require.Equal(t, initiatorSecret, responderSecret)
	require.Equal(t, model.PairingCompleted, finalResp.State)

	finalInit, err := initM.CompleteAsInitiator(initSession.SessionID, true, "")
	require.NoError(t, err)
	require.Equal(t, model.PairingCompleted, finalInit.State)
}

func TestConfirmAsInitiatorReturnsOkFalseOnPinMismatch(t *testing.T) {
	m := NewManager()
	initPriv, initPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)
	_, respPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)

	initSession := m.Initiate("peer-responder", nil)
	_, err = m.HandleRequest(initSession.SessionID, "peer-initiator", "Initiator", initPub[:])
	require.NoError(t, err)
	_, err = m.ObserveChallenge(initSession.SessionID, "654321", "Responder", respPub[:])
	require.NoError(t, err)

	session, _, ok, err := m.ConfirmAsInitiator(initSession.SessionID, "111111", initPriv)
	require.NoError(t, err)
	require.False(t, ok)
	require.NotEqual(t, model.PairingFailed, session.State)
}

func TestVerifyAsResponderFailsAndNeverPersistsOnMismatch(t *testing.T) {
	m := NewManager()
	_, initPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)
	respPriv, respPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)
	mitmPriv, mitmPub, err := cryptoprim.GenerateX25519Keypair()
	require.NoError(t, err)
	_ = mitmPub

	respSession, err := m.HandleRequest("sess-mitm", "peer-initiator", "Initiator", initPub[:])
	require.NoError(t, err)

	forgedSecret, err := cryptoprim.DeriveSharedSecret(mitmPriv, respPub)
	require.NoError(t, err)

	_, _, err = m.VerifyAsResponder(respSession.SessionID, forgedSecret, respPriv)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Key verification failed")

	got := m.Get(respSession.SessionID)
	require.Equal(t, model.PairingFailed, got.State)
}

func TestCancelRemovesSessionOutright(t *testing.T) {
	m := NewManager()
	s := m.Initiate("peer-A", nil)
	require.NotNil(t, m.Get(s.SessionID))
	m.Cancel(s.SessionID)
	require.Nil(t, m.Get(s.SessionID))
}

func TestSessionExpiryBoundary(t *testing.T) {
	m := NewManager()
	notYetExpired := m.Initiate("peer-A", nil)
	notYetExpired.CreatedAt = time.Now().Add(-4*time.Minute - 59*time.Second)

	got := m.Get(notYetExpired.SessionID)
	require.NotNil(t, got)
	require.NotEqual(t, model.PairingFailed, got.State)

	expired := m.Initiate("peer-B", nil)
	expired.CreatedAt = time.Now().Add(-5*time.Minute - 1*time.Second)

	got = m.Get(expired.SessionID)
	require.NotNil(t, got)
	require.Equal(t, model.PairingFailed, got.State)
	require.Equal(t, "Timeout", got.FailureReason)
}
