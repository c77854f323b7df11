// Package pairing implements the PIN-confirmed, ECDH-based pairing state
// machine: session bookkeeping, PIN generation, and the bilateral shared-
// secret derivation and verification that detects a man-in-the-middle.
//
// This package never touches the wire. The overlay manager sends and
// receives the Request/Challenge/Confirm messages; this package only
// decides what state a session is in and what the next message's payload
// should contain.
package pairing

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/model"
)

// Manager owns the (small, ≤ a handful of concurrent attempts) set of
// in-progress pairing sessions. Sessions are looked up by scan, matching the
// rest of the daemon's policy of keyed-by-string lookup over small N rather
// than secondary indexes.
type Manager struct {
	mutex    sync.Mutex
	sessions []*model.PairingSession
}

func NewManager() *Manager {
	return &Manager{}
}

// GeneratePin draws a uniformly random 6-digit PIN in [0, 999999].
func GeneratePin() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand failure is unrecoverable; the PIN falls back to the
		// fixed value "000000", which is the PIN the session then uses.
		return "000000"
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// gcLocked drops expired sessions; terminal ones are kept until they expire. Called lazily whenever a new
// session is pushed.
func (m *Manager) gcLocked() {
	now := time.Now()
	kept := m.sessions[:0]
	for _, s := range m.sessions {
		if s.Expired(now) {
			continue
		}
		kept = append(kept, s)
	}
	m.sessions = kept
}

func (m *Manager) findLocked(sessionID string) *model.PairingSession {
	now := time.Now()
	for _, s := range m.sessions {
		if s.SessionID != sessionID {
			continue
		}
		if s.Expired(now) && s.State != model.PairingCompleted && s.State != model.PairingFailed {
			s.Fail("Timeout")
		}
		return s
	}
	return nil
}

// Initiate starts a session as the initiating side, snapshotting the
// responder's currently known addresses so reconnection after pairing does
// not depend on a still-fresh discovery cache entry.
func (m *Manager) Initiate(peerID string, peerAddresses []string) *model.PairingSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gcLocked()

	s := &model.PairingSession{
		SessionID:     uuid.NewString(),
		PeerID:        peerID,
		PeerAddresses: append([]string(nil), peerAddresses...),
		State:         model.PairingInitiated,
		IsInitiator:   true,
		CreatedAt:     time.Now(),
	}
	m.sessions = append(m.sessions, s)
	return s
}

// HandleRequest processes an incoming Pairing.Request on the responder side.
// Idempotent: a duplicate request for the same session while it is still
// awaiting PIN confirmation returns the existing PIN instead of generating a
// new one; a duplicate against a terminal session fails.
func (m *Manager) HandleRequest(sessionID, peerID, peerName string, peerPublicKey []byte) (*model.PairingSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.gcLocked()

	if existing := m.findLocked(sessionID); existing != nil {
		switch existing.State {
		case model.PairingAwaitingPinConfirmation:
			return existing, nil
		case model.PairingCompleted, model.PairingFailed:
			return nil, errs.New(errs.Pairing, "session already processed")
		}
	}

	s := &model.PairingSession{
		SessionID:     sessionID,
		PeerID:        peerID,
		PeerName:      peerName,
		PeerPublicKey: peerPublicKey,
		Pin:           GeneratePin(),
		State:         model.PairingAwaitingPinConfirmation,
		IsInitiator:   false,
		CreatedAt:     time.Now(),
	}
	m.sessions = append(m.sessions, s)
	return s, nil
}

// ObserveChallenge records the PIN and responder identity an initiator
// received in step 2, transitioning it to AwaitingPinConfirmation.
func (m *Manager) ObserveChallenge(sessionID, pin, peerName string, peerPublicKey []byte) (*model.PairingSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.findLocked(sessionID)
	if s == nil {
		return nil, errs.New(errs.Pairing, "unknown pairing session")
	}
	if s.State != model.PairingInitiated {
		return nil, errs.New(errs.Pairing, "session already processed")
	}
	s.Pin = pin
	s.PeerName = peerName
	s.PeerPublicKey = peerPublicKey
	s.State = model.PairingAwaitingPinConfirmation
	return s, nil
}

// ConfirmAsInitiator is called once the local user has entered a PIN
// matching the one shown. It computes this side's ECDH shared secret (to be
// transmitted to the responder for verification) and advances the session
// to AwaitingPeerConfirmation. A PIN mismatch returns ok=false, not an
// error: this is surfaced as a boolean so the caller can offer a retry
// instead of treating a typo as a fatal failure.
func (m *Manager) ConfirmAsInitiator(sessionID, enteredPin string, ourPriv [32]byte) (session *model.PairingSession, sharedSecret [32]byte, ok bool, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.findLocked(sessionID)
	if s == nil {
		return nil, sharedSecret, false, errs.New(errs.Pairing, "unknown pairing session")
	}
	if s.State != model.PairingAwaitingPinConfirmation {
		return nil, sharedSecret, false, errs.New(errs.Pairing, "session already processed")
	}
	if enteredPin != s.Pin {
		return s, sharedSecret, false, nil
	}
	var theirPub [32]byte
	copy(theirPub[:], s.PeerPublicKey)
	secret, derr := cryptoprim.DeriveSharedSecret(ourPriv, theirPub)
	if derr != nil {
		s.Fail(derr.Error())
		return s, sharedSecret, false, derr
	}
	s.State = model.PairingAwaitingPeerConfirmation
	return s, secret, true, nil
}

// VerifyAsResponder is called when the responder receives the initiator's
// transmitted shared secret in step 3. It independently derives its own
// ECDH value and requires exact equality: this is the MITM check. Mismatch
// fails the session and never persists anything.
func (m *Manager) VerifyAsResponder(sessionID string, theirSharedSecret [32]byte, ourPriv [32]byte) (session *model.PairingSession, ourSharedSecret [32]byte, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.findLocked(sessionID)
	if s == nil {
		return nil, ourSharedSecret, errs.New(errs.Pairing, "unknown pairing session")
	}
	if s.State != model.PairingAwaitingPinConfirmation && s.State != model.PairingAwaitingPeerConfirmation {
		return nil, ourSharedSecret, errs.New(errs.Pairing, "session already processed")
	}
	var theirPub [32]byte
	copy(theirPub[:], s.PeerPublicKey)
	derived, derr := cryptoprim.DeriveSharedSecret(ourPriv, theirPub)
	if derr != nil {
		s.Fail(derr.Error())
		return s, ourSharedSecret, derr
	}
	if derived != theirSharedSecret {
		s.Fail("Key verification failed")
		return s, ourSharedSecret, errs.New(errs.Pairing, "Key verification failed")
	}
	s.State = model.PairingCompleted
	return s, derived, nil
}

// CompleteAsInitiator finalizes the initiator's session once the
// responder's ack arrives.
func (m *Manager) CompleteAsInitiator(sessionID string, success bool, reason string) (*model.PairingSession, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	s := m.findLocked(sessionID)
	if s == nil {
		return nil, errs.New(errs.Pairing, "unknown pairing session")
	}
	if success {
		s.State = model.PairingCompleted
	} else {
		s.Fail(reason)
	}
	return s, nil
}

func (m *Manager) Get(sessionID string) *model.PairingSession {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.findLocked(sessionID)
}

// Cancel removes a session outright, regardless of state.
func (m *Manager) Cancel(sessionID string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for i, s := range m.sessions {
		if s.SessionID == sessionID {
			m.sessions = append(m.sessions[:i], m.sessions[i+1:]...)
			return
		}
	}
}
