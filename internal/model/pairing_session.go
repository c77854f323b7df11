package model

import "time"

type PairingState string

const (
	PairingInitiated                PairingState = "Initiated"
	PairingAwaitingPinConfirmation  PairingState = "AwaitingPinConfirmation"
	PairingAwaitingPeerConfirmation PairingState = "AwaitingPeerConfirmation"
	PairingCompleted                PairingState = "Completed"
	PairingFailed                   PairingState = "Failed"
)

// SessionTimeout is how long a pairing session remains valid from creation,
// in any state.
const SessionTimeout = 5 * time.Minute

// PairingSession records one in-progress (or terminal) pairing attempt.
// Exactly one session exists per ongoing pair attempt; older sessions are
// garbage-collected lazily when a new one is pushed.
type PairingSession struct {
	SessionID      string    `json:"session_id"`
	PeerID         string    `json:"peer_id"`
	PeerName       string    `json:"peer_name,omitempty"`
	PeerPublicKey  []byte    `json:"peer_public_key,omitempty"`
	PeerAddresses  []string  `json:"peer_addresses"`
	Pin            string    `json:"pin,omitempty"`
	State          PairingState `json:"state"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	IsInitiator    bool      `json:"is_initiator"`
	CreatedAt      time.Time `json:"created_at"`
}

// Expired reports whether the session has outlived SessionTimeout, in any
// state.
func (s *PairingSession) Expired(now time.Time) bool {
	return now.Sub(s.CreatedAt) > SessionTimeout
}

func (s *PairingSession) Fail(reason string) {
	s.State = PairingFailed
	s.FailureReason = reason
}
