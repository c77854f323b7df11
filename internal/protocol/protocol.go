// Package protocol defines the JSON wire envelope exchanged between
// overlay peers: pairing handshake messages, clipboard broadcasts, device
// announcements, the pull-based resync messages, and heartbeats.
//
// Each Message carries a Kind discriminator and exactly one non-nil payload
// pointer, mirroring the sum-type pattern the rest of the daemon uses for
// NetworkEvent and NetworkCommand: consumers switch on Kind rather than
// relying on open polymorphism.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/decentpaste/decentpaste/internal/errs"
)

type Kind string

const (
	KindPairingRequest   Kind = "PairingRequest"
	KindPairingChallenge Kind = "PairingChallenge"
	KindPairingResponse  Kind = "PairingResponse"
	KindPairingConfirm   Kind = "PairingConfirm"
	KindClipboard        Kind = "Clipboard"
	KindDeviceAnnounce   Kind = "DeviceAnnounce"
	KindSyncRequest      Kind = "SyncRequest"
	KindSyncHashList     Kind = "SyncHashList"
	KindSyncContentReq   Kind = "SyncContentRequest"
	KindSyncContentResp  Kind = "SyncContentResponse"
	KindHeartbeat        Kind = "Heartbeat"
)

type Message struct {
	Kind Kind `json:"kind"`

	PairingRequest   *PairingRequest   `json:"pairing_request,omitempty"`
	PairingChallenge *PairingChallenge `json:"pairing_challenge,omitempty"`
	PairingResponse  *PairingResponse  `json:"pairing_response,omitempty"`
	PairingConfirm   *PairingConfirm   `json:"pairing_confirm,omitempty"`
	Clipboard        *ClipboardMessage `json:"clipboard,omitempty"`
	DeviceAnnounce   *DeviceAnnounce   `json:"device_announce,omitempty"`
	SyncRequest      *SyncRequest      `json:"sync_request,omitempty"`
	SyncHashList     *SyncHashList     `json:"sync_hash_list,omitempty"`
	SyncContentReq   *SyncContentReq   `json:"sync_content_request,omitempty"`
	SyncContentResp  *SyncContentResp  `json:"sync_content_response,omitempty"`
	Heartbeat        *Heartbeat        `json:"heartbeat,omitempty"`
}

// Step 1: A -> B.
type PairingRequest struct {
	SessionID  string `json:"session_id"`
	DeviceName string `json:"device_name"`
	DeviceID   string `json:"device_id"`
	PublicKey  []byte `json:"public_key"`
}

// Step 2: B -> A. PublicKey is B's, needed by A to compute the ECDH value
// it will transmit in step 3.
type PairingChallenge struct {
	SessionID  string `json:"session_id"`
	Pin        string `json:"pin"`
	DeviceName string `json:"device_name"`
	PublicKey  []byte `json:"public_key"`
}

// PairingResponse carries an accept/reject answer to an incoming request
// before a PIN has been exchanged back. The overlay does not send it:
// rejection goes out as a PairingConfirm with Success false.
type PairingResponse struct {
	SessionID string `json:"session_id"`
	Accepted  bool   `json:"accepted"`
}

// Steps 3 and 4, shared shape. SharedSecret is only populated by A's
// transmission in step 3; B's step-4 ack carries Success and B's DeviceName.
type PairingConfirm struct {
	SessionID    string `json:"session_id"`
	Success      bool   `json:"success"`
	SharedSecret []byte `json:"shared_secret,omitempty"`
	Error        string `json:"error,omitempty"`
	DeviceName   string `json:"device_name,omitempty"`
}

type ClipboardMessage struct {
	ID                string    `json:"id"`
	ContentHash       string    `json:"content_hash"`
	EncryptedContent  []byte    `json:"encrypted_content"`
	Timestamp         time.Time `json:"timestamp"`
	OriginDeviceID    string    `json:"origin_device_id"`
	OriginDeviceName  string    `json:"origin_device_name"`
}

type DeviceAnnounce struct {
	PeerID     string    `json:"peer_id"`
	DeviceName string    `json:"device_name"`
	Timestamp  time.Time `json:"timestamp"`
}

type SyncRequest struct {
	PeerID string `json:"peer_id"`
}

type SyncHashList struct {
	Hashes []string `json:"hashes"`
}

type SyncContentReq struct {
	Hash string `json:"hash"`
}

type SyncContentResp struct {
	Message ClipboardMessage `json:"message"`
}

type Heartbeat struct {
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Message) Marshal() ([]byte, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, errs.Wrap(errs.Serialization, err)
	}
	return b, nil
}

func Unmarshal(b []byte) (*Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, errs.Wrap(errs.Serialization, err)
	}
	return &m, nil
}
