package overlay

import "github.com/decentpaste/decentpaste/internal/protocol"

// CommandKind discriminates the Command sum type consumed off the bounded
// command queue by the manager's single event loop.
type CommandKind string

const (
	CmdStartListening       CommandKind = "StartListening"
	CmdStopListening        CommandKind = "StopListening"
	CmdSendPairingRequest   CommandKind = "SendPairingRequest"
	CmdSendPairingChallenge CommandKind = "SendPairingChallenge"
	CmdRejectPairing        CommandKind = "RejectPairing"
	CmdSendPairingConfirm   CommandKind = "SendPairingConfirm"
	CmdBroadcastClipboard   CommandKind = "BroadcastClipboard"
	CmdAnnounceDeviceName   CommandKind = "AnnounceDeviceName"
	CmdReconnectPeers       CommandKind = "ReconnectPeers"
	CmdRefreshPeer          CommandKind = "RefreshPeer"
)

// Command is sent on the manager's FIFO command channel; commands from the
// same caller arrive in send order.
type Command struct {
	Kind CommandKind

	PeerID     string
	SessionID  string
	Pin        string
	DeviceName string
	PublicKey  []byte
	Success    bool
	SharedSecret []byte
	Bytes      []byte

	// Final marks a SendPairingConfirm as the handshake's last message on
	// this stream (the responder's step-4 ack), so the stream is torn down
	// after it writes. The initiator's step-3 secret transmission leaves it
	// false, since the ack is still expected back on the same stream.
	Final bool

	Clipboard *protocol.ClipboardMessage

	// ReconnectPeers: peer_id -> known addresses.
	PeerAddresses map[string][]string
}
