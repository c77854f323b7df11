package bridge

import (
	"github.com/decentpaste/decentpaste/internal/appstate"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/identity"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/protocol"
)

// InitiatePairing starts a session as the initiator: it snapshots the
// target's currently known discovery addresses into the session (so later
// reconnection survives the discovery cache expiring), then sends Request
// over a fresh stream.
func (b *Bridge) InitiatePairing(peerID string) (string, error) {
	if b.state.IsPaired(peerID) {
		return "", errs.New(errs.AlreadyPaired, "peer is already paired")
	}
	var addrs []string
	for _, d := range b.state.DiscoveredPeers() {
		if d.PeerID == peerID {
			addrs = d.Addresses
			break
		}
	}
	sess := b.pairing.Initiate(peerID, addrs)

	id := b.state.DeviceIdentity()
	if id == nil {
		return "", errs.New(errs.NotInitialized, "device identity not set up")
	}
	env := &protocol.Message{
		Kind: protocol.KindPairingRequest,
		PairingRequest: &protocol.PairingRequest{
			SessionID:  sess.SessionID,
			DeviceName: id.DeviceName,
			DeviceID:   id.DeviceID,
			PublicKey:  id.PublicKey,
		},
	}
	data, err := env.Marshal()
	if err != nil {
		return "", err
	}
	b.enqueue(overlay.Command{Kind: overlay.CmdSendPairingRequest, PeerID: peerID, Bytes: data})
	return sess.SessionID, nil
}

// RespondToPairing implements accept/reject of an inbound request. The
// session and its PIN already exist (pairing.Manager.HandleRequest ran when
// the Request event arrived); accepting just transmits the Challenge this
// side already generated. Idempotent for duplicate accept calls on the same
// session, matching pairing.Manager.HandleRequest's own idempotence.
func (b *Bridge) RespondToPairing(sessionID string, accept bool) (*string, error) {
	sess := b.pairing.Get(sessionID)
	if sess == nil {
		return nil, errs.New(errs.PeerNotFound, "unknown pairing session")
	}
	if !accept {
		b.enqueue(overlay.Command{Kind: overlay.CmdRejectPairing, PeerID: sess.PeerID, SessionID: sessionID})
		b.pairing.Cancel(sessionID)
		return nil, nil
	}

	id := b.state.DeviceIdentity()
	if id == nil {
		return nil, errs.New(errs.NotInitialized, "device identity not set up")
	}
	b.enqueue(overlay.Command{
		Kind:       overlay.CmdSendPairingChallenge,
		PeerID:     sess.PeerID,
		SessionID:  sessionID,
		Pin:        sess.Pin,
		DeviceName: id.DeviceName,
		PublicKey:  id.PublicKey,
	})
	pin := sess.Pin
	return &pin, nil
}

// ConfirmPairing is called on the initiator's side once its user has typed
// the PIN shown by the responder. A mismatch returns (false, nil), not an
// error — the command table requires this be a boolean outcome.
func (b *Bridge) ConfirmPairing(sessionID, enteredPin string) (bool, error) {
	id := b.state.DeviceIdentity()
	if id == nil {
		return false, errs.New(errs.NotInitialized, "device identity not set up")
	}
	sess, secret, ok, err := b.pairing.ConfirmAsInitiator(sessionID, enteredPin, identity.PrivateKeyArray(id))
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	b.secretsMutex.Lock()
	b.pendingInitiatorSecrets[sessionID] = secret
	b.secretsMutex.Unlock()

	b.enqueue(overlay.Command{
		Kind:         overlay.CmdSendPairingConfirm,
		PeerID:       sess.PeerID,
		SessionID:    sessionID,
		Success:      true,
		SharedSecret: append([]byte(nil), secret[:]...),
		DeviceName:   id.DeviceName,
		Final:        false,
	})
	return true, nil
}

func (b *Bridge) CancelPairing(sessionID string) {
	b.pairing.Cancel(sessionID)
	b.state.RemovePairingSession(sessionID)
	b.secretsMutex.Lock()
	delete(b.pendingInitiatorSecrets, sessionID)
	b.secretsMutex.Unlock()
}

// onPairingChallenge runs on the initiator's side when step 2 arrives: it
// just records the PIN and responder identity so ConfirmPairing has
// something to check against, then surfaces the PIN to the frontend for the
// user to compare and confirm out of band.
func (b *Bridge) onPairingChallenge(ev overlay.Event, out chan<- appstate.AppEvent) {
	if _, err := b.pairing.ObserveChallenge(ev.SessionID, ev.Pin, ev.DeviceName, ev.PublicKey); err != nil {
		b.log.Warnf("observe challenge failed for session %s: %v", ev.SessionID, err)
		return
	}
	select {
	case out <- appstate.AppEvent{Kind: "pairing-pin", Peer: ev.PeerID, Pin: ev.Pin}:
	default:
	}
}

// onPairingConfirm dispatches step 3 (responder verifying A's transmitted
// secret) or step 4 (initiator receiving B's final ack), distinguished by
// which role this session was created in.
func (b *Bridge) onPairingConfirm(ev overlay.Event, out chan<- appstate.AppEvent) {
	sess := b.pairing.Get(ev.SessionID)
	if sess == nil {
		return
	}

	if !sess.IsInitiator {
		b.handleResponderConfirm(ev, sess, out)
		return
	}
	b.handleInitiatorAck(ev, sess, out)
}

func (b *Bridge) handleResponderConfirm(ev overlay.Event, sess *model.PairingSession, out chan<- appstate.AppEvent) {
	id := b.state.DeviceIdentity()
	if id == nil {
		return
	}
	var theirSecret [32]byte
	copy(theirSecret[:], ev.SharedSecret)

	verified, ourSecret, err := b.pairing.VerifyAsResponder(ev.SessionID, theirSecret, identity.PrivateKeyArray(id))
	if err != nil {
		b.enqueue(overlay.Command{
			Kind: overlay.CmdSendPairingConfirm, PeerID: sess.PeerID, SessionID: ev.SessionID,
			Success: false, Final: true,
		})
		emitPairingFailed(out, sess.PeerID, err.Error())
		return
	}

	peer := model.PairedPeer{
		PeerID:             sess.PeerID,
		DeviceName:         ev.DeviceName,
		SharedSecret:       append([]byte(nil), ourSecret[:]...),
		PairedAt:           verified.CreatedAt,
		LastSeen:           verified.CreatedAt,
		LastKnownAddresses: verified.PeerAddresses,
	}
	b.state.AddOrUpdatePairedPeer(peer)
	b.state.RemoveDiscoveredPeer(sess.PeerID)
	b.state.RemovePairingSession(sess.SessionID)

	b.enqueue(overlay.Command{
		Kind: overlay.CmdSendPairingConfirm, PeerID: sess.PeerID, SessionID: ev.SessionID,
		Success: true, DeviceName: id.DeviceName, Final: true,
	})
	select {
	case out <- appstate.AppEvent{Kind: "pairing-complete", Peer: sess.PeerID}:
	default:
	}
}

func (b *Bridge) handleInitiatorAck(ev overlay.Event, sess *model.PairingSession, out chan<- appstate.AppEvent) {
	completed, err := b.pairing.CompleteAsInitiator(ev.SessionID, ev.Success, ev.Error)
	if err != nil {
		return
	}

	b.secretsMutex.Lock()
	secret, ok := b.pendingInitiatorSecrets[ev.SessionID]
	delete(b.pendingInitiatorSecrets, ev.SessionID)
	b.secretsMutex.Unlock()

	if !ev.Success || !ok {
		emitPairingFailed(out, sess.PeerID, ev.Error)
		return
	}

	peer := model.PairedPeer{
		PeerID:             sess.PeerID,
		DeviceName:         ev.DeviceName,
		SharedSecret:       append([]byte(nil), secret[:]...),
		PairedAt:           completed.CreatedAt,
		LastSeen:           completed.CreatedAt,
		LastKnownAddresses: completed.PeerAddresses,
	}
	b.state.AddOrUpdatePairedPeer(peer)
	b.state.RemoveDiscoveredPeer(sess.PeerID)
	b.state.RemovePairingSession(sess.SessionID)

	select {
	case out <- appstate.AppEvent{Kind: "pairing-complete", Peer: sess.PeerID}:
	default:
	}
}

func emitPairingFailed(out chan<- appstate.AppEvent, peerID, reason string) {
	select {
	case out <- appstate.AppEvent{Kind: "pairing-failed", Peer: peerID, Err: reason}:
	default:
	}
}
