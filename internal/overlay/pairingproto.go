package overlay

import (
	"bufio"
	"context"
	"encoding/json"
	"time"

	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/decentpaste/decentpaste/internal/protocol"
)

const pairingStreamTimeout = 10 * time.Second

// pairingHandshakeTimeout bounds how long a pairing stream is kept open
// across the human-paced gap between steps (accept/reject, PIN entry). It
// mirrors the pairing session's own five-minute expiry: a stream that
// outlives its session is already useless.
const pairingHandshakeTimeout = 5 * time.Minute

// handlePairingStream is the inbound side of the pairing protocol's full
// four-step exchange (Request, Challenge, Confirm, Confirm-ack). Unlike
// syncproto.go's one-shot request/response, a pairing exchange spans a
// human decision that can take most of the session's lifetime, so the
// stream is kept open and registered in peers.streams across both legs
// instead of being closed after the first reply: this loop keeps reading
// until the handshake reaches a terminal message or the stream errors.
func (m *Manager) handlePairingStream(s network.Stream) {
	remote := s.Conn().RemotePeer()
	s.SetDeadline(time.Now().Add(pairingHandshakeTimeout))
	dec := newEnvelopeDecoder(s)

	for {
		msg, err := dec.next()
		if err != nil {
			m.clearPendingStream(remote)
			s.Reset()
			return
		}

		switch msg.Kind {
		case protocol.KindPairingRequest:
			if req := msg.PairingRequest; req != nil {
				m.peers.mutex.Lock()
				m.peers.streams[remote] = s
				m.peers.mutex.Unlock()
				m.emit(Event{
					Kind:       EvtPairingRequest,
					PeerID:     remote.String(),
					SessionID:  req.SessionID,
					DeviceName: req.DeviceName,
					PublicKey:  req.PublicKey,
				})
			}
		case protocol.KindPairingConfirm:
			if c := msg.PairingConfirm; c != nil {
				m.emit(Event{
					Kind:         EvtPairingConfirm,
					PeerID:       remote.String(),
					SessionID:    c.SessionID,
					Success:      c.Success,
					SharedSecret: c.SharedSecret,
					DeviceName:   c.DeviceName,
					Error:        c.Error,
				})
			}
		default:
			m.log.Warnf("unexpected pairing message kind %s from %s", msg.Kind, remote)
		}
	}
}

func readEnvelope(s network.Stream) (*protocol.Message, error) {
	return newEnvelopeDecoder(s).next()
}

// envelopeDecoder wraps a single buffered reader for the life of a stream.
// A fresh bufio.Reader per read would risk silently dropping bytes it
// buffered ahead of a message boundary if two envelopes ever arrive in the
// same underlying read, so loop-based readers (handlePairingStream,
// awaitPairingReply) must reuse one across their whole stream lifetime
// rather than calling readEnvelope per iteration.
type envelopeDecoder struct {
	dec *json.Decoder
}

func newEnvelopeDecoder(s network.Stream) *envelopeDecoder {
	return &envelopeDecoder{dec: json.NewDecoder(bufio.NewReader(s))}
}

func (e *envelopeDecoder) next() (*protocol.Message, error) {
	var msg protocol.Message
	if err := e.dec.Decode(&msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func writeEnvelope(s network.Stream, msg *protocol.Message) error {
	data, err := msg.Marshal()
	if err != nil {
		return err
	}
	_, err = s.Write(data)
	return err
}

// sendPairingRequest opens a fresh stream to peer_id and writes a Request,
// used by the initiator in pairing step 1. The stream is kept open and
// registered for the rest of the handshake rather than closed after the
// write: awaitPairingReply reads the Challenge and, eventually, the step-4
// ack off the same stream, and this side's own step-3 Confirm is written
// back onto it too.
func (m *Manager) sendPairingRequest(ctx context.Context, cmd Command) {
	pid, err := peer.Decode(cmd.PeerID)
	if err != nil {
		m.emit(Event{Kind: EvtNetworkError, PeerID: cmd.PeerID, Error: err.Error()})
		return
	}
	s, err := m.net.host.NewStream(ctx, pid, pairingProtocolID)
	if err != nil {
		m.emit(Event{Kind: EvtNetworkError, PeerID: cmd.PeerID, Error: err.Error()})
		return
	}
	s.SetDeadline(time.Now().Add(pairingHandshakeTimeout))

	var env protocol.Message
	if err := json.Unmarshal(cmd.Bytes, &env); err != nil {
		s.Reset()
		m.emit(Event{Kind: EvtNetworkError, PeerID: cmd.PeerID, Error: err.Error()})
		return
	}
	if err := writeEnvelope(s, &env); err != nil {
		s.Reset()
		m.emit(Event{Kind: EvtNetworkError, PeerID: cmd.PeerID, Error: err.Error()})
		return
	}

	m.peers.mutex.Lock()
	m.peers.streams[pid] = s
	m.peers.mutex.Unlock()

	go m.awaitPairingReply(s, pid)
}

// awaitPairingReply reads the messages that arrive on a stream this side
// opened as the initiator: first the Challenge, later the responder's final
// Confirm ack. A Confirm received here is always that terminal ack — this
// side's own step-3 Confirm goes out, not in — so it ends the loop and
// closes the stream.
func (m *Manager) awaitPairingReply(s network.Stream, remote peer.ID) {
	dec := newEnvelopeDecoder(s)
	for {
		msg, err := dec.next()
		if err != nil {
			m.log.Warnf("pairing reply read failed from %s: %v", remote, err)
			m.clearPendingStream(remote)
			return
		}
		switch msg.Kind {
		case protocol.KindPairingChallenge:
			if c := msg.PairingChallenge; c != nil {
				m.emit(Event{
					Kind:       EvtPairingChallenge,
					PeerID:     remote.String(),
					SessionID:  c.SessionID,
					Pin:        c.Pin,
					DeviceName: c.DeviceName,
					PublicKey:  c.PublicKey,
				})
			}
		case protocol.KindPairingConfirm:
			if c := msg.PairingConfirm; c != nil {
				m.emit(Event{
					Kind:         EvtPairingConfirm,
					PeerID:       remote.String(),
					SessionID:    c.SessionID,
					Success:      c.Success,
					SharedSecret: c.SharedSecret,
					DeviceName:   c.DeviceName,
					Error:        c.Error,
				})
			}
			m.clearPendingStream(remote)
			s.Close()
			return
		default:
			m.log.Warnf("unexpected pairing message kind %s from %s", msg.Kind, remote)
		}
	}
}

func (m *Manager) clearPendingStream(remote peer.ID) {
	m.peers.mutex.Lock()
	delete(m.peers.streams, remote)
	m.peers.mutex.Unlock()
}

// withPendingStream runs fn with the stream stored for peer_id, warning and
// dropping if none is pending. closeAfter tears the stream down once fn
// returns, for the handshake's terminal message in either direction (a
// rejection, or the responder's step-4 ack); a non-terminal message (the
// step-2 Challenge) leaves it open and registered for the next leg.
func (m *Manager) withPendingStream(peerID string, closeAfter bool, fn func(network.Stream) error) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		m.log.Warnf("invalid peer id %q: %v", peerID, err)
		return
	}
	m.peers.mutex.Lock()
	s, ok := m.peers.streams[pid]
	if ok && closeAfter {
		delete(m.peers.streams, pid)
	}
	m.peers.mutex.Unlock()

	if !ok {
		m.log.Warnf("no pending pairing channel for %s", peerID)
		return
	}
	if err := fn(s); err != nil {
		m.log.Warnf("pairing response send failed to %s: %v", peerID, err)
	}
	if closeAfter {
		s.Close()
	}
}

func (m *Manager) sendPairingChallenge(cmd Command) {
	m.withPendingStream(cmd.PeerID, false, func(s network.Stream) error {
		return writeEnvelope(s, &protocol.Message{
			Kind: protocol.KindPairingChallenge,
			PairingChallenge: &protocol.PairingChallenge{
				SessionID:  cmd.SessionID,
				Pin:        cmd.Pin,
				DeviceName: cmd.DeviceName,
				PublicKey:  cmd.PublicKey,
			},
		})
	})
}

func (m *Manager) rejectPairing(cmd Command) {
	m.withPendingStream(cmd.PeerID, true, func(s network.Stream) error {
		return writeEnvelope(s, &protocol.Message{
			Kind: protocol.KindPairingConfirm,
			PairingConfirm: &protocol.PairingConfirm{
				SessionID: cmd.SessionID,
				Success:   false,
				Error:     "Pairing rejected",
			},
		})
	})
}

// sendPairingConfirm writes a Confirm envelope: the initiator's step-3
// transmission of its computed shared secret (cmd.Final false, ack still
// expected back) or the responder's step-4 final ack (cmd.Final true,
// stream torn down after).
func (m *Manager) sendPairingConfirm(cmd Command) {
	m.withPendingStream(cmd.PeerID, cmd.Final, func(s network.Stream) error {
		return writeEnvelope(s, &protocol.Message{
			Kind: protocol.KindPairingConfirm,
			PairingConfirm: &protocol.PairingConfirm{
				SessionID:    cmd.SessionID,
				Success:      cmd.Success,
				SharedSecret: cmd.SharedSecret,
				DeviceName:   cmd.DeviceName,
			},
		})
	})
}
