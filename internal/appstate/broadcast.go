package appstate

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
	"github.com/decentpaste/decentpaste/internal/errs"
	"github.com/decentpaste/decentpaste/internal/model"
	"github.com/decentpaste/decentpaste/internal/overlay"
	"github.com/decentpaste/decentpaste/internal/protocol"
	"github.com/decentpaste/decentpaste/internal/settings"
)

// ShareClipboardContent implements set_clipboard/share_clipboard_content:
// per paired peer, AES-GCM-encrypt under that peer's shared secret, publish
// a distinct ClipboardMessage on the gossip topic, insert once into local
// history, and unconditionally append to that peer's offline buffer so a
// disconnect between publish and delivery cannot drop the message. This is
// the per-peer variant the design explicitly allows as equivalent to a
// single group-keyed publish, since no group key exists here — every pair
// holds its own pairwise ECDH secret.
func (s *State) ShareClipboardContent(ctx context.Context, content string) (model.ShareResult, error) {
	if len(content) > model.MaxClipboardContentBytes {
		return model.ShareResult{}, errs.New(errs.InvalidInput, "content exceeds 1 MiB")
	}
	if s.vault == nil || !s.vaultUnlocked() {
		return model.ShareResult{}, errs.New(errs.VaultLocked, "vault is not open")
	}
	peers := s.PairedPeers()
	if len(peers) == 0 {
		return model.ShareResult{}, errs.New(errs.NoPeersAvailable, "no paired peers")
	}

	id := s.DeviceIdentity()
	contentHash := cryptoprim.HashContent(content)
	if s.echo != nil && !s.echo.ShouldBroadcast(true, contentHash) {
		return model.ShareResult{Total: len(peers)}, nil
	}

	now := time.Now().UTC()
	result := model.ShareResult{Total: len(peers)}

	for _, peer := range peers {
		msg := protocol.ClipboardMessage{
			ID:               uuid.NewString(),
			ContentHash:      contentHash,
			Timestamp:        now,
			OriginDeviceID:   deviceID(id),
			OriginDeviceName: deviceName(id, s.Settings()),
		}
		encrypted, err := cryptoprim.Encrypt([]byte(content), peer.SharedSecret)
		if err != nil {
			continue
		}
		msg.EncryptedContent = encrypted

		if s.buffers != nil {
			s.buffers.Append(peer.PeerID, msg)
		}
		if s.peerConnected(peer.PeerID) {
			result.Reached++
		} else {
			result.Offline++
		}
		if s.overlayCmd != nil {
			select {
			case s.overlayCmd <- overlay.Command{Kind: overlay.CmdBroadcastClipboard, Clipboard: &msg}:
			case <-ctx.Done():
			}
		}
	}

	if s.echo != nil {
		s.echo.MarkBroadcast(contentHash)
	}

	entry := model.NewLocalClipboardEntry(content, deviceID(id), deviceName(id, s.Settings()))
	s.InsertClipboardEntry(entry)
	result.AddedToHistory = true

	// ShareResult itself never carries plaintext, so hide_clipboard_content
	// has nothing to redact here; it's consulted where this share's content
	// actually reaches an event payload — the clipboard-sent AppEvent built
	// from this entry's hash in handleOverlayEvent.

	return result, nil
}

func (s *State) peerConnected(peerID string) bool {
	return s.ConnectionState(peerID).Status == model.Connected
}

func deviceID(id *model.DeviceIdentity) string {
	if id == nil {
		return ""
	}
	return id.DeviceID
}

func deviceName(id *model.DeviceIdentity, st settings.AppSettings) string {
	if st.DeviceName != "" {
		return st.DeviceName
	}
	if id != nil {
		return id.DeviceName
	}
	return ""
}
