package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/decentpaste/decentpaste/internal/cryptoprim"
)

// MaxClipboardContentBytes is the hard ceiling on a single clipboard entry's
// UTF-8 content, enforced by appstate's ShareClipboardContent before any
// broadcast or history insertion is attempted.
const MaxClipboardContentBytes = 1024 * 1024

// ClipboardEntry is one item of clipboard history. History is kept sorted
// strictly newest-first by Timestamp, with at most one entry per
// ContentHash.
type ClipboardEntry struct {
	ID               string    `json:"id"`
	Content          string    `json:"content"`
	ContentHash      string    `json:"content_hash"`
	Timestamp        time.Time `json:"timestamp"`
	OriginDeviceID   string    `json:"origin_device_id"`
	OriginDeviceName string    `json:"origin_device_name"`
	IsLocal          bool      `json:"is_local"`
}

func NewLocalClipboardEntry(content, deviceID, deviceName string) ClipboardEntry {
	return ClipboardEntry{
		ID:               uuid.NewString(),
		Content:          content,
		ContentHash:      cryptoprim.HashContent(content),
		Timestamp:        time.Now().UTC(),
		OriginDeviceID:   deviceID,
		OriginDeviceName: deviceName,
		IsLocal:          true,
	}
}

func NewRemoteClipboardEntry(content, contentHash string, timestamp time.Time, deviceID, deviceName string) ClipboardEntry {
	return ClipboardEntry{
		ID:               uuid.NewString(),
		Content:          content,
		ContentHash:      contentHash,
		Timestamp:        timestamp,
		OriginDeviceID:   deviceID,
		OriginDeviceName: deviceName,
		IsLocal:          false,
	}
}

// Preview truncates Content to at most maxLength runes, appending "..." if
// truncated.
func (e ClipboardEntry) Preview(maxLength int) string {
	r := []rune(e.Content)
	if len(r) <= maxLength {
		return e.Content
	}
	return string(r[:maxLength]) + "..."
}
