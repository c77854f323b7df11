package protocol

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshalUnmarshalPairingRequestRoundTrip(t *testing.T) {
	msg := &Message{
		Kind: KindPairingRequest,
		PairingRequest: &PairingRequest{
			SessionID:  "sess-1",
			DeviceName: "Alice's Phone",
			DeviceID:   "dev-1",
			PublicKey:  []byte{1, 2, 3, 4},
		},
	}
	data, err := msg.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, KindPairingRequest, got.Kind)
	require.Nil(t, got.Clipboard)
	require.Equal(t, msg.PairingRequest, got.PairingRequest)
}

func TestMarshalUnmarshalClipboardMessageRoundTrip(t *testing.T) {
	msg := &Message{
		Kind: KindClipboard,
		Clipboard: &ClipboardMessage{
			ID:               "c1",
			ContentHash:      "hash",
			EncryptedContent: []byte{5, 6, 7},
			Timestamp:        time.Now().UTC().Truncate(time.Millisecond),
			OriginDeviceID:   "dev-1",
			OriginDeviceName: "Alice's Phone",
		},
	}
	data, err := msg.Marshal()
	require.NoError(t, err)

	got, err := Unmarshal(data)
	require.NoError(t, err)
	require.Equal(t, msg.Clipboard.ID, got.Clipboard.ID)
	require.Equal(t, msg.Clipboard.Timestamp, got.Clipboard.Timestamp)
	require.Nil(t, got.PairingRequest)
}

func TestUnmarshalRejectsInvalidJSON(t *testing.T) {
	_, err := Unmarshal([]byte("{not json"))
	require.Error(t, err)
}
