package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewLocalClipboardEntryFillsDerivedFields(t *testing.T) {
	e := NewLocalClipboardEntry("hello", "dev-1", "Alice's Phone")
	require.NotEmpty(t, e.ID)
	require.Equal(t, "hello", e.Content)
	require.Equal(t, "dev-1", e.OriginDeviceID)
	require.True(t, e.IsLocal)
	require.NotEmpty(t, e.ContentHash)

	other := NewLocalClipboardEntry("world", "dev-1", "Alice's Phone")
	require.NotEqual(t, e.ContentHash, other.ContentHash)
}

func TestNewRemoteClipboardEntryIsNotLocal(t *testing.T) {
	ts := time.Now().UTC()
	e := NewRemoteClipboardEntry("hi", "hash123", ts, "dev-2", "Bob's Laptop")
	require.False(t, e.IsLocal)
	require.Equal(t, "hash123", e.ContentHash)
	require.Equal(t, ts, e.Timestamp)
}

func TestPreviewTruncatesLongContent(t *testing.T) {
	e := ClipboardEntry{Content: "abcdefghij"}
	require.Equal(t, "abcdefghij", e.Preview(20))
	require.Equal(t, "abc...", e.Preview(3))
}

func TestPreviewHandlesMultibyteRunes(t *testing.T) {
	e := ClipboardEntry{Content: "héllo wörld"}
	require.Equal(t, "héll...", e.Preview(4))
}
