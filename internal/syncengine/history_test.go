package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/decentpaste/decentpaste/internal/model"
)

func entryAt(hash string, t time.Time) model.ClipboardEntry {
	return model.ClipboardEntry{ID: hash, Content: hash, ContentHash: hash, Timestamp: t}
}

func TestInsertHistoryEntryOrdersNewestFirst(t *testing.T) {
	now := time.Now()
	history := []model.ClipboardEntry{entryAt("old", now.Add(-time.Hour))}

	history = InsertHistoryEntry(history, entryAt("new", now), 10)

	require.Len(t, history, 2)
	require.Equal(t, "new", history[0].ContentHash)
	require.Equal(t, "old", history[1].ContentHash)
}

func TestInsertHistoryEntryDedupesByHash(t *testing.T) {
	now := time.Now()
	history := []model.ClipboardEntry{entryAt("dup", now.Add(-time.Hour))}

	history = InsertHistoryEntry(history, entryAt("dup", now), 10)

	require.Len(t, history, 1)
	require.Equal(t, now, history[0].Timestamp)
}

func TestInsertHistoryEntryTruncatesAtLimit(t *testing.T) {
	now := time.Now()
	var history []model.ClipboardEntry
	for i := 0; i < 5; i++ {
		history = InsertHistoryEntry(history, entryAt(string(rune('a'+i)), now.Add(time.Duration(i)*time.Minute)), 3)
	}

	require.Len(t, history, 3)
	require.Equal(t, "e", history[0].ContentHash)
	require.Equal(t, "c", history[2].ContentHash)
}
