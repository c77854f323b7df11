package syncengine

import (
	"sort"

	"github.com/decentpaste/decentpaste/internal/model"
)

// InsertHistoryEntry inserts entry into history keeping the invariant the
// rest of the daemon relies on: at most one entry per content hash, sorted
// newest-first, truncated to limit. A re-insertion of an already-seen hash
// replaces the existing entry (refreshing its position) rather than
// duplicating it, matching the original client's dedup-on-hash behaviour.
func InsertHistoryEntry(history []model.ClipboardEntry, entry model.ClipboardEntry, limit int) []model.ClipboardEntry {
	filtered := make([]model.ClipboardEntry, 0, len(history)+1)
	for _, e := range history {
		if e.ContentHash == entry.ContentHash {
			continue
		}
		filtered = append(filtered, e)
	}
	filtered = append(filtered, entry)

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].Timestamp.After(filtered[j].Timestamp)
	})

	if limit > 0 && len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}
