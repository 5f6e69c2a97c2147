package retrieve

import (
	"sort"
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/model"
)

// Merge combines evidence lists, keeping one item per DedupKey. On conflict
// the item with the newer timestamp wins, then the one with more text. The
// result is ordered by key, so it does not depend on input order.
func Merge(lists ...[]model.EvidenceItem) []model.EvidenceItem {
	byKey := make(map[string]model.EvidenceItem)
	for _, list := range lists {
		for _, item := range list {
			key := DedupKey(item)
			if key == "|" {
				continue
			}
			current, ok := byKey[key]
			if !ok || preferItem(item, current) {
				byKey[key] = item
			}
		}
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	merged := make([]model.EvidenceItem, 0, len(keys))
	for _, key := range keys {
		merged = append(merged, byKey[key])
	}
	return merged
}

// preferItem reports whether candidate should replace current
func preferItem(candidate, current model.EvidenceItem) bool {
	if ct, cur := candidate.Timestamp(), current.Timestamp(); ct != cur {
		return ct > cur
	}
	cl := utf8.RuneCountInString(candidate.Text())
	ol := utf8.RuneCountInString(current.Text())
	if cl != ol {
		return cl > ol
	}
	// Full tie: deterministic pick so merge order never matters
	if ct, cur := candidate.Text(), current.Text(); ct != cur {
		return ct < cur
	}
	if candidate.Source != current.Source {
		return candidate.Source < current.Source
	}
	return candidate.Channel < current.Channel
}
