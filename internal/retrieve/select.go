package retrieve

import (
	"sort"
	"time"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// SelectOptions bound candidate selection
type SelectOptions struct {
	Floor         float64 // Strict pass relevance floor
	RelaxedFloor  float64 // Relaxed pass relevance floor
	RecencyDays   int     // Strict pass drops older items...
	StaleOverride float64 // ...unless relevance reaches this
	MinCandidates int     // Below this the relaxed pass runs
	Cap           int     // Maximum candidates returned
}

// NewSelectOptions derives selection options from the retrieval config
func NewSelectOptions(cfg model.RetrievalConfig, maxEvidence int) SelectOptions {
	capacity := 2 * maxEvidence
	if capacity < 12 {
		capacity = 12
	}
	return SelectOptions{
		Floor:         cfg.RelevanceFloor,
		RelaxedFloor:  cfg.RelaxedFloor,
		RecencyDays:   cfg.RecencyDays,
		StaleOverride: cfg.StaleOverride,
		MinCandidates: cfg.MinCandidates,
		Cap:           capacity,
	}
}

// Select scores items against the claim signatures and returns the ranked candidates
func Select(items []model.EvidenceItem, signatures []string, now time.Time, opts SelectOptions) []model.EvidenceItem {
	selected, _ := SelectWithFallback(items, signatures, now, opts)
	return selected
}

// SelectWithFallback is Select that also reports whether the relaxed pass was used
func SelectWithFallback(items []model.EvidenceItem, signatures []string, now time.Time, opts SelectOptions) ([]model.EvidenceItem, bool) {
	if len(items) == 0 || len(signatures) == 0 {
		return nil, false
	}

	scored := make([]model.EvidenceItem, len(items))
	for i, item := range items {
		item.Relevance = Relevance(item, signatures)
		scored[i] = item
	}

	cutoff := now.AddDate(0, 0, -opts.RecencyDays).Unix()
	strict := filter(scored, func(item model.EvidenceItem) bool {
		if item.Relevance < opts.Floor {
			return false
		}
		if opts.RecencyDays > 0 && item.Relevance < opts.StaleOverride {
			if ts := item.Timestamp(); ts > 0 && ts < cutoff {
				return false
			}
		}
		return true
	})

	relaxed := false
	candidates := strict
	if len(strict) < opts.MinCandidates {
		relaxed = true
		candidates = filter(scored, func(item model.EvidenceItem) bool {
			return item.Relevance >= opts.RelaxedFloor
		})
	}

	rank(candidates, now)
	if opts.Cap > 0 && len(candidates) > opts.Cap {
		candidates = candidates[:opts.Cap]
	}
	return candidates, relaxed
}

// Relevance is the best similarity between any signature and the item text
func Relevance(item model.EvidenceItem, signatures []string) float64 {
	text := item.Text()
	best := 0.0
	for _, sig := range signatures {
		if s := normalize.Similarity(sig, text); s > best {
			best = s
		}
	}
	return best
}

func filter(items []model.EvidenceItem, keep func(model.EvidenceItem) bool) []model.EvidenceItem {
	out := make([]model.EvidenceItem, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// rank orders by 0.82*relevance + 0.18*freshness, then recency, then key
func rank(items []model.EvidenceItem, now time.Time) {
	type ranked struct {
		item  model.EvidenceItem
		score float64
		key   string
	}
	entries := make([]ranked, len(items))
	for i, item := range items {
		entries[i] = ranked{
			item:  item,
			score: 0.82*item.Relevance + 0.18*item.Freshness(now),
			key:   DedupKey(item),
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		if ti, tj := entries[i].item.Timestamp(), entries[j].item.Timestamp(); ti != tj {
			return ti > tj
		}
		return entries[i].key < entries[j].key
	})
	for i := range entries {
		items[i] = entries[i].item
	}
}
