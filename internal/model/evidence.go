package model

import (
	"strings"
	"time"
)

// EvidenceItem represents one retrieved headline/snippet considered as
// support or refutation for a claim
type EvidenceItem struct {
	Source       string     `json:"source"`                  // Publisher name
	SourceRegion string     `json:"source_region,omitempty"` // e.g., "ir", "intl"
	SourceLang   string     `json:"source_lang,omitempty"`   // Feed language
	Tier         SourceTier `json:"source_tier"`             // Credibility bucket
	Title        string     `json:"title"`                   // Cleaned, capped title
	Summary      string     `json:"summary,omitempty"`       // Cleaned, capped summary
	Link         string     `json:"link"`                    // Canonical link
	PublishedTS  int64      `json:"published_ts,omitempty"`  // Epoch seconds, 0 = unknown date
	FetchedAt    int64      `json:"fetched_at,omitempty"`    // Epoch seconds of retrieval
	Channel      Channel    `json:"channel,omitempty"`       // Retrieval channel that produced the item

	Relevance   float64 `json:"relevance"`              // Claim-to-evidence similarity (0-1)
	Label       Label   `json:"label,omitempty"`        // Stance relative to the claim
	LabelConf   float64 `json:"label_conf,omitempty"`   // Confidence in the label (0-1)
	LabelReason string  `json:"label_reason,omitempty"` // Short justification for the label
	Effect      float64 `json:"effect"`                 // Signed contribution to the aggregate
}

// Timestamp returns the publish time, falling back to the fetch time
func (e EvidenceItem) Timestamp() int64 {
	if e.PublishedTS > 0 {
		return e.PublishedTS
	}
	return e.FetchedAt
}

// Text returns title and summary joined for similarity scoring
func (e EvidenceItem) Text() string {
	return strings.TrimSpace(e.Title + " " + e.Summary)
}

// Channel identifies where an evidence item came from
type Channel string

const (
	ChannelIndexed   Channel = "indexed"    // Periodically refreshed feed store
	ChannelQueryFeed Channel = "query_feed" // Search-engine RSS queried for this claim
	ChannelWeb       Channel = "web"        // Live HTML search scrape
)

// SourceTier is the credibility weight bucket of a publisher
type SourceTier string

const (
	TierHigh   SourceTier = "high"   // Wire services, public broadcasters, papers of record
	TierMedium SourceTier = "medium" // Established outlets; default for unknown publishers
	TierLow    SourceTier = "low"    // Aggregators, search results, unknown blogs
)

// Weight returns the tier's multiplier in evidence strength
func (t SourceTier) Weight() float64 {
	switch t {
	case TierHigh:
		return 1.0
	case TierLow:
		return 0.55
	default:
		return 0.78
	}
}

// ParseTier converts a tier string, defaulting to medium
func ParseTier(s string) SourceTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "1", "primary":
		return TierHigh
	case "low", "3", "tertiary":
		return TierLow
	default:
		return TierMedium
	}
}

// Label is the stance of an evidence item toward the claim
type Label string

const (
	LabelSupport    Label = "support"
	LabelRefute     Label = "refute"
	LabelRelated    Label = "related"
	LabelIrrelevant Label = "irrelevant"
)

// Weight returns the signed multiplier applied to the item's strength
func (l Label) Weight() float64 {
	switch l {
	case LabelSupport:
		return 1.0
	case LabelRefute:
		return -1.0
	case LabelRelated:
		return 0.15
	default:
		return 0.0
	}
}

// ParseLabel converts a label string; ok is false for values outside the label set
func ParseLabel(s string) (Label, bool) {
	switch Label(strings.ToLower(strings.TrimSpace(s))) {
	case LabelSupport:
		return LabelSupport, true
	case LabelRefute:
		return LabelRefute, true
	case LabelRelated:
		return LabelRelated, true
	case LabelIrrelevant:
		return LabelIrrelevant, true
	default:
		return LabelRelated, false
	}
}

// LabelDecision is one labeler output for an evidence item
type LabelDecision struct {
	Label      Label   `json:"label"`
	Confidence float64 `json:"confidence"` // 0-1
	Reason     string  `json:"reason,omitempty"`
}

// Freshness returns 1/(1+age_days/14) of the item's timestamp. Items without
// any date, or dated in the future, count as fresh.
func (e EvidenceItem) Freshness(now time.Time) float64 {
	ts := e.Timestamp()
	if ts <= 0 {
		return 1
	}
	ageDays := now.Sub(time.Unix(ts, 0)).Hours() / 24
	if ageDays < 0 {
		ageDays = 0
	}
	return 1 / (1 + ageDays/14)
}
