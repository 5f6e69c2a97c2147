package score

import (
	"context"
	"strings"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// Labeler decides the stance of evidence items toward a claim. The returned
// map is keyed by index into items; items without an entry are unlabeled.
type Labeler interface {
	Label(ctx context.Context, claim model.Claim, items []model.EvidenceItem) map[int]model.LabelDecision
}

// Heuristic relevance cut-offs
const (
	irrelevantBelow = 0.20
	supportFrom     = 0.62
	relatedFrom     = 0.36
)

// negationTerms mark denials and retractions in fa and en
var negationTerms = []string{
	"تکذیب", "رد شد", "شایعه", "نادرست", "دروغ",
	"false", "fake", "hoax", "not true", "denied", "rumor", "retracted", "debunked",
}

// HeuristicLabeler labels by relevance and negation agreement
type HeuristicLabeler struct{}

// NewHeuristicLabeler creates the fallback labeler
func NewHeuristicLabeler() *HeuristicLabeler {
	return &HeuristicLabeler{}
}

// Label labels every item
func (h *HeuristicLabeler) Label(_ context.Context, claim model.Claim, items []model.EvidenceItem) map[int]model.LabelDecision {
	claimNegated := HasNegation(claim.Text)
	decisions := make(map[int]model.LabelDecision, len(items))
	for i, item := range items {
		decisions[i] = h.decide(claimNegated, item)
	}
	return decisions
}

func (h *HeuristicLabeler) decide(claimNegated bool, item model.EvidenceItem) model.LabelDecision {
	r := item.Relevance
	switch {
	case r < irrelevantBelow:
		return model.LabelDecision{Label: model.LabelIrrelevant, Confidence: 0.30, Reason: "low relevance"}
	case r >= supportFrom:
		if HasNegation(item.Text()) != claimNegated {
			return model.LabelDecision{Label: model.LabelRefute, Confidence: 0.58, Reason: "negation mismatch"}
		}
		return model.LabelDecision{Label: model.LabelSupport, Confidence: 0.60, Reason: "high relevance"}
	case r >= relatedFrom:
		return model.LabelDecision{Label: model.LabelRelated, Confidence: 0.52, Reason: "partial overlap"}
	default:
		return model.LabelDecision{Label: model.LabelIrrelevant, Confidence: 0.35, Reason: "weak overlap"}
	}
}

// HasNegation reports whether text contains a denial or retraction term
func HasNegation(text string) bool {
	normalized := normalize.Normalize(text)
	if normalized == "" {
		return false
	}
	for _, term := range negationTerms {
		if strings.Contains(normalized, term) {
			return true
		}
	}
	return false
}

// ChainLabeler asks primary first and fills the gaps with fallback
type ChainLabeler struct {
	primary  Labeler
	fallback Labeler
}

// NewChainLabeler creates a chain; a nil primary behaves like fallback alone
func NewChainLabeler(primary, fallback Labeler) *ChainLabeler {
	if fallback == nil {
		fallback = NewHeuristicLabeler()
	}
	return &ChainLabeler{primary: primary, fallback: fallback}
}

// Label labels items with primary and uses fallback for anything it skipped
func (c *ChainLabeler) Label(ctx context.Context, claim model.Claim, items []model.EvidenceItem) map[int]model.LabelDecision {
	decisions := make(map[int]model.LabelDecision, len(items))
	if c.primary != nil {
		for idx, d := range c.primary.Label(ctx, claim, items) {
			if idx < 0 || idx >= len(items) {
				continue
			}
			if _, ok := model.ParseLabel(string(d.Label)); !ok {
				d.Label = model.LabelRelated
			}
			decisions[idx] = d
		}
	}
	if len(decisions) == len(items) {
		return decisions
	}

	for idx, d := range c.fallback.Label(ctx, claim, items) {
		if _, done := decisions[idx]; !done {
			decisions[idx] = d
		}
	}
	return decisions
}
