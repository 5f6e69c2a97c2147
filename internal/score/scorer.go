// Package score turns labeled evidence into a credibility aggregate
package score

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// Aggregation constants
const (
	coverageSaturation = 6.0  // Distinct sources for full coverage
	sigmoidSteepness   = 2.7  // Slope applied to the net score
	truthFloor         = 0.03 // Truth is never fully certain
	truthCeil          = 0.97
	confidenceFloor    = 0.10
	confidenceCeil     = 0.97
	verdictConfidence  = 0.45 // Below this the verdict is uncertain
	likelyTrueFrom     = 0.65
	likelyFalseBelow   = 0.35
	conflictRatio      = 0.5
	nearBalancedWithin = 0.08
	staleAfterDays     = 120
)

// Scorer labels evidence and computes the credibility aggregate
type Scorer struct {
	labeler Labeler
}

// NewScorer creates a scorer; a nil labeler uses the heuristic labeler
func NewScorer(labeler Labeler) *Scorer {
	if labeler == nil {
		labeler = NewHeuristicLabeler()
	}
	return &Scorer{labeler: labeler}
}

// Score labels items, weighs them and aggregates the result
func (s *Scorer) Score(ctx context.Context, claim model.Claim, items []model.EvidenceItem, now time.Time) model.ScoredResult {
	if len(items) == 0 {
		return NeutralResult()
	}

	evidence := make([]model.EvidenceItem, len(items))
	copy(evidence, items)

	signatures := claim.Signatures(nil)
	for i := range evidence {
		if evidence[i].Relevance == 0 {
			evidence[i].Relevance = relevance(evidence[i], signatures)
		}
	}

	heuristic := NewHeuristicLabeler()
	decisions := s.labeler.Label(ctx, claim, evidence)
	claimNegated := HasNegation(claim.Text)

	result := model.ScoredResult{}
	var positive, negative float64
	for i := range evidence {
		item := &evidence[i]
		d, ok := decisions[i]
		if !ok {
			d = heuristic.decide(claimNegated, *item)
		}
		if label, valid := model.ParseLabel(string(d.Label)); valid {
			d.Label = label
		} else {
			d.Label = model.LabelRelated
		}

		item.Label = d.Label
		item.LabelConf = clamp(d.Confidence, 0, 1)
		item.LabelReason = d.Reason
		item.Effect = d.Label.Weight() * Unit(*item, now)

		switch d.Label {
		case model.LabelSupport:
			result.SupportCount++
		case model.LabelRefute:
			result.RefuteCount++
		case model.LabelRelated:
			result.RelatedCount++
		}

		result.NetScore += item.Effect
		result.TotalStrength += math.Abs(item.Effect)
		if item.Effect > 0 {
			positive += item.Effect
		} else {
			negative -= item.Effect
		}
	}

	n := float64(len(evidence))
	result.SourceCount = distinctSources(evidence)
	result.Coverage = math.Min(1, float64(result.SourceCount)/coverageSaturation)

	base := sigmoid(sigmoidSteepness * result.NetScore)
	result.TruthProb = clamp(0.88*base+0.12*result.Coverage, truthFloor, truthCeil)
	result.FakeProb = 1 - result.TruthProb
	result.Confidence = clamp(
		0.23+math.Min(0.43, result.TotalStrength/math.Max(1, n))+0.20*result.Coverage+0.12*math.Min(1, n/8),
		confidenceFloor, confidenceCeil)
	result.Verdict = VerdictFor(result.TruthProb, result.Confidence)

	conflict := result.SupportCount > 0 && result.RefuteCount > 0 &&
		math.Min(positive, negative)/math.Max(positive, negative) >= conflictRatio
	result.Reason, result.ReasonText = reasonFor(result, conflict, positive, negative)

	sort.SliceStable(evidence, func(i, j int) bool {
		return math.Abs(evidence[i].Effect) > math.Abs(evidence[j].Effect)
	})
	result.Evidence = evidence
	result.Signals = s.signals(result, evidence, conflict, positive, negative, now)

	return result
}

// NeutralResult is the fixed aggregate for an empty evidence pool
func NeutralResult() model.ScoredResult {
	return model.ScoredResult{
		TruthProb:  0.5,
		FakeProb:   0.5,
		Confidence: 0.15,
		Verdict:    model.VerdictUncertain,
		Reason:     model.ReasonNoEvidence,
		ReasonText: "no evidence was retrieved for this claim",
		Evidence:   []model.EvidenceItem{},
		Signals: []model.Signal{{
			Type:        model.SignalCoverage,
			Severity:    model.SeverityCritical,
			Description: "No evidence retrieved",
			Data:        map[string]any{"sources": 0, "evidence": 0},
		}},
	}
}

// Unit is the label-independent strength of an item:
// tier * (0.35+0.65c) * (0.30+0.70r) * (0.55+0.45f)
func Unit(item model.EvidenceItem, now time.Time) float64 {
	return item.Tier.Weight() *
		(0.35 + 0.65*clamp(item.LabelConf, 0, 1)) *
		(0.30 + 0.70*clamp(item.Relevance, 0, 1)) *
		(0.55 + 0.45*item.Freshness(now))
}

// VerdictFor maps truth and confidence to a verdict
func VerdictFor(truth, confidence float64) model.Verdict {
	switch {
	case confidence < verdictConfidence:
		return model.VerdictUncertain
	case truth >= likelyTrueFrom:
		return model.VerdictLikelyTrue
	case truth <= likelyFalseBelow:
		return model.VerdictLikelyFalse
	default:
		return model.VerdictNeedsReview
	}
}

func reasonFor(r model.ScoredResult, conflict bool, positive, negative float64) (model.ScoreReason, string) {
	switch {
	case conflict:
		return model.ReasonConflicting, fmt.Sprintf("%d supporting and %d refuting items carry comparable weight (%.2f vs %.2f)",
			r.SupportCount, r.RefuteCount, positive, negative)
	case r.Confidence < verdictConfidence:
		return model.ReasonLowConfidence, fmt.Sprintf("confidence %.2f is below %.2f with %d sources",
			r.Confidence, verdictConfidence, r.SourceCount)
	case math.Abs(r.TruthProb-0.5) < nearBalancedWithin:
		return model.ReasonNearBalanced, fmt.Sprintf("truth probability %.2f is close to even (net %+.2f)",
			r.TruthProb, r.NetScore)
	default:
		return model.ReasonScored, fmt.Sprintf("net evidence %+.2f from %d sources (%d support, %d refute)",
			r.NetScore, r.SourceCount, r.SupportCount, r.RefuteCount)
	}
}

// signals records the formula inputs of the aggregate
func (s *Scorer) signals(r model.ScoredResult, evidence []model.EvidenceItem, conflict bool, positive, negative float64, now time.Time) []model.Signal {
	coverageSeverity := model.SeverityInfo
	if r.SourceCount < 2 {
		coverageSeverity = model.SeverityCritical
	} else if r.SourceCount < 4 {
		coverageSeverity = model.SeverityWarning
	}

	signals := []model.Signal{
		{
			Type:        model.SignalCoverage,
			Severity:    coverageSeverity,
			Description: fmt.Sprintf("Source diversity: %d distinct publishers", r.SourceCount),
			Data: map[string]any{
				"sources":  r.SourceCount,
				"coverage": r.Coverage,
				"formula":  "min(1, distinct_sources / 6)",
			},
		},
		{
			Type:        model.SignalNetEvidence,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Net evidence %+.2f", r.NetScore),
			Data: map[string]any{
				"net_score":  r.NetScore,
				"truth_prob": r.TruthProb,
				"formula":    "clamp(0.88*sigmoid(2.7*net) + 0.12*coverage, 0.03, 0.97)",
			},
		},
		{
			Type:        model.SignalStrength,
			Severity:    model.SeverityInfo,
			Description: fmt.Sprintf("Evidence strength %.2f over %d items", r.TotalStrength, len(evidence)),
			Data: map[string]any{
				"total_strength": r.TotalStrength,
				"items":          len(evidence),
				"confidence":     r.Confidence,
				"formula":        "clamp(0.23 + min(0.43, strength/max(1,n)) + 0.20*coverage + 0.12*min(1, n/8), 0.10, 0.97)",
			},
		},
	}

	if conflict {
		signals = append(signals, model.Signal{
			Type:        model.SignalConflict,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Conflicting evidence: %d support, %d refute", r.SupportCount, r.RefuteCount),
			Data: map[string]any{
				"positive": positive,
				"negative": negative,
				"ratio":    math.Min(positive, negative) / math.Max(positive, negative),
			},
		})
	}

	// Most of the pool predates the recency window
	cutoff := now.AddDate(0, 0, -staleAfterDays).Unix()
	stale := 0
	for _, item := range evidence {
		if ts := item.Timestamp(); ts > 0 && ts < cutoff {
			stale++
		}
	}
	if stale*2 > len(evidence) {
		signals = append(signals, model.Signal{
			Type:        model.SignalStaleSources,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d of %d items are older than %d days", stale, len(evidence), staleAfterDays),
			Data: map[string]any{
				"stale":       stale,
				"items":       len(evidence),
				"window_days": staleAfterDays,
			},
		})
	}

	return signals
}

func relevance(item model.EvidenceItem, signatures []string) float64 {
	text := item.Text()
	best := 0.0
	for _, sig := range signatures {
		if v := normalize.Similarity(sig, text); v > best {
			best = v
		}
	}
	return best
}

func distinctSources(items []model.EvidenceItem) int {
	seen := make(map[string]bool)
	for _, item := range items {
		if key := normalize.Normalize(item.Source); key != "" {
			seen[key] = true
		}
	}
	return len(seen)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
