package model

import "errors"

// ErrEmptyInput is returned when a request carries no analyzable text.
// It is a validation failure, not an inconclusive answer.
var ErrEmptyInput = errors.New("input text is empty")

// ScoredResult is the aggregate of one scoring pass
type ScoredResult struct {
	TruthProb  float64     `json:"truth_prob"`  // In [0.03, 0.97] (blending may widen to [0.02, 0.98])
	FakeProb   float64     `json:"fake_prob"`   // 1 - TruthProb
	Confidence float64     `json:"confidence"`  // Independent of TruthProb, in [0.10, 0.97]
	Verdict    Verdict     `json:"verdict"`     // Derived from TruthProb and Confidence jointly
	Reason     ScoreReason `json:"score_reason"`
	ReasonText string      `json:"score_reason_text"` // One-line human-readable justification

	SupportCount int `json:"support_count"`
	RefuteCount  int `json:"refute_count"`
	RelatedCount int `json:"related_count"`
	SourceCount  int `json:"source_count"` // Distinct publishers, not documents

	NetScore      float64 `json:"net_score"`
	TotalStrength float64 `json:"total_strength"`
	Coverage      float64 `json:"coverage"`

	Evidence []EvidenceItem `json:"evidence"` // Sorted by |effect| descending
	Signals  []Signal       `json:"signals,omitempty"`
}

// Verdict is the human-facing categorical conclusion
type Verdict string

const (
	VerdictUncertain   Verdict = "uncertain"
	VerdictLikelyTrue  Verdict = "likely_true"
	VerdictLikelyFalse Verdict = "likely_false"
	VerdictNeedsReview Verdict = "needs_review"
)

// ScoreReason explains why an aggregate came out the way it did
type ScoreReason string

const (
	ReasonNoEvidence     ScoreReason = "no_evidence"
	ReasonConflicting    ScoreReason = "conflicting_evidence"
	ReasonLowConfidence  ScoreReason = "low_confidence"
	ReasonNearBalanced   ScoreReason = "near_balanced"
	ReasonBlendedWithWeb ScoreReason = "blended_with_ai_web"
	ReasonScored         ScoreReason = "scored"
)

// Signal represents a diagnostic signal with transparent scoring data
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"` // Formula and inputs
}

// SignalType classifies the type of diagnostic signal
type SignalType string

const (
	SignalCoverage     SignalType = "source_coverage"   // Distinct publishers vs. saturation point
	SignalNetEvidence  SignalType = "net_evidence"      // Signed sum of effects through the sigmoid
	SignalStrength     SignalType = "evidence_strength" // Mean |effect| and sample size
	SignalConflict     SignalType = "conflict"          // Support and refute both present
	SignalStaleSources SignalType = "stale_sources"     // Most evidence older than the recency window
	SignalWebBlend     SignalType = "ai_web_blend"      // External verdict merged in
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)

// WebSource is one source cited by an external web verdict
type WebSource struct {
	Title string `json:"title,omitempty"`
	URL   string `json:"url"`
}

// AIWebVerdict is an independently sourced verdict from an external AI web search.
// It is blended into a ScoredResult, never substituted for it.
type AIWebVerdict struct {
	TruthProb   float64     `json:"truth_prob"` // 0-1
	Confidence  float64     `json:"confidence"` // 0-1
	Explanation string      `json:"explanation,omitempty"`
	Sources     []WebSource `json:"sources"`
}

// Reasoning is the structured multi-part explanation from the AI collaborator
type Reasoning struct {
	Overall string          `json:"overall,omitempty"`
	Why     string          `json:"why,omitempty"`
	Parts   []ReasoningPart `json:"parts,omitempty"`
	Missing string          `json:"missing,omitempty"`
}

// ReasoningPart assesses one sub-claim
type ReasoningPart struct {
	ClaimPart string `json:"claim_part"`
	Status    string `json:"status"` // true, false, uncertain
	Why       string `json:"why,omitempty"`
	Evidence  []int  `json:"evidence,omitempty"` // 1-based evidence indexes
}

// RefreshInfo summarizes one indexed-feed refresh attempt
type RefreshInfo struct {
	Skipped bool   `json:"skipped"`
	Reason  string `json:"reason,omitempty"`
	Feeds   int    `json:"feeds"`
	Failed  int    `json:"failed"`
	Items   int    `json:"items"`
	Pruned  int64  `json:"pruned"`
	TookMS  int64  `json:"took_ms"`
}

// Diagnostics describes what retrieval did for one request
type Diagnostics struct {
	Refresh        RefreshInfo `json:"refresh"`
	IndexedCount   int         `json:"indexed_count"`
	QueryFeedCount int         `json:"query_feed_count"`
	WebCount       int         `json:"web_count"`
	MergedCount    int         `json:"merged_count"`
	CandidateCount int         `json:"candidate_count"`
	Relaxed        bool        `json:"relaxed"` // Selection fell back to the relaxed pass
	Failures       []string    `json:"failures,omitempty"`
	AILabels       int         `json:"ai_labels"`
	WebVerdictUsed bool        `json:"web_verdict_used"`
}

// Result is the complete output of one fact-check run
type Result struct {
	Claim       Claim         `json:"claim"`
	Mode        Mode          `json:"mode"`
	Score       ScoredResult  `json:"score"`
	Reasoning   *Reasoning    `json:"reasoning,omitempty"`
	WebVerdict  *AIWebVerdict `json:"web_verdict,omitempty"`
	Diagnostics Diagnostics   `json:"diagnostics"`
	CheckedAt   int64         `json:"checked_at"`
}
