package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/cache"
	"github.com/ppiankov/factline/internal/model"
)

const (
	maxClaimWords = 35
	maxParts      = 6
	maxWebSources = 6
)

// ErrDisabled is returned when no provider is configured
var ErrDisabled = errors.New("AI collaborator is disabled")

// Assistant runs the fact-check prompts against a Provider, caching raw answers
type Assistant struct {
	provider Provider
	cache    cache.Cache
	ttl      time.Duration
}

// NewAssistant creates an assistant; a nil cache disables response caching
func NewAssistant(provider Provider, c cache.Cache, ttl time.Duration) *Assistant {
	return &Assistant{provider: provider, cache: c, ttl: ttl}
}

// Enabled reports whether a provider is configured
func (a *Assistant) Enabled() bool {
	return a != nil && a.provider != nil
}

// Name returns the provider name, or "" when disabled
func (a *Assistant) Name() string {
	if !a.Enabled() {
		return ""
	}
	return a.provider.Name()
}

// LabelsResult is the validated outcome of LabelEvidence
type LabelsResult struct {
	OK        bool
	Malformed string
	Labels    map[int]model.LabelDecision // 0-based evidence index
}

// ReasoningResult is the validated outcome of Reason
type ReasoningResult struct {
	OK        bool
	Malformed string
	Reasoning model.Reasoning
}

// WebVerdictResult is the validated outcome of WebVerdict
type WebVerdictResult struct {
	OK        bool
	Malformed string
	Verdict   model.AIWebVerdict
}

// DistillClaim asks for one fact-checkable sentence of at most 35 words
func (a *Assistant) DistillClaim(ctx context.Context, text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}

	prompt := "You are extracting a single fact-checkable claim from a news text.\n" +
		"Return one concise sentence (max 35 words) that preserves entities, numbers, and dates.\n" +
		"Do not explain. Do not add uncertainty words.\n\n" +
		"Text:\n" + text

	raw, err := a.complete(ctx, Request{Prompt: prompt, MaxTokens: 120})
	if err != nil {
		lgr.Printf("[WARN] claim distillation failed: %v", err)
		return "", false
	}

	claim := firstLine(raw)
	if words := strings.Fields(claim); len(words) > maxClaimWords {
		claim = strings.Join(words[:maxClaimWords], " ")
	}
	claim = clip(claim, model.MaxClaimLength)
	return claim, claim != ""
}

// Translate renders a claim in the target language, keeping names and numbers
func (a *Assistant) Translate(ctx context.Context, text string, target model.Lang) (string, bool) {
	text = strings.TrimSpace(text)
	var lang string
	switch target {
	case model.LangEN:
		lang = "English"
	case model.LangFA:
		lang = "Persian"
	default:
		return "", false
	}
	if text == "" {
		return "", false
	}

	prompt := "Translate this news claim accurately. " +
		"Target language: " + lang + ". " +
		"Keep names, numbers, and dates exact. " +
		"Return only the translated sentence.\n\n" +
		"Claim: " + text

	raw, err := a.complete(ctx, Request{Prompt: prompt, MaxTokens: 140})
	if err != nil {
		lgr.Printf("[WARN] translation to %s failed: %v", target, err)
		return "", false
	}

	out := clip(firstLine(raw), model.MaxClaimLength)
	if out == "" || out == text {
		return "", false
	}
	return out, true
}

type labelAnswer struct {
	Idx        flexNumber `json:"idx"`
	Label      string     `json:"label"`
	Confidence flexNumber `json:"confidence"`
	Reason     string     `json:"reason"`
}

// LabelEvidence classifies every item against the claim
func (a *Assistant) LabelEvidence(ctx context.Context, claim model.Claim, items []model.EvidenceItem) LabelsResult {
	if len(items) == 0 {
		return LabelsResult{Malformed: "no evidence"}
	}

	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = fmt.Sprintf("%d. source=%s | title=%s | summary=%s",
			i+1, clip(item.Source, 60), clip(item.Title, 180), clip(item.Summary, 220))
	}

	prompt := "You are a fact-check evidence classifier.\n" +
		"Given one claim and evidence headlines/snippets, label each line as one of:\n" +
		"support, refute, related, irrelevant.\n" +
		"Return JSON array only with shape:\n" +
		`[{"idx":1,"label":"support","confidence":0-100,"reason":"short"}]` + "\n" +
		"Confidence must reflect evidence strength for this specific claim.\n\n" +
		"Claim: " + claim.Text + "\n\n" +
		"Evidence:\n" + strings.Join(lines, "\n")

	raw, err := a.complete(ctx, Request{Prompt: prompt, MaxTokens: 700, JSON: true})
	if err != nil {
		return LabelsResult{Malformed: err.Error()}
	}
	return parseLabels(raw, len(items))
}

func parseLabels(raw string, n int) LabelsResult {
	var answers []labelAnswer
	if err := decodeArray(raw, &answers); err != nil {
		return LabelsResult{Malformed: err.Error()}
	}

	labels := make(map[int]model.LabelDecision, len(answers))
	for _, ans := range answers {
		if !ans.Idx.Set {
			continue
		}
		idx := int(ans.Idx.Value)
		if idx < 1 || idx > n {
			continue
		}
		label, _ := model.ParseLabel(ans.Label) // invalid labels come back as related
		labels[idx-1] = model.LabelDecision{
			Label:      label,
			Confidence: percent(ans.Confidence.or(50)),
			Reason:     clip(ans.Reason, 200),
		}
	}
	if len(labels) == 0 {
		return LabelsResult{Malformed: "no label matched an evidence index"}
	}
	return LabelsResult{OK: true, Labels: labels}
}

type reasoningAnswer struct {
	Overall string `json:"overall"`
	Why     string `json:"why"`
	Parts   []struct {
		ClaimPart string   `json:"claim_part"`
		Status    string   `json:"status"`
		Why       string   `json:"why"`
		Evidence  flexInts `json:"evidence"`
	} `json:"parts"`
	Missing string `json:"missing"`
}

// Reason asks for a Persian, evidence-grounded breakdown of the claim
func (a *Assistant) Reason(ctx context.Context, claim model.Claim, items []model.EvidenceItem, scored model.ScoredResult) ReasoningResult {
	if len(items) == 0 {
		return ReasoningResult{Malformed: "no evidence"}
	}

	lines := make([]string, len(items))
	for i, item := range items {
		date := "unknown"
		if ts := item.Timestamp(); ts > 0 {
			date = time.Unix(ts, 0).UTC().Format("2006-01-02")
		}
		label := item.Label
		if label == "" {
			label = model.LabelRelated
		}
		lines[i] = fmt.Sprintf("%d. source=%s | date=%s | label=%s | title=%s | summary=%s | link=%s",
			i+1, clip(item.Source, 70), date, label, clip(item.Title, 170), clip(item.Summary, 220), item.Link)
	}

	prompt := "You are an evidence-grounded fact-check analyst.\n" +
		"Use ONLY the provided evidence. Do not invent facts.\n" +
		"Return strict JSON object with this shape:\n" +
		`{"overall":"short verdict in Persian","why":"concise explanation in Persian",` +
		`"parts":[{"claim_part":"...","status":"true|false|uncertain","why":"...","evidence":[1,2]}],` +
		`"missing":"what is missing to conclude with high confidence"}` + "\n" +
		"Rules:\n" +
		"- For each part, cite evidence indexes that directly support the statement.\n" +
		"- If evidence conflicts, mark uncertain.\n" +
		"- Keep output concise and factual.\n\n" +
		"Claim: " + claim.Text + "\n" +
		fmt.Sprintf("Score summary: truth_prob=%.2f, fake_prob=%.2f, confidence=%.2f\n\n",
			scored.TruthProb, scored.FakeProb, scored.Confidence) +
		"Evidence list:\n" + strings.Join(lines, "\n")

	raw, err := a.complete(ctx, Request{Prompt: prompt, MaxTokens: 820, JSON: true})
	if err != nil {
		return ReasoningResult{Malformed: err.Error()}
	}
	return parseReasoning(raw, len(items))
}

func parseReasoning(raw string, n int) ReasoningResult {
	var ans reasoningAnswer
	if err := decodeObject(raw, &ans); err != nil {
		return ReasoningResult{Malformed: err.Error()}
	}

	out := model.Reasoning{
		Overall: clip(ans.Overall, 260),
		Why:     clip(ans.Why, 360),
		Missing: clip(ans.Missing, 320),
	}
	for _, p := range ans.Parts {
		if len(out.Parts) == maxParts {
			break
		}
		status := strings.ToLower(strings.TrimSpace(p.Status))
		if status != "true" && status != "false" {
			status = "uncertain"
		}
		out.Parts = append(out.Parts, model.ReasoningPart{
			ClaimPart: clip(p.ClaimPart, 220),
			Status:    status,
			Why:       clip(p.Why, 260),
			Evidence:  validIndexes(p.Evidence, n),
		})
	}

	if out.Overall == "" && out.Why == "" && len(out.Parts) == 0 {
		return ReasoningResult{Malformed: "empty reasoning"}
	}
	return ReasoningResult{OK: true, Reasoning: out}
}

// validIndexes keeps distinct 1-based indexes within [1,n], sorted
func validIndexes(idxs []int, n int) []int {
	seen := make(map[int]bool, len(idxs))
	var out []int
	for _, i := range idxs {
		if i >= 1 && i <= n && !seen[i] {
			seen[i] = true
			out = append(out, i)
		}
	}
	sort.Ints(out)
	return out
}

type webVerdictAnswer struct {
	TruthProb   flexNumber `json:"truth_prob"`
	Confidence  flexNumber `json:"confidence"`
	Explanation string     `json:"explanation"`
	Sources     []struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"sources"`
}

// WebVerdict asks a search-capable model for an independent verdict with cited sources
func (a *Assistant) WebVerdict(ctx context.Context, claim model.Claim) WebVerdictResult {
	if strings.TrimSpace(claim.Text) == "" {
		return WebVerdictResult{Malformed: "empty claim"}
	}

	var b strings.Builder
	b.WriteString("You are a news fact-checker with web search.\n")
	b.WriteString("Search recent reporting about the claim and judge whether it is true.\n")
	b.WriteString("Cite at least two independent sources you actually found.\n")
	b.WriteString("Return strict JSON object with this shape:\n")
	b.WriteString(`{"truth_prob":0-100,"confidence":0-100,"explanation":"one or two sentences",` +
		`"sources":[{"title":"...","url":"https://..."}]}` + "\n\n")
	b.WriteString("Claim: " + claim.Text + "\n")
	if claim.Translated != "" {
		b.WriteString("Translated claim: " + claim.Translated + "\n")
	}

	raw, err := a.complete(ctx, Request{Prompt: b.String(), MaxTokens: 600, JSON: true})
	if err != nil {
		return WebVerdictResult{Malformed: err.Error()}
	}
	return parseWebVerdict(raw)
}

func parseWebVerdict(raw string) WebVerdictResult {
	var ans webVerdictAnswer
	if err := decodeObject(raw, &ans); err != nil {
		return WebVerdictResult{Malformed: err.Error()}
	}
	if !ans.TruthProb.Set {
		return WebVerdictResult{Malformed: "missing truth_prob"}
	}

	verdict := model.AIWebVerdict{
		TruthProb:   percent(ans.TruthProb.Value),
		Confidence:  percent(ans.Confidence.or(50)),
		Explanation: clip(ans.Explanation, 400),
	}
	seen := make(map[string]bool)
	for _, src := range ans.Sources {
		link := strings.TrimSpace(src.URL)
		u, err := url.Parse(link)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" || seen[link] {
			continue
		}
		seen[link] = true
		verdict.Sources = append(verdict.Sources, model.WebSource{Title: clip(src.Title, 160), URL: link})
		if len(verdict.Sources) == maxWebSources {
			break
		}
	}
	if len(verdict.Sources) < 2 {
		return WebVerdictResult{Malformed: fmt.Sprintf("%d usable sources, need 2", len(verdict.Sources))}
	}
	return WebVerdictResult{OK: true, Verdict: verdict}
}

// complete runs one request through the response cache
func (a *Assistant) complete(ctx context.Context, req Request) (string, error) {
	if !a.Enabled() {
		return "", ErrDisabled
	}

	key := cache.CacheKey("llm", a.provider.Name(), req.Model, req.System, req.Prompt)
	if a.cache != nil {
		if val, ok := a.cache.Get(key); ok {
			return string(val), nil
		}
	}

	resp, err := a.provider.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", errors.New("empty response")
	}
	lgr.Printf("[DEBUG] %s answered with %d tokens", a.provider.Name(), resp.TokensUsed)

	if a.cache != nil {
		if err := a.cache.Set(key, []byte(resp.Text), a.ttl); err != nil {
			lgr.Printf("[WARN] cache AI response: %v", err)
		}
	}
	return resp.Text, nil
}

// firstLine returns the first non-empty line without wrapping quotes
func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "\"'`«»“”")
		if line != "" {
			return strings.Join(strings.Fields(line), " ")
		}
	}
	return ""
}

// EvidenceLabeler exposes Assistant.LabelEvidence as a score.Labeler.
// Malformed answers yield no decisions so the scorer falls back per item.
// Create one per request; Labeled reports the last call.
type EvidenceLabeler struct {
	assistant *Assistant
	labeled   int
}

// NewEvidenceLabeler wraps an assistant
func NewEvidenceLabeler(a *Assistant) *EvidenceLabeler {
	return &EvidenceLabeler{assistant: a}
}

// Label implements score.Labeler
func (l *EvidenceLabeler) Label(ctx context.Context, claim model.Claim, items []model.EvidenceItem) map[int]model.LabelDecision {
	l.labeled = 0
	res := l.assistant.LabelEvidence(ctx, claim, items)
	if !res.OK {
		lgr.Printf("[WARN] AI labels unusable: %s", res.Malformed)
		return nil
	}
	l.labeled = len(res.Labels)
	return res.Labels
}

// Labeled returns how many items the AI labeled in the last call
func (l *EvidenceLabeler) Labeled() int {
	return l.labeled
}
