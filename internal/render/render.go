// Package render formats fact-check results as chat-sized Persian reports
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"
	_ "time/tzdata" // Asia/Tehran on hosts without zoneinfo
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

const (
	defaultMaxChars = 3900
	minKeptLines    = 14
	maxReportParts  = 5
)

var verdictText = map[model.Verdict]string{
	model.VerdictLikelyTrue:  "احتمالاً واقعی",
	model.VerdictLikelyFalse: "احتمالاً فیک/گمراه‌کننده",
	model.VerdictNeedsReview: "نیازمند بررسی بیشتر",
	model.VerdictUncertain:   "نامطمئن",
}

var reasonText = map[model.ScoreReason]string{
	model.ReasonNoEvidence:     "شاهد کافی پیدا نشد",
	model.ReasonConflicting:    "شواهد موافق و مخالف هم‌وزن هستند",
	model.ReasonLowConfidence:  "منابع برای نتیجه‌گیری با اطمینان کافی نیستند",
	model.ReasonNearBalanced:   "احتمال نزدیک به نیمه است",
	model.ReasonBlendedWithWeb: "ترکیب شواهد با جست‌وجوی وب هوش مصنوعی",
	model.ReasonScored:         "بر اساس وزن شواهد",
}

var labelIcon = map[model.Label]string{
	model.LabelSupport:    "✅",
	model.LabelRefute:     "❌",
	model.LabelRelated:    "➖",
	model.LabelIrrelevant: "▫️",
}

var statusText = map[string]string{
	"true":      "✅ درست",
	"false":     "❌ نادرست",
	"uncertain": "⚪️ نامطمئن",
}

const (
	noEvidenceNotice = "🔎 منبع معتبری برای این ادعا پیدا نشد."
	disclaimer       = "⚠️ این خروجی خودکار است و برای تصمیم حساس باید با منابع رسمی تکمیلی چک شود."
	unknownDate      = "--"
	unknownSource    = "منبع ناشناس"
)

// Renderer builds text reports
type Renderer struct {
	loc      *time.Location
	maxChars int
}

// New creates a renderer for the configured timezone and size ceiling
func New(cfg model.OutputConfig) *Renderer {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil || cfg.Timezone == "" {
		loc = time.FixedZone("IRST", 3*3600+1800)
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	return &Renderer{loc: loc, maxChars: maxChars}
}

// Render formats a result. The output never exceeds the size ceiling and
// always carries the verdict and either one evidence entry or the notice.
func (r *Renderer) Render(res *model.Result) string {
	s := res.Score
	lines := []string{
		"🧪 راستی‌آزمایی خبر",
		"🎯 ادعای اصلی: " + normalize.Truncate(res.Claim.Text, model.MaxClaimLength),
		"🧭 نتیجه: " + verdictFor(s.Verdict),
		fmt.Sprintf("• احتمال واقعی بودن: %d٪", pct(s.TruthProb)),
		fmt.Sprintf("• احتمال فیک/گمراه‌کننده بودن: %d٪", pct(s.FakeProb)),
		fmt.Sprintf("• سطح اطمینان تحلیل: %d٪", pct(s.Confidence)),
		fmt.Sprintf("📚 شواهد: موافق %d | مخالف %d | مرتبط %d", s.SupportCount, s.RefuteCount, s.RelatedCount),
		fmt.Sprintf("🌐 تنوع منبع: %d منبع", s.SourceCount),
		r.reasonLine(res),
	}

	if t := strings.TrimSpace(res.Claim.Translated); t != "" {
		switch res.Claim.Lang {
		case model.LangFA:
			lines = append(lines, "🔄 ترجمه انگلیسی ادعا: "+normalize.Truncate(t, 260))
		case model.LangEN:
			lines = append(lines, "🔄 ترجمه فارسی ادعا: "+normalize.Truncate(t, 260))
		}
	}

	d := res.Diagnostics
	diag := fmt.Sprintf("🛰 بازیابی: نمایه %d | فید جست‌وجو %d | وب %d", d.IndexedCount, d.QueryFeedCount, d.WebCount)
	if res.Mode == model.ModePro {
		diag += fmt.Sprintf(" | نامزد %d", d.CandidateCount)
		if d.Relaxed {
			diag += " (آستانه کاهش‌یافته)"
		}
		if d.AILabels > 0 {
			diag += fmt.Sprintf(" | برچسب AI %d", d.AILabels)
		}
	}
	lines = append(lines, diag)

	if d.WebVerdictUsed && res.WebVerdict != nil {
		lines = append(lines, fmt.Sprintf("🌍 جست‌وجوی وب AI: %d٪ واقعی، %d منبع",
			pct(res.WebVerdict.TruthProb), len(res.WebVerdict.Sources)))
	}

	if res.Reasoning != nil && res.Mode != model.ModeBrief {
		lines = append(lines, reasoningLines(res.Reasoning)...)
	}

	lines = append(lines, "🔎 منابع شاخص:")
	evidenceStart := len(lines) - 1
	limit := res.Mode.EvidenceLimit()
	if len(s.Evidence) == 0 {
		lines = append(lines, noEvidenceNotice)
	}
	for i, item := range s.Evidence {
		if i == limit {
			break
		}
		lines = append(lines, r.evidenceLine(i+1, item))
		if link := strings.TrimSpace(item.Link); link != "" {
			lines = append(lines, normalize.Truncate(link, 300))
		}
	}
	// header plus the first entry (and its link) survive trimming
	evidenceEnd := evidenceStart + 2
	if len(s.Evidence) > 0 && strings.TrimSpace(s.Evidence[0].Link) != "" {
		evidenceEnd++
	}

	lines = append(lines, disclaimer)
	return fit(lines, evidenceStart, evidenceEnd, r.maxChars)
}

// RenderError formats a failed request as a single line
func (r *Renderer) RenderError(err error) string {
	msg := "نامشخص"
	if err != nil {
		msg = err.Error()
	}
	return normalize.Truncate("⛔️ خطا در راستی‌آزمایی: "+normalize.OneLine(msg), r.maxChars)
}

// RenderJSON writes the result as indented JSON
func RenderJSON(w io.Writer, res *model.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(res); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}

func (r *Renderer) reasonLine(res *model.Result) string {
	text, ok := reasonText[res.Score.Reason]
	if !ok {
		text = string(res.Score.Reason)
	}
	line := "🧾 دلیل امتیاز: " + text
	if res.Mode == model.ModePro && res.Score.ReasonText != "" {
		line += " (" + normalize.Truncate(res.Score.ReasonText, 220) + ")"
	}
	return line
}

func (r *Renderer) evidenceLine(idx int, item model.EvidenceItem) string {
	icon, ok := labelIcon[item.Label]
	if !ok {
		icon = labelIcon[model.LabelIrrelevant]
	}
	source := strings.TrimSpace(item.Source)
	if source == "" {
		source = unknownSource
	}
	return fmt.Sprintf("%d) %s [%s] (%s) %s", idx, icon, normalize.Truncate(source, 50),
		r.date(item.PublishedTS), normalize.Truncate(item.Title, 160))
}

// date formats an epoch in the report timezone; unknown dates render as "--"
func (r *Renderer) date(ts int64) string {
	if ts <= 0 {
		return unknownDate
	}
	return time.Unix(ts, 0).In(r.loc).Format("2006-01-02")
}

func reasoningLines(rs *model.Reasoning) []string {
	var lines []string
	if o := strings.TrimSpace(rs.Overall); o != "" {
		lines = append(lines, "🧠 تحلیل هوشمند: "+o)
	}
	if w := strings.TrimSpace(rs.Why); w != "" {
		lines = append(lines, "• چرا: "+w)
	}

	var parts []string
	for i, p := range rs.Parts {
		if i == maxReportParts {
			break
		}
		status, ok := statusText[p.Status]
		if !ok {
			status = statusText["uncertain"]
		}
		if text := strings.TrimSpace(p.ClaimPart); text != "" {
			parts = append(parts, "• "+status+": "+text+refs(p.Evidence))
		}
		if why := strings.TrimSpace(p.Why); why != "" {
			parts = append(parts, "  ↳ "+why)
		}
	}
	if len(parts) > 0 {
		lines = append(lines, "🔬 بررسی جزءبه‌جزء ادعا:")
		lines = append(lines, parts...)
	}

	if m := strings.TrimSpace(rs.Missing); m != "" {
		lines = append(lines, "🧩 شکاف اطلاعاتی: "+m)
	}
	return lines
}

func refs(idxs []int) string {
	if len(idxs) == 0 {
		return ""
	}
	sorted := append([]int(nil), idxs...)
	sort.Ints(sorted)
	strs := make([]string, 0, len(sorted))
	for i, v := range sorted {
		if i > 0 && v == sorted[i-1] {
			continue
		}
		strs = append(strs, fmt.Sprint(v))
	}
	return " [منابع: " + strings.Join(strs, ", ") + "]"
}

// fit drops the second-to-last line while the report is too long and has
// more than minKeptLines lines. Lines in [keepFrom, keepTo) are skipped over,
// so the drop moves to the line just above them. A report that is still too
// long has its longest lines ellipsized.
func fit(lines []string, keepFrom, keepTo, maxChars int) string {
	size := func() int { return utf8.RuneCountInString(strings.Join(lines, "\n")) }

	for size() > maxChars && len(lines) > minKeptLines {
		drop := len(lines) - 2
		if drop < keepTo && drop >= keepFrom {
			drop = keepFrom - 1
			keepFrom--
			keepTo--
		}
		if drop < 3 { // title, claim and verdict stay
			break
		}
		lines = append(lines[:drop], lines[drop+1:]...)
	}

	for excess := size() - maxChars; excess > 0; excess = size() - maxChars {
		longest := -1
		for i := 1; i < len(lines)-1; i++ {
			if longest < 0 || utf8.RuneCountInString(lines[i]) > utf8.RuneCountInString(lines[longest]) {
				longest = i
			}
		}
		if longest < 0 {
			break
		}
		n := utf8.RuneCountInString(lines[longest])
		target := n - excess
		if target < 24 {
			target = 24
		}
		if target >= n {
			break
		}
		lines[longest] = normalize.Ellipsize(lines[longest], target)
	}

	out := strings.Join(lines, "\n")
	if utf8.RuneCountInString(out) > maxChars {
		out = normalize.Truncate(out, maxChars)
	}
	return out
}

func verdictFor(v model.Verdict) string {
	if text, ok := verdictText[v]; ok {
		return text
	}
	return verdictText[model.VerdictUncertain]
}

func pct(v float64) int {
	return int(math.Round(v * 100))
}
