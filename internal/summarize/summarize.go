// Package summarize builds extractive summaries: sentences are scored by
// term frequency, TextRank centrality and hard-fact signals, then picked with
// maximal marginal relevance under a character budget.
package summarize

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-pkgz/lgr"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// NoTextMessage is shown for input with nothing to summarize
const NoTextMessage = "⛔️ متن قابل خلاصه‌سازی پیدا نشد."

// ErrNoText is returned for empty or markup-only input
var ErrNoText = errors.New("no text to summarize")

const (
	defaultMaxInput  = 12000
	defaultMaxOutput = 1900

	outputShare   = 0.60
	outputFloor   = 150
	keywordCount  = 5
	singleShrink  = 420
	titleSummary  = "📝 خلاصه"
	titleScam     = "🚨 هشدار الگوی پرخطر"
	headPoints    = "🔹 نکات کلیدی"
	headFacts     = "📌 موارد حساس"
	headKeywords  = "🏷 کلیدواژه‌ها: "
	pointPrefix   = "• "
	keywordJoiner = "، "
)

// Summary is a structured summarization result
type Summary struct {
	Text        string     `json:"text"`
	KeyPoints   []string   `json:"key_points,omitempty"`
	Facts       []string   `json:"facts,omitempty"`
	Keywords    []string   `json:"keywords,omitempty"`
	Sentences   int        `json:"sentences"`
	SourceChars int        `json:"source_chars"` // Runes of the cleaned input
	Detection   *Detection `json:"detection,omitempty"`
}

// Summarizer runs detectors, then generic extraction
type Summarizer struct {
	detectors []Detector
	maxInput  int
	maxOutput int
}

// New creates a summarizer. Without detectors the built-in ones are used.
func New(cfg model.SummaryConfig, detectors ...Detector) *Summarizer {
	if len(detectors) == 0 {
		detectors = DefaultDetectors()
	}
	s := &Summarizer{detectors: detectors, maxInput: cfg.MaxInputChars, maxOutput: cfg.MaxOutputChars}
	if s.maxInput <= 0 {
		s.maxInput = defaultMaxInput
	}
	if s.maxOutput <= 0 {
		s.maxOutput = defaultMaxOutput
	}
	return s
}

// Summarize extracts the summary of text
func (s *Summarizer) Summarize(text string) (*Summary, error) {
	cleaned := prepare(text)
	if cleaned == "" {
		return nil, ErrNoText
	}
	if utf8.RuneCountInString(cleaned) > s.maxInput {
		cleaned = normalize.Ellipsize(cleaned, s.maxInput)
	}
	out := &Summary{
		SourceChars: utf8.RuneCountInString(cleaned),
		Facts:       sensitiveFacts(cleaned),
		Keywords:    normalize.Keywords(cleaned, keywordCount),
	}

	for _, d := range s.detectors {
		if det, ok := d.Detect(cleaned); ok {
			lgr.Printf("[DEBUG] summarizer detector %s fired on %v", det.Detector, det.Signals)
			out.Detection = det
			out.Text = det.Summary
			out.KeyPoints = det.KeyPoints
			return out, nil
		}
	}

	texts := segment(cleaned)
	out.Sentences = len(texts)
	if len(texts) <= 1 {
		single := normalize.Ellipsize(normalize.OneLine(cleaned), singleShrink)
		out.Text = single
		out.KeyPoints = []string{single}
		return out, nil
	}

	sents := newSentences(texts)
	sim := similarityMatrix(sents)
	scoreSentences(sents, sim)

	picked := selectMMR(sents, sim, out.SourceChars)
	parts := make([]string, len(picked))
	for i, p := range picked {
		parts[i] = p.text
	}
	out.Text = strings.Join(parts, " ")
	out.KeyPoints = keyPoints(sents)
	return out, nil
}

// Limit returns the output ceiling for a cleaned input of n runes:
// 60% of the input with a small floor, never above the configured maximum
func (s *Summarizer) Limit(n int) int {
	limit := int(math.Max(outputShare*float64(n), outputFloor))
	if limit > s.maxOutput {
		limit = s.maxOutput
	}
	return limit
}

// Render formats a summary within the output ceiling. The keyword footer
// goes first, then bullets from the end, then the summary text is
// ellipsized. The result is never empty.
func (s *Summarizer) Render(sum *Summary) string {
	limit := s.Limit(sum.SourceChars)

	title := titleSummary
	if sum.Detection != nil {
		title = titleScam
	}
	text := sum.Text
	points := append([]string(nil), sum.KeyPoints...)
	facts := append([]string(nil), sum.Facts...)
	keywords := len(sum.Keywords) > 0

	build := func() string {
		lines := []string{title, text}
		if len(points) > 0 {
			lines = append(lines, "", headPoints)
			for _, p := range points {
				lines = append(lines, pointPrefix+p)
			}
		}
		if len(facts) > 0 {
			lines = append(lines, "", headFacts)
			for _, f := range facts {
				lines = append(lines, pointPrefix+f)
			}
		}
		if keywords {
			lines = append(lines, "", headKeywords+strings.Join(sum.Keywords, keywordJoiner))
		}
		return strings.Join(lines, "\n")
	}

	out := build()
	for utf8.RuneCountInString(out) > limit {
		switch {
		case keywords:
			keywords = false
		case len(facts) > 0:
			facts = facts[:len(facts)-1]
		case len(points) > 0:
			points = points[:len(points)-1]
		default:
			room := limit - utf8.RuneCountInString(title) - 1
			if room < 1 {
				return normalize.Ellipsize(text, limit)
			}
			return title + "\n" + normalize.Ellipsize(text, room)
		}
		out = build()
	}
	return out
}

// Text summarizes and renders in one step; empty input yields NoTextMessage
func (s *Summarizer) Text(text string) string {
	sum, err := s.Summarize(text)
	if err != nil {
		return NoTextMessage
	}
	return s.Render(sum)
}
