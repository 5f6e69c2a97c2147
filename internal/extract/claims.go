package extract

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// leadLength is how much of a long text is kept when no cue sentence is found
const leadLength = 420

// ClaimExtractor distills a fact-checkable claim from raw news text
type ClaimExtractor struct {
	keywords []string
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor() *ClaimExtractor {
	return &ClaimExtractor{
		keywords: []string{
			"announced", "according to", "confirmed", "denied", "reported",
			"said", "says", "claims", "declared", "has died", "banned",
			"اعلام کرد", "به گزارش", "تایید کرد", "تکذیب", "گفت", "خبر داد",
			"ادعا", "اعلام شد",
		},
	}
}

// Distill returns the claim for text. Short texts are kept whole; long texts
// are reduced to the first sentence carrying a reporting cue, else the lead.
func (e *ClaimExtractor) Distill(text string) model.Claim {
	text = normalize.OneLine(text)
	claim := model.Claim{Heuristic: "full"}

	switch {
	case text == "":
		return claim
	case utf8.RuneCountInString(text) <= leadLength:
		claim.Text = text
	default:
		claim.Text, claim.Heuristic = e.pick(text)
	}

	claim.Text = normalize.Truncate(claim.Text, model.MaxClaimLength)
	claim.Lang = normalize.GuessLanguage(claim.Text)
	claim.Keywords = normalize.Keywords(claim.Text, 7)
	return claim
}

// FromText builds a claim from an externally distilled sentence (e.g., by the AI collaborator)
func (e *ClaimExtractor) FromText(text, heuristic string) model.Claim {
	text = normalize.Truncate(normalize.OneLine(text), model.MaxClaimLength)
	return model.Claim{
		Text:      text,
		Lang:      normalize.GuessLanguage(text),
		Keywords:  normalize.Keywords(text, 7),
		Heuristic: heuristic,
	}
}

// pick selects the cue sentence or the lead of a long text
func (e *ClaimExtractor) pick(text string) (string, string) {
	for _, sentence := range splitSentences(text) {
		lower := strings.ToLower(sentence)
		for _, keyword := range e.keywords {
			if strings.Contains(lower, keyword) {
				return sentence, "keyword:" + keyword
			}
		}
	}
	return normalize.Truncate(text, leadLength), "lead"
}

// Queries returns the de-duplicated search queries for a claim: the claim
// itself, its translation when it differs, and the keyword digest
func Queries(claim model.Claim, max int) []string {
	candidates := []string{claim.Text}
	if claim.Translated != "" && normalize.Normalize(claim.Translated) != normalize.Normalize(claim.Text) {
		candidates = append(candidates, claim.Translated)
	}
	if len(claim.Keywords) > 0 {
		candidates = append(candidates, strings.Join(claim.Keywords, " "))
	}

	var queries []string
	seen := make(map[string]bool)
	for _, q := range candidates {
		q = normalize.OneLine(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		queries = append(queries, q)
	}
	if max > 0 && len(queries) > max {
		queries = queries[:max]
	}
	return queries
}

// splitSentences splits text into sentences of at least 20 bytes
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		sentence := strings.TrimSpace(current.String())
		if len(sentence) >= 20 {
			sentences = append(sentences, sentence)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		switch r {
		case '.', '!', '?', '؟':
			// Look ahead to avoid splitting on abbreviations and decimals
			if i+1 < len(runes) && (runes[i+1] == ' ' || runes[i+1] == '\t') {
				flush()
			}
		case '\n':
			flush()
		}
	}
	flush()

	return sentences
}
