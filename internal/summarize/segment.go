package summarize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/normalize"
)

const (
	maxSentenceRunes = 230
	minFragmentRunes = 22
)

// continuations open a fragment that belongs to the previous sentence
var continuations = map[string]bool{
	"و": true, "اما": true, "ولی": true, "که": true,
	"and": true, "but": true, "or": true, "which": true,
}

// prepare strips markup, unescapes entities and collapses spaces.
// Line breaks survive as sentence boundaries.
func prepare(text string) string {
	return normalize.CleanHTML(text)
}

// segment splits prepared text into sentences
func segment(text string) []string {
	var fragments []string
	for _, line := range strings.Split(text, "\n") {
		for _, s := range splitTerminators(line) {
			if utf8.RuneCountInString(s) > maxSentenceRunes {
				fragments = append(fragments, splitClauses(s)...)
				continue
			}
			fragments = append(fragments, s)
		}
	}
	return merge(fragments)
}

func isTerminator(r rune) bool {
	switch r {
	case '.', '!', '?', '؟', '…':
		return true
	}
	return false
}

func isClauseMark(r rune) bool {
	switch r {
	case ',', ';', '،', '؛':
		return true
	}
	return false
}

// splitTerminators cuts after sentence-ending punctuation followed by space
// or end of line; "3.5" and "U.S.A" stay whole
func splitTerminators(line string) []string {
	return splitAfter(line, isTerminator)
}

// splitClauses cuts an overrun sentence on commas and semicolons
func splitClauses(s string) []string {
	return splitAfter(s, isClauseMark)
}

func splitAfter(s string, cut func(rune) bool) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i, r := range runes {
		if !cut(r) {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if piece := trimFragment(string(runes[start : i+1])); piece != "" {
			out = append(out, piece)
		}
		start = i + 1
	}
	if piece := trimFragment(string(runes[start:])); piece != "" {
		out = append(out, piece)
	}
	return out
}

func trimFragment(s string) string {
	return strings.Trim(s, " \t-•*·")
}

// merge glues continuation and short fragments onto the previous sentence.
// A continuation is only glued while the result stays within maxSentenceRunes,
// so clause-split overruns are not rebuilt.
func merge(fragments []string) []string {
	var out []string
	for _, f := range fragments {
		if len(out) == 0 {
			out = append(out, f)
			continue
		}
		last := len(out) - 1
		n := utf8.RuneCountInString(f)
		switch {
		case n < minFragmentRunes:
			out[last] += " " + f
		case startsWithContinuation(f) && utf8.RuneCountInString(out[last])+n+1 <= maxSentenceRunes:
			out[last] += " " + f
		default:
			out = append(out, f)
		}
	}
	return out
}

func startsWithContinuation(s string) bool {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return false
	}
	word := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	return continuations[word]
}
