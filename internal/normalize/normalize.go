package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/factline/internal/model"
)

var (
	tokenPattern = regexp.MustCompile(`[A-Za-z0-9\x{0600}-\x{06FF}]{2,}`)

	// letters are folded to Persian canonical forms; punctuation becomes space
	charReplacer = strings.NewReplacer(
		"\u200c", " ", "_", " ",
		"ي", "ی", "ك", "ک",
		".", " ", "!", " ", "?", " ", "؟", " ", "،", " ", ",", " ",
		":", " ", ";", " ", "؛", " ", "\"", " ", "'", " ",
		"(", " ", ")", " ", "[", " ", "]", " ",
	)
)

// Normalize lowercases text, folds Arabic-script letter variants to Persian
// forms, turns zero-width joiners and underscores into spaces, strips a fixed
// punctuation set and collapses whitespace. Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	// lowercasing can leave decomposed sequences (İ becomes i plus a mark),
	// so compose again afterwards
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)
	text = norm.NFKC.String(text)
	text = charReplacer.Replace(text)
	return strings.Join(strings.Fields(text), " ")
}

// Tokenize extracts runs of two or more Latin, digit or Arabic-script
// characters from the normalized text
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(Normalize(text), -1)
}

// tokenizeNormalized tokenizes text that is already normalized
func tokenizeNormalized(normalized string) []string {
	return tokenPattern.FindAllString(normalized, -1)
}

// GuessLanguage compares Arabic-script codepoints with Latin letters
func GuessLanguage(text string) model.Lang {
	arabic, latin := 0, 0
	for _, r := range text {
		switch {
		case r >= 0x0600 && r <= 0x06FF:
			arabic++
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			latin++
		}
	}

	switch {
	case arabic > latin:
		return model.LangFA
	case latin > arabic:
		return model.LangEN
	default:
		return model.LangUnknown
	}
}
