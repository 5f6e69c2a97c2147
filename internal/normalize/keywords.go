package normalize

import (
	"sort"
	"unicode/utf8"
)

var stopwordsFA = []string{
	"از", "به", "در", "با", "برای", "که", "این", "آن", "را", "می", "شود", "شده",
	"کرد", "کرده", "یک", "بر", "تا", "یا", "هم", "اما", "اگر", "بود", "است", "نیست", "و",
}

var stopwordsEN = []string{
	"the", "a", "an", "and", "or", "to", "of", "in", "on", "for", "is", "are", "was",
	"were", "be", "been", "with", "from", "at", "by", "about", "that", "this", "it", "as",
}

var stopwords = func() map[string]bool {
	m := make(map[string]bool, len(stopwordsFA)+len(stopwordsEN))
	for _, w := range stopwordsFA {
		m[w] = true
	}
	for _, w := range stopwordsEN {
		m[w] = true
	}
	return m
}()

// IsStopword reports whether a normalized token is a Persian or English stopword
func IsStopword(token string) bool {
	return stopwords[token]
}

// ContentTokens returns tokens of text without stopwords
func ContentTokens(text string) []string {
	tokens := Tokenize(text)
	out := tokens[:0]
	for _, t := range tokens {
		if !stopwords[t] {
			out = append(out, t)
		}
	}
	return out
}

// Keywords returns up to limit content words of at least three characters,
// most frequent first; ties keep first-occurrence order
func Keywords(text string, limit int) []string {
	if limit <= 0 {
		return nil
	}

	counts := make(map[string]int)
	var order []string
	for _, t := range Tokenize(text) {
		if stopwords[t] || utf8.RuneCountInString(t) < 3 {
			continue
		}
		if counts[t] == 0 {
			order = append(order, t)
		}
		counts[t]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
