package summarize

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/normalize"
)

const (
	mmrRelevance  = 0.78
	mmrRedundancy = 0.22

	shortDocSentences = 8
	budgetShare       = 0.55
	budgetFloor       = 130
	minSelected       = 2

	maxKeyPoints  = 3
	keyPointRunes = 140
)

// selectMMR greedily picks sentences maximizing
// 0.78*relevance - 0.22*max similarity to the already selected, until the
// sentence cap or the character budget is reached. At least two sentences
// are kept when available. The result is in document order.
func selectMMR(sents []*sentence, sim [][]float64, cleanedLen int) []*sentence {
	limit := 3
	if len(sents) > shortDocSentences {
		limit = 4
	}
	budget := int(math.Max(budgetShare*float64(cleanedLen), budgetFloor))

	chosen := make([]bool, len(sents))
	var picked []*sentence
	used := 0
	for len(picked) < limit && len(picked) < len(sents) {
		best, bestScore := -1, math.Inf(-1)
		for i, s := range sents {
			if chosen[i] {
				continue
			}
			redundancy := 0.0
			for _, p := range picked {
				redundancy = math.Max(redundancy, sim[i][p.index])
			}
			if v := mmrRelevance*s.score - mmrRedundancy*redundancy; v > bestScore {
				best, bestScore = i, v
			}
		}
		if best < 0 {
			break
		}

		n := utf8.RuneCountInString(sents[best].text)
		if len(picked) >= minSelected && used+n > budget {
			break
		}
		chosen[best] = true
		picked = append(picked, sents[best])
		used += n + 1
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].index < picked[j].index })
	return picked
}

// keyPoints returns the top-scoring sentences, shrunk, best first
func keyPoints(sents []*sentence) []string {
	ranked := append([]*sentence(nil), sents...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	var out []string
	for _, s := range ranked {
		if len(out) == maxKeyPoints {
			break
		}
		out = append(out, normalize.Ellipsize(s.text, keyPointRunes))
	}
	return out
}
