package normalize

import "strings"

// Similarity blend weights
const (
	weightRatio       = 0.52
	weightJaccard     = 0.38
	weightContainment = 0.10
)

// Similarity returns a blended score in [0,1] between two texts:
// 0.52*sequence-ratio + 0.38*token-Jaccard + 0.10*containment, computed over
// normalized strings. Empty input on either side yields 0.
func Similarity(a, b string) float64 {
	na, nb := Normalize(a), Normalize(b)
	return similarityNormalized(na, nb)
}

// similarityNormalized is Similarity for already-normalized inputs
func similarityNormalized(na, nb string) float64 {
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	ratio := SequenceRatio(na, nb)

	// Jaccard is 0 when either side has no tokens
	ta := tokenSet(tokenizeNormalized(na))
	tb := tokenSet(tokenizeNormalized(nb))

	containment := 0.0
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		containment = 1.0
	}

	return clamp01(weightRatio*ratio + weightJaccard*Jaccard(ta, tb) + weightContainment*containment)
}

// Jaccard returns |a∩b| / |a∪b| for two token sets
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	small, large := a, b
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for t := range small {
		if _, ok := large[t]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// SequenceRatio returns the Ratcliff/Obershelp similarity 2*M/T of two strings
// over runes, where M is the total size of recursively found longest matching
// blocks. The pair is ordered before matching so the result is symmetric.
func SequenceRatio(a, b string) float64 {
	if a > b {
		a, b = b, a
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1
	}
	return 2 * float64(matchingRunes(ra, rb)) / float64(total)
}

// matchingRunes sums the sizes of the matching blocks between a and b
func matchingRunes(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type span struct{ alo, ahi, blo, bhi int }
	queue := []span{{0, len(a), 0, len(b)}}
	matched := 0

	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := longestMatch(a, b2j, s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		matched += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}

	return matched
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] within the given
// bounds, preferring the earliest start in a, then in b
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestk := alo, blo, 0
	j2len := map[int]int{}

	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	return besti, bestj, bestk
}

// tokenSet converts a token list to a set
func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// TokenSet returns the set of tokens of text
func TokenSet(text string) map[string]struct{} {
	return tokenSet(Tokenize(text))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
