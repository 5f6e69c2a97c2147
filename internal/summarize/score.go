package summarize

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/factline/internal/normalize"
)

// final = 0.52*frequency + 0.28*centrality + 0.20*signal (+ rankedBonus)
const (
	weightFrequency  = 0.52
	weightCentrality = 0.28
	weightSignal     = 0.20
	rankedBonus      = 0.06

	lengthExponent = 0.65
	longSentence   = 180

	edgeFloor       = 0.08
	damping         = 0.85
	rankIterations  = 24
	rankConvergence = 1e-6
)

var (
	digitPattern   = regexp.MustCompile(`[0-9۰-۹]`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	urlPattern     = regexp.MustCompile(`(?i)\bhttps?://\S+|\bwww\.\S+`)
	listMarker     = regexp.MustCompile(`(?i)^(?:[0-9۰-۹]+[.)\-]\s|(?:first|second|third|finally|firstly|secondly)\b|(?:اول|دوم|سوم|نخست|سرانجام|در پایان)[،,:\s])`)
	titlePattern   = regexp.MustCompile(`(?i)\b(?:mr|mrs|ms|dr|prof|president|minister|ceo|director)\b\.?|آقای|خانم|دکتر|مهندس|رئیس|وزیر|مدیرعامل|سخنگوی`)
	rankedPattern  = regexp.MustCompile(`(?i)\b(?:first|second|third) place\b|\branked\b|\btop (?:three|five|ten|[0-9]+)\b|مقام (?:اول|دوم|سوم)|رتبه (?:اول|دوم|سوم|[0-9۰-۹]+)|رده (?:اول|دوم|سوم)`)
	questionMarker = regexp.MustCompile(`[?؟]`)
)

// sentence is one segmented unit with its scoring state
type sentence struct {
	index  int
	text   string
	norm   string
	tokens []string
	score  float64
}

func newSentences(texts []string) []*sentence {
	out := make([]*sentence, len(texts))
	for i, t := range texts {
		var tokens []string
		for _, tok := range normalize.ContentTokens(t) {
			if utf8.RuneCountInString(tok) >= 3 {
				tokens = append(tokens, tok)
			}
		}
		out[i] = &sentence{index: i, text: t, norm: normalize.Normalize(t), tokens: tokens}
	}
	return out
}

// scoreSentences assigns each sentence its blended relevance
func scoreSentences(sents []*sentence, sim [][]float64) {
	freq := minMax(frequencyScores(sents))
	central := minMax(textRank(sents, sim))
	signal := minMax(signalScores(sents))

	for i, s := range sents {
		s.score = weightFrequency*freq[i] + weightCentrality*central[i] + weightSignal*signal[i]
		if rankedPattern.MatchString(s.text) {
			s.score += rankedBonus
		}
	}
}

// frequencyScores sums document term frequency over each sentence's tokens,
// normalized by token count^0.65, boosted for hard content and decayed for
// position and excessive length
func frequencyScores(sents []*sentence) []float64 {
	tf := make(map[string]int)
	for _, s := range sents {
		for _, t := range s.tokens {
			tf[t]++
		}
	}

	out := make([]float64, len(sents))
	for i, s := range sents {
		if len(s.tokens) == 0 {
			continue
		}
		sum := 0
		for _, t := range s.tokens {
			sum += tf[t]
		}
		v := float64(sum) / math.Pow(float64(len(s.tokens)), lengthExponent)

		if digitPattern.MatchString(s.text) {
			v *= 1.15
		}
		v *= 1 + 0.3*entityDensity(s.text)
		if listMarker.MatchString(s.text) {
			v *= 1.10
		}
		if questionMarker.MatchString(s.text) {
			v *= 1.05
		}

		v /= 1 + 0.08*float64(i)
		if n := utf8.RuneCountInString(s.text); n > longSentence {
			v *= math.Sqrt(float64(longSentence) / float64(n))
		}
		out[i] = v
	}
	return out
}

// entityDensity is the share of words that look like names: capitalized
// mid-sentence words or long tokens
func entityDensity(text string) float64 {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	hits := 0
	for i, w := range words {
		first, _ := utf8.DecodeRuneInString(w)
		switch {
		case i > 0 && unicode.IsUpper(first):
			hits++
		case utf8.RuneCountInString(w) >= 8:
			hits++
		}
	}
	return float64(hits) / float64(len(words))
}

// similarityMatrix holds pairwise sentence similarity
func similarityMatrix(sents []*sentence) [][]float64 {
	n := len(sents)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
		sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := normalize.Similarity(sents[i].norm, sents[j].norm)
			sim[i][j], sim[j][i] = v, v
		}
	}
	return sim
}

// textRank runs weighted PageRank over the sentence graph. Edges carry
// similarity scaled by 1/sqrt(len_i*len_j); similarities below edgeFloor
// are dropped.
func textRank(sents []*sentence, sim [][]float64) []float64 {
	n := len(sents)
	if n == 0 {
		return nil
	}

	weights := make([][]float64, n)
	outSum := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i == j || sim[i][j] < edgeFloor {
				continue
			}
			li := math.Max(1, float64(len(sents[i].tokens)))
			lj := math.Max(1, float64(len(sents[j].tokens)))
			w := sim[i][j] / math.Sqrt(li*lj)
			weights[i][j] = w
			outSum[i] += w
		}
	}

	rank := make([]float64, n)
	for i := range rank {
		rank[i] = 1 / float64(n)
	}
	next := make([]float64, n)
	for iter := 0; iter < rankIterations; iter++ {
		// sentences without edges spread their rank evenly
		dangling := 0.0
		for j := 0; j < n; j++ {
			if outSum[j] == 0 {
				dangling += rank[j]
			}
		}

		delta := 0.0
		for i := 0; i < n; i++ {
			acc := dangling / float64(n)
			for j := 0; j < n; j++ {
				if weights[j][i] > 0 {
					acc += weights[j][i] / outSum[j] * rank[j]
				}
			}
			next[i] = (1-damping)/float64(n) + damping*acc
			delta = math.Max(delta, math.Abs(next[i]-rank[i]))
		}
		rank, next = next, rank
		if delta < rankConvergence {
			break
		}
	}
	return rank
}

// signalScores counts hard-fact markers: scam keywords, numbers, emails,
// URLs and personal titles
func signalScores(sents []*sentence) []float64 {
	out := make([]float64, len(sents))
	for i, s := range sents {
		v := 0.0
		for _, sig := range scamSignals {
			if sig.pattern.MatchString(s.text) {
				v++
			}
		}
		if digitPattern.MatchString(s.text) {
			v++
		}
		if emailPattern.MatchString(s.text) {
			v += 1.5
		}
		if urlPattern.MatchString(s.text) {
			v++
		}
		if titlePattern.MatchString(s.text) {
			v += 0.75
		}
		out[i] = v
	}
	return out
}

// minMax rescales values to [0,1]; a flat non-zero series maps to 1
func minMax(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	span := hi - lo
	for i, v := range values {
		switch {
		case span > 1e-12:
			out[i] = (v - lo) / span
		case hi > 0:
			out[i] = 1
		}
	}
	return out
}
