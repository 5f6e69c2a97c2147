package score

import (
	"fmt"
	"strings"

	"github.com/ppiankov/factline/internal/model"
)

// minWebSources is the fewest cited sources an external verdict needs
const minWebSources = 2

// Blend merges an external AI web verdict into an internal aggregate. The
// verdict is ignored (ok=false) when it is nil or cites fewer than two
// sources. Blending never lowers confidence.
func Blend(scored model.ScoredResult, web *model.AIWebVerdict) (model.ScoredResult, bool) {
	if web == nil || countSources(web.Sources) < minWebSources {
		return scored, false
	}

	aiTruth := clamp(web.TruthProb, 0, 1)
	aiConf := clamp(web.Confidence, 0, 1)
	w := 0.22 + 0.28*aiConf

	blended := scored
	blended.TruthProb = clamp((1-w)*scored.TruthProb+w*aiTruth, 0.02, 0.98)
	blended.FakeProb = 1 - blended.TruthProb
	if merged := 0.75*scored.Confidence + 0.25*aiConf; merged > scored.Confidence {
		blended.Confidence = merged
	}
	blended.Verdict = VerdictFor(blended.TruthProb, blended.Confidence)
	blended.Reason = model.ReasonBlendedWithWeb

	explanation := strings.TrimSpace(web.Explanation)
	if explanation == "" {
		explanation = fmt.Sprintf("AI web search: truth %.2f, confidence %.2f", aiTruth, aiConf)
	}
	if scored.ReasonText != "" {
		blended.ReasonText = scored.ReasonText + "; " + explanation
	} else {
		blended.ReasonText = explanation
	}

	blended.Signals = append(append([]model.Signal{}, scored.Signals...), model.Signal{
		Type:        model.SignalWebBlend,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("Blended AI web verdict with weight %.2f", w),
		Data: map[string]any{
			"weight":         w,
			"ai_truth":       aiTruth,
			"ai_confidence":  aiConf,
			"internal_truth": scored.TruthProb,
			"sources":        countSources(web.Sources),
			"formula":        "clamp((1-w)*truth + w*ai_truth, 0.02, 0.98), w = 0.22 + 0.28*ai_conf",
		},
	})

	return blended, true
}

func countSources(sources []model.WebSource) int {
	n := 0
	for _, src := range sources {
		if strings.TrimSpace(src.URL) != "" {
			n++
		}
	}
	return n
}
