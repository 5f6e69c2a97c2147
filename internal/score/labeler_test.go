package score

import (
	"context"
	"testing"

	"github.com/ppiankov/factline/internal/model"
)

func TestHeuristicLabeler(t *testing.T) {
	tests := []struct {
		name      string
		claim     string
		title     string
		relevance float64
		label     model.Label
		conf      float64
	}{
		{"very low relevance", "oil prices rose", "oil prices rose", 0.10, model.LabelIrrelevant, 0.30},
		{"weak overlap", "oil prices rose", "oil prices rose", 0.30, model.LabelIrrelevant, 0.35},
		{"related", "oil prices rose", "oil prices rose", 0.40, model.LabelRelated, 0.52},
		{"support", "oil prices rose", "oil prices rose", 0.70, model.LabelSupport, 0.60},
		{"refute by denial", "oil prices rose", "ministry denied oil prices rose", 0.70, model.LabelRefute, 0.58},
		{"refute persian", "قیمت بنزین افزایش یافت", "افزایش قیمت بنزین تکذیب شد", 0.70, model.LabelRefute, 0.58},
		{"both negated agree", "rumor of oil price rise", "oil price rise rumor spreads", 0.70, model.LabelSupport, 0.60},
		{"negation only matters when relevant", "oil prices rose", "hoax", 0.40, model.LabelRelated, 0.52},
	}

	labeler := NewHeuristicLabeler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := []model.EvidenceItem{{Title: tt.title, Relevance: tt.relevance}}
			decisions := labeler.Label(context.Background(), model.Claim{Text: tt.claim}, items)
			d, ok := decisions[0]
			if !ok {
				t.Fatal("Expected a decision for item 0")
			}
			if d.Label != tt.label {
				t.Errorf("Expected label %s, got %s", tt.label, d.Label)
			}
			if !near(d.Confidence, tt.conf, 1e-9) {
				t.Errorf("Expected confidence %v, got %v", tt.conf, d.Confidence)
			}
			if d.Reason == "" {
				t.Error("Expected a reason")
			}
		})
	}
}

func TestHasNegation(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Reports were DEBUNKED", true},
		{"این خبر شایعه است", true},
		{"This is not true.", true},
		{"Oil prices rose", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := HasNegation(tt.text); got != tt.want {
			t.Errorf("HasNegation(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

// fixedLabeler returns preset decisions
type fixedLabeler map[int]model.LabelDecision

func (f fixedLabeler) Label(context.Context, model.Claim, []model.EvidenceItem) map[int]model.LabelDecision {
	return f
}

func TestChainLabeler(t *testing.T) {
	primary := fixedLabeler{
		0: {Label: model.LabelRefute, Confidence: 0.9, Reason: "official denial"},
		1: {Label: "maybe", Confidence: 0.5},
		7: {Label: model.LabelSupport, Confidence: 1},
	}
	items := []model.EvidenceItem{
		{Title: "a", Relevance: 0.9},
		{Title: "b", Relevance: 0.9},
		{Title: "c", Relevance: 0.9},
	}

	decisions := NewChainLabeler(primary, nil).Label(context.Background(), model.Claim{Text: "claim"}, items)
	if len(decisions) != 3 {
		t.Fatalf("Expected 3 decisions, got %d", len(decisions))
	}

	if decisions[0].Label != model.LabelRefute || decisions[0].Reason != "official denial" {
		t.Errorf("Expected primary refute decision, got %+v", decisions[0])
	}
	if decisions[1].Label != model.LabelRelated {
		t.Errorf("Invalid labels become related, got %s", decisions[1].Label)
	}
	// missing item falls back to the heuristic
	if decisions[2].Label != model.LabelSupport || !near(decisions[2].Confidence, 0.60, 1e-9) {
		t.Errorf("Expected heuristic support at 0.60, got %+v", decisions[2])
	}
	if _, ok := decisions[7]; ok {
		t.Error("Decisions for unknown indexes must be dropped")
	}
}

func TestChainLabeler_NilPrimary(t *testing.T) {
	items := []model.EvidenceItem{{Title: "a", Relevance: 0.1}}
	decisions := NewChainLabeler(nil, nil).Label(context.Background(), model.Claim{Text: "claim"}, items)
	if len(decisions) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(decisions))
	}
	if decisions[0].Label != model.LabelIrrelevant {
		t.Errorf("Expected irrelevant, got %s", decisions[0].Label)
	}
}
