package model

import "strings"

// MaxClaimLength caps the distilled claim (in runes)
const MaxClaimLength = 500

// Lang is the coarse script-based language of a text
type Lang string

const (
	LangFA      Lang = "fa"      // Arabic-script majority (Persian)
	LangEN      Lang = "en"      // Latin-script majority
	LangUnknown Lang = "unknown" // Tie or no letters
)

// Opposite returns the language a claim is translated into to widen retrieval
func (l Lang) Opposite() Lang {
	switch l {
	case LangFA:
		return LangEN
	case LangEN:
		return LangFA
	default:
		return LangUnknown
	}
}

// Claim is the fact-checkable sentence distilled from user input.
// It is derived once per request and not modified afterwards.
type Claim struct {
	Text       string   `json:"text"`                 // Normalized-whitespace claim, <= MaxClaimLength runes
	Translated string   `json:"translated,omitempty"` // Claim in the opposite language, if available
	Lang       Lang     `json:"lang"`                 // Language guess of Text
	Keywords   []string `json:"keywords,omitempty"`   // Keyword digest of Text
	Queries    []string `json:"queries,omitempty"`    // Search queries derived from the claim
	Heuristic  string   `json:"heuristic,omitempty"`  // How the claim was distilled (e.g., "ai", "keyword:announced")
}

// Signatures returns the distinct texts that evidence relevance is measured against
func (c Claim) Signatures(translatedKeywords []string) []string {
	candidates := []string{c.Text, strings.Join(c.Keywords, " "), c.Translated, strings.Join(translatedKeywords, " ")}

	seen := make(map[string]bool, len(candidates))
	var out []string
	for _, s := range candidates {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Mode controls how much of the result is rendered
type Mode string

const (
	ModeBrief  Mode = "brief"
	ModeNormal Mode = "normal"
	ModePro    Mode = "pro"
)

// ParseMode converts a user string to a Mode, defaulting to normal
func ParseMode(s string) Mode {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brief", "short":
		return ModeBrief
	case "pro", "full":
		return ModePro
	default:
		return ModeNormal
	}
}

// EvidenceLimit returns how many evidence entries a report shows in this mode
func (m Mode) EvidenceLimit() int {
	switch m {
	case ModeBrief:
		return 3
	case ModePro:
		return 8
	default:
		return 6
	}
}
