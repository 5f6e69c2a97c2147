package validate

import (
	"net/url"
	"strings"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// TierClassifier assigns publishers to credibility tiers
type TierClassifier struct {
	config    *model.AuthorityConfig
	domainMap map[string]model.SourceTier
	hints     []tierHint
}

type tierHint struct {
	name  string // normalized name hint, e.g. "associated press"
	label string // same hint without spaces, matched against host labels
	tier  model.SourceTier
}

// highSuffixes are host suffixes of official and academic publishers
var highSuffixes = []string{".gov", ".edu", ".gov.ir", ".ac.ir", ".ac.uk", ".gov.uk", ".int"}

// NewTierClassifier creates a classifier from the authority configuration
func NewTierClassifier(config *model.AuthorityConfig) *TierClassifier {
	if config == nil {
		config = &model.DefaultConfig().Authority
	}

	c := &TierClassifier{
		config:    config,
		domainMap: make(map[string]model.SourceTier, len(config.DomainMap)),
	}

	for host, tier := range config.DomainMap {
		c.domainMap[strings.ToLower(strings.TrimPrefix(host, "www."))] = model.ParseTier(tier)
	}

	// Higher tiers first so the first match wins
	addHints := func(names []string, tier model.SourceTier) {
		for _, name := range names {
			n := normalize.Normalize(name)
			if n == "" {
				continue
			}
			c.hints = append(c.hints, tierHint{name: n, label: strings.ReplaceAll(n, " ", ""), tier: tier})
		}
	}
	addHints(config.HighHints, model.TierHigh)
	addHints(config.MediumHints, model.TierMedium)
	addHints(config.LowHints, model.TierLow)

	return c
}

// Classify returns the tier for a publisher name and (optional) article link
func (c *TierClassifier) Classify(source, link string) model.SourceTier {
	return c.ClassifyOr(source, link, model.TierMedium)
}

// ClassifyOr is Classify with a fallback tier for publishers no rule matches,
// such as the tier configured on a feed
func (c *TierClassifier) ClassifyOr(source, link string, fallback model.SourceTier) model.SourceTier {
	host := hostOf(link)

	// 1. Explicit domain mappings from config (exact or parent domain)
	if host != "" {
		for h := host; h != ""; h = parentDomain(h) {
			if tier, ok := c.domainMap[h]; ok {
				return tier
			}
		}
	}

	// 2. Publisher name hints
	if name := normalize.Normalize(source); name != "" {
		padded := " " + name + " "
		for _, hint := range c.hints {
			if strings.Contains(padded, " "+hint.name+" ") {
				return hint.tier
			}
		}
	}

	// 3. Host label hints (reuters.com, farsnews.ir, dw.com)
	if host != "" {
		labels := strings.Split(host, ".")
		for _, hint := range c.hints {
			for _, label := range labels {
				if label == hint.label || (len(hint.label) >= 4 && strings.HasPrefix(label, hint.label)) {
					return hint.tier
				}
			}
		}

		// 4. Official and academic suffixes
		for _, suffix := range highSuffixes {
			if strings.HasSuffix(host, suffix) {
				return model.TierHigh
			}
		}
	}

	return fallback
}

// SourceFromLink derives a publisher name from the link's host
func SourceFromLink(link string) string {
	return hostOf(link)
}

// hostOf returns the lowercased host of a URL without port and "www."
func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if strings.HasPrefix(rawURL, "//") {
		rawURL = "https:" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(host, "www.")
}

// parentDomain strips the leftmost label ("news.bbc.co.uk" -> "bbc.co.uk")
func parentDomain(host string) string {
	idx := strings.Index(host, ".")
	if idx < 0 {
		return ""
	}
	return host[idx+1:]
}
