// Package retrieve gathers candidate evidence for a claim from the indexed
// feed store, query-time search feeds and live web search.
package retrieve

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factline/internal/model"
)

// Source is one RSS/Atom feed
type Source struct {
	Name   string           `yaml:"name"`
	URL    string           `yaml:"url"`
	Region string           `yaml:"region"`
	Lang   string           `yaml:"lang"`
	Tier   model.SourceTier `yaml:"tier"`
}

// DefaultSources returns the built-in feed catalogue
func DefaultSources() []Source {
	return []Source{
		{Name: "IRNA", URL: "https://www.irna.ir/rss", Region: "ir", Lang: "fa", Tier: model.TierHigh},
		{Name: "ISNA", URL: "https://www.isna.ir/rss", Region: "ir", Lang: "fa", Tier: model.TierHigh},
		{Name: "Mehr News", URL: "https://www.mehrnews.com/rss", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Tasnim", URL: "https://www.tasnimnews.com/fa/rss/feed/0/7/0/%D8%A2%D8%AE%D8%B1%DB%8C%D9%86-%D8%A7%D8%AE%D8%A8%D8%A7%D8%B1", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Fars News", URL: "https://www.farsnews.ir/rss", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "ILNA", URL: "https://www.ilna.ir/fa/rss/allnews", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Khabar Online", URL: "https://www.khabaronline.ir/rss", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Hamshahri", URL: "https://www.hamshahrionline.ir/rss", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "YJC", URL: "https://www.yjc.news/fa/rss/allnews", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Tabnak", URL: "https://www.tabnak.ir/fa/rss/allnews", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "Asr Iran", URL: "https://www.asriran.com/fa/rss/allnews", Region: "ir", Lang: "fa", Tier: model.TierMedium},
		{Name: "BBC", URL: "http://feeds.bbci.co.uk/news/world/rss.xml", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "CNN", URL: "http://rss.cnn.com/rss/edition.rss", Region: "intl", Lang: "en", Tier: model.TierMedium},
		{Name: "Reuters", URL: "https://feeds.reuters.com/reuters/worldNews", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "The Guardian", URL: "https://www.theguardian.com/world/rss", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "NYTimes", URL: "https://rss.nytimes.com/services/xml/rss/nyt/World.xml", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "Al Jazeera", URL: "https://www.aljazeera.com/xml/rss/all.xml", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "DW", URL: "https://rss.dw.com/xml/rss-en-all", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "France24", URL: "https://www.france24.com/en/rss", Region: "intl", Lang: "en", Tier: model.TierMedium},
		{Name: "NPR", URL: "https://feeds.npr.org/1004/rss.xml", Region: "intl", Lang: "en", Tier: model.TierHigh},
		{Name: "AP", URL: "https://rsshub.app/apnews/topics/apf-topnews", Region: "intl", Lang: "en", Tier: model.TierMedium},
	}
}

// sourcesFile is the on-disk feed list format
type sourcesFile struct {
	Feeds []Source `yaml:"feeds"`
}

// LoadSources reads a YAML feed list. Entries without a URL are skipped and
// unknown tiers default to medium.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds file: %w", err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse feeds file: %w", err)
	}

	sources := make([]Source, 0, len(file.Feeds))
	for _, src := range file.Feeds {
		src.URL = strings.TrimSpace(src.URL)
		if src.URL == "" {
			continue
		}
		src.Tier = model.ParseTier(string(src.Tier))
		if src.Name == "" {
			src.Name = src.URL
		}
		sources = append(sources, src)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("feeds file %s has no feeds", path)
	}
	return sources, nil
}
