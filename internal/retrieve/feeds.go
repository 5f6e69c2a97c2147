package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mmcdole/gofeed"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/validate"
)

// Field caps for stored items (in runes)
const (
	maxSourceLength  = 120
	maxTitleLength   = 600
	maxSummaryLength = 1500
	maxLinkLength    = 1200
)

// Getter downloads a URL and returns its body and final URL
type Getter interface {
	Get(ctx context.Context, rawURL string) ([]byte, string, error)
}

// FeedReader fetches and parses RSS/Atom feeds into evidence items
type FeedReader struct {
	getter    Getter
	policy    *bluemonday.Policy
	authority *validate.TierClassifier
	now       func() time.Time
}

// NewFeedReader creates a feed reader
func NewFeedReader(getter Getter, authority *validate.TierClassifier) *FeedReader {
	if authority == nil {
		authority = validate.NewTierClassifier(nil)
	}
	return &FeedReader{
		getter:    getter,
		policy:    bluemonday.StrictPolicy(),
		authority: authority,
		now:       time.Now,
	}
}

// Read fetches src and returns up to limit items. Items without a title or
// link are discarded.
func (r *FeedReader) Read(ctx context.Context, src Source, limit int) ([]model.EvidenceItem, error) {
	body, _, err := r.getter.Get(ctx, src.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", src.Name, err)
	}
	return r.Parse(body, src, limit)
}

// Parse converts a feed document into evidence items
func (r *FeedReader) Parse(body []byte, src Source, limit int) ([]model.EvidenceItem, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, nil
	}

	// gofeed parsers keep per-document state, so one per call
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", src.Name, err)
	}

	sourceName := src.Name
	if sourceName == "" {
		sourceName = normalize.OneLine(feed.Title)
	}
	if sourceName == "" {
		sourceName = validate.SourceFromLink(src.URL)
	}
	splitPublisher := isAggregator(src.URL)
	fetchedAt := r.now().Unix()

	items := make([]model.EvidenceItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		if limit > 0 && len(items) >= limit {
			break
		}
		if it == nil {
			continue
		}

		title := normalize.OneLine(normalize.CleanHTML(it.Title))
		link := CanonicalLink(itemLink(it))
		if title == "" || link == "" {
			continue
		}

		source := sourceName
		if splitPublisher {
			if headline, publisher, ok := splitHeadline(title); ok {
				title, source = headline, publisher
			}
		}

		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		summary = normalize.CleanHTML(r.policy.Sanitize(summary))

		item := model.EvidenceItem{
			Source:       normalize.Truncate(source, maxSourceLength),
			SourceRegion: src.Region,
			SourceLang:   src.Lang,
			Tier:         r.authority.ClassifyOr(source, link, model.ParseTier(string(src.Tier))),
			Title:        normalize.Truncate(title, maxTitleLength),
			Summary:      normalize.Truncate(summary, maxSummaryLength),
			Link:         normalize.Truncate(link, maxLinkLength),
			FetchedAt:    fetchedAt,
		}
		switch {
		case it.PublishedParsed != nil:
			item.PublishedTS = it.PublishedParsed.Unix()
		case it.UpdatedParsed != nil:
			item.PublishedTS = it.UpdatedParsed.Unix()
		}

		items = append(items, item)
	}

	return items, nil
}

// itemLink returns the first usable link of an item, falling back to the GUID
func itemLink(it *gofeed.Item) string {
	if link := strings.TrimSpace(it.Link); link != "" {
		return link
	}
	for _, link := range it.Links {
		if link = strings.TrimSpace(link); link != "" {
			return link
		}
	}
	if guid := strings.TrimSpace(it.GUID); isHTTP(guid) {
		return guid
	}
	return ""
}

// splitHeadline splits aggregator titles of the form "Headline - Publisher"
func splitHeadline(title string) (string, string, bool) {
	idx := strings.LastIndex(title, " - ")
	if idx <= 0 {
		return "", "", false
	}
	headline := strings.TrimSpace(title[:idx])
	publisher := strings.TrimSpace(title[idx+3:])
	if headline == "" || publisher == "" || utf8.RuneCountInString(publisher) > 60 {
		return "", "", false
	}
	return headline, publisher, true
}

func isAggregator(feedURL string) bool {
	parsed, err := url.Parse(feedURL)
	if err != nil {
		return false
	}
	return aggregatorHosts[strings.ToLower(parsed.Host)]
}
