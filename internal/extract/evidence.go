package extract

import (
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/factline/internal/normalize"
)

// PageMeta is the article metadata read from a page head
type PageMeta struct {
	Title       string
	Description string
	SiteName    string
	Canonical   string
	Published   time.Time
}

// PageMetaExtractor reads Open Graph and meta tags from article pages
type PageMetaExtractor struct{}

// NewPageMetaExtractor creates a new page metadata extractor
func NewPageMetaExtractor() *PageMetaExtractor {
	return &PageMetaExtractor{}
}

var (
	titleKeys       = []string{"og:title", "twitter:title"}
	descriptionKeys = []string{"og:description", "description", "twitter:description"}
	publishedKeys   = []string{"article:published_time", "datepublished", "og:published_time", "pubdate", "date", "article:modified_time", "og:updated_time"}
)

// Extract parses htmlContent and returns the page metadata. Relative canonical
// links are resolved against pageURL.
func (e *PageMetaExtractor) Extract(htmlContent string, pageURL string) (PageMeta, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return PageMeta{}, err
	}

	meta := make(map[string]string)
	var docTitle, timeAttr, canonical string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript":
				return
			case "meta":
				key := strings.ToLower(attr(n, "property"))
				if key == "" {
					key = strings.ToLower(attr(n, "name"))
				}
				if key == "" {
					key = strings.ToLower(attr(n, "itemprop"))
				}
				if content := strings.TrimSpace(attr(n, "content")); key != "" && content != "" {
					if _, exists := meta[key]; !exists {
						meta[key] = content
					}
				}
			case "title":
				if docTitle == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					docTitle = strings.TrimSpace(n.FirstChild.Data)
				}
			case "time":
				if timeAttr == "" {
					timeAttr = strings.TrimSpace(attr(n, "datetime"))
				}
			case "link":
				if canonical == "" && strings.EqualFold(attr(n, "rel"), "canonical") {
					canonical = strings.TrimSpace(attr(n, "href"))
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	result := PageMeta{
		Title:       firstOf(meta, titleKeys),
		Description: firstOf(meta, descriptionKeys),
		SiteName:    meta["og:site_name"],
	}
	if result.Title == "" {
		result.Title = docTitle
	}
	result.Title = normalize.OneLine(html.UnescapeString(result.Title))
	result.Description = normalize.OneLine(html.UnescapeString(result.Description))

	for _, key := range publishedKeys {
		if ts, ok := ParseTimestamp(meta[key]); ok {
			result.Published = ts
			break
		}
	}
	if result.Published.IsZero() {
		if ts, ok := ParseTimestamp(timeAttr); ok {
			result.Published = ts
		}
	}

	if canonical != "" {
		if base, err := url.Parse(pageURL); err == nil {
			result.Canonical = resolveURL(base, canonical)
		}
	}

	return result, nil
}

// timestampLayouts are the date formats seen in article metadata
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParseTimestamp parses a metadata timestamp in any of the common layouts
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// resolveURL resolves a relative URL against a base URL
func resolveURL(base *url.URL, href string) string {
	// Skip anchors
	if strings.HasPrefix(href, "#") {
		return ""
	}

	// Skip javascript: and mailto: links
	if strings.HasPrefix(href, "javascript:") || strings.HasPrefix(href, "mailto:") {
		return ""
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return ""
	}

	resolved := base.ResolveReference(parsed)

	// Only keep http/https URLs
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}

	return resolved.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func firstOf(meta map[string]string, keys []string) string {
	for _, key := range keys {
		if v := meta[key]; v != "" {
			return v
		}
	}
	return ""
}
