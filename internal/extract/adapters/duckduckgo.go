package adapters

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const duckDuckGoBase = "https://html.duckduckgo.com/html/"

// DuckDuckGoHTML scrapes the JavaScript-free DuckDuckGo result page
type DuckDuckGoHTML struct {
	baseURL string
}

// NewDuckDuckGoHTML creates the engine; an empty baseURL uses the public endpoint
func NewDuckDuckGoHTML(baseURL string) *DuckDuckGoHTML {
	if baseURL == "" {
		baseURL = duckDuckGoBase
	}
	return &DuckDuckGoHTML{baseURL: baseURL}
}

// Name returns the engine name
func (e *DuckDuckGoHTML) Name() string {
	return "duckduckgo"
}

// SearchURL builds the result page URL for a query
func (e *DuckDuckGoHTML) SearchURL(query string) string {
	return e.baseURL + "?q=" + url.QueryEscape(query)
}

// Parse extracts organic hits, skipping sponsored results
func (e *DuckDuckGoHTML) Parse(doc *goquery.Document) []Hit {
	var hits []Hit
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		if s.HasClass("result--ad") {
			return
		}
		a := s.Find("a.result__a").First()
		href, _ := a.Attr("href")
		title := text(a)
		if strings.TrimSpace(href) == "" || title == "" {
			return
		}
		hits = append(hits, Hit{
			Engine:  e.Name(),
			Title:   title,
			Link:    strings.TrimSpace(href),
			Snippet: text(s.Find(".result__snippet").First()),
		})
	})
	return hits
}
