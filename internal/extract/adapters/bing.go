package adapters

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const bingBase = "https://www.bing.com/search"

// BingHTML scrapes the Bing web result page
type BingHTML struct {
	baseURL string
}

// NewBingHTML creates the engine; an empty baseURL uses the public endpoint
func NewBingHTML(baseURL string) *BingHTML {
	if baseURL == "" {
		baseURL = bingBase
	}
	return &BingHTML{baseURL: baseURL}
}

// Name returns the engine name
func (e *BingHTML) Name() string {
	return "bing"
}

// SearchURL builds the result page URL for a query
func (e *BingHTML) SearchURL(query string) string {
	return e.baseURL + "?q=" + url.QueryEscape(query)
}

// Parse extracts organic hits
func (e *BingHTML) Parse(doc *goquery.Document) []Hit {
	var hits []Hit
	doc.Find("li.b_algo").Each(func(_ int, s *goquery.Selection) {
		a := s.Find("h2 a").First()
		href, _ := a.Attr("href")
		title := text(a)
		if strings.TrimSpace(href) == "" || title == "" {
			return
		}

		snippet := text(s.Find(".b_caption p").First())
		if snippet == "" {
			snippet = text(s.Find("p").First())
		}

		hits = append(hits, Hit{
			Engine:  e.Name(),
			Title:   title,
			Link:    strings.TrimSpace(href),
			Snippet: snippet,
		})
	})
	return hits
}
