package adapters

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

func parseDoc(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		t.Fatalf("Failed to parse page: %v", err)
	}
	return doc
}

func TestDuckDuckGoHTML_Parse(t *testing.T) {
	page := `
	<html><body>
	<div class="result result--ad">
		<a class="result__a" href="https://ads.example.com">Sponsored</a>
	</div>
	<div class="result">
		<h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reuters.com%2Fa&amp;rut=x">Company X  files for bankruptcy</a></h2>
		<a class="result__snippet">Company X filed on Monday.</a>
	</div>
	<div class="result">
		<a class="result__a" href="">No link</a>
	</div>
	<div class="result">
		<a class="result__a" href="https://bbc.com/b">BBC story</a>
	</div>
	</body></html>
	`

	engine := NewDuckDuckGoHTML("")
	hits := engine.Parse(parseDoc(t, page))

	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d: %+v", len(hits), hits)
	}
	if hits[0].Title != "Company X files for bankruptcy" {
		t.Errorf("Unexpected title: %q", hits[0].Title)
	}
	if !strings.HasPrefix(hits[0].Link, "//duckduckgo.com/l/?uddg=") {
		t.Errorf("Expected raw redirect link, got %q", hits[0].Link)
	}
	if hits[0].Snippet != "Company X filed on Monday." {
		t.Errorf("Unexpected snippet: %q", hits[0].Snippet)
	}
	if hits[1].Snippet != "" {
		t.Errorf("Expected empty snippet, got %q", hits[1].Snippet)
	}
	if hits[0].Engine != "duckduckgo" {
		t.Errorf("Unexpected engine: %q", hits[0].Engine)
	}
}

func TestBingHTML_Parse(t *testing.T) {
	page := `
	<html><body><ol id="b_results">
	<li class="b_algo">
		<h2><a href="https://www.reuters.com/a">Company X bankruptcy</a></h2>
		<div class="b_caption"><p>Reuters reports the filing.</p></div>
	</li>
	<li class="b_algo">
		<h2><a href="https://isna.ir/news/1">خبر ایسنا</a></h2>
		<p>متن خبر</p>
	</li>
	<li class="b_ad"><h2><a href="https://ads.example.com">Ad</a></h2></li>
	</ol></body></html>
	`

	engine := NewBingHTML("")
	hits := engine.Parse(parseDoc(t, page))

	if len(hits) != 2 {
		t.Fatalf("Expected 2 hits, got %d", len(hits))
	}
	if hits[0].Snippet != "Reuters reports the filing." {
		t.Errorf("Unexpected snippet: %q", hits[0].Snippet)
	}
	if hits[1].Snippet != "متن خبر" {
		t.Errorf("Expected paragraph fallback, got %q", hits[1].Snippet)
	}
}

func TestSearchURL(t *testing.T) {
	tests := []struct {
		engine   Engine
		expected string
	}{
		{NewDuckDuckGoHTML(""), "https://html.duckduckgo.com/html/?q=company+x+%26+y"},
		{NewBingHTML(""), "https://www.bing.com/search?q=company+x+%26+y"},
		{NewBingHTML("http://127.0.0.1:8080/search"), "http://127.0.0.1:8080/search?q=company+x+%26+y"},
	}

	for _, tt := range tests {
		t.Run(tt.engine.Name(), func(t *testing.T) {
			if got := tt.engine.SearchURL("company x & y"); got != tt.expected {
				t.Errorf("SearchURL() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRegistry_Select(t *testing.T) {
	registry := NewRegistry()

	engines := registry.Select([]string{"Bing", "unknown", "duckduckgo", "bing"})
	if len(engines) != 2 {
		t.Fatalf("Expected 2 engines, got %d", len(engines))
	}
	if engines[0].Name() != "bing" || engines[1].Name() != "duckduckgo" {
		t.Errorf("Unexpected order: %s, %s", engines[0].Name(), engines[1].Name())
	}

	all := registry.Select(nil)
	if len(all) != 2 || all[0].Name() != "duckduckgo" {
		t.Errorf("Expected all engines in registration order, got %d", len(all))
	}

	registry.Register(NewBingHTML("http://localhost/search"))
	engine, ok := registry.Get("bing")
	if !ok {
		t.Fatal("Expected bing to be registered")
	}
	if got := engine.SearchURL("q"); got != "http://localhost/search?q=q" {
		t.Errorf("Expected replaced engine, got %q", got)
	}
	if len(registry.Select(nil)) != 2 {
		t.Error("Replacing an engine must not duplicate it")
	}
}
