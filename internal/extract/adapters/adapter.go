package adapters

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Hit is one organic search result
type Hit struct {
	Engine  string
	Title   string
	Link    string // As found on the page; may be a redirect wrapper
	Snippet string
}

// Engine defines the interface for HTML search engine scrapers
type Engine interface {
	// Name returns the engine name
	Name() string

	// SearchURL builds the result page URL for a query
	SearchURL(query string) string

	// Parse extracts organic hits from a result page
	Parse(doc *goquery.Document) []Hit
}

// Registry manages search engines by name
type Registry struct {
	engines map[string]Engine
	order   []string
}

// NewRegistry creates a registry with the built-in engines
func NewRegistry() *Registry {
	registry := &Registry{
		engines: make(map[string]Engine),
	}

	// Register built-in engines
	registry.Register(NewDuckDuckGoHTML(""))
	registry.Register(NewBingHTML(""))

	return registry
}

// Register registers an engine, replacing one with the same name
func (r *Registry) Register(engine Engine) {
	name := strings.ToLower(engine.Name())
	if _, exists := r.engines[name]; !exists {
		r.order = append(r.order, name)
	}
	r.engines[name] = engine
}

// Get returns the engine registered under name
func (r *Registry) Get(name string) (Engine, bool) {
	engine, ok := r.engines[strings.ToLower(strings.TrimSpace(name))]
	return engine, ok
}

// Select returns the named engines in the given order, skipping unknown
// names. An empty list selects every registered engine.
func (r *Registry) Select(names []string) []Engine {
	if len(names) == 0 {
		names = r.order
	}
	var engines []Engine
	seen := make(map[string]bool)
	for _, name := range names {
		engine, ok := r.Get(name)
		if !ok || seen[engine.Name()] {
			continue
		}
		seen[engine.Name()] = true
		engines = append(engines, engine)
	}
	return engines
}

// text returns the whitespace-collapsed text of a selection
func text(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
