package retrieve

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ppiankov/factline/internal/model"
)

func TestCanonicalLink(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "  ", ""},
		{"protocol relative", "//example.com/a/", "https://example.com/a"},
		{"tracking query dropped", "https://Example.com/News/Story/?utm_source=x#top", "https://example.com/News/Story"},
		{"aggregator keeps query", "https://news.google.com/rss/articles/abc?oc=5", "https://news.google.com/rss/articles/abc?oc=5"},
		{"dynamic script keeps query", "https://site.ir/news.php?id=12", "https://site.ir/news.php?id=12"},
		{"root keeps query", "https://site.ir/?p=42", "https://site.ir?p=42"},
		{"not http", "mailto:a@b.c", "mailto:a@b.c"},
		{"percent path preserved", "https://fa.example.ir/%D8%AE%D8%A8%D8%B1/", "https://fa.example.ir/%D8%AE%D8%A8%D8%B1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalLink(tt.in))
		})
	}
}

func TestCanonicalLink_Idempotent(t *testing.T) {
	for _, in := range []string{
		"https://Example.com/a/b/?x=1",
		"https://news.google.com/rss/articles/abc?oc=5",
		"//cdn.example.com/x",
	} {
		once := CanonicalLink(in)
		assert.Equal(t, once, CanonicalLink(once), in)
	}
}

func TestUnwrapRedirect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"duckduckgo",
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.reuters.com%2Fworld%2Fstory&rut=abc",
			"https://www.reuters.com/world/story",
		},
		{
			"bing base64",
			"https://www.bing.com/ck/a?!&&p=abc&u=a1aHR0cHM6Ly9leGFtcGxlLmNvbS9zdG9yeQ&ntb=1",
			"https://example.com/story",
		},
		{
			"google url",
			"https://www.google.com/url?q=https://bbc.com/news/1&sa=U",
			"https://bbc.com/news/1",
		},
		{
			"generic redirect path",
			"https://tracker.example/redirect?url=https%3A%2F%2Fisna.ir%2Fnews%2F1",
			"https://isna.ir/news/1",
		},
		{
			"plain link untouched",
			"https://www.irna.ir/news/85000001",
			"https://www.irna.ir/news/85000001",
		},
		{
			"bing without target",
			"https://www.bing.com/ck/a?u=zz",
			"https://www.bing.com/ck/a?u=zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnwrapRedirect(tt.in))
		})
	}
}

func TestDedupKey(t *testing.T) {
	a := model.EvidenceItem{Source: "BBC", Title: "X", Link: "https://bbc.com/a/?utm=1"}
	b := model.EvidenceItem{Source: "BBC News", Title: "Y", Link: "https://BBC.com/a"}
	assert.Equal(t, DedupKey(a), DedupKey(b))

	noLink := model.EvidenceItem{Source: "IRNA", Title: "Oil Prices, Rise!"}
	assert.Equal(t, "irna|oil prices rise", DedupKey(noLink))
}
