package retrieve

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
)

// aggregatorHosts keep their query string, which identifies the search or article
var aggregatorHosts = map[string]bool{
	"news.google.com": true,
	"www.bing.com":    true,
	"bing.com":        true,
}

// CanonicalLink reduces a link to scheme://host/path. The query is dropped
// unless the host is an aggregator or the path alone cannot identify a page
// (dynamic scripts such as article.php?id=1).
func CanonicalLink(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "//") {
		value = "https:" + value
	}
	if !strings.HasPrefix(value, "http") {
		return value
	}

	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" {
		return value
	}

	host := strings.ToLower(parsed.Host)
	cleaned := parsed.Scheme + "://" + host + strings.TrimRight(parsed.EscapedPath(), "/")
	if parsed.RawQuery != "" && (aggregatorHosts[host] || needsQuery(parsed.Path)) {
		cleaned += "?" + parsed.RawQuery
	}
	return cleaned
}

func needsQuery(path string) bool {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return true
	}
	for _, ext := range []string{".php", ".asp", ".aspx", ".jsp", ".cgi"} {
		if strings.HasSuffix(strings.ToLower(trimmed), ext) {
			return true
		}
	}
	return false
}

// UnwrapRedirect returns the target of a search engine tracking redirect,
// or raw unchanged when it is not a known wrapper
func UnwrapRedirect(raw string) string {
	value := strings.TrimSpace(raw)
	if strings.HasPrefix(value, "//") {
		value = "https:" + value
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return raw
	}

	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	query := parsed.Query()

	switch {
	case strings.HasSuffix(host, "duckduckgo.com") && strings.HasPrefix(parsed.Path, "/l"):
		if target := query.Get("uddg"); isHTTP(target) {
			return target
		}
	case host == "bing.com" && strings.HasPrefix(parsed.Path, "/ck/a"):
		if target := decodeBingTarget(query.Get("u")); target != "" {
			return target
		}
	case host == "google.com" && parsed.Path == "/url":
		for _, key := range []string{"q", "url"} {
			if target := query.Get(key); isHTTP(target) {
				return target
			}
		}
	case strings.HasPrefix(parsed.Path, "/redirect") || strings.HasPrefix(parsed.Path, "/r/"):
		for _, key := range []string{"url", "u", "target"} {
			if target := query.Get(key); isHTTP(target) {
				return target
			}
		}
	}

	return value
}

// decodeBingTarget decodes bing's "a1" + base64url(target) form
func decodeBingTarget(u string) string {
	if !strings.HasPrefix(u, "a1") {
		return ""
	}
	encoded := strings.TrimRight(u[2:], "=")
	decoded, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	if target := string(decoded); isHTTP(target) {
		return target
	}
	return ""
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// DedupKey identifies an evidence item: its canonical link, else
// normalized source and title
func DedupKey(item model.EvidenceItem) string {
	if link := CanonicalLink(item.Link); link != "" {
		return link
	}
	return normalize.Normalize(item.Source) + "|" + normalize.Normalize(item.Title)
}
