// Package normalize provides the text primitives shared by retrieval, scoring
// and summarization: HTML cleanup, Persian-aware normalization, tokenization,
// language guessing and string similarity.
package normalize

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var (
	markupHint    = regexp.MustCompile(`<[a-zA-Z!/][^>]*>`)
	tagPattern    = regexp.MustCompile(`(?s)<[^>]*>`)
	hspacePattern = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
)

// blockTags start a new line when stripping markup
var blockTags = map[string]bool{
	"p": true, "br": true, "div": true, "li": true, "ul": true, "ol": true,
	"tr": true, "table": true, "section": true, "article": true, "blockquote": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// CleanHTML strips markup if present, unescapes entities and collapses
// whitespace. Line breaks are kept (at most one blank line in a row).
func CleanHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	var text string
	if markupHint.MatchString(raw) {
		stripped, err := stripMarkup(raw)
		if err != nil {
			// Regex fallback: drop anything tag-shaped
			stripped = html.UnescapeString(tagPattern.ReplaceAllString(raw, " "))
		}
		text = stripped
	} else {
		text = html.UnescapeString(raw)
	}

	return collapseWhitespace(text)
}

// stripMarkup walks the token stream, keeping text outside script/style
func stripMarkup(raw string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(raw))
	var buf strings.Builder
	skipDepth := 0
	atLineStart := true

	newline := func() {
		if !atLineStart {
			buf.WriteByte('\n')
			atLineStart = true
		}
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return buf.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style" || tag == "noscript") && tt == html.StartTagToken {
				skipDepth++
			}
			if blockTags[tag] {
				newline()
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style" || tag == "noscript") && skipDepth > 0 {
				skipDepth--
			}
			if blockTags[tag] {
				newline()
			}
		case html.TextToken:
			if skipDepth == 0 {
				text := z.Text()
				if len(text) > 0 {
					buf.Write(text)
					atLineStart = text[len(text)-1] == '\n'
				}
			}
		}
	}
}

// collapseWhitespace collapses runs of horizontal space and blank lines
func collapseWhitespace(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.TrimSpace(hspacePattern.ReplaceAllString(line, " "))
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// OneLine collapses all whitespace, including line breaks, to single spaces
func OneLine(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Truncate caps s to at most n runes
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Ellipsize caps s to at most n runes, ending with an ellipsis when cut
func Ellipsize(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return "…"
	}
	cut := strings.TrimSpace(string(runes[:n-1]))
	if idx := strings.LastIndex(cut, " "); idx > len(cut)/2 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;،؛:") + "…"
}
