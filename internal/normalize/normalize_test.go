package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factline/internal/model"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"latin punctuation", "Hello, World!", "hello world"},
		{"arabic yeh and kaf", "علي كتاب", "علی کتاب"},
		{"zwnj becomes space", "می‌شود", "می شود"},
		{"underscore becomes space", "breaking_news", "breaking news"},
		{"persian punctuation", "خبر؟ بله، درست؛ (شاید)", "خبر بله درست شاید"},
		{"collapses whitespace", "  a \t b \n c  ", "a b c"},
		{"empty", "", ""},
		{"only punctuation", "!?.,", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Company X announced bankruptcy on 2024-01-01",
		"وزارت نفت خبر افزايش قيمت بنزين را تكذيب كرد",
		"ﻋﻠﻲ presentation forms",
		"MIXED Case_With‌Joiners [and] (brackets)",
		"ﬁle ligature",
		"İ\u0301A",
		"İstanbul",
		"ǅ digraph and ﬀ",
		"Ω ohm K kelvin",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_ComposesAfterLowercase(t *testing.T) {
	assert.Equal(t, "\u00eda", Normalize("İ\u0301A"))
	assert.Equal(t, "file", Normalize("ﬁle"))
}

func TestNormalize_CaseInsensitiveVariants(t *testing.T) {
	assert.Equal(t, Normalize("ali يك"), Normalize("ALI يك"))
	assert.Equal(t, "ali یک", Normalize("ALI يك"))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"bc", "۱۲", "xy", "zz"}, Tokenize("a bc ۱۲ xy_zz"))
	assert.Equal(t, []string{"قیمت", "بنزین"}, Tokenize("قيمت بنزين"))
	assert.Empty(t, Tokenize("a b c"))
}

func TestGuessLanguage(t *testing.T) {
	assert.Equal(t, model.LangFA, GuessLanguage("سلام دنیا"))
	assert.Equal(t, model.LangEN, GuessLanguage("hello world"))
	assert.Equal(t, model.LangUnknown, GuessLanguage(""))
	assert.Equal(t, model.LangUnknown, GuessLanguage("ab سل"))
	assert.Equal(t, model.LangFA, GuessLanguage("خبر فوری CNN"))
}

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"markup and script", "<p>Hello &amp; <b>world</b></p><script>x()</script>", "Hello & world"},
		{"entities without markup", "plain &amp; text", "plain & text"},
		{"empty", "   ", ""},
		{"keeps one blank line", "line1\n\n\n\nline2", "line1\n\nline2"},
		{"block tags break lines", "<div>one</div><div>two</div>", "one\ntwo"},
		{"collapses spaces", "a   \t b", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanHTML(tt.input))
		})
	}
}

func TestCleanHTML_MalformedNeverPanics(t *testing.T) {
	inputs := []string{"<div><p>unclosed", "<<<>>>", "<a href='x'>link", "</p>text<br/>"}
	for _, in := range inputs {
		require.NotPanics(t, func() { _ = CleanHTML(in) })
	}
	assert.Equal(t, "link", CleanHTML("<a href='x'>link"))
}

func TestEllipsize(t *testing.T) {
	assert.Equal(t, "short", Ellipsize("short", 10))
	assert.Equal(t, "hello…", Ellipsize("hello world foo", 8))
	assert.Equal(t, "…", Ellipsize("hello", 1))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "سلا", Truncate("سلام", 3))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "", Truncate("abc", 0))
}

func TestKeywords(t *testing.T) {
	got := Keywords("bank bank transfer the of money money money", 2)
	assert.Equal(t, []string{"money", "bank"}, got)

	got = Keywords("افزایش قیمت بنزین در تهران و افزایش قیمت نان", 3)
	assert.Equal(t, []string{"افزایش", "قیمت", "بنزین"}, got)

	assert.Nil(t, Keywords("anything", 0))
	assert.Empty(t, Keywords("a an the of", 5))
}

func TestIsStopword(t *testing.T) {
	assert.True(t, IsStopword("the"))
	assert.True(t, IsStopword("از"))
	assert.False(t, IsStopword("bankruptcy"))
}
