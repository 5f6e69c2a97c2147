package summarize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFacts = 3

var (
	moneyPattern = regexp.MustCompile(`(?i)[$€£]\s?[0-9][0-9,.]*(?:\s?(?:million|billion|bn|m|k)\b)?|[0-9۰-۹][0-9۰-۹,.٬]*\s?(?:million|billion|میلیون|میلیارد|هزار)?\s?(?:(?:usd|eur|gbp|dollars?|euros?|pounds?)\b|دلار|یورو|پوند|تومان|ریال)`)
	datePattern  = regexp.MustCompile(`[0-9]{4}[-/][0-9]{1,2}[-/][0-9]{1,2}|[۰-۹]{4}/[۰-۹]{1,2}/[۰-۹]{1,2}|[0-9]{1,2}/[0-9]{1,2}/[0-9]{4}`)
	digitRun     = regexp.MustCompile(`[0-9۰-۹]+`)

	persianDigits = strings.NewReplacer("۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4", "۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9")
)

// sensitiveFacts extracts up to three emails, money amounts and dates or
// years, in that order, without repeats
func sensitiveFacts(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(v string) bool {
		v = strings.TrimRight(strings.TrimSpace(v), ".,٬")
		if v == "" || seen[v] {
			return len(out) < maxFacts
		}
		seen[v] = true
		out = append(out, v)
		return len(out) < maxFacts
	}

	for _, group := range [][]string{
		emailPattern.FindAllString(text, -1),
		moneyPattern.FindAllString(text, -1),
		datePattern.FindAllString(text, -1),
	} {
		for _, v := range group {
			if !add(v) {
				return out
			}
		}
	}

	dates := strings.Join(datePattern.FindAllString(text, -1), " ")
	for _, run := range digitRun.FindAllString(text, -1) {
		if !isYear(run) || strings.Contains(dates, run) {
			continue
		}
		if !add(run) {
			return out
		}
	}
	return out
}

// isYear accepts four-digit Gregorian (19xx, 20xx) and Solar Hijri
// (13xx, 14xx) years in Latin or Persian digits
func isYear(run string) bool {
	if utf8.RuneCountInString(run) != 4 {
		return false
	}
	switch persianDigits.Replace(string([]rune(run)[:2])) {
	case "19", "20", "13", "14":
		return true
	}
	return false
}
