package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	fenceOpen   = regexp.MustCompile("^```[a-zA-Z]*\\s*")
	fenceClose  = regexp.MustCompile("\\s*```$")
	arraySpan   = regexp.MustCompile(`(?s)\[.*\]`)
	objectSpan  = regexp.MustCompile(`(?s)\{.*\}`)
	errNoJSON   = errors.New("no JSON payload")
	errNotArray = errors.New("payload is not a JSON array")
)

// extractJSON returns the JSON payload of a model answer: fences stripped,
// the whole body if it parses, else the widest [...] or {...} span.
// wantArray selects which span is searched first.
func extractJSON(raw string, wantArray bool) (string, error) {
	txt := strings.TrimSpace(raw)
	txt = fenceOpen.ReplaceAllString(txt, "")
	txt = strings.TrimSpace(fenceClose.ReplaceAllString(txt, ""))
	if txt == "" {
		return "", errNoJSON
	}
	if json.Valid([]byte(txt)) {
		return txt, nil
	}

	spans := []*regexp.Regexp{objectSpan, arraySpan}
	if wantArray {
		spans = []*regexp.Regexp{arraySpan, objectSpan}
	}
	for _, re := range spans {
		if m := re.FindString(txt); m != "" && json.Valid([]byte(m)) {
			return m, nil
		}
	}
	return "", errNoJSON
}

// decodeArray extracts and decodes a JSON array into out
func decodeArray(raw string, out any) error {
	payload, err := extractJSON(raw, true)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(payload, "[") {
		return errNotArray
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode array: %w", err)
	}
	return nil
}

// decodeObject extracts and decodes a JSON object into out
func decodeObject(raw string, out any) error {
	payload, err := extractJSON(raw, false)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(payload, "{") {
		return errors.New("payload is not a JSON object")
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode object: %w", err)
	}
	return nil
}

// flexNumber accepts 72, 72.5, "72" and "72%"
type flexNumber struct {
	Value float64
	Set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.TrimSuffix(strings.Trim(s, `"`), "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil // unparsable numbers fall back to defaults
	}
	n.Value, n.Set = v, true
	return nil
}

func (n flexNumber) or(fallback float64) float64 {
	if n.Set {
		return n.Value
	}
	return fallback
}

// flexInts accepts [1,2], ["1","2"] and 1
type flexInts []int

func (f *flexInts) UnmarshalJSON(b []byte) error {
	var raw []flexNumber
	if err := json.Unmarshal(b, &raw); err != nil {
		var single flexNumber
		if err := json.Unmarshal(b, &single); err != nil || !single.Set {
			return nil
		}
		raw = []flexNumber{single}
	}
	for _, n := range raw {
		if n.Set {
			*f = append(*f, int(n.Value))
		}
	}
	return nil
}

// percent converts a 0-100 score to [0,1]
func percent(v float64) float64 {
	switch {
	case v < 0:
		v = 0
	case v > 100:
		v = 100
	}
	return v / 100
}

// clip truncates s to n runes
func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n]))
}
