package summarize

import "regexp"

// Detector recognizes a high-stakes text pattern that generic extraction
// under-communicates and supplies a fixed explainer for it
type Detector interface {
	Name() string
	Detect(text string) (*Detection, bool)
}

// Detection is a detector's replacement summary
type Detection struct {
	Detector  string   `json:"detector"`
	Signals   []string `json:"signals"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

type signal struct {
	name    string
	pattern *regexp.Regexp
}

// scamSignals describe the advance-fee / fake inheritance email pattern
var scamSignals = []signal{
	{"email", emailPattern},
	{"bank_inheritance", regexp.MustCompile(`(?i)\b(?:bank|inheritance|beneficiary|next of kin|deceased|estate|fund transfer)\b|بانک|ارث|میراث|وراثت|وارث|متوفی|انتقال وجه`)},
	{"secrecy", regexp.MustCompile(`(?i)\b(?:confidential|secret|secrecy|discreet|private and)\b|محرمانه|سری بماند|مخفی|رازدار`)},
	{"currency", regexp.MustCompile(`(?i)[$€£]|\b(?:usd|eur|dollars?|euros?|pounds? sterling)\b|دلار|یورو|پوند`)},
	{"split_percentage", regexp.MustCompile(`(?i)[0-9۰-۹]{1,3}\s?(?:%|٪|percent\b|درصد)`)},
	{"contact_request", regexp.MustCompile(`(?i)\b(?:contact me|reply (?:me|to)|get back to me|send (?:me )?your|your (?:full name|phone|address|bank details))\b|تماس بگیرید|پاسخ دهید|با من تماس|اطلاعات (?:خود|بانکی)|ارسال کنید`)},
}

const scamThreshold = 3

// ScamDetector fires when at least three of the six inheritance-scam
// signals are present
type ScamDetector struct{}

// Name returns the detector name
func (ScamDetector) Name() string { return "scam" }

// Detect checks the text against the scam signature
func (d ScamDetector) Detect(text string) (*Detection, bool) {
	var hits []string
	for _, sig := range scamSignals {
		if sig.pattern.MatchString(text) {
			hits = append(hits, sig.name)
		}
	}
	if len(hits) < scamThreshold {
		return nil, false
	}
	return &Detection{
		Detector: d.Name(),
		Signals:  hits,
		Summary:  "این متن الگوی رایج کلاهبرداری «ارث یا انتقال پول بانکی» را دارد: وعده سهم از یک مبلغ بزرگ در ازای محرمانه ماندن و ارسال اطلاعات شخصی.",
		KeyPoints: []string{
			"به این پیام پاسخ ندهید و هیچ اطلاعات بانکی یا هویتی ارسال نکنید.",
			"درخواست محرمانگی و تقسیم درصدی پول از نشانه‌های شناخته‌شده کلاهبرداری است.",
			"فقط از راه کانال رسمی بانک یا مرجع قانونی پیگیری کنید.",
		},
	}, true
}

// DefaultDetectors returns the built-in detectors
func DefaultDetectors() []Detector {
	return []Detector{ScamDetector{}}
}
