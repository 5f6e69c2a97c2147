package model

import "time"

// Config is the complete factline configuration.
// Loaded by the CLI through viper; every field has a default in DefaultConfig.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Feeds     FeedsConfig     `yaml:"feeds" mapstructure:"feeds"`
	Retrieval RetrievalConfig `yaml:"retrieval" mapstructure:"retrieval"`
	WebSearch WebSearchConfig `yaml:"web_search" mapstructure:"web_search"`
	FactCheck FactCheckConfig `yaml:"factcheck" mapstructure:"factcheck"`
	Authority AuthorityConfig `yaml:"authority" mapstructure:"authority"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Summary   SummaryConfig   `yaml:"summary" mapstructure:"summary"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
}

// HTTPConfig controls every outbound fetch
type HTTPConfig struct {
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent    string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	InsecureTLS  bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// StoreConfig locates the evidence index database
type StoreConfig struct {
	DSN string `yaml:"dsn" mapstructure:"dsn"`
}

// FeedsConfig controls the periodically refreshed feed index
type FeedsConfig struct {
	File            string        `yaml:"file,omitempty" mapstructure:"file"` // Optional YAML feed list replacing the built-in one
	RefreshInterval time.Duration `yaml:"refresh_interval" mapstructure:"refresh_interval"`
	RefreshBatch    int           `yaml:"refresh_batch" mapstructure:"refresh_batch"`
	RefreshBudget   time.Duration `yaml:"refresh_budget" mapstructure:"refresh_budget"`
	Workers         int           `yaml:"workers" mapstructure:"workers"`
	ItemsPerFeed    int           `yaml:"items_per_feed" mapstructure:"items_per_feed"`
	RetainDays      int           `yaml:"retain_days" mapstructure:"retain_days"`
	Schedule        string        `yaml:"schedule" mapstructure:"schedule"`
}

// RetrievalConfig controls query feeds and candidate selection
type RetrievalConfig struct {
	QueryFeeds     bool    `yaml:"query_feeds" mapstructure:"query_feeds"`
	ItemsPerQuery  int     `yaml:"items_per_query" mapstructure:"items_per_query"`
	PersistQuery   bool    `yaml:"persist_query" mapstructure:"persist_query"`
	SearchLimit    int     `yaml:"search_limit" mapstructure:"search_limit"`
	RelevanceFloor float64 `yaml:"relevance_floor" mapstructure:"relevance_floor"`
	RelaxedFloor   float64 `yaml:"relaxed_floor" mapstructure:"relaxed_floor"`
	RecencyDays    int     `yaml:"recency_days" mapstructure:"recency_days"`
	StaleOverride  float64 `yaml:"stale_override" mapstructure:"stale_override"`
	MinCandidates  int     `yaml:"min_candidates" mapstructure:"min_candidates"`
}

// WebSearchConfig controls live HTML search scraping
type WebSearchConfig struct {
	Enabled       bool     `yaml:"enabled" mapstructure:"enabled"`
	Engines       []string `yaml:"engines" mapstructure:"engines"`
	MaxResults    int      `yaml:"max_results" mapstructure:"max_results"`
	EnrichTop     int      `yaml:"enrich_top" mapstructure:"enrich_top"`
	RespectRobots bool     `yaml:"respect_robots" mapstructure:"respect_robots"`
	RatePerSecond float64  `yaml:"rate_per_second" mapstructure:"rate_per_second"`
}

// FactCheckConfig bounds one fact-check request
type FactCheckConfig struct {
	QueryMax    int           `yaml:"query_max" mapstructure:"query_max"`
	MaxEvidence int           `yaml:"max_evidence" mapstructure:"max_evidence"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// AuthorityConfig tunes source tier classification
type AuthorityConfig struct {
	DomainMap   map[string]string `yaml:"domain_map,omitempty" mapstructure:"domain_map"` // host -> high|medium|low
	HighHints   []string          `yaml:"high_hints" mapstructure:"high_hints"`
	MediumHints []string          `yaml:"medium_hints" mapstructure:"medium_hints"`
	LowHints    []string          `yaml:"low_hints,omitempty" mapstructure:"low_hints"`
}

// LLMConfig configures the optional AI collaborator
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama, gemini, "" (disabled)
	Model      string `yaml:"model,omitempty" mapstructure:"model"`
	APIKey     string `yaml:"-" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens"`
	Labels     bool   `yaml:"labels" mapstructure:"labels"`
	Reasoning  bool   `yaml:"reasoning" mapstructure:"reasoning"`
	WebVerdict bool   `yaml:"web_verdict" mapstructure:"web_verdict"`
}

// CacheConfig controls the AI response and rendered report caches
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir        string        `yaml:"dir,omitempty" mapstructure:"dir"` // Disk layer; empty = memory only
	ReportTTL  time.Duration `yaml:"report_ttl" mapstructure:"report_ttl"`
	AITTL      time.Duration `yaml:"ai_ttl" mapstructure:"ai_ttl"`
	MaxEntries int           `yaml:"max_entries" mapstructure:"max_entries"`
}

// SummaryConfig bounds the extractive summarizer (in runes)
type SummaryConfig struct {
	MaxInputChars  int `yaml:"max_input_chars" mapstructure:"max_input_chars"`
	MaxOutputChars int `yaml:"max_output_chars" mapstructure:"max_output_chars"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose  bool   `yaml:"verbose" mapstructure:"verbose"`
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	MaxChars int    `yaml:"max_chars" mapstructure:"max_chars"`
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:      6 * time.Second,
			UserAgent:    "Mozilla/5.0 (compatible; factline/0.3; +https://github.com/ppiankov/factline)",
			MaxBodyBytes: 2_000_000,
		},
		Store: StoreConfig{
			DSN: "file:factline.db?mode=rwc&_txlock=immediate",
		},
		Feeds: FeedsConfig{
			RefreshInterval: 60 * time.Minute,
			RefreshBatch:    8,
			RefreshBudget:   20 * time.Second,
			Workers:         4,
			ItemsPerFeed:    35,
			RetainDays:      30,
			Schedule:        "@every 60m",
		},
		Retrieval: RetrievalConfig{
			QueryFeeds:     true,
			ItemsPerQuery:  28,
			PersistQuery:   true,
			SearchLimit:    260,
			RelevanceFloor: 0.16,
			RelaxedFloor:   0.10,
			RecencyDays:    120,
			StaleOverride:  0.33,
			MinCandidates:  4,
		},
		WebSearch: WebSearchConfig{
			Enabled:       false,
			Engines:       []string{"duckduckgo", "bing"},
			MaxResults:    8,
			EnrichTop:     3,
			RespectRobots: true,
			RatePerSecond: 1,
		},
		FactCheck: FactCheckConfig{
			QueryMax:    3,
			MaxEvidence: 8,
			Timeout:     90 * time.Second,
		},
		Authority: AuthorityConfig{
			HighHints: []string{
				"reuters", "associated press", "ap news", "bbc", "irna", "isna",
				"the guardian", "nytimes", "new york times", "al jazeera", "dw", "npr",
			},
			MediumHints: []string{
				"cnn", "tasnim", "fars", "mehr", "ilna", "khabar online",
				"hamshahri", "yjc", "tabnak", "asr iran",
			},
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 900,
			Labels:    true,
			Reasoning: true,
		},
		Cache: CacheConfig{
			Enabled:    true,
			ReportTTL:  20 * time.Minute,
			AITTL:      6 * time.Hour,
			MaxEntries: 500,
		},
		Summary: SummaryConfig{
			MaxInputChars:  12000,
			MaxOutputChars: 1900,
		},
		Output: OutputConfig{
			Timezone: "Asia/Tehran",
			MaxChars: 3900,
		},
	}
}
