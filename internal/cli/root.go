package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-pkgz/lgr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/factline/internal/llm"
	"github.com/ppiankov/factline/internal/model"
)

// version is set at build time with -ldflags "-X .../internal/cli.version=..."
var version = "v0.3.0"

var (
	cfgFile string
	verbose bool
	debug   bool
	dbPath  string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "factline",
	Short: "factline - news claim fact-checking and extractive summaries",
	Long: `factline checks a news claim against indexed news feeds, search feeds
and (optionally) live web search, and reports how well the claim is
supported, with a truth probability, a confidence level and the evidence.

It does not decide what is true. It shows what the available sources say.

An optional AI collaborator (OpenAI, Anthropic, Gemini or Ollama) can
distill and translate claims, label evidence and explain the result.
Every AI step is optional; without it factline uses heuristics.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLog(debug, verbose, secrets()...)
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of factline.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("factline %s\n", version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.factline/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (info logs on stderr)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "evidence index database DSN (overrides store.dsn)")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("store.dsn", rootCmd.PersistentFlags().Lookup("db"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads .env, the config file and FACTLINE_* environment variables
func initConfig() {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(filepath.Join(home, ".factline"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	if err := setDefaults(model.DefaultConfig()); err != nil {
		fmt.Fprintf(os.Stderr, "Error setting defaults: %v\n", err)
	}

	// Environment variables FACTLINE_SECTION_KEY override section.key
	viper.SetEnvPrefix("FACTLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	for _, key := range []string{"llm.api_key", "llm.model", "llm.base_url", "cache.dir", "feeds.file",
		"http.http_proxy", "http.https_proxy", "http.no_proxy"} {
		_ = viper.BindEnv(key)
	}

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setDefaults registers every default key so env overrides reach Unmarshal
func setDefaults(cfg *model.Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal defaults: %w", err)
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("unmarshal defaults: %w", err)
	}

	var walk func(prefix string, node map[string]any)
	walk = func(prefix string, node map[string]any) {
		for k, v := range node {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(key, child)
				continue
			}
			viper.SetDefault(key, v)
		}
	}
	walk("", tree)
	return nil
}

// loadConfig builds the effective configuration: defaults, config file, env, flags
func loadConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// applyLLM resolves provider, model, key and base URL; flags win over config
func applyLLM(cfg *model.Config, enabled bool, provider, modelName string) error {
	if enabled && provider != "" {
		cfg.LLM.Provider = provider
	}
	if !enabled && cfg.LLM.Provider == "" {
		return nil
	}
	if cfg.LLM.Provider == "" {
		return fmt.Errorf("--llm requires --llm-provider or llm.provider in the config")
	}
	if modelName != "" {
		cfg.LLM.Model = modelName
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = llm.APIKeyFromEnv(cfg.LLM.Provider)
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = llm.BaseURLFromEnv(cfg.LLM.Provider)
	}

	switch strings.ToLower(cfg.LLM.Provider) {
	case "openai":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "gemini", "google":
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY environment variable not set")
		}
	}
	return nil
}

// secrets returns the API keys to be masked in logs
func secrets() []string {
	var out []string
	for _, env := range []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY", "FACTLINE_LLM_API_KEY"} {
		if v := os.Getenv(env); v != "" {
			out = append(out, v)
		}
	}
	if v := viper.GetString("llm.api_key"); v != "" {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// setupLog writes logs to stderr: errors only by default, info and up with
// verbose, everything with debug
func setupLog(dbg, info bool, secs ...string) {
	logOpts := []lgr.Option{lgr.Out(io.Discard), lgr.Err(os.Stderr)}
	switch {
	case dbg:
		logOpts = []lgr.Option{lgr.Out(os.Stderr), lgr.Debug, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	case info:
		logOpts = []lgr.Option{lgr.Out(os.Stderr), lgr.LevelBraces}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))
	if len(secs) > 0 {
		logOpts = append(logOpts, lgr.Secret(secs...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
