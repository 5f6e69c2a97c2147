package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/pipeline"
	"github.com/ppiankov/factline/internal/render"
)

var (
	mode        string
	outJSON     bool
	timeout     time.Duration
	noCache     bool
	webSearch   bool
	insecureTLS bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check <text|->",
	Short: "Fact-check a news claim and print a credibility report",
	Long: `Check distills the main claim of a news text and:
- Searches the local feed index, news search feeds and (optionally) the web
- Selects the most relevant evidence in Persian and English
- Labels each item as support, refute or related
- Reports truth and fake probability, confidence and the top sources

With no argument or "-" the text is read from stdin.

Example:
  factline check "Iran and the IAEA reached a new agreement"
  echo "..." | factline check --mode pro
  factline check "..." --llm --llm-provider gemini --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addCheckFlags(checkCmd)

	// Output flags
	checkCmd.Flags().BoolVar(&outJSON, "json", false, "print the full result as JSON instead of the text report")
}

// addCheckFlags registers the flags shared by check and batch
func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&mode, "mode", "normal", "report mode (brief, normal, pro)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall fact-check timeout (default: factcheck.timeout)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable report and AI caches")
	cmd.Flags().BoolVar(&webSearch, "web", false, "enable live web search")
	cmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	// LLM flags
	cmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable the AI collaborator")
	cmd.Flags().StringVar(&llmProvider, "llm-provider", "", "LLM provider (openai, anthropic, ollama, gemini)")
	cmd.Flags().StringVar(&llmModel, "llm-model", "", "LLM model name (default depends on provider)")
}

// checkConfig applies the shared check flags on top of the loaded configuration
func checkConfig() (*model.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if timeout > 0 {
		cfg.FactCheck.Timeout = timeout
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if webSearch {
		cfg.WebSearch.Enabled = true
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if err := applyLLM(cfg, llmEnabled, llmProvider, llmModel); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCheck(cmd *cobra.Command, args []string) error {
	text, err := readInput(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	cfg, err := checkConfig()
	if err != nil {
		return err
	}
	m := model.ParseMode(mode)

	if verbose {
		fmt.Fprintf(os.Stderr, "Mode: %s\n", m)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.FactCheck.Timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintf(os.Stderr, "Web search: %v\n", cfg.WebSearch.Enabled)
		if cfg.LLM.Provider != "" {
			fmt.Fprintf(os.Stderr, "LLM: %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	out := cmd.OutOrStdout()
	if outJSON {
		res, err := p.Run(ctx, text, m)
		if err != nil {
			return fmt.Errorf("check failed: %w", err)
		}
		return render.RenderJSON(out, res)
	}

	report, err := p.Report(ctx, text, m)
	if err != nil {
		if errors.Is(err, model.ErrEmptyInput) {
			fmt.Fprintln(out, report)
		}
		return fmt.Errorf("check failed: %w", err)
	}
	fmt.Fprintln(out, report)
	return nil
}

// readInput returns the joined arguments, or stdin for no argument or "-"
func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 && args[0] != "-" {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}
