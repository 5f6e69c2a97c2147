package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/normalize"
	"github.com/ppiankov/factline/internal/pipeline"
	"github.com/ppiankov/factline/internal/render"
	"github.com/ppiankov/factline/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check multiple claims from a file in parallel",
	Long: `Batch fact-checks claims concurrently:
- Read claims from input file (one per line, # starts a comment)
- Check claims in parallel with configurable worker count
- Write one text report and one JSON result per claim

Example:
  factline batch claims.txt
  factline batch claims.txt --concurrency 4 --output-dir ./reports
  factline batch claims.txt --mode pro --timeout 30m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	addCheckFlags(batchCmd)

	// Concurrency flags
	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factline-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "batch-timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]
	m := model.ParseMode(mode)

	cfg, err := checkConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  factline Batch Processing\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Mode:         %s\n", m)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", concurrency)
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "  Timeout:      %v\n", batchTimeout)
	if cfg.LLM.Provider != "" {
		fmt.Fprintf(os.Stderr, "  LLM:          %s/%s\n", cfg.LLM.Provider, cfg.LLM.Model)
	}
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	sigCtx, stop := signalContext(context.Background())
	defer stop()
	ctx, cancel := context.WithTimeout(sigCtx, batchTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	processor := worker.NewBatchProcessor(p, concurrency)

	fmt.Fprintf(os.Stderr, "⚙️  Checking claims with %d workers...\n", concurrency)
	fmt.Fprintf(os.Stderr, "\n")
	results, err := processor.ProcessFile(ctx, file, m)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	successCount := 0
	failureCount := 0
	renderer := p.Renderer()

	for _, result := range results {
		label := normalize.Truncate(result.Claim, 60)
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		base := filepath.Join(outputDir, fmt.Sprintf("claim-%03d", result.Index+1))
		if err := writeResult(base, renderer, result.Result); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", label, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%s, truth %.0f%%)\n", label,
			result.Result.Score.Verdict, result.Result.Score.TruthProb*100)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  Batch Complete\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d claims\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	return nil
}

// writeResult writes base.txt with the text report and base.json with the result
func writeResult(base string, renderer *render.Renderer, res *model.Result) (err error) {
	if err := os.WriteFile(base+".txt", []byte(renderer.Render(res)+"\n"), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	f, err := os.Create(base + ".json")
	if err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close JSON: %w", closeErr)
		}
	}()
	return render.RenderJSON(f, res)
}
