package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factline/internal/model"
	"github.com/ppiankov/factline/internal/pipeline"
)

var forceRefresh bool

// refreshCmd represents the refresh command
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Refresh the local feed index",
	Long: `Refresh fetches the next batch of indexed feeds into the evidence store
and prunes items older than feeds.retain_days. A refresh inside
feeds.refresh_interval of the last one is skipped unless --force is set.

Example:
  factline refresh
  factline refresh --force --db file:/var/lib/factline/index.db`,
	Args: cobra.NoArgs,
	RunE: runRefresh,
}

func init() {
	rootCmd.AddCommand(refreshCmd)
	refreshCmd.Flags().BoolVar(&forceRefresh, "force", false, "refresh even when the index is fresh")
}

func runRefresh(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	fmt.Fprintf(os.Stderr, "⚙️  Refreshing feed index...\n")
	printRefresh(p.Indexer().Refresh(ctx, forceRefresh))
	return nil
}

func printRefresh(info model.RefreshInfo) {
	if info.Skipped {
		fmt.Fprintf(os.Stderr, "• Skipped: %s\n", info.Reason)
		return
	}
	fmt.Fprintf(os.Stderr, "✓ Feeds:   %d (%d failed)\n", info.Feeds, info.Failed)
	fmt.Fprintf(os.Stderr, "✓ Items:   %d\n", info.Items)
	fmt.Fprintf(os.Stderr, "✓ Pruned:  %d\n", info.Pruned)
	fmt.Fprintf(os.Stderr, "✓ Took:    %v\n", time.Duration(info.TookMS)*time.Millisecond)
}
