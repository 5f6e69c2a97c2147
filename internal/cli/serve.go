package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-pkgz/lgr"
	"github.com/spf13/cobra"

	"github.com/ppiankov/factline/internal/pipeline"
)

var schedule string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Keep the feed index fresh on a schedule",
	Long: `Serve refreshes the feed index once, then on a cron schedule until
interrupted. Fact-checks run by other factline processes against the
same database see the refreshed items.

Example:
  factline serve
  factline serve --schedule "*/30 * * * *"`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&schedule, "schedule", "", "cron spec or @every interval (default: feeds.schedule)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if schedule != "" {
		cfg.Feeds.Schedule = schedule
	}

	ctx, stop := signalContext(context.Background())
	defer stop()

	p, err := pipeline.NewPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	defer func() { _ = p.Close() }()

	idx := p.Indexer()
	printRefresh(idx.Refresh(ctx, true))

	c, err := idx.Schedule(ctx, cfg.Feeds.Schedule)
	if err != nil {
		return fmt.Errorf("schedule refresh: %w", err)
	}
	lgr.Printf("[INFO] feed refresh scheduled: %s", cfg.Feeds.Schedule)
	fmt.Fprintf(os.Stderr, "Refreshing on %q, press Ctrl+C to stop\n", cfg.Feeds.Schedule)

	<-ctx.Done()
	// wait for a running refresh to finish
	<-c.Stop().Done()
	lgr.Printf("[INFO] scheduler stopped")
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
