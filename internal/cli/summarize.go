package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factline/internal/summarize"
)

var summaryJSON bool

// summarizeCmd represents the summarize command
var summarizeCmd = &cobra.Command{
	Use:   "summarize [file|-]",
	Short: "Print an extractive summary of a text",
	Long: `Summarize picks the most informative sentences of a text and lists
key points, sensitive facts (emails, amounts, dates) and keywords.
Messages that match a scam pattern get a warning instead of a summary.

With no argument or "-" the text is read from stdin.

Example:
  factline summarize article.txt
  pbpaste | factline summarize --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSummarize,
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().BoolVar(&summaryJSON, "json", false, "print the summary as JSON")
}

func runSummarize(cmd *cobra.Command, args []string) error {
	var text string
	if len(args) > 0 && args[0] != "-" {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		text = string(data)
	} else {
		in, err := readInput(cmd.InOrStdin(), nil)
		if err != nil {
			return err
		}
		text = in
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s := summarize.New(cfg.Summary)
	out := cmd.OutOrStdout()

	if !summaryJSON {
		fmt.Fprintln(out, s.Text(text))
		return nil
	}

	sum, err := s.Summarize(text)
	if errors.Is(err, summarize.ErrNoText) {
		fmt.Fprintln(os.Stderr, summarize.NoTextMessage)
		return err
	}
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(sum)
}
