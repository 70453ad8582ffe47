// Command score assesses a CSV file of village observations offline and
// writes one JSON assessment per line.
//
// Usage:
//
//	go run ./cmd/score data/observations.csv --out assessments.jsonl --workers 8
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := options{
		lexiconPath: os.Getenv("LEXICON_PATH"),
		logLevel:    "info",
		workers:     runtime.NumCPU(),
	}

	cmd := &cobra.Command{
		Use:   "score <observations.csv>",
		Short: "Score village water observations from a CSV file",
		Long: `Score reads a CSV of water-quality readings, symptom counts and field
reports, and prints one JSON assessment per input row, in input order.

Columns are matched by header name. Recognised headers are village (or
village_id), observed_at (or date), ph, turbidity, orp, rainfall, diarrhea,
vomiting, fever and report_text. Empty cells are treated as missing. Use "-"
to read from stdin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			return run(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&opts.output, "out", "o", "", "write JSON lines to this file instead of stdout")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", opts.workers, "number of rows scored in parallel")
	cmd.Flags().StringVar(&opts.lexiconPath, "lexicon", opts.lexiconPath, "field-report lexicon YAML (default: embedded)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", opts.logLevel, "log level (debug, info, warn, error)")

	return cmd
}
