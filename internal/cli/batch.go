package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/vedcheck/internal/model"
	"github.com/ppiankov/vedcheck/internal/output"
	"github.com/ppiankov/vedcheck/internal/pipeline"
	"github.com/ppiankov/vedcheck/internal/worker"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	concurrency  int
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Verify many scanned texts from a file in parallel",
	Long: `Batch verifies one scanned text per line. Blank lines, lines starting
with # and duplicates are skipped. Results are printed in input order.

Example:
  vedcheck batch scans.txt
  vedcheck batch scans.txt --concurrency 8 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper())
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, args[0])
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	summary := output.Summarize(results)
	printer := newPrinter(cmd.OutOrStdout())

	if jsonOut {
		return printer.JSON(batchJSON(results, summary))
	}

	for _, r := range results {
		printer.BatchResult(r)
	}
	printer.Summary(summary)
	return nil
}

type batchEntry struct {
	Raw     string       `json:"raw"`
	Verdict string       `json:"verdict"`
	Proof   *model.Proof `json:"proof,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func batchJSON(results []*worker.VerifyResult, summary output.BatchSummary) map[string]any {
	entries := make([]batchEntry, 0, len(results))
	for _, r := range results {
		e := batchEntry{Raw: r.Raw, Verdict: output.Verdict(r.Proof), Proof: r.Proof}
		if r.Error != nil {
			e.Error = r.Error.Error()
		}
		entries = append(entries, e)
	}
	return map[string]any{
		"results": entries,
		"summary": summary,
	}
}
