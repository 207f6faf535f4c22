package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	batchAccount     string
	batchRules       string
	batchAutoResolve bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Scan an account and auto-merge high-confidence duplicates",
	Long: `Batch runs a full account scan and, with --auto-resolve, merges every
candidate whose suggested resolution is merge. Per-candidate failures are
reported in the summary without stopping the run.

Examples:
  # Dry run: count candidates without merging
  batch --account acct_123

  # Auto-merge candidates at or above the auto-merge threshold
  batch --account acct_123 --auto-resolve`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchAccount, "account", "", "account id (required)")
	f.StringVar(&batchRules, "rules", "", "path to a YAML rule set (overrides config)")
	f.BoolVar(&batchAutoResolve, "auto-resolve", false, "merge candidates suggested for merge")
	_ = batchCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	_, _, processor, err := newEngine(s, batchRules)
	if err != nil {
		return err
	}

	result, err := processor.ProcessBatch(ctx, batchAccount, batchAutoResolve)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "encode batch result")
	}
	return nil
}
