package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/dedup"
)

var (
	scanAccount string
	scanLead    string
	scanRules   string
	scanFormat  string
	scanOutput  string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan an account for duplicate leads",
	Long: `Scan compares leads pairwise with the configured similarity rules and
reports candidates scoring at or above the candidate threshold.

Examples:
  # Full account scan
  scan --account acct_123

  # Duplicates of a single lead
  scan --account acct_123 --lead lead_456

  # Custom rule set, CSV export
  scan --account acct_123 --rules rules.yaml --format csv --output dupes.csv`,
	RunE: runScan,
}

func init() {
	f := scanCmd.Flags()
	f.StringVar(&scanAccount, "account", "", "account id (required)")
	f.StringVar(&scanLead, "lead", "", "scan duplicates of this lead only")
	f.StringVar(&scanRules, "rules", "", "path to a YAML rule set (overrides config)")
	f.StringVar(&scanFormat, "format", "table", "output format: table or csv")
	f.StringVar(&scanOutput, "output", "", "output file path (default: stdout)")
	_ = scanCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	scanner, _, _, err := newEngine(s, scanRules)
	if err != nil {
		return err
	}

	var candidates []dedup.Candidate
	if scanLead != "" {
		candidates, err = scanner.FindDuplicatesForLead(ctx, scanAccount, scanLead)
	} else {
		candidates, err = scanner.ScanAccount(ctx, scanAccount)
	}
	if err != nil {
		if eris.Is(err, dedup.ErrLeadNotFound) {
			return eris.Errorf("lead %s not found in account %s", scanLead, scanAccount)
		}
		return err
	}

	w, closeFn, err := openOutput(scanOutput)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := writeCandidates(w, scanFormat, candidates); err != nil {
		return err
	}

	zap.L().Info("scan complete",
		zap.String("account_id", scanAccount),
		zap.Int("candidates", len(candidates)),
	)
	return nil
}
