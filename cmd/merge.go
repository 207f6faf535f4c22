package main

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/dedup"
	"github.com/sells-group/leadscope/internal/model"
)

var (
	mergeAccount    string
	mergeInto       string
	mergeFrom       string
	mergeStrategies []string
)

var mergeCmd = &cobra.Command{
	Use:   "merge",
	Short: "Merge one lead into another",
	Long: `Merge combines the --from lead into the --into lead field by field,
deletes the --from lead, and records a merge event.

Examples:
  # Merge with default strategies
  merge --account acct_123 --into lead_a --from lead_b

  # Override strategies for specific fields
  merge --account acct_123 --into lead_a --from lead_b \
    --strategy contact_phone=concatenate --strategy company_name=longest`,
	RunE: runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.StringVar(&mergeAccount, "account", "", "account id (required)")
	f.StringVar(&mergeInto, "into", "", "surviving lead id (required)")
	f.StringVar(&mergeFrom, "from", "", "removed lead id (required)")
	f.StringArrayVar(&mergeStrategies, "strategy", nil, "field=strategy override (repeatable)")
	_ = mergeCmd.MarkFlagRequired("account")
	_ = mergeCmd.MarkFlagRequired("into")
	_ = mergeCmd.MarkFlagRequired("from")
	rootCmd.AddCommand(mergeCmd)
}

// parseStrategyOverrides parses repeated field=strategy flags.
func parseStrategyOverrides(pairs []string) (map[model.Field]dedup.Strategy, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	overrides := make(map[model.Field]dedup.Strategy, len(pairs))
	for _, p := range pairs {
		field, strategy, ok := strings.Cut(p, "=")
		if !ok {
			return nil, eris.Errorf("invalid --strategy %q (want field=strategy)", p)
		}
		f := model.Field(strings.TrimSpace(field))
		s := dedup.Strategy(strings.TrimSpace(strategy))
		if !model.KnownField(f) {
			return nil, eris.Errorf("unknown field %q in --strategy", field)
		}
		if !dedup.KnownStrategy(s) {
			return nil, eris.Errorf("unknown strategy %q in --strategy", strategy)
		}
		overrides[f] = s
	}
	return overrides, nil
}

func runMerge(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	overrides, err := parseStrategyOverrides(mergeStrategies)
	if err != nil {
		return err
	}

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	_, merger, _, err := newEngine(s, "")
	if err != nil {
		return err
	}

	merged, err := merger.Merge(ctx, mergeAccount, mergeInto, mergeFrom, overrides)
	if err != nil {
		switch {
		case eris.Is(err, dedup.ErrLeadNotFound):
			return eris.Errorf("merge: a lead id did not resolve in account %s", mergeAccount)
		case eris.Is(err, dedup.ErrMergeConflict):
			return eris.New("merge: surviving and removed ids must differ")
		}
		return err
	}

	fmt.Printf("merged %s into %s\n", mergeFrom, merged.ID)

	zap.L().Info("merge complete",
		zap.String("account_id", mergeAccount),
		zap.String("surviving_lead_id", mergeInto),
		zap.String("removed_lead_id", mergeFrom),
	)
	return nil
}
