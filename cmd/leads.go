package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	leadsAccount string
	leadsLimit   int
)

var leadsCmd = &cobra.Command{
	Use:   "leads",
	Short: "List leads in an account",
	RunE:  runLeads,
}

func init() {
	f := leadsCmd.Flags()
	f.StringVar(&leadsAccount, "account", "", "account id (required)")
	f.IntVar(&leadsLimit, "limit", 50, "maximum leads to list (0 for all)")
	_ = leadsCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(leadsCmd)
}

func runLeads(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	leads, err := s.ListLeads(ctx, leadsAccount, leadsLimit)
	if err != nil {
		return err
	}

	writeLeadsTable(cmd.OutOrStdout(), leads)
	return nil
}
