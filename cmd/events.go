package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	eventsAccount string
	eventsLimit   int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List merge events for an account",
	Long:  "Events shows the merge audit trail: which lead absorbed which, when, and which fields changed.",
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.StringVar(&eventsAccount, "account", "", "account id (required)")
	f.IntVar(&eventsLimit, "limit", 50, "maximum events to list (0 for all)")
	_ = eventsCmd.MarkFlagRequired("account")
	rootCmd.AddCommand(eventsCmd)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	events, err := s.ListMergeEvents(ctx, eventsAccount, eventsLimit)
	if err != nil {
		return err
	}

	writeEventsTable(cmd.OutOrStdout(), events)
	return nil
}
