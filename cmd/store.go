package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/dedup"
	"github.com/sells-group/leadscope/internal/store"
)

// openStore constructs the configured lead store.
func openStore(ctx context.Context) (store.LeadStore, error) {
	switch cfg.Store.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// loadRules returns the rule set from the given path, the configured
// rules_path, or the built-in defaults, in that order.
func loadRules(path string, dedupCfg config.DedupConfig) ([]dedup.Rule, error) {
	if path == "" {
		path = dedupCfg.RulesPath
	}
	if path == "" {
		return dedup.DefaultRules(), nil
	}
	return dedup.LoadRules(path)
}

// newEngine wires the scanner, merger, and batch processor against a store.
func newEngine(s store.LeadStore, rulesPath string) (*dedup.Scanner, *dedup.Merger, *dedup.Processor, error) {
	if err := dedup.ValidateConfig(cfg.Dedup); err != nil {
		return nil, nil, nil, err
	}

	rules, err := loadRules(rulesPath, cfg.Dedup)
	if err != nil {
		return nil, nil, nil, err
	}

	matcher := dedup.NewMatcher(rules, cfg.Dedup)
	scanner := dedup.NewScanner(s, matcher, cfg.Dedup)
	merger := dedup.NewMerger(s)
	processor := dedup.NewProcessor(scanner, merger, cfg.Batch.MergesPerSecond, cfg.Batch.Burst)
	return scanner, merger, processor, nil
}
