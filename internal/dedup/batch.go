package dedup

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// BatchResult summarizes one batch run.
type BatchResult struct {
	Processed int      `json:"processed_count"`
	Resolved  int      `json:"resolved_count"`
	Errors    []string `json:"errors"`
}

// Processor runs a full-account scan and optionally auto-merges candidates
// whose suggested resolution is merge.
type Processor struct {
	scanner *Scanner
	merger  *Merger
	limiter *rate.Limiter
}

// NewProcessor creates a Processor. mergesPerSecond bounds the write rate
// against the backing store; <= 0 disables the limit.
func NewProcessor(scanner *Scanner, merger *Merger, mergesPerSecond float64, burst int) *Processor {
	var limiter *rate.Limiter
	if mergesPerSecond > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(mergesPerSecond), burst)
	}
	return &Processor{scanner: scanner, merger: merger, limiter: limiter}
}

// ProcessBatch scans the account and, when autoResolve is set, merges every
// candidate suggested for merge. Per-candidate failures are recorded and do
// not halt the batch; only a failed scan aborts.
func (p *Processor) ProcessBatch(ctx context.Context, accountID string, autoResolve bool) (*BatchResult, error) {
	candidates, err := p.scanner.ScanAccount(ctx, accountID)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: batch scan account %s", accountID)
	}

	result := &BatchResult{}
	removed := make(map[string]bool)

	for i := range candidates {
		c := &candidates[i]
		result.Processed++

		if !autoResolve || c.Resolution != ResolutionMerge {
			continue
		}

		// A lead merged away earlier in this batch can still appear in later
		// candidates; skip those pairs instead of reporting a stale failure.
		if removed[c.Lead.ID] || removed[c.Duplicate.ID] {
			zap.L().Debug("dedup: batch skipping candidate with removed lead",
				zap.String("lead_id", c.Lead.ID),
				zap.String("duplicate_id", c.Duplicate.ID),
			)
			continue
		}

		if p.limiter != nil {
			if err := p.limiter.Wait(ctx); err != nil {
				result.Errors = append(result.Errors,
					fmt.Sprintf("merge %s into %s: %v", c.Duplicate.ID, c.Lead.ID, err))
				continue
			}
		}

		if _, err := p.merger.Merge(ctx, accountID, c.Lead.ID, c.Duplicate.ID, nil); err != nil {
			result.Errors = append(result.Errors,
				fmt.Sprintf("merge %s into %s: %v", c.Duplicate.ID, c.Lead.ID, err))
			continue
		}

		removed[c.Duplicate.ID] = true
		result.Resolved++
	}

	zap.L().Info("dedup: batch complete",
		zap.String("account_id", accountID),
		zap.Bool("auto_resolve", autoResolve),
		zap.Int("processed", result.Processed),
		zap.Int("resolved", result.Resolved),
		zap.Int("errors", len(result.Errors)),
	)

	return result, nil
}
