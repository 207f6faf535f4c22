package dedup

import (
	"context"
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/config"
	"github.com/sells-group/leadscope/internal/store"
)

// Scanner enumerates duplicate candidates within one account's lead set.
type Scanner struct {
	store   store.LeadStore
	matcher *Matcher
	cfg     config.DedupConfig
}

// NewScanner creates a Scanner.
func NewScanner(s store.LeadStore, m *Matcher, cfg config.DedupConfig) *Scanner {
	return &Scanner{store: s, matcher: m, cfg: cfg}
}

// FindDuplicatesForLead scores one lead against every other lead in the
// account and returns candidates at or above the candidate threshold,
// sorted descending by score.
func (s *Scanner) FindDuplicatesForLead(ctx context.Context, accountID, leadID string) ([]Candidate, error) {
	target, err := s.store.GetLead(ctx, accountID, leadID)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: load lead %s", leadID)
	}
	if target == nil {
		return nil, eris.Wrapf(ErrLeadNotFound, "lead %s in account %s", leadID, accountID)
	}

	leads, err := s.store.ListLeads(ctx, accountID, s.cfg.MaxLeads)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: list leads for account %s", accountID)
	}

	var candidates []Candidate
	for i := range leads {
		if leads[i].ID == target.ID {
			continue
		}
		if c := s.matcher.Candidate(target, &leads[i]); c != nil {
			candidates = append(candidates, *c)
		}
	}

	sortByScore(candidates)

	zap.L().Debug("dedup: lead scan complete",
		zap.String("account_id", accountID),
		zap.String("lead_id", leadID),
		zap.Int("compared", len(leads)-1),
		zap.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// ScanAccount compares every unordered lead pair in the account exactly
// once and returns all candidates at or above the candidate threshold,
// sorted descending by score.
//
// Cost is O(n^2) rule evaluations over the bounded fetch; accounts above
// MaxLeads get a partial scan. Larger datasets need a blocking pre-filter
// (e.g. bucket by normalized domain or phone) ahead of the pairwise pass.
func (s *Scanner) ScanAccount(ctx context.Context, accountID string) ([]Candidate, error) {
	leads, err := s.store.ListLeads(ctx, accountID, s.cfg.MaxLeads)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: list leads for account %s", accountID)
	}

	var candidates []Candidate
	seen := make(map[string]bool)
	for i := range leads {
		for j := i + 1; j < len(leads); j++ {
			key := pairKey(leads[i].ID, leads[j].ID)
			if seen[key] {
				continue
			}
			seen[key] = true

			if c := s.matcher.Candidate(&leads[i], &leads[j]); c != nil {
				candidates = append(candidates, *c)
			}
		}
	}

	sortByScore(candidates)

	zap.L().Info("dedup: account scan complete",
		zap.String("account_id", accountID),
		zap.Int("leads", len(leads)),
		zap.Int("candidates", len(candidates)),
	)

	return candidates, nil
}

// pairKey returns a canonical key for an unordered id pair so A-vs-B and
// B-vs-A are never both evaluated.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

// sortByScore orders candidates descending by match score; ties keep input
// order.
func sortByScore(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].MatchScore > candidates[j].MatchScore
	})
}
