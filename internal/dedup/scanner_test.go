package dedup

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadscope/internal/model"
)

func newTestScanner(s *memStore) *Scanner {
	return NewScanner(s, defaultMatcher(), DefaultConfig())
}

func TestFindDuplicatesForLead(t *testing.T) {
	target := &model.Lead{
		ID: "lead-a", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com",
	}
	strong := &model.Lead{ // matches email, phone, linkedin, domain
		ID: "lead-b", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "www.acme.com",
	}
	weak := &model.Lead{ // matches email only: below the candidate threshold
		ID: "lead-c", AccountID: "acct-1",
		ContactEmail: "j@acme.com",
	}
	unrelated := &model.Lead{
		ID: "lead-d", AccountID: "acct-1",
		ContactEmail: "priya@globex.io",
	}

	s := newMemStore(target, strong, weak, unrelated)
	scanner := newTestScanner(s)

	candidates, err := scanner.FindDuplicatesForLead(context.Background(), "acct-1", "lead-a")
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	assert.Equal(t, "lead-a", candidates[0].Lead.ID)
	assert.Equal(t, "lead-b", candidates[0].Duplicate.ID)
}

func TestFindDuplicatesForLeadNotFound(t *testing.T) {
	s := newMemStore()
	scanner := newTestScanner(s)

	_, err := scanner.FindDuplicatesForLead(context.Background(), "acct-1", "lead-missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrLeadNotFound))
}

func TestScanAccountPairsOnce(t *testing.T) {
	// Three leads sharing one identity: 3 unordered pairs, each reported once.
	mk := func(id string) *model.Lead {
		return &model.Lead{
			ID: id, AccountID: "acct-1",
			ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
			LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com",
		}
	}
	s := newMemStore(mk("lead-a"), mk("lead-b"), mk("lead-c"))
	scanner := newTestScanner(s)

	candidates, err := scanner.ScanAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	require.Len(t, candidates, 3)

	seen := make(map[string]int)
	for _, c := range candidates {
		seen[pairKey(c.Lead.ID, c.Duplicate.ID)]++
	}
	for key, n := range seen {
		assert.Equal(t, 1, n, "pair %s reported more than once", key)
	}
}

func TestScanAccountSortedByScore(t *testing.T) {
	a := &model.Lead{ID: "lead-a", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com",
		ContactName: "John Smith", CompanyName: "Acme"}
	full := &model.Lead{ID: "lead-b", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com",
		ContactName: "John Smith", CompanyName: "Acme"}
	partial := &model.Lead{ID: "lead-c", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com"}

	s := newMemStore(partial, a, full)
	scanner := newTestScanner(s)

	candidates, err := scanner.ScanAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].MatchScore, candidates[i].MatchScore,
			"candidates must sort descending by score")
	}
	assert.InDelta(t, 1.0, candidates[0].MatchScore, 0.0001)
}

func TestScanAccountEmpty(t *testing.T) {
	s := newMemStore()
	scanner := newTestScanner(s)

	candidates, err := scanner.ScanAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestScanAccountRespectsMaxLeads(t *testing.T) {
	mk := func(id string) *model.Lead {
		return &model.Lead{ID: id, AccountID: "acct-1", ContactEmail: "j@acme.com",
			ContactPhone: "+1-555-0100", LinkedInURL: "linkedin.com/in/jsmith",
			Website: "acme.com"}
	}
	s := newMemStore(mk("lead-a"), mk("lead-b"), mk("lead-c"))

	cfg := DefaultConfig()
	cfg.MaxLeads = 2
	scanner := NewScanner(s, NewMatcher(DefaultRules(), cfg), cfg)

	candidates, err := scanner.ScanAccount(context.Background(), "acct-1")
	require.NoError(t, err)
	assert.Len(t, candidates, 1, "only the bounded fetch is compared")
}

func TestScanAfterMergeFindsNoResidual(t *testing.T) {
	a := &model.Lead{ID: "lead-a", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com"}
	b := &model.Lead{ID: "lead-b", AccountID: "acct-1",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		LinkedInURL: "linkedin.com/in/jsmith", Website: "acme.com"}

	s := newMemStore(a, b)
	scanner := newTestScanner(s)
	merger := NewMerger(s)

	_, err := merger.Merge(context.Background(), "acct-1", "lead-a", "lead-b", nil)
	require.NoError(t, err)

	candidates, err := scanner.FindDuplicatesForLead(context.Background(), "acct-1", "lead-a")
	require.NoError(t, err)
	assert.Empty(t, candidates, "no residual candidate references the deleted lead")
}

func TestPairKeyCanonical(t *testing.T) {
	assert.Equal(t, pairKey("a", "b"), pairKey("b", "a"))
	assert.NotEqual(t, pairKey("a", "b"), pairKey("a", "c"))
}
