package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/dedup"
	"github.com/sells-group/leadscope/internal/model"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

// fakeStore is a minimal in-memory LeadStore for handler tests.
type fakeStore struct {
	mu     sync.Mutex
	leads  []*model.Lead
	events []model.MergeEvent
}

func (s *fakeStore) CreateLead(_ context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lead
	s.leads = append(s.leads, &cp)
	return nil
}

func (s *fakeStore) GetLead(_ context.Context, accountID, leadID string) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.AccountID == accountID && l.ID == leadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *fakeStore) ListLeads(_ context.Context, accountID string, limit int) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Lead
	for _, l := range s.leads {
		if l.AccountID != accountID {
			continue
		}
		out = append(out, *l)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateLeadFields(_ context.Context, leadID string, patch model.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == leadID {
			for f, v := range patch {
				l.SetValue(f, v)
			}
		}
	}
	return nil
}

func (s *fakeStore) DeleteLead(_ context.Context, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, l := range s.leads {
		if l.ID == leadID {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) AppendMergeEvent(_ context.Context, ev *model.MergeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *ev)
	return nil
}

func (s *fakeStore) ListMergeEvents(_ context.Context, accountID string, _ int) ([]model.MergeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MergeEvent
	for _, ev := range s.events {
		if ev.AccountID == accountID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *fakeStore) Migrate(context.Context) error { return nil }
func (s *fakeStore) Close() error                  { return nil }

func newTestServer(t *testing.T, leads ...*model.Lead) (*fakeStore, http.Handler) {
	t.Helper()
	s := &fakeStore{}
	for _, l := range leads {
		require.NoError(t, s.CreateLead(context.Background(), l))
	}

	cfg := dedup.DefaultConfig()
	matcher := dedup.NewMatcher(dedup.DefaultRules(), cfg)
	scanner := dedup.NewScanner(s, matcher, cfg)
	merger := dedup.NewMerger(s)
	processor := dedup.NewProcessor(scanner, merger, 0, 0)

	srv := New(s, scanner, merger, processor)
	return s, srv.Routes([]string{"*"})
}

func duplicatePair() (*model.Lead, *model.Lead) {
	a := &model.Lead{
		ID: "lead-a", AccountID: "acct-1",
		ContactName: "John Smith", CompanyName: "Acme Corp",
		ContactEmail: "j@acme.com", ContactPhone: "+1-555-0100",
		Website: "acme.com", LinkedInURL: "linkedin.com/in/jsmith",
	}
	b := &model.Lead{}
	*b = *a
	b.ID = "lead-b"
	return a, b
}

func TestHealth(t *testing.T) {
	_, h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestScanAccountHandler(t *testing.T) {
	a, b := duplicatePair()
	_, h := newTestServer(t, a, b)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/duplicates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Candidates []dedup.Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, dedup.ResolutionMerge, resp.Candidates[0].Resolution)
}

func TestScanLeadHandler(t *testing.T) {
	a, b := duplicatePair()
	_, h := newTestServer(t, a, b)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/leads/lead-a/duplicates", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Candidates []dedup.Candidate `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Candidates, 1)
	assert.Equal(t, "lead-b", resp.Candidates[0].Duplicate.ID)
}

func TestScanLeadHandlerNotFound(t *testing.T) {
	_, h := newTestServer(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/leads/missing/duplicates", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMergeHandler(t *testing.T) {
	a, b := duplicatePair()
	b.ContactTitle = "VP Sales"
	s, h := newTestServer(t, a, b)

	body := `{"surviving_lead_id":"lead-a","removed_lead_id":"lead-b"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/merges", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Lead model.Lead `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "lead-a", resp.Lead.ID)
	assert.Equal(t, "VP Sales", resp.Lead.ContactTitle, "empty field filled from the removed lead")

	got, err := s.GetLead(context.Background(), "acct-1", "lead-b")
	require.NoError(t, err)
	assert.Nil(t, got, "removed lead is deleted")
}

func TestMergeHandlerValidation(t *testing.T) {
	a, b := duplicatePair()
	_, h := newTestServer(t, a, b)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", "{", http.StatusBadRequest},
		{"missing ids", `{}`, http.StatusBadRequest},
		{"same lead", `{"surviving_lead_id":"lead-a","removed_lead_id":"lead-a"}`, http.StatusConflict},
		{"unknown lead", `{"surviving_lead_id":"lead-a","removed_lead_id":"missing"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/merges", strings.NewReader(tt.body)))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestMergeHandlerStrategyOverride(t *testing.T) {
	a, b := duplicatePair()
	a.ContactPhone = "+1-555-0200"
	b.ContactPhone = "+1-555-0100"
	_, h := newTestServer(t, a, b)

	body := `{
		"surviving_lead_id": "lead-a",
		"removed_lead_id": "lead-b",
		"strategies": {"contact_phone": "concatenate"}
	}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/merges", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Lead model.Lead `json:"lead"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "+1-555-0200; +1-555-0100", resp.Lead.ContactPhone)
}

func TestBatchHandlerAccepted(t *testing.T) {
	a, b := duplicatePair()
	_, h := newTestServer(t, a, b)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/accounts/acct-1/batch", strings.NewReader(`{"auto_resolve":true}`)))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"accepted"`)
}

func TestListLeadsHandler(t *testing.T) {
	a, b := duplicatePair()
	_, h := newTestServer(t, a, b)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/leads", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Leads []model.Lead `json:"leads"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Leads, 2)
}

func TestListEventsHandler(t *testing.T) {
	s, h := newTestServer(t)
	require.NoError(t, s.AppendMergeEvent(context.Background(), &model.MergeEvent{
		ID: "ev-1", AccountID: "acct-1",
		SurvivingLeadID: "lead-a", RemovedLeadID: "lead-b",
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/accounts/acct-1/events", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ev-1")
}
