package dedup

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/model"
)

// memStore is an in-memory LeadStore for engine tests. Leads list in
// insertion order; the err fields inject failures per operation.
type memStore struct {
	mu     sync.Mutex
	leads  []*model.Lead
	events []model.MergeEvent

	getErr    error
	listErr   error
	updateErr error
	deleteErr error
	appendErr error
}

func newMemStore(leads ...*model.Lead) *memStore {
	s := &memStore{}
	s.leads = append(s.leads, leads...)
	return s
}

func (s *memStore) CreateLead(_ context.Context, lead *model.Lead) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *lead
	s.leads = append(s.leads, &cp)
	return nil
}

func (s *memStore) GetLead(_ context.Context, accountID, leadID string) (*model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	for _, l := range s.leads {
		if l.AccountID == accountID && l.ID == leadID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) ListLeads(_ context.Context, accountID string, limit int) ([]model.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
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

func (s *memStore) UpdateLeadFields(_ context.Context, leadID string, patch model.FieldPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	for _, l := range s.leads {
		if l.ID == leadID {
			for f, v := range patch {
				l.SetValue(f, v)
			}
			return nil
		}
	}
	return eris.Errorf("lead %s not found", leadID)
}

func (s *memStore) DeleteLead(_ context.Context, leadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	for i, l := range s.leads {
		if l.ID == leadID {
			s.leads = append(s.leads[:i], s.leads[i+1:]...)
			return nil
		}
	}
	return eris.Errorf("lead %s not found", leadID)
}

func (s *memStore) AppendMergeEvent(_ context.Context, ev *model.MergeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return s.appendErr
	}
	s.events = append(s.events, *ev)
	return nil
}

func (s *memStore) ListMergeEvents(_ context.Context, accountID string, limit int) ([]model.MergeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.MergeEvent
	for _, ev := range s.events {
		if ev.AccountID != accountID {
			continue
		}
		out = append(out, ev)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memStore) Migrate(_ context.Context) error { return nil }
func (s *memStore) Close() error                    { return nil }

func (s *memStore) lead(id string) *model.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.leads {
		if l.ID == id {
			cp := *l
			return &cp
		}
	}
	return nil
}
