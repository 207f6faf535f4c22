// Package store provides lead persistence over Postgres or SQLite.
package store

import (
	"context"

	"github.com/sells-group/leadscope/internal/model"
)

// LeadStore defines the persistence interface for leads and the merge audit
// trail. Get returns (nil, nil) when the lead does not exist; callers decide
// whether absence is an error.
type LeadStore interface {
	// Leads
	CreateLead(ctx context.Context, lead *model.Lead) error
	GetLead(ctx context.Context, accountID, leadID string) (*model.Lead, error)
	ListLeads(ctx context.Context, accountID string, limit int) ([]model.Lead, error)
	UpdateLeadFields(ctx context.Context, leadID string, patch model.FieldPatch) error
	DeleteLead(ctx context.Context, leadID string) error

	// Merge audit trail
	AppendMergeEvent(ctx context.Context, ev *model.MergeEvent) error
	ListMergeEvents(ctx context.Context, accountID string, limit int) ([]model.MergeEvent, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
