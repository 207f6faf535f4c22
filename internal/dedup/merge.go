package dedup

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/internal/store"
)

// Strategy names a per-field policy for picking a value when both records
// carry one.
type Strategy string

const (
	StrategyNewest       Strategy = "newest"
	StrategyOldest       Strategy = "oldest"
	StrategyLongest      Strategy = "longest"
	StrategyHighestScore Strategy = "highest_score"
	StrategyConcatenate  Strategy = "concatenate"
	// StrategyManual keeps the surviving record's value untouched; it flags
	// that a human should review the field later.
	StrategyManual Strategy = "manual"
)

// KnownStrategy reports whether s names a merge strategy.
func KnownStrategy(s Strategy) bool {
	switch s {
	case StrategyNewest, StrategyOldest, StrategyLongest,
		StrategyHighestScore, StrategyConcatenate, StrategyManual:
		return true
	}
	return false
}

// DefaultStrategies returns the per-field strategy table.
func DefaultStrategies() map[model.Field]Strategy {
	return map[model.Field]Strategy{
		model.FieldContactEmail: StrategyNewest,
		model.FieldContactPhone: StrategyNewest,
		model.FieldContactName:  StrategyLongest,
		model.FieldContactTitle: StrategyNewest,
		model.FieldCompanyName:  StrategyLongest,
		model.FieldWebsite:      StrategyNewest,
		model.FieldLeadScore:    StrategyHighestScore,
		model.FieldIndustry:     StrategyNewest,
		model.FieldCompanySize:  StrategyNewest,
		model.FieldRevenueRange: StrategyNewest,
		model.FieldLocation:     StrategyLongest,
		model.FieldLinkedInURL:  StrategyNewest,
	}
}

// Merger combines two lead records into one surviving record.
type Merger struct {
	store      store.LeadStore
	strategies map[model.Field]Strategy
}

// NewMerger creates a Merger with the default strategy table.
func NewMerger(s store.LeadStore) *Merger {
	return &Merger{store: s, strategies: DefaultStrategies()}
}

// Merge applies per-field strategies to combine the removed lead into the
// surviving lead, persists the changed fields, deletes the removed lead,
// and appends a merge event. Overrides take precedence over the default
// strategy table for the named fields only.
//
// The update and delete are issued as separate store calls; if the delete
// fails after the update succeeds, the surviving record already reflects
// the merge while the removed record still exists.
func (m *Merger) Merge(ctx context.Context, accountID, survivingID, removedID string, overrides map[model.Field]Strategy) (*model.Lead, error) {
	if survivingID == removedID {
		return nil, eris.Wrapf(ErrMergeConflict, "lead %s cannot merge with itself", survivingID)
	}
	for f, s := range overrides {
		if !model.KnownField(f) {
			return nil, eris.Errorf("dedup: unknown override field %q", f)
		}
		if !KnownStrategy(s) {
			return nil, eris.Errorf("dedup: unknown strategy %q for field %q", s, f)
		}
	}

	surviving, err := m.store.GetLead(ctx, accountID, survivingID)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: load surviving lead %s", survivingID)
	}
	if surviving == nil {
		return nil, eris.Wrapf(ErrLeadNotFound, "surviving lead %s in account %s", survivingID, accountID)
	}

	removed, err := m.store.GetLead(ctx, accountID, removedID)
	if err != nil {
		return nil, eris.Wrapf(err, "dedup: load removed lead %s", removedID)
	}
	if removed == nil {
		return nil, eris.Wrapf(ErrLeadNotFound, "removed lead %s in account %s", removedID, accountID)
	}

	patch := make(model.FieldPatch)
	var changed []model.Field
	for _, f := range model.MergeFields() {
		merged := m.resolveField(f, surviving, removed, overrides)
		if merged != surviving.Value(f) {
			patch[f] = merged
			changed = append(changed, f)
		}
	}

	if len(patch) > 0 {
		if err := m.store.UpdateLeadFields(ctx, survivingID, patch); err != nil {
			return nil, eris.Wrapf(err, "dedup: update surviving lead %s", survivingID)
		}
	}

	if err := m.store.DeleteLead(ctx, removedID); err != nil {
		return nil, eris.Wrapf(err, "dedup: delete removed lead %s", removedID)
	}

	// Audit append is best effort: losing the log entry must never undo or
	// fail a completed merge.
	ev := &model.MergeEvent{
		ID:              uuid.New().String(),
		AccountID:       accountID,
		SurvivingLeadID: survivingID,
		RemovedLeadID:   removedID,
		ChangedFields:   changed,
		CreatedAt:       time.Now().UTC(),
	}
	if err := m.store.AppendMergeEvent(ctx, ev); err != nil {
		zap.L().Warn("dedup: merge event append failed",
			zap.String("surviving_lead_id", survivingID),
			zap.String("removed_lead_id", removedID),
			zap.Error(err),
		)
	}

	for f, v := range patch {
		surviving.SetValue(f, v)
	}

	zap.L().Info("dedup: merge complete",
		zap.String("account_id", accountID),
		zap.String("surviving_lead_id", survivingID),
		zap.String("removed_lead_id", removedID),
		zap.Int("changed_fields", len(changed)),
	)

	return surviving, nil
}

// resolveField picks the merged value for one field. Empty values never win
// over non-empty ones regardless of strategy.
func (m *Merger) resolveField(f model.Field, surviving, removed *model.Lead, overrides map[model.Field]Strategy) string {
	sv := surviving.Value(f)
	rv := removed.Value(f)

	if rv == "" {
		return sv
	}
	if sv == "" {
		return rv
	}

	strategy, ok := overrides[f]
	if !ok {
		strategy = m.strategies[f]
	}

	switch strategy {
	case StrategyNewest:
		if removed.CreatedAt.After(surviving.CreatedAt) {
			return rv
		}
		return sv
	case StrategyOldest:
		if removed.CreatedAt.Before(surviving.CreatedAt) {
			return rv
		}
		return sv
	case StrategyLongest:
		if len(rv) > len(sv) {
			return rv
		}
		return sv
	case StrategyHighestScore:
		sn, serr := strconv.ParseFloat(sv, 64)
		rn, rerr := strconv.ParseFloat(rv, 64)
		if serr == nil && rerr == nil && rn > sn {
			return rv
		}
		return sv
	case StrategyConcatenate:
		return sv + "; " + rv
	case StrategyManual:
		return sv
	}
	return sv
}
