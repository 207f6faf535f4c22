// Package importer loads leads into the store from CSV and XLSX files.
package importer

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leadscope/internal/model"
	"github.com/sells-group/leadscope/internal/store"
)

// Importer inserts parsed leads concurrently.
type Importer struct {
	store         store.LeadStore
	maxConcurrent int
}

// New creates an Importer. maxConcurrent bounds parallel inserts; values
// below 1 run sequentially.
func New(s store.LeadStore, maxConcurrent int) *Importer {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Importer{store: s, maxConcurrent: maxConcurrent}
}

// ImportCSV reads leads from a CSV file and inserts them under accountID.
// Returns the number of leads created.
func (im *Importer) ImportCSV(ctx context.Context, accountID, path string) (int, error) {
	header, rows, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	return im.importRows(ctx, accountID, header, rows)
}

// ImportXLSX reads leads from the first sheet of an XLSX file and inserts
// them under accountID. Returns the number of leads created.
func (im *Importer) ImportXLSX(ctx context.Context, accountID, path string) (int, error) {
	header, rows, err := readXLSX(path)
	if err != nil {
		return 0, err
	}
	return im.importRows(ctx, accountID, header, rows)
}

func (im *Importer) importRows(ctx context.Context, accountID string, header []string, rows [][]string) (int, error) {
	leads, skipped := parseRows(accountID, header, rows)
	if skipped > 0 {
		zap.L().Warn("importer: skipped empty rows", zap.Int("skipped", skipped))
	}
	if len(leads) == 0 {
		return 0, eris.New("importer: no usable rows")
	}

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(im.maxConcurrent)

	for i := range leads {
		lead := leads[i]
		g.Go(func() error {
			if err := im.store.CreateLead(gctx, &lead); err != nil {
				return eris.Wrapf(err, "importer: create lead %s", lead.ID)
			}
			created.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(created.Load()), err
	}

	zap.L().Info("importer: import complete",
		zap.String("account_id", accountID),
		zap.Int("created", int(created.Load())),
	)
	return int(created.Load()), nil
}

// headerFields maps normalized column names to merge fields. Column names
// match the field names after lowercasing and replacing spaces/dashes with
// underscores, so "Contact Email" and "contact_email" both resolve.
func headerFields(header []string) map[int]model.Field {
	mapping := make(map[int]model.Field, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		name = strings.NewReplacer(" ", "_", "-", "_").Replace(name)
		f := model.Field(name)
		if model.KnownField(f) {
			mapping[i] = f
		}
	}
	return mapping
}

// parseRows converts raw rows into leads. Rows with no mapped non-empty
// value are skipped and counted.
func parseRows(accountID string, header []string, rows [][]string) ([]model.Lead, int) {
	mapping := headerFields(header)

	var (
		leads   []model.Lead
		skipped int
	)
	for _, row := range rows {
		lead := model.Lead{
			ID:        uuid.New().String(),
			AccountID: accountID,
		}
		empty := true
		for i, f := range mapping {
			if i >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[i])
			if v == "" {
				continue
			}
			lead.SetValue(f, v)
			empty = false
		}
		if empty {
			skipped++
			continue
		}
		leads = append(leads, lead)
	}
	return leads, skipped
}
