package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadscope/internal/model"
)

// SQLiteStore implements LeadStore using modernc.org/sqlite. Intended for
// local and dev use; the Postgres store is the production backend.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS leads (
	id             TEXT PRIMARY KEY,
	account_id     TEXT NOT NULL,
	company_name   TEXT NOT NULL DEFAULT '',
	industry       TEXT NOT NULL DEFAULT '',
	company_size   TEXT NOT NULL DEFAULT '',
	revenue_range  TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	website        TEXT NOT NULL DEFAULT '',
	contact_name   TEXT NOT NULL DEFAULT '',
	contact_title  TEXT NOT NULL DEFAULT '',
	contact_email  TEXT NOT NULL DEFAULT '',
	contact_phone  TEXT NOT NULL DEFAULT '',
	linkedin_url   TEXT NOT NULL DEFAULT '',
	lead_score     REAL NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS merge_events (
	id                TEXT PRIMARY KEY,
	account_id        TEXT NOT NULL,
	surviving_lead_id TEXT NOT NULL,
	removed_lead_id   TEXT NOT NULL,
	changed_fields    TEXT NOT NULL DEFAULT '[]',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_leads_account_id ON leads(account_id);
CREATE INDEX IF NOT EXISTS idx_merge_events_account_id ON merge_events(account_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID, lead.AccountID,
		lead.CompanyName, lead.Industry, lead.CompanySize, lead.RevenueRange, lead.Location, lead.Website,
		lead.ContactName, lead.ContactTitle, lead.ContactEmail, lead.ContactPhone, lead.LinkedInURL,
		lead.LeadScore, lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert lead %s", lead.ID)
}

func (s *SQLiteStore) GetLead(ctx context.Context, accountID, leadID string) (*model.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = ? AND account_id = ?`,
		leadID, accountID,
	)

	var l model.Lead
	err := row.Scan(
		&l.ID, &l.AccountID,
		&l.CompanyName, &l.Industry, &l.CompanySize, &l.RevenueRange, &l.Location, &l.Website,
		&l.ContactName, &l.ContactTitle, &l.ContactEmail, &l.ContactPhone, &l.LinkedInURL,
		&l.LeadScore, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get lead %s", leadID)
	}
	return &l, nil
}

func (s *SQLiteStore) ListLeads(ctx context.Context, accountID string, limit int) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE account_id = ? ORDER BY created_at`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list leads for %s", accountID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		err := rows.Scan(
			&l.ID, &l.AccountID,
			&l.CompanyName, &l.Industry, &l.CompanySize, &l.RevenueRange, &l.Location, &l.Website,
			&l.ContactName, &l.ContactTitle, &l.ContactEmail, &l.ContactPhone, &l.LinkedInURL,
			&l.LeadScore, &l.CreatedAt, &l.UpdatedAt,
		)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate leads")
	}
	return leads, nil
}

func (s *SQLiteStore) UpdateLeadFields(ctx context.Context, leadID string, patch model.FieldPatch) error {
	if len(patch) == 0 {
		return nil
	}

	query := `UPDATE leads SET updated_at = ?`
	args := []any{time.Now().UTC()}

	for _, f := range model.MergeFields() {
		v, ok := patch[f]
		if !ok {
			continue
		}
		query += fmt.Sprintf(", %s = ?", string(f))
		if f == model.FieldLeadScore {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return eris.Wrapf(err, "sqlite: lead_score value %q", v)
			}
			args = append(args, n)
		} else {
			args = append(args, v)
		}
	}

	query += ` WHERE id = ?`
	args = append(args, leadID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) DeleteLead(ctx context.Context, leadID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM leads WHERE id = ?`, leadID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete lead %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) AppendMergeEvent(ctx context.Context, ev *model.MergeEvent) error {
	fieldsJSON, err := json.Marshal(ev.ChangedFields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal changed fields")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO merge_events (id, account_id, surviving_lead_id, removed_lead_id, changed_fields, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.AccountID, ev.SurvivingLeadID, ev.RemovedLeadID, string(fieldsJSON), ev.CreatedAt,
	)
	return eris.Wrapf(err, "sqlite: insert merge event %s", ev.ID)
}

func (s *SQLiteStore) ListMergeEvents(ctx context.Context, accountID string, limit int) ([]model.MergeEvent, error) {
	query := `SELECT id, account_id, surviving_lead_id, removed_lead_id, changed_fields, created_at FROM merge_events WHERE account_id = ? ORDER BY created_at DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list merge events for %s", accountID)
	}
	defer rows.Close()

	var events []model.MergeEvent
	for rows.Next() {
		var (
			ev         model.MergeEvent
			fieldsJSON string
		)
		if err := rows.Scan(&ev.ID, &ev.AccountID, &ev.SurvivingLeadID, &ev.RemovedLeadID, &fieldsJSON, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan merge event")
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &ev.ChangedFields); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal changed fields")
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate merge events")
	}
	return events, nil
}

// checkRowsAffected converts a zero-row update/delete into an error.
func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", entity, id)
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s: no rows affected", entity, id)
	}
	return nil
}
