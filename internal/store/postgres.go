package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscope/internal/db"
	"github.com/sells-group/leadscope/internal/model"
)

// PostgresStore implements LeadStore using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
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
	lead_score     DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS merge_events (
	id                TEXT PRIMARY KEY,
	account_id        TEXT NOT NULL,
	surviving_lead_id TEXT NOT NULL,
	removed_lead_id   TEXT NOT NULL,
	changed_fields    JSONB NOT NULL DEFAULT '[]',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_leads_account_id ON leads(account_id);
CREATE INDEX IF NOT EXISTS idx_merge_events_account_id ON merge_events(account_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const leadColumns = `id, account_id, company_name, industry, company_size, revenue_range, location, website, contact_name, contact_title, contact_email, contact_phone, linkedin_url, lead_score, created_at, updated_at`

func (s *PostgresStore) CreateLead(ctx context.Context, lead *model.Lead) error {
	now := time.Now().UTC()
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = now
	}
	lead.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (`+leadColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		lead.ID, lead.AccountID,
		lead.CompanyName, lead.Industry, lead.CompanySize, lead.RevenueRange, lead.Location, lead.Website,
		lead.ContactName, lead.ContactTitle, lead.ContactEmail, lead.ContactPhone, lead.LinkedInURL,
		lead.LeadScore, lead.CreatedAt, lead.UpdatedAt,
	)
	return eris.Wrapf(err, "postgres: insert lead %s", lead.ID)
}

func (s *PostgresStore) GetLead(ctx context.Context, accountID, leadID string) (*model.Lead, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+leadColumns+` FROM leads WHERE id = $1 AND account_id = $2`,
		leadID, accountID,
	)

	var l model.Lead
	if err := scanLead(row, &l); err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get lead %s", leadID)
	}
	return &l, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, accountID string, limit int) ([]model.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE account_id = $1 ORDER BY created_at`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list leads for %s", accountID)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		if err := scanLead(rows, &l); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate leads")
	}
	return leads, nil
}

// UpdateLeadFields applies a partial field update. Patch values are strings;
// the lead_score column gets a numeric conversion.
func (s *PostgresStore) UpdateLeadFields(ctx context.Context, leadID string, patch model.FieldPatch) error {
	if len(patch) == 0 {
		return nil
	}

	query := `UPDATE leads SET updated_at = $1`
	args := []any{time.Now().UTC()}
	argNum := 2

	// Iterate in declaration order for a deterministic statement.
	for _, f := range model.MergeFields() {
		v, ok := patch[f]
		if !ok {
			continue
		}
		query += fmt.Sprintf(", %s = $%d", string(f), argNum)
		if f == model.FieldLeadScore {
			n, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return eris.Wrapf(err, "postgres: lead_score value %q", v)
			}
			args = append(args, n)
		} else {
			args = append(args, v)
		}
		argNum++
	}

	query += fmt.Sprintf(" WHERE id = $%d", argNum)
	args = append(args, leadID)

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: update lead %s: no rows affected", leadID)
	}
	return nil
}

func (s *PostgresStore) DeleteLead(ctx context.Context, leadID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM leads WHERE id = $1`, leadID)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete lead %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: delete lead %s: no rows affected", leadID)
	}
	return nil
}

func (s *PostgresStore) AppendMergeEvent(ctx context.Context, ev *model.MergeEvent) error {
	fieldsJSON, err := json.Marshal(ev.ChangedFields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal changed fields")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO merge_events (id, account_id, surviving_lead_id, removed_lead_id, changed_fields, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.AccountID, ev.SurvivingLeadID, ev.RemovedLeadID, string(fieldsJSON), ev.CreatedAt,
	)
	return eris.Wrapf(err, "postgres: insert merge event %s", ev.ID)
}

func (s *PostgresStore) ListMergeEvents(ctx context.Context, accountID string, limit int) ([]model.MergeEvent, error) {
	query := `SELECT id, account_id, surviving_lead_id, removed_lead_id, changed_fields, created_at FROM merge_events WHERE account_id = $1 ORDER BY created_at DESC`
	args := []any{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list merge events for %s", accountID)
	}
	defer rows.Close()

	var events []model.MergeEvent
	for rows.Next() {
		var (
			ev         model.MergeEvent
			fieldsJSON string
		)
		if err := rows.Scan(&ev.ID, &ev.AccountID, &ev.SurvivingLeadID, &ev.RemovedLeadID, &fieldsJSON, &ev.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan merge event")
		}
		if err := json.Unmarshal([]byte(fieldsJSON), &ev.ChangedFields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal changed fields")
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate merge events")
	}
	return events, nil
}

// scanLead scans a lead row in leadColumns order.
func scanLead(row pgx.Row, l *model.Lead) error {
	return row.Scan(
		&l.ID, &l.AccountID,
		&l.CompanyName, &l.Industry, &l.CompanySize, &l.RevenueRange, &l.Location, &l.Website,
		&l.ContactName, &l.ContactTitle, &l.ContactEmail, &l.ContactPhone, &l.LinkedInURL,
		&l.LeadScore, &l.CreatedAt, &l.UpdatedAt,
	)
}
