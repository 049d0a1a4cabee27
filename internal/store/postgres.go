package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/dashin-hq/inventory-cli/internal/db"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
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
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests to inject
// pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	name_key   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(tenant_id, name_key)
);

CREATE TABLE IF NOT EXISTS leads (
	id            TEXT PRIMARY KEY,
	tenant_id     TEXT NOT NULL,
	full_name     TEXT NOT NULL,
	name_key      TEXT NOT NULL,
	title         TEXT NOT NULL DEFAULT '',
	company_id    TEXT NOT NULL DEFAULT '',
	persona       TEXT NOT NULL DEFAULT 'Unknown',
	status        TEXT NOT NULL DEFAULT 'new',
	source_type   TEXT NOT NULL DEFAULT 'event',
	times_seen    INTEGER NOT NULL DEFAULT 1,
	first_seen_at TIMESTAMPTZ NOT NULL,
	last_seen_at  TIMESTAMPTZ NOT NULL,
	UNIQUE(tenant_id, name_key, company_id)
);

CREATE TABLE IF NOT EXISTS lead_appearances (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	event_name TEXT NOT NULL DEFAULT '',
	event_url  TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	seen_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS enrichment (
	lead_id       TEXT PRIMARY KEY REFERENCES leads(id),
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	linkedin_url  TEXT NOT NULL DEFAULT '',
	country       TEXT NOT NULL DEFAULT '',
	industry      TEXT NOT NULL DEFAULT '',
	company_size  TEXT NOT NULL DEFAULT '',
	notes         TEXT NOT NULL DEFAULT '',
	enriched_by   TEXT NOT NULL DEFAULT '',
	enriched_at   TIMESTAMPTZ,
	minutes_spent DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lead_usage (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id),
	client_id   TEXT NOT NULL,
	campaign_id TEXT NOT NULL DEFAULT '',
	used_at     TIMESTAMPTZ NOT NULL,
	UNIQUE(lead_id, client_id)
);

CREATE TABLE IF NOT EXISTS lead_flags (
	id              TEXT PRIMARY KEY,
	lead_id         TEXT NOT NULL REFERENCES leads(id),
	tenant_id       TEXT NOT NULL,
	flag_type       TEXT NOT NULL,
	severity        TEXT NOT NULL DEFAULT 'warning',
	detail          TEXT NOT NULL DEFAULT '',
	auto_flagged    BOOLEAN NOT NULL DEFAULT true,
	flagged_at      TIMESTAMPTZ NOT NULL,
	resolved        BOOLEAN NOT NULL DEFAULT false,
	resolved_by     TEXT NOT NULL DEFAULT '',
	resolved_at     TIMESTAMPTZ,
	resolution_note TEXT NOT NULL DEFAULT '',
	UNIQUE(lead_id, flag_type)
);

CREATE TABLE IF NOT EXISTS learned_mappings (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL DEFAULT '',
	mapping_type TEXT NOT NULL,
	key          TEXT NOT NULL,
	value        TEXT NOT NULL DEFAULT '',
	confidence   DOUBLE PRECISION NOT NULL DEFAULT 1.0,
	usage_count  INTEGER NOT NULL DEFAULT 1,
	created_at   TIMESTAMPTZ NOT NULL,
	UNIQUE(tenant_id, mapping_type, key)
);

CREATE TABLE IF NOT EXISTS learning_events (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL,
	event_type   TEXT NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	old_value    TEXT NOT NULL DEFAULT '',
	new_value    TEXT NOT NULL DEFAULT '',
	triggered_by TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS rejections (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id),
	reason      TEXT NOT NULL,
	note        TEXT NOT NULL DEFAULT '',
	rejected_by TEXT NOT NULL DEFAULT '',
	rejected_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_key    ON companies(tenant_id, name_key);
CREATE INDEX IF NOT EXISTS idx_leads_key        ON leads(tenant_id, name_key);
CREATE INDEX IF NOT EXISTS idx_leads_status     ON leads(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_appearances_lead ON lead_appearances(lead_id);
CREATE INDEX IF NOT EXISTS idx_usage_client     ON lead_usage(client_id);
CREATE INDEX IF NOT EXISTS idx_flags_tenant     ON lead_flags(tenant_id, resolved);
CREATE INDEX IF NOT EXISTS idx_mappings_tenant  ON learned_mappings(tenant_id, mapping_type);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// Companies

func (s *PostgresStore) GetCompanyByKey(ctx context.Context, tenantID, nameKey string) (*model.Company, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, name_key, created_at FROM companies
		 WHERE tenant_id = $1 AND name_key = $2`,
		tenantID, nameKey,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.NameKey, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get company by key")
	}
	return &c, nil
}

func (s *PostgresStore) GetCompany(ctx context.Context, tenantID, id string) (*model.Company, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var c model.Company
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, name_key, created_at FROM companies
		 WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	).Scan(&c.ID, &c.TenantID, &c.Name, &c.NameKey, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "company %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get company")
	}
	return &c, nil
}

func (s *PostgresStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if err := requireTenant(c.TenantID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO companies (id, tenant_id, name, name_key, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.TenantID, c.Name, c.NameKey, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return eris.Wrap(ErrDuplicate, "postgres: insert company")
	}
	return eris.Wrap(err, "postgres: insert company")
}

func (s *PostgresStore) RenameCompany(ctx context.Context, tenantID, id, name string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET name = $1 WHERE tenant_id = $2 AND id = $3`,
		name, tenantID, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: rename company %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", id)
	}
	return nil
}

// Leads

func (s *PostgresStore) GetLeadByKey(ctx context.Context, tenantID, nameKey, companyID string) (*model.Lead, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	l, err := s.scanOneLead(ctx,
		`SELECT id, tenant_id, full_name, name_key, title, company_id, persona,
		        status, source_type, times_seen, first_seen_at, last_seen_at
		 FROM leads WHERE tenant_id = $1 AND name_key = $2 AND company_id = $3`,
		tenantID, nameKey, companyID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get lead by key")
	}
	return l, nil
}

func (s *PostgresStore) GetLead(ctx context.Context, tenantID, id string) (*model.Lead, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	l, err := s.scanOneLead(ctx,
		`SELECT id, tenant_id, full_name, name_key, title, company_id, persona,
		        status, source_type, times_seen, first_seen_at, last_seen_at
		 FROM leads WHERE tenant_id = $1 AND id = $2`,
		tenantID, id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get lead")
	}
	if l == nil {
		return nil, eris.Wrapf(ErrNotFound, "lead %s", id)
	}
	return l, nil
}

func (s *PostgresStore) scanOneLead(ctx context.Context, query string, args ...any) (*model.Lead, error) {
	var l model.Lead
	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&l.ID, &l.TenantID, &l.FullName, &l.NameKey, &l.Title, &l.CompanyID,
		&l.Persona, &l.Status, &l.SourceType, &l.TimesSeen, &l.FirstSeenAt, &l.LastSeenAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (s *PostgresStore) CreateLead(ctx context.Context, l *model.Lead) error {
	if err := requireTenant(l.TenantID); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO leads (id, tenant_id, full_name, name_key, title, company_id,
		                    persona, status, source_type, times_seen, first_seen_at, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.TenantID, l.FullName, l.NameKey, l.Title, l.CompanyID,
		l.Persona, string(l.Status), string(l.SourceType), l.TimesSeen, l.FirstSeenAt, l.LastSeenAt,
	)
	if isUniqueViolation(err) {
		return eris.Wrap(ErrDuplicate, "postgres: insert lead")
	}
	return eris.Wrap(err, "postgres: insert lead")
}

func (s *PostgresStore) RecordSighting(ctx context.Context, leadID string, seenAt time.Time, status model.LeadStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET times_seen = times_seen + 1, last_seen_at = $1, status = $2 WHERE id = $3`,
		seenAt, string(status), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record sighting %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", leadID)
	}
	return nil
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, tenantID, leadID string, status model.LeadStatus) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET status = $1 WHERE tenant_id = $2 AND id = $3`,
		string(status), tenantID, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status %s", leadID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "lead %s", leadID)
	}
	return nil
}

func (s *PostgresStore) ListLeadDetails(ctx context.Context, tenantID string) ([]model.LeadDetail, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT l.id, l.tenant_id, l.full_name, l.name_key, l.title, l.company_id,
		        l.persona, l.status, l.source_type, l.times_seen, l.first_seen_at, l.last_seen_at,
		        COALESCE(e.email, ''), COALESCE(co.name, '')
		 FROM leads l
		 LEFT JOIN enrichment e ON e.lead_id = l.id
		 LEFT JOIN companies co ON co.id = l.company_id
		 WHERE l.tenant_id = $1
		 ORDER BY l.full_name`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list lead details")
	}
	defer rows.Close()

	var out []model.LeadDetail
	for rows.Next() {
		var d model.LeadDetail
		if err := rows.Scan(&d.ID, &d.TenantID, &d.FullName, &d.NameKey, &d.Title, &d.CompanyID,
			&d.Persona, &d.Status, &d.SourceType, &d.TimesSeen, &d.FirstSeenAt, &d.LastSeenAt,
			&d.Email, &d.CompanyName); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead detail")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list lead details iterate")
}

// Appearances

func (s *PostgresStore) AddAppearance(ctx context.Context, a *model.LeadAppearance) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lead_appearances (id, lead_id, event_name, event_url, category, session_id, seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.LeadID, a.EventName, a.EventURL, a.Category, a.SessionID, a.SeenAt,
	)
	return eris.Wrap(err, "postgres: insert appearance")
}

func (s *PostgresStore) CountAppearances(ctx context.Context, leadID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM lead_appearances WHERE lead_id = $1`, leadID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count appearances")
}

// Enrichment

func (s *PostgresStore) GetEnrichment(ctx context.Context, leadID string) (*model.Enrichment, error) {
	var e model.Enrichment
	var enrichedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT lead_id, email, phone, linkedin_url, country, industry, company_size,
		        notes, enriched_by, enriched_at, minutes_spent
		 FROM enrichment WHERE lead_id = $1`,
		leadID,
	).Scan(&e.LeadID, &e.Email, &e.Phone, &e.LinkedInURL, &e.Country,
		&e.Industry, &e.CompanySize, &e.Notes, &e.EnrichedBy, &enrichedAt, &e.MinutesSpent)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get enrichment")
	}
	if enrichedAt != nil {
		e.EnrichedAt = *enrichedAt
	}
	return &e, nil
}

func (s *PostgresStore) PutEnrichment(ctx context.Context, e *model.Enrichment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO enrichment (lead_id, email, phone, linkedin_url, country, industry,
		                         company_size, notes, enriched_by, enriched_at, minutes_spent)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (lead_id) DO UPDATE SET
		   email = $2, phone = $3, linkedin_url = $4, country = $5, industry = $6,
		   company_size = $7, notes = $8, enriched_by = $9, enriched_at = $10, minutes_spent = $11`,
		e.LeadID, e.Email, e.Phone, e.LinkedInURL, e.Country, e.Industry,
		e.CompanySize, e.Notes, e.EnrichedBy, nullTime(e.EnrichedAt), e.MinutesSpent,
	)
	return eris.Wrap(err, "postgres: put enrichment")
}

// Usage ledger

func (s *PostgresStore) InsertUsage(ctx context.Context, u *model.LeadUsage) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO lead_usage (id, lead_id, client_id, campaign_id, used_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (lead_id, client_id) DO NOTHING`,
		u.ID, u.LeadID, u.ClientID, u.CampaignID, u.UsedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert usage")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) UsedLeadIDs(ctx context.Context, clientID string, leadIDs []string) (map[string]bool, error) {
	used := make(map[string]bool)
	if len(leadIDs) == 0 {
		return used, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT lead_id FROM lead_usage WHERE client_id = $1 AND lead_id = ANY($2)`,
		clientID, leadIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: used lead ids")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan used lead id")
		}
		used[id] = true
	}
	return used, eris.Wrap(rows.Err(), "postgres: used lead ids iterate")
}

// Flags

func (s *PostgresStore) InsertFlag(ctx context.Context, f *model.LeadFlag) (bool, error) {
	if err := requireTenant(f.TenantID); err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO lead_flags
		   (id, lead_id, tenant_id, flag_type, severity, detail, auto_flagged, flagged_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (lead_id, flag_type) DO NOTHING`,
		f.ID, f.LeadID, f.TenantID, string(f.Type), string(f.Severity),
		f.Detail, f.AutoFlagged, f.FlaggedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert flag")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) GetFlag(ctx context.Context, id string) (*model.LeadFlag, error) {
	var f model.LeadFlag
	var resolvedAt *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT id, lead_id, tenant_id, flag_type, severity, detail, auto_flagged,
		        flagged_at, resolved, resolved_by, resolved_at, resolution_note
		 FROM lead_flags WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.LeadID, &f.TenantID, &f.Type, &f.Severity, &f.Detail,
		&f.AutoFlagged, &f.FlaggedAt, &f.Resolved, &f.ResolvedBy, &resolvedAt, &f.ResolutionNote)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "flag %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get flag")
	}
	if resolvedAt != nil {
		f.ResolvedAt = *resolvedAt
	}
	return &f, nil
}

func (s *PostgresStore) MarkFlagResolved(ctx context.Context, id, resolvedBy, note string, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE lead_flags SET resolved = true, resolved_by = $1, resolved_at = $2, resolution_note = $3
		 WHERE id = $4`,
		resolvedBy, at, note, id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: resolve flag %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "flag %s", id)
	}
	return nil
}

func (s *PostgresStore) ListUnresolvedFlags(ctx context.Context, tenantID, leadID string) ([]model.FlagListEntry, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `SELECT f.id, f.lead_id, f.tenant_id, f.flag_type, f.severity, f.detail,
	                 f.auto_flagged, f.flagged_at,
	                 l.full_name, l.title,
	                 COALESCE(co.name, ''), COALESCE(e.email, '')
	          FROM lead_flags f
	          JOIN leads l ON l.id = f.lead_id
	          LEFT JOIN companies co ON co.id = l.company_id
	          LEFT JOIN enrichment e ON e.lead_id = f.lead_id
	          WHERE f.tenant_id = $1 AND NOT f.resolved`
	args := []any{tenantID}
	if leadID != "" {
		query += ` AND f.lead_id = $2`
		args = append(args, leadID)
	}
	query += ` ORDER BY f.severity DESC, f.flagged_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list unresolved flags")
	}
	defer rows.Close()

	var entries []model.FlagListEntry
	for rows.Next() {
		var e model.FlagListEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.TenantID, &e.Type, &e.Severity, &e.Detail,
			&e.AutoFlagged, &e.FlaggedAt, &e.LeadName, &e.LeadTitle, &e.CompanyName, &e.Email); err != nil {
			return nil, eris.Wrap(err, "postgres: scan flag entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "postgres: list unresolved flags iterate")
}

func (s *PostgresStore) FlagSummary(ctx context.Context, tenantID string) (*model.FlagSummary, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT flag_type, severity, COUNT(*) FROM lead_flags
		 WHERE tenant_id = $1 AND NOT resolved
		 GROUP BY flag_type, severity`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: flag summary")
	}
	defer rows.Close()

	summary := &model.FlagSummary{ByType: make(map[model.FlagType]model.FlagCount)}
	for rows.Next() {
		var ft model.FlagType
		var sev model.Severity
		var count int
		if err := rows.Scan(&ft, &sev, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan flag summary")
		}
		summary.ByType[ft] = model.FlagCount{Count: count, Severity: sev}
		summary.Total += count
	}
	return summary, eris.Wrap(rows.Err(), "postgres: flag summary iterate")
}

// Learned mappings

func (s *PostgresStore) MappingKeys(ctx context.Context, tenantID string, mt model.MappingType) (map[string]bool, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx,
		`SELECT key FROM learned_mappings
		 WHERE (tenant_id = $1 OR tenant_id = '') AND mapping_type = $2`,
		tenantID, string(mt),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: mapping keys")
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "postgres: scan mapping key")
		}
		keys[strings.ToLower(k)] = true
	}
	return keys, eris.Wrap(rows.Err(), "postgres: mapping keys iterate")
}

func (s *PostgresStore) LookupMapping(ctx context.Context, tenantID string, mt model.MappingType, key string) (*model.LearnedMapping, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	var m model.LearnedMapping
	err := s.pool.QueryRow(ctx,
		`SELECT id, tenant_id, mapping_type, key, value, confidence, usage_count, created_at
		 FROM learned_mappings
		 WHERE (tenant_id = $1 OR tenant_id = '') AND mapping_type = $2 AND key = $3
		 ORDER BY tenant_id DESC LIMIT 1`,
		tenantID, string(mt), key,
	).Scan(&m.ID, &m.TenantID, &m.Type, &m.Key, &m.Value, &m.Confidence, &m.UsageCount, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lookup mapping")
	}
	return &m, nil
}

func (s *PostgresStore) InsertMapping(ctx context.Context, m *model.LearnedMapping) (bool, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO learned_mappings
		   (id, tenant_id, mapping_type, key, value, confidence, usage_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (tenant_id, mapping_type, key) DO NOTHING`,
		m.ID, m.TenantID, string(m.Type), m.Key, m.Value, m.Confidence, m.UsageCount, m.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: insert mapping")
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PostgresStore) AddLearningEvent(ctx context.Context, e *model.LearningEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO learning_events
		   (id, tenant_id, event_type, entity_type, entity_id, old_value, new_value, triggered_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		e.ID, e.TenantID, e.EventType, e.EntityType, e.EntityID, e.OldValue, e.NewValue, e.TriggeredBy, e.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert learning event")
}

// Rejections

func (s *PostgresStore) InsertRejection(ctx context.Context, r *model.Rejection) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO rejections (id, lead_id, reason, note, rejected_by, rejected_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		r.ID, r.LeadID, string(r.Reason), r.Note, r.RejectedBy, r.RejectedAt,
	)
	return eris.Wrap(err, "postgres: insert rejection")
}

// Export

func (s *PostgresStore) ExportLeads(ctx context.Context, tenantID string, leadIDs []string) ([]model.ExportRecord, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	// An empty id list means the whole tenant, minus rejected leads.
	// An explicit id list is taken as-is.
	rows, err := s.pool.Query(ctx,
		`SELECT l.id, l.full_name, COALESCE(co.name, ''), l.title, l.persona, l.status,
		        COALESCE(e.email, ''), COALESCE(e.phone, ''), COALESCE(e.linkedin_url, ''),
		        COALESCE(e.country, ''), COALESCE(e.industry, ''), COALESCE(e.company_size, ''),
		        COALESCE(e.notes, '')
		 FROM leads l
		 LEFT JOIN companies co ON co.id = l.company_id
		 LEFT JOIN enrichment e ON e.lead_id = l.id
		 WHERE l.tenant_id = $1
		   AND (l.id = ANY($2) OR (cardinality($2::text[]) = 0 AND l.status <> 'rejected'))
		 ORDER BY l.full_name`,
		tenantID, leadIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: export leads")
	}
	defer rows.Close()

	var records []model.ExportRecord
	for rows.Next() {
		var r model.ExportRecord
		if err := rows.Scan(&r.LeadID, &r.FullName, &r.Company, &r.Title, &r.Persona, &r.Status,
			&r.Email, &r.Phone, &r.LinkedInURL, &r.Country, &r.Industry, &r.CompanySize, &r.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan export record")
		}
		r.HasEmail = strings.Contains(r.Email, "@")
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: export leads iterate")
	}
	if len(records) == 0 {
		return records, nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.LeadID
	}

	flagRows, err := s.pool.Query(ctx,
		`SELECT lead_id, flag_type FROM lead_flags
		 WHERE tenant_id = $1 AND NOT resolved AND lead_id = ANY($2)
		 ORDER BY flag_type`,
		tenantID, ids,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open flag types")
	}
	defer flagRows.Close()

	flags := make(map[string][]string)
	for flagRows.Next() {
		var leadID, ft string
		if err := flagRows.Scan(&leadID, &ft); err != nil {
			return nil, eris.Wrap(err, "postgres: scan open flag type")
		}
		flags[leadID] = append(flags[leadID], ft)
	}
	if err := flagRows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: open flag types iterate")
	}
	for i := range records {
		records[i].OpenFlags = flags[records[i].LeadID]
	}
	return records, nil
}

func (s *PostgresStore) LeadNames(ctx context.Context, tenantID string, leadIDs []string) (map[string]string, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	names := make(map[string]string)
	if len(leadIDs) == 0 {
		return names, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name FROM leads WHERE tenant_id = $1 AND id = ANY($2)`,
		tenantID, leadIDs,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lead names")
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead name")
		}
		names[id] = name
	}
	return names, eris.Wrap(rows.Err(), "postgres: lead names iterate")
}
