package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/dashin-hq/inventory-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
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
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
	id         TEXT PRIMARY KEY,
	tenant_id  TEXT NOT NULL,
	name       TEXT NOT NULL,
	name_key   TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
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
	first_seen_at DATETIME NOT NULL,
	last_seen_at  DATETIME NOT NULL,
	UNIQUE(tenant_id, name_key, company_id)
);

CREATE TABLE IF NOT EXISTS lead_appearances (
	id         TEXT PRIMARY KEY,
	lead_id    TEXT NOT NULL REFERENCES leads(id),
	event_name TEXT NOT NULL DEFAULT '',
	event_url  TEXT NOT NULL DEFAULT '',
	category   TEXT NOT NULL DEFAULT '',
	session_id TEXT NOT NULL DEFAULT '',
	seen_at    DATETIME NOT NULL
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
	enriched_at   DATETIME,
	minutes_spent REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS lead_usage (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id),
	client_id   TEXT NOT NULL,
	campaign_id TEXT NOT NULL DEFAULT '',
	used_at     DATETIME NOT NULL,
	UNIQUE(lead_id, client_id)
);

CREATE TABLE IF NOT EXISTS lead_flags (
	id              TEXT PRIMARY KEY,
	lead_id         TEXT NOT NULL REFERENCES leads(id),
	tenant_id       TEXT NOT NULL,
	flag_type       TEXT NOT NULL,
	severity        TEXT NOT NULL DEFAULT 'warning',
	detail          TEXT NOT NULL DEFAULT '',
	auto_flagged    INTEGER NOT NULL DEFAULT 1,
	flagged_at      DATETIME NOT NULL,
	resolved        INTEGER NOT NULL DEFAULT 0,
	resolved_by     TEXT NOT NULL DEFAULT '',
	resolved_at     DATETIME,
	resolution_note TEXT NOT NULL DEFAULT '',
	UNIQUE(lead_id, flag_type)
);

CREATE TABLE IF NOT EXISTS learned_mappings (
	id           TEXT PRIMARY KEY,
	tenant_id    TEXT NOT NULL DEFAULT '',
	mapping_type TEXT NOT NULL,
	key          TEXT NOT NULL,
	value        TEXT NOT NULL DEFAULT '',
	confidence   REAL NOT NULL DEFAULT 1.0,
	usage_count  INTEGER NOT NULL DEFAULT 1,
	created_at   DATETIME NOT NULL,
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
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS rejections (
	id          TEXT PRIMARY KEY,
	lead_id     TEXT NOT NULL REFERENCES leads(id),
	reason      TEXT NOT NULL,
	note        TEXT NOT NULL DEFAULT '',
	rejected_by TEXT NOT NULL DEFAULT '',
	rejected_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_companies_key      ON companies(tenant_id, name_key);
CREATE INDEX IF NOT EXISTS idx_leads_key          ON leads(tenant_id, name_key);
CREATE INDEX IF NOT EXISTS idx_leads_status       ON leads(tenant_id, status);
CREATE INDEX IF NOT EXISTS idx_appearances_lead   ON lead_appearances(lead_id);
CREATE INDEX IF NOT EXISTS idx_usage_client       ON lead_usage(client_id);
CREATE INDEX IF NOT EXISTS idx_flags_tenant       ON lead_flags(tenant_id, resolved);
CREATE INDEX IF NOT EXISTS idx_mappings_tenant    ON learned_mappings(tenant_id, mapping_type);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Companies

func (s *SQLiteStore) GetCompanyByKey(ctx context.Context, tenantID, nameKey string) (*model.Company, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, name_key, created_at FROM companies
		 WHERE tenant_id = ? AND name_key = ?`,
		tenantID, nameKey,
	)
	return scanCompany(row, true)
}

func (s *SQLiteStore) GetCompany(ctx context.Context, tenantID, id string) (*model.Company, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, name, name_key, created_at FROM companies
		 WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)
	return scanCompany(row, false)
}

func (s *SQLiteStore) CreateCompany(ctx context.Context, c *model.Company) error {
	if err := requireTenant(c.TenantID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO companies (id, tenant_id, name, name_key, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.TenantID, c.Name, c.NameKey, c.CreatedAt,
	)
	if isUniqueViolation(err) {
		return eris.Wrap(ErrDuplicate, "sqlite: insert company")
	}
	return eris.Wrap(err, "sqlite: insert company")
}

func (s *SQLiteStore) RenameCompany(ctx context.Context, tenantID, id, name string) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET name = ? WHERE tenant_id = ? AND id = ?`,
		name, tenantID, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: rename company %s", id)
	}
	return checkRowsAffected(res, "company", id)
}

// Leads

func (s *SQLiteStore) GetLeadByKey(ctx context.Context, tenantID, nameKey, companyID string) (*model.Lead, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, full_name, name_key, title, company_id, persona,
		        status, source_type, times_seen, first_seen_at, last_seen_at
		 FROM leads WHERE tenant_id = ? AND name_key = ? AND company_id = ?`,
		tenantID, nameKey, companyID,
	)
	return scanLead(row, true)
}

func (s *SQLiteStore) GetLead(ctx context.Context, tenantID, id string) (*model.Lead, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, full_name, name_key, title, company_id, persona,
		        status, source_type, times_seen, first_seen_at, last_seen_at
		 FROM leads WHERE tenant_id = ? AND id = ?`,
		tenantID, id,
	)
	return scanLead(row, false)
}

func (s *SQLiteStore) CreateLead(ctx context.Context, l *model.Lead) error {
	if err := requireTenant(l.TenantID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO leads (id, tenant_id, full_name, name_key, title, company_id,
		                    persona, status, source_type, times_seen, first_seen_at, last_seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.TenantID, l.FullName, l.NameKey, l.Title, l.CompanyID,
		l.Persona, string(l.Status), string(l.SourceType), l.TimesSeen, l.FirstSeenAt, l.LastSeenAt,
	)
	if isUniqueViolation(err) {
		return eris.Wrap(ErrDuplicate, "sqlite: insert lead")
	}
	return eris.Wrap(err, "sqlite: insert lead")
}

func (s *SQLiteStore) RecordSighting(ctx context.Context, leadID string, seenAt time.Time, status model.LeadStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET times_seen = times_seen + 1, last_seen_at = ?, status = ? WHERE id = ?`,
		seenAt, string(status), leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record sighting %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, tenantID, leadID string, status model.LeadStatus) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET status = ? WHERE tenant_id = ? AND id = ?`,
		string(status), tenantID, leadID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status %s", leadID)
	}
	return checkRowsAffected(res, "lead", leadID)
}

// Appearances

func (s *SQLiteStore) AddAppearance(ctx context.Context, a *model.LeadAppearance) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lead_appearances (id, lead_id, event_name, event_url, category, session_id, seen_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.LeadID, a.EventName, a.EventURL, a.Category, a.SessionID, a.SeenAt,
	)
	return eris.Wrap(err, "sqlite: insert appearance")
}

func (s *SQLiteStore) CountAppearances(ctx context.Context, leadID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lead_appearances WHERE lead_id = ?`, leadID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count appearances")
}

// Enrichment

func (s *SQLiteStore) GetEnrichment(ctx context.Context, leadID string) (*model.Enrichment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT lead_id, email, phone, linkedin_url, country, industry, company_size,
		        notes, enriched_by, enriched_at, minutes_spent
		 FROM enrichment WHERE lead_id = ?`,
		leadID,
	)
	var e model.Enrichment
	var enrichedAt sql.NullTime
	err := row.Scan(&e.LeadID, &e.Email, &e.Phone, &e.LinkedInURL, &e.Country,
		&e.Industry, &e.CompanySize, &e.Notes, &e.EnrichedBy, &enrichedAt, &e.MinutesSpent)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get enrichment")
	}
	if enrichedAt.Valid {
		e.EnrichedAt = enrichedAt.Time
	}
	return &e, nil
}

func (s *SQLiteStore) PutEnrichment(ctx context.Context, e *model.Enrichment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO enrichment (lead_id, email, phone, linkedin_url, country, industry,
		                         company_size, notes, enriched_by, enriched_at, minutes_spent)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(lead_id) DO UPDATE SET
		   email = excluded.email, phone = excluded.phone,
		   linkedin_url = excluded.linkedin_url, country = excluded.country,
		   industry = excluded.industry, company_size = excluded.company_size,
		   notes = excluded.notes, enriched_by = excluded.enriched_by,
		   enriched_at = excluded.enriched_at, minutes_spent = excluded.minutes_spent`,
		e.LeadID, e.Email, e.Phone, e.LinkedInURL, e.Country, e.Industry,
		e.CompanySize, e.Notes, e.EnrichedBy, nullTime(e.EnrichedAt), e.MinutesSpent,
	)
	return eris.Wrap(err, "sqlite: put enrichment")
}

// Usage ledger

func (s *SQLiteStore) InsertUsage(ctx context.Context, u *model.LeadUsage) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lead_usage (id, lead_id, client_id, campaign_id, used_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.LeadID, u.ClientID, u.CampaignID, u.UsedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert usage")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert usage rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) UsedLeadIDs(ctx context.Context, clientID string, leadIDs []string) (map[string]bool, error) {
	used := make(map[string]bool)
	if len(leadIDs) == 0 {
		return used, nil
	}
	query := `SELECT lead_id FROM lead_usage WHERE client_id = ? AND lead_id IN (` +
		placeholders(len(leadIDs)) + `)`
	args := make([]any, 0, len(leadIDs)+1)
	args = append(args, clientID)
	for _, id := range leadIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: used lead ids")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan used lead id")
		}
		used[id] = true
	}
	return used, eris.Wrap(rows.Err(), "sqlite: used lead ids iterate")
}

// Flags

func (s *SQLiteStore) InsertFlag(ctx context.Context, f *model.LeadFlag) (bool, error) {
	if err := requireTenant(f.TenantID); err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO lead_flags
		   (id, lead_id, tenant_id, flag_type, severity, detail, auto_flagged, flagged_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.ID, f.LeadID, f.TenantID, string(f.Type), string(f.Severity),
		f.Detail, f.AutoFlagged, f.FlaggedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert flag")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert flag rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) GetFlag(ctx context.Context, id string) (*model.LeadFlag, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, lead_id, tenant_id, flag_type, severity, detail, auto_flagged,
		        flagged_at, resolved, resolved_by, resolved_at, resolution_note
		 FROM lead_flags WHERE id = ?`,
		id,
	)
	var f model.LeadFlag
	var resolvedAt sql.NullTime
	err := row.Scan(&f.ID, &f.LeadID, &f.TenantID, &f.Type, &f.Severity, &f.Detail,
		&f.AutoFlagged, &f.FlaggedAt, &f.Resolved, &f.ResolvedBy, &resolvedAt, &f.ResolutionNote)
	if err == sql.ErrNoRows {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: flag %s", id)
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get flag")
	}
	if resolvedAt.Valid {
		f.ResolvedAt = resolvedAt.Time
	}
	return &f, nil
}

func (s *SQLiteStore) MarkFlagResolved(ctx context.Context, id, resolvedBy, note string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE lead_flags SET resolved = 1, resolved_by = ?, resolved_at = ?, resolution_note = ?
		 WHERE id = ?`,
		resolvedBy, at, note, id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: resolve flag %s", id)
	}
	return checkRowsAffected(res, "flag", id)
}

func (s *SQLiteStore) ListUnresolvedFlags(ctx context.Context, tenantID, leadID string) ([]model.FlagListEntry, error) {
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
	          WHERE f.tenant_id = ? AND f.resolved = 0`
	args := []any{tenantID}
	if leadID != "" {
		query += ` AND f.lead_id = ?`
		args = append(args, leadID)
	}
	query += ` ORDER BY f.severity DESC, f.flagged_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list unresolved flags")
	}
	defer rows.Close()

	var entries []model.FlagListEntry
	for rows.Next() {
		var e model.FlagListEntry
		if err := rows.Scan(&e.ID, &e.LeadID, &e.TenantID, &e.Type, &e.Severity, &e.Detail,
			&e.AutoFlagged, &e.FlaggedAt, &e.LeadName, &e.LeadTitle, &e.CompanyName, &e.Email); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flag entry")
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "sqlite: list unresolved flags iterate")
}

func (s *SQLiteStore) FlagSummary(ctx context.Context, tenantID string) (*model.FlagSummary, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT flag_type, severity, COUNT(*) FROM lead_flags
		 WHERE tenant_id = ? AND resolved = 0
		 GROUP BY flag_type, severity`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: flag summary")
	}
	defer rows.Close()

	summary := &model.FlagSummary{ByType: make(map[model.FlagType]model.FlagCount)}
	for rows.Next() {
		var ft model.FlagType
		var sev model.Severity
		var count int
		if err := rows.Scan(&ft, &sev, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan flag summary")
		}
		summary.ByType[ft] = model.FlagCount{Count: count, Severity: sev}
		summary.Total += count
	}
	return summary, eris.Wrap(rows.Err(), "sqlite: flag summary iterate")
}

// Learned mappings

func (s *SQLiteStore) MappingKeys(ctx context.Context, tenantID string, mt model.MappingType) (map[string]bool, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM learned_mappings
		 WHERE (tenant_id = ? OR tenant_id = '') AND mapping_type = ?`,
		tenantID, string(mt),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: mapping keys")
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan mapping key")
		}
		keys[strings.ToLower(k)] = true
	}
	return keys, eris.Wrap(rows.Err(), "sqlite: mapping keys iterate")
}

func (s *SQLiteStore) LookupMapping(ctx context.Context, tenantID string, mt model.MappingType, key string) (*model.LearnedMapping, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	// Tenant-scoped row wins over the global one.
	row := s.db.QueryRowContext(ctx,
		`SELECT id, tenant_id, mapping_type, key, value, confidence, usage_count, created_at
		 FROM learned_mappings
		 WHERE (tenant_id = ? OR tenant_id = '') AND mapping_type = ? AND key = ?
		 ORDER BY tenant_id DESC LIMIT 1`,
		tenantID, string(mt), key,
	)
	var m model.LearnedMapping
	err := row.Scan(&m.ID, &m.TenantID, &m.Type, &m.Key, &m.Value, &m.Confidence, &m.UsageCount, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lookup mapping")
	}
	return &m, nil
}

func (s *SQLiteStore) InsertMapping(ctx context.Context, m *model.LearnedMapping) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO learned_mappings
		   (id, tenant_id, mapping_type, key, value, confidence, usage_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.TenantID, string(m.Type), m.Key, m.Value, m.Confidence, m.UsageCount, m.CreatedAt,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert mapping")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: insert mapping rows affected")
	}
	return n > 0, nil
}

func (s *SQLiteStore) AddLearningEvent(ctx context.Context, e *model.LearningEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO learning_events
		   (id, tenant_id, event_type, entity_type, entity_id, old_value, new_value, triggered_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.TenantID, e.EventType, e.EntityType, e.EntityID, e.OldValue, e.NewValue, e.TriggeredBy, e.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert learning event")
}

// Rejections

func (s *SQLiteStore) InsertRejection(ctx context.Context, r *model.Rejection) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rejections (id, lead_id, reason, note, rejected_by, rejected_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.LeadID, string(r.Reason), r.Note, r.RejectedBy, r.RejectedAt,
	)
	return eris.Wrap(err, "sqlite: insert rejection")
}

// Export

func (s *SQLiteStore) ExportLeads(ctx context.Context, tenantID string, leadIDs []string) ([]model.ExportRecord, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	query := `SELECT l.id, l.full_name, COALESCE(co.name, ''), l.title, l.persona, l.status,
	                 COALESCE(e.email, ''), COALESCE(e.phone, ''), COALESCE(e.linkedin_url, ''),
	                 COALESCE(e.country, ''), COALESCE(e.industry, ''), COALESCE(e.company_size, ''),
	                 COALESCE(e.notes, '')
	          FROM leads l
	          LEFT JOIN companies co ON co.id = l.company_id
	          LEFT JOIN enrichment e ON e.lead_id = l.id
	          WHERE l.tenant_id = ?`
	args := []any{tenantID}
	// No ids means the whole tenant, minus rejected leads. An explicit
	// id list is taken as-is.
	if len(leadIDs) > 0 {
		query += ` AND l.id IN (` + placeholders(len(leadIDs)) + `)`
		for _, id := range leadIDs {
			args = append(args, id)
		}
	} else {
		query += ` AND l.status <> 'rejected'`
	}
	query += ` ORDER BY l.full_name`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: export leads")
	}
	defer rows.Close()

	var records []model.ExportRecord
	for rows.Next() {
		var r model.ExportRecord
		if err := rows.Scan(&r.LeadID, &r.FullName, &r.Company, &r.Title, &r.Persona, &r.Status,
			&r.Email, &r.Phone, &r.LinkedInURL, &r.Country, &r.Industry, &r.CompanySize, &r.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan export record")
		}
		r.HasEmail = strings.Contains(r.Email, "@")
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: export leads iterate")
	}

	if len(records) == 0 {
		return records, nil
	}
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.LeadID
	}
	flags, err := s.openFlagTypes(ctx, tenantID, ids)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].OpenFlags = flags[records[i].LeadID]
	}
	return records, nil
}

func (s *SQLiteStore) ListLeadDetails(ctx context.Context, tenantID string) ([]model.LeadDetail, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT l.id, l.tenant_id, l.full_name, l.name_key, l.title, l.company_id,
		        l.persona, l.status, l.source_type, l.times_seen, l.first_seen_at, l.last_seen_at,
		        COALESCE(e.email, ''), COALESCE(co.name, '')
		 FROM leads l
		 LEFT JOIN enrichment e ON e.lead_id = l.id
		 LEFT JOIN companies co ON co.id = l.company_id
		 WHERE l.tenant_id = ?
		 ORDER BY l.full_name`,
		tenantID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list lead details")
	}
	defer rows.Close()

	var out []model.LeadDetail
	for rows.Next() {
		var d model.LeadDetail
		if err := rows.Scan(&d.ID, &d.TenantID, &d.FullName, &d.NameKey, &d.Title, &d.CompanyID,
			&d.Persona, &d.Status, &d.SourceType, &d.TimesSeen, &d.FirstSeenAt, &d.LastSeenAt,
			&d.Email, &d.CompanyName); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead detail")
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list lead details iterate")
}

func (s *SQLiteStore) openFlagTypes(ctx context.Context, tenantID string, leadIDs []string) (map[string][]string, error) {
	query := `SELECT lead_id, flag_type FROM lead_flags
	          WHERE tenant_id = ? AND resolved = 0 AND lead_id IN (` + placeholders(len(leadIDs)) + `)
	          ORDER BY flag_type`
	args := make([]any, 0, len(leadIDs)+1)
	args = append(args, tenantID)
	for _, id := range leadIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open flag types")
	}
	defer rows.Close()

	flags := make(map[string][]string)
	for rows.Next() {
		var leadID, ft string
		if err := rows.Scan(&leadID, &ft); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan open flag type")
		}
		flags[leadID] = append(flags[leadID], ft)
	}
	return flags, eris.Wrap(rows.Err(), "sqlite: open flag types iterate")
}

func (s *SQLiteStore) LeadNames(ctx context.Context, tenantID string, leadIDs []string) (map[string]string, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	names := make(map[string]string)
	if len(leadIDs) == 0 {
		return names, nil
	}
	query := `SELECT id, full_name FROM leads
	          WHERE tenant_id = ? AND id IN (` + placeholders(len(leadIDs)) + `)`
	args := make([]any, 0, len(leadIDs)+1)
	args = append(args, tenantID)
	for _, id := range leadIDs {
		args = append(args, id)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lead names")
	}
	defer rows.Close()
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead name")
		}
		names[id] = name
	}
	return names, eris.Wrap(rows.Err(), "sqlite: lead names iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

type scannable interface {
	Scan(dest ...any) error
}

func scanCompany(row scannable, missOK bool) (*model.Company, error) {
	var c model.Company
	err := row.Scan(&c.ID, &c.TenantID, &c.Name, &c.NameKey, &c.CreatedAt)
	if err == sql.ErrNoRows {
		if missOK {
			return nil, nil
		}
		return nil, eris.Wrap(ErrNotFound, "company")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan company")
	}
	return &c, nil
}

func scanLead(row scannable, missOK bool) (*model.Lead, error) {
	var l model.Lead
	err := row.Scan(&l.ID, &l.TenantID, &l.FullName, &l.NameKey, &l.Title, &l.CompanyID,
		&l.Persona, &l.Status, &l.SourceType, &l.TimesSeen, &l.FirstSeenAt, &l.LastSeenAt)
	if err == sql.ErrNoRows {
		if missOK {
			return nil, nil
		}
		return nil, eris.Wrap(ErrNotFound, "lead")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}
	return &l, nil
}
