// Package store persists the lead inventory. Two backends implement
// the same interface: SQLite for local/single-node use and Postgres
// for shared deployments.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"github.com/dashin-hq/inventory-cli/internal/model"
)

// ErrDuplicate marks a unique-constraint violation on insert. Callers
// treat it as "already exists, go fetch and merge instead"; it is the
// signal for the upsert retry path, never a fatal error.
var ErrDuplicate = eris.New("store: duplicate")

// ErrMissingTenant marks a core operation invoked without a tenant id.
// Unlike ErrDuplicate there is no recovery: the call is rejected rather
// than silently defaulting to some tenant.
var ErrMissingTenant = eris.New("store: missing tenant id")

// ErrNotFound marks a lookup by id that matched nothing.
var ErrNotFound = eris.New("store: not found")

// Store is the persistence interface for the identity-resolution core.
// Lookups that may legitimately miss return (nil, nil); lookups by
// primary key return ErrNotFound.
type Store interface {
	// Companies
	GetCompanyByKey(ctx context.Context, tenantID, nameKey string) (*model.Company, error)
	GetCompany(ctx context.Context, tenantID, id string) (*model.Company, error)
	CreateCompany(ctx context.Context, c *model.Company) error
	RenameCompany(ctx context.Context, tenantID, id, name string) error

	// Leads
	GetLeadByKey(ctx context.Context, tenantID, nameKey, companyID string) (*model.Lead, error)
	GetLead(ctx context.Context, tenantID, id string) (*model.Lead, error)
	CreateLead(ctx context.Context, l *model.Lead) error
	RecordSighting(ctx context.Context, leadID string, seenAt time.Time, status model.LeadStatus) error
	UpdateLeadStatus(ctx context.Context, tenantID, leadID string, status model.LeadStatus) error
	ListLeadDetails(ctx context.Context, tenantID string) ([]model.LeadDetail, error)

	// Appearances
	AddAppearance(ctx context.Context, a *model.LeadAppearance) error
	CountAppearances(ctx context.Context, leadID string) (int, error)

	// Enrichment
	GetEnrichment(ctx context.Context, leadID string) (*model.Enrichment, error)
	PutEnrichment(ctx context.Context, e *model.Enrichment) error

	// Usage ledger
	InsertUsage(ctx context.Context, u *model.LeadUsage) (bool, error)
	UsedLeadIDs(ctx context.Context, clientID string, leadIDs []string) (map[string]bool, error)

	// Flags
	InsertFlag(ctx context.Context, f *model.LeadFlag) (bool, error)
	GetFlag(ctx context.Context, id string) (*model.LeadFlag, error)
	MarkFlagResolved(ctx context.Context, id, resolvedBy, note string, at time.Time) error
	ListUnresolvedFlags(ctx context.Context, tenantID, leadID string) ([]model.FlagListEntry, error)
	FlagSummary(ctx context.Context, tenantID string) (*model.FlagSummary, error)

	// Learned mappings
	MappingKeys(ctx context.Context, tenantID string, mt model.MappingType) (map[string]bool, error)
	LookupMapping(ctx context.Context, tenantID string, mt model.MappingType, key string) (*model.LearnedMapping, error)
	InsertMapping(ctx context.Context, m *model.LearnedMapping) (bool, error)
	AddLearningEvent(ctx context.Context, e *model.LearningEvent) error

	// Rejections
	InsertRejection(ctx context.Context, r *model.Rejection) error

	// Export
	ExportLeads(ctx context.Context, tenantID string, leadIDs []string) ([]model.ExportRecord, error)
	LeadNames(ctx context.Context, tenantID string, leadIDs []string) (map[string]string, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// requireTenant guards every tenant-scoped entry point.
func requireTenant(tenantID string) error {
	if tenantID == "" {
		return ErrMissingTenant
	}
	return nil
}

// isUniqueViolation classifies a backend error as a unique-constraint
// hit so both drivers surface the same ErrDuplicate sentinel.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
