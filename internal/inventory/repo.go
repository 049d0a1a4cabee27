// Package inventory owns the tenant-scoped lead inventory: the
// dedup-on-insert upsert protocol, batch imports, and rejection.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/dashin-hq/inventory-cli/internal/enrich"
	"github.com/dashin-hq/inventory-cli/internal/flagging"
	"github.com/dashin-hq/inventory-cli/internal/identity"
	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
)

// ErrSkippedRow marks a row whose name normalizes to an empty key.
// The batch importer counts it and moves on; it never aborts a batch.
var ErrSkippedRow = eris.New("inventory: row skipped (unnormalizable)")

// Repository performs identity resolution against the store.
type Repository struct {
	store store.Store
	now   func() time.Time
}

// NewRepository creates a Repository. The clock is injectable for tests.
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the repository clock.
func (r *Repository) WithClock(now func() time.Time) *Repository {
	r.now = now
	return r
}

// Appearance carries the provenance of one sighting.
type Appearance struct {
	EventName string
	EventURL  string
	Category  string
	SessionID string
}

// UpsertInput is one semantically-resolved row.
type UpsertInput struct {
	FullName   string
	Company    string
	Title      string
	Persona    string
	Source     model.SourceType
	Enrichment enrich.Update
	EnrichedBy string
	Appearance Appearance
}

// UpsertResult reports what the upsert did.
type UpsertResult struct {
	LeadID    string `json:"lead_id"`
	CompanyID string `json:"company_id,omitempty"`
	WasNew    bool   `json:"was_new"`
	HasEmail  bool   `json:"has_email"`
}

// Upsert resolves a raw sighting against the inventory: find-or-create
// the company, find-or-create the lead by its dedup key, merge
// enrichment non-destructively, and record the appearance. Concurrent
// identical upserts race on the unique constraints; the loser's insert
// comes back ErrDuplicate and falls into the merge path instead of
// failing.
func (r *Repository) Upsert(ctx context.Context, tenantID string, in UpsertInput) (*UpsertResult, error) {
	if tenantID == "" {
		return nil, store.ErrMissingTenant
	}
	if in.FullName == "" {
		return nil, ErrSkippedRow
	}

	now := r.now()
	hasEmail := flagging.ValidEmail(in.Enrichment.Email)

	companyID, err := r.findOrCreateCompany(ctx, tenantID, in.Company, now)
	if err != nil {
		return nil, err
	}

	leadKey := identity.LeadKey(in.FullName, in.Company)
	if leadKey == "" {
		return nil, ErrSkippedRow
	}

	lead, wasNew, err := r.findOrCreateLead(ctx, tenantID, leadKey, companyID, in, hasEmail, now)
	if err != nil {
		return nil, err
	}

	if !wasNew {
		next := lead.Status
		if hasEmail && model.CanAutoAdvance(lead.Status, model.LeadStatusEnriched) {
			next = model.LeadStatusEnriched
		}
		if err := r.store.RecordSighting(ctx, lead.ID, now, next); err != nil {
			return nil, err
		}
	}

	if !in.Enrichment.Empty() {
		if err := r.mergeEnrichment(ctx, lead.ID, in.Enrichment, in.EnrichedBy, now); err != nil {
			return nil, err
		}
	}

	// Every sighting leaves an appearance row, including re-sightings,
	// so provenance survives dedup.
	app := &model.LeadAppearance{
		ID:        uuid.New().String(),
		LeadID:    lead.ID,
		EventName: in.Appearance.EventName,
		EventURL:  in.Appearance.EventURL,
		Category:  in.Appearance.Category,
		SessionID: in.Appearance.SessionID,
		SeenAt:    now,
	}
	if err := r.store.AddAppearance(ctx, app); err != nil {
		return nil, err
	}

	return &UpsertResult{
		LeadID:    lead.ID,
		CompanyID: companyID,
		WasNew:    wasNew,
		HasEmail:  hasEmail,
	}, nil
}

func (r *Repository) findOrCreateCompany(ctx context.Context, tenantID, name string, now time.Time) (string, error) {
	key := identity.CompanyKey(name)
	if key == "" {
		return "", nil
	}

	existing, err := r.store.GetCompanyByKey(ctx, tenantID, key)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	c := &model.Company{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Name:      name,
		NameKey:   key,
		CreatedAt: now,
	}
	err = r.store.CreateCompany(ctx, c)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the race: another caller created it first.
		winner, ferr := r.store.GetCompanyByKey(ctx, tenantID, key)
		if ferr != nil {
			return "", ferr
		}
		if winner == nil {
			return "", eris.Errorf("inventory: company vanished after duplicate insert: %s", key)
		}
		return winner.ID, nil
	}
	if err != nil {
		return "", err
	}
	return c.ID, nil
}

func (r *Repository) findOrCreateLead(ctx context.Context, tenantID, leadKey, companyID string, in UpsertInput, hasEmail bool, now time.Time) (*model.Lead, bool, error) {
	existing, err := r.store.GetLeadByKey(ctx, tenantID, leadKey, companyID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	persona := in.Persona
	if persona == "" {
		persona = "Unknown"
	}
	l := &model.Lead{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		FullName:    in.FullName,
		NameKey:     leadKey,
		Title:       in.Title,
		CompanyID:   companyID,
		Persona:     persona,
		Status:      initialStatus(in.Source, in.Enrichment, hasEmail),
		SourceType:  in.Source,
		TimesSeen:   1,
		FirstSeenAt: now,
		LastSeenAt:  now,
	}
	err = r.store.CreateLead(ctx, l)
	if errors.Is(err, store.ErrDuplicate) {
		// Compensating retry: re-read and take the merge path.
		winner, ferr := r.store.GetLeadByKey(ctx, tenantID, leadKey, companyID)
		if ferr != nil {
			return nil, false, ferr
		}
		if winner == nil {
			return nil, false, eris.Errorf("inventory: lead vanished after duplicate insert: %s", leadKey)
		}
		return winner, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return l, true, nil
}

func (r *Repository) mergeEnrichment(ctx context.Context, leadID string, u enrich.Update, by string, now time.Time) error {
	existing, err := r.store.GetEnrichment(ctx, leadID)
	if err != nil {
		return err
	}
	base := model.Enrichment{LeadID: leadID}
	if existing != nil {
		base = *existing
	}
	merged, changed := enrich.Merge(base, u, by, now)
	if !changed {
		return nil
	}
	return r.store.PutEnrichment(ctx, &merged)
}

// initialStatus picks the status a brand-new lead starts in.
func initialStatus(src model.SourceType, u enrich.Update, hasEmail bool) model.LeadStatus {
	switch {
	case hasEmail:
		return model.LeadStatusEnriched
	case !u.Empty() || src == model.SourceCSVUpload:
		return model.LeadStatusNoEmail
	default:
		return model.LeadStatusNew
	}
}

// EditEnrichment applies an explicit human edit, which may overwrite
// fields the passive merge would preserve.
func (r *Repository) EditEnrichment(ctx context.Context, tenantID, leadID string, u enrich.Update, by string) error {
	if tenantID == "" {
		return store.ErrMissingTenant
	}
	if _, err := r.store.GetLead(ctx, tenantID, leadID); err != nil {
		return err
	}
	existing, err := r.store.GetEnrichment(ctx, leadID)
	if err != nil {
		return err
	}
	base := model.Enrichment{LeadID: leadID}
	if existing != nil {
		base = *existing
	}
	edited, changed := enrich.Edit(base, u, by, r.now())
	if !changed {
		return nil
	}
	return r.store.PutEnrichment(ctx, &edited)
}

// Reject pulls a lead out of circulation without deleting it. Allowed
// from any state before used; the lead keeps its history and a
// rejection record explains why.
func (r *Repository) Reject(ctx context.Context, tenantID, leadID string, reason model.RejectReason, note, by string) error {
	if tenantID == "" {
		return store.ErrMissingTenant
	}
	lead, err := r.store.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return err
	}
	if lead.Status == model.LeadStatusUsed || lead.Status == model.LeadStatusArchived {
		return eris.Errorf("inventory: cannot reject lead in status %s", lead.Status)
	}

	rej := &model.Rejection{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		Reason:     reason,
		Note:       note,
		RejectedBy: by,
		RejectedAt: r.now(),
	}
	if err := r.store.InsertRejection(ctx, rej); err != nil {
		return err
	}
	return r.store.UpdateLeadStatus(ctx, tenantID, leadID, model.LeadStatusRejected)
}

// RenameCompany is the explicit human edit that overrides
// first-write-wins on a company display name.
func (r *Repository) RenameCompany(ctx context.Context, tenantID, companyID, name string) error {
	if tenantID == "" {
		return store.ErrMissingTenant
	}
	return r.store.RenameCompany(ctx, tenantID, companyID, name)
}
