package flagging

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
)

// DefaultMinTokenLen is the shortest company/domain token considered
// meaningful by the domain-mismatch check.
const DefaultMinTokenLen = 3

// Detector runs the check chain against leads and persists findings.
type Detector struct {
	store       store.Store
	minTokenLen int
	now         func() time.Time
}

// NewDetector creates a Detector with the default mismatch threshold.
func NewDetector(s store.Store) *Detector {
	return &Detector{
		store:       s,
		minTokenLen: DefaultMinTokenLen,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithMinTokenLen overrides the domain-mismatch token threshold.
func (d *Detector) WithMinTokenLen(n int) *Detector {
	if n > 0 {
		d.minTokenLen = n
	}
	return d
}

// LoadLists snapshots the tenant's effective whitelist and blacklist
// (tenant-scoped mappings over global ones). Detection in a batch
// reuses one snapshot so every row sees the same lists.
func (d *Detector) LoadLists(ctx context.Context, tenantID string) (Lists, error) {
	wl, err := d.store.MappingKeys(ctx, tenantID, model.MappingDomainWhitelist)
	if err != nil {
		return Lists{}, err
	}
	bl, err := d.store.MappingKeys(ctx, tenantID, model.MappingDomainBlacklist)
	if err != nil {
		return Lists{}, err
	}
	return Lists{Whitelist: wl, Blacklist: bl}, nil
}

// Detect runs the chain for one lead and persists each finding as an
// unresolved flag, skipping types the lead already carries unresolved.
// A flag that fails to save is logged and dropped; detection never
// fails the pipeline that triggered it.
func (d *Detector) Detect(ctx context.Context, lead *model.Lead, email, companyName string, lists Lists) []model.LeadFlag {
	findings := RunChecks(Input{
		Email:       email,
		CompanyName: companyName,
		TimesSeen:   lead.TimesSeen,
	}, lists, d.minTokenLen)

	var saved []model.LeadFlag
	for _, f := range findings {
		flag := model.LeadFlag{
			ID:          uuid.New().String(),
			TenantID:    lead.TenantID,
			LeadID:      lead.ID,
			Type:        f.Type,
			Severity:    f.Severity,
			Detail:      f.Detail,
			AutoFlagged: true,
			FlaggedAt:   d.now(),
		}
		inserted, err := d.store.InsertFlag(ctx, &flag)
		if err != nil {
			zap.L().Warn("flag save failed, skipping",
				zap.String("lead_id", lead.ID),
				zap.String("flag_type", string(f.Type)),
				zap.Error(err))
			continue
		}
		if inserted {
			saved = append(saved, flag)
		}
	}
	return saved
}

// DetectOne is Detect with a fresh list snapshot, for single-lead use.
func (d *Detector) DetectOne(ctx context.Context, lead *model.Lead, email, companyName string) ([]model.LeadFlag, error) {
	lists, err := d.LoadLists(ctx, lead.TenantID)
	if err != nil {
		return nil, err
	}
	return d.Detect(ctx, lead, email, companyName, lists), nil
}
