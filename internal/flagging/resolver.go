package flagging

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
)

// domainInDetail pulls the flagged domain back out of a flag's detail
// text when the resolution should teach a whitelist entry.
var domainInDetail = regexp.MustCompile(`[\w.-]+\.[a-z]{2,}`)

// learnableTypes are flag types whose dismissal implies the domain was
// actually fine for this tenant.
var learnableTypes = map[model.FlagType]bool{
	model.FlagPersonalEmail:  true,
	model.FlagDomainMismatch: true,
}

// Resolver closes flags and feeds the learning loop.
type Resolver struct {
	store store.Store
	now   func() time.Time
}

// NewResolver creates a Resolver.
func NewResolver(s store.Store) *Resolver {
	return &Resolver{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Resolve marks a flag resolved. When the flag type is learnable and
// learn is true, the flagged domain joins the tenant's whitelist so
// the same domain never raises that flag again, and a learning event
// records the human override. Learning failures are logged, not fatal:
// the resolution itself already happened.
func (r *Resolver) Resolve(ctx context.Context, tenantID, flagID, resolvedBy, note string, learn bool) error {
	flag, err := r.store.GetFlag(ctx, flagID)
	if err != nil {
		return err
	}
	if flag.TenantID != tenantID {
		return store.ErrNotFound
	}
	if flag.Resolved {
		return eris.Errorf("flagging: flag %s already resolved", flagID)
	}

	now := r.now()
	if err := r.store.MarkFlagResolved(ctx, flagID, resolvedBy, note, now); err != nil {
		return err
	}

	if !learn || !learnableTypes[flag.Type] {
		return nil
	}

	domain := domainInDetail.FindString(flag.Detail)
	if domain == "" {
		zap.L().Warn("no domain found in flag detail, nothing to learn",
			zap.String("flag_id", flagID))
		return nil
	}

	mapping := &model.LearnedMapping{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Type:       model.MappingDomainWhitelist,
		Key:        domain,
		Value:      "whitelisted_by_manager",
		Confidence: 1.0,
		UsageCount: 1,
		CreatedAt:  now,
	}
	if _, err := r.store.InsertMapping(ctx, mapping); err != nil {
		zap.L().Warn("learned mapping save failed",
			zap.String("flag_id", flagID),
			zap.String("domain", domain),
			zap.Error(err))
		return nil
	}

	event := &model.LearningEvent{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		EventType:   "flag_dismissed",
		EntityType:  "lead",
		EntityID:    flag.LeadID,
		OldValue:    string(flag.Type),
		NewValue:    "whitelisted:" + domain,
		TriggeredBy: resolvedBy,
		CreatedAt:   now,
	}
	if err := r.store.AddLearningEvent(ctx, event); err != nil {
		zap.L().Warn("learning event save failed",
			zap.String("flag_id", flagID),
			zap.Error(err))
	}
	return nil
}
