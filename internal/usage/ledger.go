// Package usage tracks which leads have been handed to which clients,
// so the same lead is never sold to the same client twice.
package usage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dashin-hq/inventory-cli/internal/model"
	"github.com/dashin-hq/inventory-cli/internal/store"
)

// Ledger is the append-only lead-reuse record.
type Ledger struct {
	store store.Store
	now   func() time.Time
}

// New creates a Ledger.
func New(s store.Store) *Ledger {
	return &Ledger{store: s, now: func() time.Time { return time.Now().UTC() }}
}

// Record books one lead to one client for a campaign and moves the
// lead to used. Recording the same (lead, client, campaign) twice is a
// no-op; reused reports whether the pair had already been booked.
func (l *Ledger) Record(ctx context.Context, tenantID, leadID, clientID, campaignID string) (reused bool, err error) {
	if tenantID == "" {
		return false, store.ErrMissingTenant
	}
	lead, err := l.store.GetLead(ctx, tenantID, leadID)
	if err != nil {
		return false, err
	}

	u := &model.LeadUsage{
		ID:         uuid.New().String(),
		LeadID:     leadID,
		ClientID:   clientID,
		CampaignID: campaignID,
		UsedAt:     l.now(),
	}
	inserted, err := l.store.InsertUsage(ctx, u)
	if err != nil {
		return false, err
	}
	// A replayed booking, or a lead a workflow action has already moved
	// to used or beyond, keeps its status.
	if inserted && !lead.Status.Reached(model.LeadStatusUsed) {
		if err := l.store.UpdateLeadStatus(ctx, tenantID, leadID, model.LeadStatusUsed); err != nil {
			return false, err
		}
	}
	return !inserted, nil
}

// Conflicts partitions a candidate batch for a client into safe leads
// and ones that client has already received, naming the conflicts.
func (l *Ledger) Conflicts(ctx context.Context, tenantID, clientID string, leadIDs []string) (*model.ConflictReport, error) {
	if tenantID == "" {
		return nil, store.ErrMissingTenant
	}

	report := &model.ConflictReport{
		Total:            len(leadIDs),
		ConflictingNames: map[string]string{},
	}
	if len(leadIDs) == 0 {
		return report, nil
	}

	used, err := l.store.UsedLeadIDs(ctx, clientID, leadIDs)
	if err != nil {
		return nil, err
	}
	for _, id := range leadIDs {
		if used[id] {
			report.ConflictingLeadIDs = append(report.ConflictingLeadIDs, id)
		}
	}
	report.ConflictCount = len(report.ConflictingLeadIDs)
	report.SafeCount = report.Total - report.ConflictCount

	if report.ConflictCount > 0 {
		names, err := l.store.LeadNames(ctx, tenantID, report.ConflictingLeadIDs)
		if err != nil {
			return nil, err
		}
		report.ConflictingNames = names
	}
	return report, nil
}
