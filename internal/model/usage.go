package model

import "time"

// LeadUsage is one reuse-ledger entry: this lead has been released to
// this client. Append-only, unique on (lead_id, client_id); existence
// of a row is the sole source of truth for "already sold".
type LeadUsage struct {
	ID         string    `json:"id"`
	LeadID     string    `json:"lead_id"`
	ClientID   string    `json:"client_id"`
	CampaignID string    `json:"campaign_id,omitempty"`
	UsedAt     time.Time `json:"used_at"`
}

// ConflictReport is the pre-export conflict check for a lead set
// against a target client.
type ConflictReport struct {
	Total              int               `json:"total"`
	SafeCount          int               `json:"safe_count"`
	ConflictCount      int               `json:"conflict_count"`
	ConflictingLeadIDs []string          `json:"conflicting_lead_ids"`
	ConflictingNames   map[string]string `json:"conflicting_names,omitempty"`
}
