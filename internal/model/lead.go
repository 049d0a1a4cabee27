package model

import "time"

// LeadStatus represents a lead's position in the outreach workflow.
type LeadStatus string

const (
	LeadStatusNew        LeadStatus = "new"
	LeadStatusAssigned   LeadStatus = "assigned"
	LeadStatusInProgress LeadStatus = "in_progress"
	LeadStatusEnriched   LeadStatus = "enriched"
	LeadStatusNoEmail    LeadStatus = "no_email"
	LeadStatusUsed       LeadStatus = "used"
	LeadStatusArchived   LeadStatus = "archived"
	LeadStatusRejected   LeadStatus = "rejected"
)

// SourceType records where a lead was first sighted.
type SourceType string

const (
	SourceEvent     SourceType = "event"
	SourceDirectory SourceType = "directory"
	SourceCSVUpload SourceType = "csv_upload"
	SourceManual    SourceType = "manual"
)

// statusRank orders the passive upsert path. Only statuses below
// rankEnriched may be auto-advanced; everything at or past it is owned
// by external workflow actions and is never touched by a re-sighting.
var statusRank = map[LeadStatus]int{
	LeadStatusNew:        0,
	LeadStatusAssigned:   1,
	LeadStatusInProgress: 2,
	LeadStatusNoEmail:    3,
	LeadStatusEnriched:   4,
	LeadStatusUsed:       5,
	LeadStatusArchived:   6,
	LeadStatusRejected:   6,
}

// CanAutoAdvance reports whether a passive upsert may move a lead from
// one status to another. Upgrades only: a lead already enriched, used,
// archived or rejected is never moved backwards by a re-sighting.
func CanAutoAdvance(from, to LeadStatus) bool {
	if to != LeadStatusEnriched && to != LeadStatusNoEmail {
		return false
	}
	return statusRank[from] < statusRank[to]
}

// Reached reports whether s is at or past t in the workflow order.
func (s LeadStatus) Reached(t LeadStatus) bool {
	return statusRank[s] >= statusRank[t]
}

// LeadDetail is a lead joined with the context the flag chain needs.
type LeadDetail struct {
	Lead
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// Valid reports whether s is a known source type.
func (s SourceType) Valid() bool {
	switch s {
	case SourceEvent, SourceDirectory, SourceCSVUpload, SourceManual:
		return true
	}
	return false
}

// Lead is a contact record in a tenant's inventory. (tenant_id,
// name_key, company_id) is unique; the key already encodes name and
// company so same-named people at different companies never collide.
type Lead struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	FullName    string     `json:"full_name"`
	NameKey     string     `json:"name_key"`
	Title       string     `json:"title,omitempty"`
	CompanyID   string     `json:"company_id,omitempty"`
	Persona     string     `json:"persona,omitempty"`
	Status      LeadStatus `json:"status"`
	SourceType  SourceType `json:"source_type"`
	TimesSeen   int        `json:"times_seen"`
	FirstSeenAt time.Time  `json:"first_seen_at"`
	LastSeenAt  time.Time  `json:"last_seen_at"`
}
