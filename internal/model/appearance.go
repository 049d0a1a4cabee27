package model

import "time"

// LeadAppearance records one sighting of a lead. A row is written for
// every sighting, including re-sightings of an existing lead, so the
// full provenance trail survives dedup.
type LeadAppearance struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"lead_id"`
	EventName string    `json:"event_name,omitempty"`
	EventURL  string    `json:"event_url,omitempty"`
	Category  string    `json:"category,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	SeenAt    time.Time `json:"seen_at"`
}
