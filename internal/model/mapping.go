package model

import "time"

// MappingType namespaces learned mappings. Today only domain lists
// exist; new types need no schema change.
type MappingType string

const (
	MappingDomainWhitelist MappingType = "domain_whitelist"
	MappingDomainBlacklist MappingType = "domain_blacklist"
)

// LearnedMapping is a tenant-scoped key/value exception learned from a
// human flag resolution. TenantID "" denotes a global mapping consulted
// by every tenant in addition to its own. Unique on
// (tenant_id, mapping_type, key); confidence and usage_count are static
// metadata written at insert and never recomputed.
type LearnedMapping struct {
	ID         string      `json:"id"`
	TenantID   string      `json:"tenant_id,omitempty"`
	Type       MappingType `json:"mapping_type"`
	Key        string      `json:"key"`
	Value      string      `json:"value"`
	Confidence float64     `json:"confidence"`
	UsageCount int         `json:"usage_count"`
	CreatedAt  time.Time   `json:"created_at"`
}

// LearningEvent is an immutable audit record of a feedback write.
type LearningEvent struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	EventType   string    `json:"event_type"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	OldValue    string    `json:"old_value,omitempty"`
	NewValue    string    `json:"new_value,omitempty"`
	TriggeredBy string    `json:"triggered_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
