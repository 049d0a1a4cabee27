package model

import "time"

// Company is a deduped company record. Display name is first-write-wins:
// later sightings never overwrite it, only an explicit human edit does.
type Company struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	NameKey   string    `json:"name_key"`
	CreatedAt time.Time `json:"created_at"`
}
