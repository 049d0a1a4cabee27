package model

import "time"

// Enrichment holds the contact detail fields filled in over time by
// different contributors. One row per lead; fields are only ever set
// through the merge policy and are never blanked by a partial update.
type Enrichment struct {
	LeadID       string    `json:"lead_id"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	LinkedInURL  string    `json:"linkedin_url,omitempty"`
	Country      string    `json:"country,omitempty"`
	Industry     string    `json:"industry,omitempty"`
	CompanySize  string    `json:"company_size,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	EnrichedBy   string    `json:"enriched_by,omitempty"`
	EnrichedAt   time.Time `json:"enriched_at,omitempty"`
	MinutesSpent float64   `json:"minutes_spent,omitempty"`
}

// Empty reports whether no enrichment field carries a value.
func (e Enrichment) Empty() bool {
	return e.Email == "" && e.Phone == "" && e.LinkedInURL == "" &&
		e.Country == "" && e.Industry == "" && e.CompanySize == "" &&
		e.Notes == ""
}
