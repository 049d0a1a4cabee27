package model

// ExportRecord is the flat shape handed to report/download
// collaborators: lead identity, enrichment, workflow status, and the
// types of quality flags still open against the lead.
type ExportRecord struct {
	LeadID      string     `json:"lead_id"`
	FullName    string     `json:"full_name"`
	Company     string     `json:"company,omitempty"`
	Title       string     `json:"title,omitempty"`
	Persona     string     `json:"persona,omitempty"`
	Status      LeadStatus `json:"status"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	LinkedInURL string     `json:"linkedin_url,omitempty"`
	Country     string     `json:"country,omitempty"`
	Industry    string     `json:"industry,omitempty"`
	CompanySize string     `json:"company_size,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	HasEmail    bool       `json:"has_email"`
	OpenFlags   []string   `json:"open_flags,omitempty"`
}
