package model

import "time"

// FlagType identifies a data-quality defect class.
type FlagType string

const (
	FlagInvalidEmailFormat FlagType = "invalid_email_format"
	FlagPersonalEmail      FlagType = "personal_email"
	FlagRoleBasedEmail     FlagType = "role_based_email"
	FlagDomainMismatch     FlagType = "domain_mismatch"
	FlagDuplicate          FlagType = "duplicate"
	FlagBlacklistedDomain  FlagType = "blacklisted_domain"
)

// Severity grades a flag.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// LeadFlag is a detected quality issue on a lead. Deduped per
// (lead_id, flag_type): re-running detection is an insert-if-absent.
type LeadFlag struct {
	ID             string    `json:"id"`
	LeadID         string    `json:"lead_id"`
	TenantID       string    `json:"tenant_id"`
	Type           FlagType  `json:"flag_type"`
	Severity       Severity  `json:"severity"`
	Detail         string    `json:"detail,omitempty"`
	AutoFlagged    bool      `json:"auto_flagged"`
	FlaggedAt      time.Time `json:"flagged_at"`
	Resolved       bool      `json:"resolved"`
	ResolvedBy     string    `json:"resolved_by,omitempty"`
	ResolvedAt     time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string    `json:"resolution_note,omitempty"`
}

// FlagListEntry is an unresolved flag joined with lead context for
// manager review.
type FlagListEntry struct {
	LeadFlag
	LeadName    string `json:"lead_name"`
	LeadTitle   string `json:"lead_title,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// FlagSummary counts unresolved flags for a tenant grouped by type.
type FlagSummary struct {
	ByType map[FlagType]FlagCount `json:"by_type"`
	Total  int                    `json:"total"`
}

// FlagCount is one summary bucket.
type FlagCount struct {
	Count    int      `json:"count"`
	Severity Severity `json:"severity"`
}
