package model

import "time"

// RejectReason classifies why a lead was pulled from circulation.
type RejectReason string

const (
	RejectWrongPersona     RejectReason = "wrong_persona"
	RejectDuplicate        RejectReason = "duplicate"
	RejectBouncedEmail     RejectReason = "bounced_email"
	RejectPersonalEmail    RejectReason = "personal_email"
	RejectOutOfMarket      RejectReason = "out_of_market"
	RejectIncompleteData   RejectReason = "incomplete_data"
	RejectWrongCompanySize RejectReason = "wrong_company_size"
	RejectWrongGeography   RejectReason = "wrong_geography"
	RejectOther            RejectReason = "other"
)

// Valid reports whether r is a known rejection reason.
func (r RejectReason) Valid() bool {
	switch r {
	case RejectWrongPersona, RejectDuplicate, RejectBouncedEmail,
		RejectPersonalEmail, RejectOutOfMarket, RejectIncompleteData,
		RejectWrongCompanySize, RejectWrongGeography, RejectOther:
		return true
	}
	return false
}

// Rejection excludes a lead from future selection without deleting it.
type Rejection struct {
	ID         string       `json:"id"`
	LeadID     string       `json:"lead_id"`
	Reason     RejectReason `json:"reason"`
	Note       string       `json:"note,omitempty"`
	RejectedBy string       `json:"rejected_by,omitempty"`
	RejectedAt time.Time    `json:"rejected_at"`
}
