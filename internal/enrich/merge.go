// Package enrich implements the field-level merge policy for contact
// detail upserts: coalesce, never overwrite with empty.
package enrich

import (
	"time"

	"github.com/dashin-hq/inventory-cli/internal/model"
)

// Update carries newly supplied enrichment fields. Empty strings mean
// "not supplied" and never clear an existing value.
type Update struct {
	Email        string
	Phone        string
	LinkedInURL  string
	Country      string
	Industry     string
	CompanySize  string
	Notes        string
	MinutesSpent float64
}

// Empty reports whether the update supplies no field at all.
func (u Update) Empty() bool {
	return u.Email == "" && u.Phone == "" && u.LinkedInURL == "" &&
		u.Country == "" && u.Industry == "" && u.CompanySize == "" &&
		u.Notes == ""
}

// Merge applies a passive upsert: each supplied field fills the old
// value only if the old value is empty. Once set, a field survives
// every later partial update. Returns the merged record and whether
// anything changed; enriched_at advances and enriched_by records the
// contributor only on change.
func Merge(existing model.Enrichment, u Update, by string, at time.Time) (model.Enrichment, bool) {
	merged := existing
	changed := false

	coalesce(&merged.Email, u.Email, &changed)
	coalesce(&merged.Phone, u.Phone, &changed)
	coalesce(&merged.LinkedInURL, u.LinkedInURL, &changed)
	coalesce(&merged.Country, u.Country, &changed)
	coalesce(&merged.Industry, u.Industry, &changed)
	coalesce(&merged.CompanySize, u.CompanySize, &changed)
	coalesce(&merged.Notes, u.Notes, &changed)

	if u.MinutesSpent > 0 {
		merged.MinutesSpent += u.MinutesSpent
		changed = true
	}

	if changed {
		merged.EnrichedBy = by
		merged.EnrichedAt = at
	}
	return merged, changed
}

// Edit applies an explicit human edit: every supplied field overwrites
// the old value, set or not. Empty fields are still left alone so an
// edit form needn't resend the whole record.
func Edit(existing model.Enrichment, u Update, by string, at time.Time) (model.Enrichment, bool) {
	edited := existing
	changed := false

	overwrite(&edited.Email, u.Email, &changed)
	overwrite(&edited.Phone, u.Phone, &changed)
	overwrite(&edited.LinkedInURL, u.LinkedInURL, &changed)
	overwrite(&edited.Country, u.Country, &changed)
	overwrite(&edited.Industry, u.Industry, &changed)
	overwrite(&edited.CompanySize, u.CompanySize, &changed)
	overwrite(&edited.Notes, u.Notes, &changed)

	if u.MinutesSpent > 0 {
		edited.MinutesSpent += u.MinutesSpent
		changed = true
	}

	if changed {
		edited.EnrichedBy = by
		edited.EnrichedAt = at
	}
	return edited, changed
}

func coalesce(dst *string, src string, changed *bool) {
	if *dst == "" && src != "" {
		*dst = src
		*changed = true
	}
}

func overwrite(dst *string, src string, changed *bool) {
	if src != "" && src != *dst {
		*dst = src
		*changed = true
	}
}
