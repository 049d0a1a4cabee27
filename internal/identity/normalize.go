// Package identity computes the canonical dedup keys that decide
// whether two sightings are the same real-world contact or company.
package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripTokens are corporate suffixes, honorifics and glue words removed
// before squashing. Matching is whole-token, after lowercasing and
// trailing-dot removal.
var stripTokens = map[string]bool{
	// legal-entity suffixes
	"inc": true, "ltd": true, "llc": true, "llp": true, "plc": true,
	"corp": true, "co": true, "gmbh": true, "ag": true, "sa": true,
	"srl": true, "bv": true, "nv": true, "oy": true, "ab": true,
	"as": true, "kg": true, "pty": true, "sarl": true,
	"limited": true, "incorporated": true, "corporation": true,
	"company": true, "holdings": true, "group": true,
	// honorifics
	"dr": true, "mr": true, "mrs": true, "ms": true, "miss": true,
	"mx": true, "prof": true, "sir": true, "rev": true, "hon": true,
	"jr": true, "sr": true, "phd": true, "md": true, "mba": true,
	// glue
	"the": true, "and": true, "of": true,
}

// foldDiacritics drops combining marks so accented and plain spellings
// share a key.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// LeadKey normalizes a contact name plus company name into the dedup
// key for a lead. Deterministic, locale-naive, pure. An empty result
// means the row is unnormalizable and must be skipped by the caller;
// the inventory never dedups on an empty key.
func LeadKey(name, company string) string {
	return squash(stripWords(name + " " + company))
}

// CompanyKey normalizes a company display name into the company dedup
// key. Suffixes are deliberately not stripped here: "Acme GmbH" and
// "Acme" merge as leads but keep their own company rows.
func CompanyKey(company string) string {
	return squash(company)
}

// stripWords lowercases, folds diacritics, and removes denylisted
// tokens.
func stripWords(s string) string {
	folded, _, err := transform.String(foldDiacritics, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	fields := strings.Fields(folded)
	kept := fields[:0]
	for _, f := range fields {
		if !stripTokens[strings.TrimRight(f, ".")] {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// squash lowercases, folds diacritics, and strips everything outside
// [a-z0-9].
func squash(s string) string {
	folded, _, err := transform.String(foldDiacritics, strings.ToLower(s))
	if err != nil {
		folded = strings.ToLower(s)
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// EmailDomain extracts the lowercased domain part of an email address,
// or "" when there is none.
func EmailDomain(email string) string {
	i := strings.LastIndex(email, "@")
	if i < 0 || i == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[i+1:]))
}
