// Package flagging runs the quality-flag chain over leads and learns
// from how humans resolve the flags it raises.
package flagging

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dashin-hq/inventory-cli/internal/identity"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidEmail reports whether the address looks deliverable enough to
// treat as a real email. TLDs reserved for testing never pass.
func ValidEmail(email string) bool {
	email = strings.TrimSpace(email)
	if !emailPattern.MatchString(email) {
		return false
	}
	domain := identity.EmailDomain(email)
	tld := domain[strings.LastIndex(domain, ".")+1:]
	return !invalidTLDs[tld]
}

var invalidTLDs = map[string]bool{
	"test": true, "example": true, "localhost": true,
	"invalid": true, "local": true, "internal": true,
}

// personalDomains are consumer webmail providers. An address on one of
// these cannot be tied to the lead's company.
var personalDomains = map[string]bool{
	"gmail.com": true, "googlemail.com": true,
	"yahoo.com": true, "yahoo.co.uk": true, "yahoo.fr": true, "yahoo.de": true, "yahoo.it": true, "yahoo.es": true,
	"hotmail.com": true, "hotmail.co.uk": true, "hotmail.fr": true, "hotmail.de": true, "hotmail.it": true,
	"outlook.com": true, "outlook.fr": true, "outlook.de": true,
	"live.com": true, "live.co.uk": true, "live.fr": true,
	"msn.com": true, "icloud.com": true, "me.com": true, "mac.com": true,
	"aol.com": true, "protonmail.com": true, "proton.me": true, "pm.me": true,
	"zoho.com": true, "yandex.com": true, "yandex.ru": true,
	"mail.com": true, "mail.ru": true,
	"gmx.com": true, "gmx.de": true, "gmx.net": true, "web.de": true, "t-online.de": true,
	"orange.fr": true, "free.fr": true, "wanadoo.fr": true, "laposte.net": true, "bbox.fr": true, "sfr.fr": true,
	"libero.it": true, "alice.it": true, "virgilio.it": true, "tiscali.it": true,
	"btinternet.com": true, "sky.com": true, "talktalk.net": true, "ntlworld.com": true,
	"o2.co.uk": true, "virginmedia.com": true,
	"cox.net": true, "comcast.net": true, "att.net": true, "verizon.net": true,
	"sbcglobal.net": true, "bellsouth.net": true, "earthlink.net": true,
	"fastmail.com": true, "fastmail.fm": true,
	"tutanota.com": true, "tutamail.com": true,
	"hey.com": true, "duck.com": true,
}

// roleBasedPrefixes are local parts that address a function rather
// than a person.
var roleBasedPrefixes = map[string]bool{
	"info": true, "contact": true, "hello": true, "hi": true,
	"support": true, "help": true, "admin": true, "administrator": true,
	"office": true, "team": true,
	"noreply": true, "donotreply": true,
	"sales": true, "marketing": true, "hr": true, "careers": true, "jobs": true,
	"billing": true, "accounts": true, "finance": true, "legal": true,
	"press": true, "media": true, "news": true, "pr": true, "partnerships": true,
	"enquiries": true, "enquiry": true, "queries": true, "query": true,
	"service": true, "services": true,
	"webmaster": true, "postmaster": true, "hostmaster": true, "abuse": true,
	"security": true, "privacy": true, "data": true, "gdpr": true, "compliance": true,
	"general": true, "mail": true, "email": true,
	"reception": true, "front": true, "desk": true, "frontdesk": true,
}

var localSeparators = strings.NewReplacer(".", "", "_", "", "-", "")

// Input is everything the chain inspects about one lead.
type Input struct {
	Email       string
	CompanyName string
	TimesSeen   int
}

// Lists are the tenant's effective learned mappings, snapshotted once
// per detection run.
type Lists struct {
	Whitelist map[string]bool
	Blacklist map[string]bool
}

// Finding is one raised issue, not yet persisted.
type Finding struct {
	Type     model.FlagType
	Severity model.Severity
	Detail   string
}

type checkFunc func(in Input, lists Lists, minTokenLen int) *Finding

// checks run in chain order. Later checks assume the email already
// passed format validation.
var checks = []checkFunc{
	checkInvalidFormat,
	checkBlacklistedDomain,
	checkPersonalEmail,
	checkRoleBasedEmail,
	checkDomainMismatch,
	checkDuplicate,
}

// RunChecks evaluates the full chain and returns every finding. A lead
// can carry several flags at once.
func RunChecks(in Input, lists Lists, minTokenLen int) []Finding {
	var out []Finding
	for _, check := range checks {
		if f := check(in, lists, minTokenLen); f != nil {
			out = append(out, *f)
		}
	}
	return out
}

func checkInvalidFormat(in Input, _ Lists, _ int) *Finding {
	email := strings.TrimSpace(in.Email)
	if email == "" || ValidEmail(email) {
		return nil
	}
	return &Finding{
		Type:     model.FlagInvalidEmailFormat,
		Severity: model.SeverityCritical,
		Detail:   fmt.Sprintf("email %q is not a valid address", email),
	}
}

func checkBlacklistedDomain(in Input, lists Lists, _ int) *Finding {
	domain := validDomain(in.Email)
	if domain == "" || !lists.Blacklist[domain] {
		return nil
	}
	return &Finding{
		Type:     model.FlagBlacklistedDomain,
		Severity: model.SeverityCritical,
		Detail:   fmt.Sprintf("domain %s is blacklisted for this tenant", domain),
	}
}

func checkPersonalEmail(in Input, lists Lists, _ int) *Finding {
	domain := validDomain(in.Email)
	if domain == "" || lists.Whitelist[domain] || !personalDomains[domain] {
		return nil
	}
	return &Finding{
		Type:     model.FlagPersonalEmail,
		Severity: model.SeverityCritical,
		Detail:   fmt.Sprintf("personal email provider: %s", domain),
	}
}

func checkRoleBasedEmail(in Input, _ Lists, _ int) *Finding {
	email := strings.TrimSpace(strings.ToLower(in.Email))
	if !ValidEmail(email) {
		return nil
	}
	local := email[:strings.Index(email, "@")]
	if !roleBasedPrefixes[localSeparators.Replace(local)] {
		return nil
	}
	return &Finding{
		Type:     model.FlagRoleBasedEmail,
		Severity: model.SeverityWarning,
		Detail:   fmt.Sprintf("role-based address: %s", local),
	}
}

func checkDomainMismatch(in Input, lists Lists, minTokenLen int) *Finding {
	domain := validDomain(in.Email)
	if domain == "" || in.CompanyName == "" {
		return nil
	}
	if personalDomains[domain] || lists.Whitelist[domain] {
		return nil
	}

	domainBase := domain[:strings.IndexByte(domain+".", '.')]
	if len(domainBase) < minTokenLen {
		return nil
	}
	companyNorm := identity.CompanyKey(in.CompanyName)
	if companyNorm == "" {
		return nil
	}
	if strings.Contains(companyNorm, domainBase) || strings.Contains(domainBase, companyNorm) {
		return nil
	}
	for _, word := range splitWords(in.CompanyName) {
		if len(word) < minTokenLen {
			continue
		}
		if strings.Contains(word, domainBase) || strings.Contains(domainBase, word) {
			return nil
		}
	}
	return &Finding{
		Type:     model.FlagDomainMismatch,
		Severity: model.SeverityWarning,
		Detail:   fmt.Sprintf("email domain %s does not match company %q", domain, in.CompanyName),
	}
}

func checkDuplicate(in Input, _ Lists, _ int) *Finding {
	if in.TimesSeen <= 1 {
		return nil
	}
	return &Finding{
		Type:     model.FlagDuplicate,
		Severity: model.SeverityWarning,
		Detail:   fmt.Sprintf("lead seen %d times across sources", in.TimesSeen),
	}
}

// validDomain returns the lowercased domain of a well-formed address,
// or "" when the format check should have caught it first.
func validDomain(email string) string {
	if !ValidEmail(email) {
		return ""
	}
	return identity.EmailDomain(email)
}

var nonWord = regexp.MustCompile(`[^a-z0-9]+`)

func splitWords(company string) []string {
	return strings.Fields(nonWord.ReplaceAllString(strings.ToLower(company), " "))
}
