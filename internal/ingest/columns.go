// Package ingest turns CSV and XLSX uploads into semantic rows by
// sniffing which columns mean what.
package ingest

import "strings"

// Column synonym lists, matched case-insensitively against trimmed
// headers. First header to match a list wins that role.
var (
	nameKeys     = []string{"name", "full name", "full_name", "fullname", "contact", "contact name", "person", "attendee", "speaker", "lead", "lead name"}
	companyKeys  = []string{"company", "company name", "company_name", "organization", "organisation", "org", "employer", "firm", "account"}
	emailKeys    = []string{"email", "e-mail", "email address", "email_address", "mail", "work email", "contact email"}
	linkedinKeys = []string{"linkedin", "linkedin url", "linkedin_url", "linkedin profile", "li url", "profile"}
	phoneKeys    = []string{"phone", "phone number", "phone_number", "mobile", "telephone", "tel", "contact number"}
	countryKeys  = []string{"country", "location", "region", "geo", "nation"}
	industryKeys = []string{"industry", "sector", "vertical", "market"}
	titleKeys    = []string{"title", "job title", "job_title", "jobtitle", "position", "role", "designation", "function"}
)

// ColumnMap holds the detected index for each semantic role, -1 when
// the file does not carry that column.
type ColumnMap struct {
	Name     int
	Company  int
	Email    int
	LinkedIn int
	Phone    int
	Country  int
	Industry int
	Title    int
}

// DetectColumns maps a header row to semantic roles.
func DetectColumns(header []string) ColumnMap {
	cm := ColumnMap{Name: -1, Company: -1, Email: -1, LinkedIn: -1, Phone: -1, Country: -1, Industry: -1, Title: -1}
	for i, h := range header {
		norm := strings.ToLower(strings.TrimSpace(h))
		switch {
		case cm.Name < 0 && matches(norm, nameKeys):
			cm.Name = i
		case cm.Company < 0 && matches(norm, companyKeys):
			cm.Company = i
		case cm.Email < 0 && matches(norm, emailKeys):
			cm.Email = i
		case cm.LinkedIn < 0 && matches(norm, linkedinKeys):
			cm.LinkedIn = i
		case cm.Phone < 0 && matches(norm, phoneKeys):
			cm.Phone = i
		case cm.Country < 0 && matches(norm, countryKeys):
			cm.Country = i
		case cm.Industry < 0 && matches(norm, industryKeys):
			cm.Industry = i
		case cm.Title < 0 && matches(norm, titleKeys):
			cm.Title = i
		}
	}
	return cm
}

// HasName reports whether the file carries the one mandatory column.
func (cm ColumnMap) HasName() bool { return cm.Name >= 0 }

func matches(header string, keys []string) bool {
	for _, k := range keys {
		if header == k {
			return true
		}
	}
	return false
}

// junkValues are spreadsheet artifacts that mean "no value".
var junkValues = map[string]bool{
	"nan": true, "none": true, "null": true, "n/a": true, "na": true,
	"-": true, "—": true,
}

// Clean trims a cell and blanks junk placeholder values.
func Clean(cell string) string {
	v := strings.TrimSpace(cell)
	if junkValues[strings.ToLower(v)] {
		return ""
	}
	return v
}

func (cm ColumnMap) cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return Clean(record[idx])
}
