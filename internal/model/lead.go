// Package model defines the lead record and the enumerated merge fields.
package model

import (
	"strconv"
	"time"
)

// Lead is one prospective contact/company pair owned by an account.
// All attributes except ID and AccountID are optional.
type Lead struct {
	ID        string `json:"id" db:"id"`
	AccountID string `json:"account_id" db:"account_id"`

	// Company attributes
	CompanyName  string `json:"company_name,omitempty" db:"company_name"`
	Industry     string `json:"industry,omitempty" db:"industry"`
	CompanySize  string `json:"company_size,omitempty" db:"company_size"`
	RevenueRange string `json:"revenue_range,omitempty" db:"revenue_range"`
	Location     string `json:"location,omitempty" db:"location"`
	Website      string `json:"website,omitempty" db:"website"`

	// Contact attributes
	ContactName  string `json:"contact_name,omitempty" db:"contact_name"`
	ContactTitle string `json:"contact_title,omitempty" db:"contact_title"`
	ContactEmail string `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone string `json:"contact_phone,omitempty" db:"contact_phone"`
	LinkedInURL  string `json:"linkedin_url,omitempty" db:"linkedin_url"`

	// Quality estimate, 0-100.
	LeadScore float64 `json:"lead_score,omitempty" db:"lead_score"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Field identifies one of the mergeable lead attributes. Using an enumerated
// type instead of string-keyed reflection means an unknown field name is a
// compile error at the call site, not an empty string at runtime.
type Field string

const (
	FieldContactEmail Field = "contact_email"
	FieldContactPhone Field = "contact_phone"
	FieldContactName  Field = "contact_name"
	FieldContactTitle Field = "contact_title"
	FieldCompanyName  Field = "company_name"
	FieldWebsite      Field = "website"
	FieldLeadScore    Field = "lead_score"
	FieldIndustry     Field = "industry"
	FieldCompanySize  Field = "company_size"
	FieldRevenueRange Field = "revenue_range"
	FieldLocation     Field = "location"
	FieldLinkedInURL  Field = "linkedin_url"
)

// MergeFields returns the mergeable fields in stable merge order.
func MergeFields() []Field {
	return []Field{
		FieldContactEmail,
		FieldContactPhone,
		FieldContactName,
		FieldContactTitle,
		FieldCompanyName,
		FieldWebsite,
		FieldLeadScore,
		FieldIndustry,
		FieldCompanySize,
		FieldRevenueRange,
		FieldLocation,
		FieldLinkedInURL,
	}
}

// KnownField reports whether f names one of the mergeable fields.
func KnownField(f Field) bool {
	for _, mf := range MergeFields() {
		if mf == f {
			return true
		}
	}
	return false
}

// Value returns the lead's value for f as a string. LeadScore is formatted
// with minimal digits; a zero score reads as empty so the merge engine
// treats unscored leads as having no value.
func (l *Lead) Value(f Field) string {
	switch f {
	case FieldContactEmail:
		return l.ContactEmail
	case FieldContactPhone:
		return l.ContactPhone
	case FieldContactName:
		return l.ContactName
	case FieldContactTitle:
		return l.ContactTitle
	case FieldCompanyName:
		return l.CompanyName
	case FieldWebsite:
		return l.Website
	case FieldLeadScore:
		if l.LeadScore == 0 {
			return ""
		}
		return strconv.FormatFloat(l.LeadScore, 'f', -1, 64)
	case FieldIndustry:
		return l.Industry
	case FieldCompanySize:
		return l.CompanySize
	case FieldRevenueRange:
		return l.RevenueRange
	case FieldLocation:
		return l.Location
	case FieldLinkedInURL:
		return l.LinkedInURL
	}
	return ""
}

// SetValue sets the lead's value for f. A LeadScore value that does not
// parse as a number is ignored rather than zeroing the score.
func (l *Lead) SetValue(f Field, v string) {
	switch f {
	case FieldContactEmail:
		l.ContactEmail = v
	case FieldContactPhone:
		l.ContactPhone = v
	case FieldContactName:
		l.ContactName = v
	case FieldContactTitle:
		l.ContactTitle = v
	case FieldCompanyName:
		l.CompanyName = v
	case FieldWebsite:
		l.Website = v
	case FieldLeadScore:
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			l.LeadScore = n
		}
	case FieldIndustry:
		l.Industry = v
	case FieldCompanySize:
		l.CompanySize = v
	case FieldRevenueRange:
		l.RevenueRange = v
	case FieldLocation:
		l.Location = v
	case FieldLinkedInURL:
		l.LinkedInURL = v
	}
}

// FieldPatch is a partial update of mergeable fields, keyed by Field.
type FieldPatch map[Field]string

// MergeEvent is the audit record of one completed merge.
type MergeEvent struct {
	ID              string    `json:"id" db:"id"`
	AccountID       string    `json:"account_id" db:"account_id"`
	SurvivingLeadID string    `json:"surviving_lead_id" db:"surviving_lead_id"`
	RemovedLeadID   string    `json:"removed_lead_id" db:"removed_lead_id"`
	ChangedFields   []Field   `json:"changed_fields" db:"changed_fields"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
