package onboarding

import "strings"

// Role tags carried by ContactInfo.Roles.
const (
	RoleOwner            = "owner"
	RoleAuthorizedPerson = "authorized_person"
	RoleTechnicalContact = "technical_contact"
)

type ContactInfo struct {
	Salutation  string   `json:"salutation"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	PhonePrefix string   `json:"phonePrefix"`
	SalesNote   string   `json:"salesNote"`
	Roles       []string `json:"roles"`
}

// HasRole reports whether the contact carries the given role tag.
func (c *ContactInfo) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Snapshot captures the fields the synchronizer propagates.
func (c *ContactInfo) Snapshot() ContactSnapshot {
	if c == nil {
		return ContactSnapshot{}
	}
	return ContactSnapshot{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		PhonePrefix: c.PhonePrefix,
	}
}

// ContactPerson is the denormalized contact embedded in CompanyInfo.
type ContactPerson struct {
	FirstName         string `json:"firstName"`
	LastName          string `json:"lastName"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	PhonePrefix       string `json:"phonePrefix"`
	IsTechnicalPerson bool   `json:"isTechnicalPerson"`
}

func (c *ContactPerson) Snapshot() ContactSnapshot {
	if c == nil {
		return ContactSnapshot{}
	}
	return ContactSnapshot{
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Email:       c.Email,
		Phone:       c.Phone,
		PhonePrefix: c.PhonePrefix,
	}
}

// Source names the object a derived entity was filled from.
type Source string

const (
	SourceContactInfo    Source = "contactInfo"
	SourceCompanyContact Source = "companyContact"
)

// ContactSnapshot is the set of watched contact fields.
type ContactSnapshot struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PhonePrefix string `json:"phonePrefix"`
}

// FullName composes "first last" the way location contacts store it.
func (s ContactSnapshot) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// SourceLink ties a derived entity to its source until the two diverge.
// Snapshot holds the values last copied from the source.
type SourceLink struct {
	Source   Source          `json:"source"`
	Snapshot ContactSnapshot `json:"snapshot"`
}
