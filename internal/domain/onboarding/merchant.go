package onboarding

import (
	"strings"
	"time"
)

// Merchant is the legal entity a contract is linked to. One merchant exists
// per (company name, ICO) pair.
type Merchant struct {
	ID               string    `json:"id"`
	CompanyName      string    `json:"companyName"`
	ICO              string    `json:"ico"`
	DIC              string    `json:"dic"`
	VATNumber        string    `json:"vatNumber"`
	IsVATPayer       bool      `json:"isVatPayer"`
	Address          *Address  `json:"address,omitempty"`
	ContactFirstName string    `json:"contactFirstName"`
	ContactLastName  string    `json:"contactLastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	PhonePrefix      string    `json:"phonePrefix"`
	CreatedAt        time.Time `json:"createdAt"`
}

// SameIdentity reports an exact match on legal name and registration id.
func (m *Merchant) SameIdentity(name, ico string) bool {
	return m != nil && m.CompanyName == strings.TrimSpace(name) && m.ICO == strings.TrimSpace(ico)
}
