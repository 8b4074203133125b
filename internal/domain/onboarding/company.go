package onboarding

import "strings"

type RegistryType string

const (
	RegistrySoleTrader RegistryType = "sole_trader"
	RegistryLLC        RegistryType = "llc"
	RegistryNonProfit  RegistryType = "non_profit"
	RegistryJointStock RegistryType = "joint_stock"
)

type Address struct {
	Street  string `json:"street"`
	Number  string `json:"number"`
	City    string `json:"city"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// CompanyInfo is the legal entity. Sole traders carry trade-office data in
// the same registry fields.
type CompanyInfo struct {
	ICO                        string         `json:"ico"`
	DIC                        string         `json:"dic"`
	CompanyName                string         `json:"companyName"`
	RegistryType               RegistryType   `json:"registryType"`
	IsVATPayer                 bool           `json:"isVatPayer"`
	VATNumber                  string         `json:"vatNumber"`
	Court                      string         `json:"court"`
	Section                    string         `json:"section"`
	InsertNumber               string         `json:"insertNumber"`
	Address                    *Address       `json:"address,omitempty"`
	HasDifferentContactAddress bool           `json:"hasDifferentContactAddress"`
	ContactAddress             *Address       `json:"contactAddress,omitempty"`
	ContactPerson              *ContactPerson `json:"contactPerson,omitempty"`
}

// Identifiable reports whether the company has a usable identity for
// merchant linking.
func (c *CompanyInfo) Identifiable() bool {
	return c != nil && strings.TrimSpace(c.CompanyName) != "" && strings.TrimSpace(c.ICO) != ""
}
