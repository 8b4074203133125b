// Package onboarding holds the onboarding data model shared by every wizard
// step: one Record per contract draft aggregating contact, company,
// locations, devices, fees, persons and consents.
package onboarding

import "errors"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusSigned    Status = "signed"
)

var (
	ErrReadOnly              = errors.New("onboarding record is read-only")
	ErrLocationFromContact   = errors.New("a business location created from contact already exists")
	ErrMissingContactInfo    = errors.New("contact info is empty")
	ErrPersonNotFound        = errors.New("authorized person not found")
	ErrInvalidDocumentSide   = errors.New("document side must be front or back")
	ErrContractIDRequired    = errors.New("contract id is required")
	ErrIncompleteCompanyInfo = errors.New("company name and registration id are required")
)

// Record is the full draft filled out across the wizard. Slices hold
// pointers so that per-item reference inequality tells which rows changed.
type Record struct {
	ContractID        string              `json:"contractId"`
	MerchantID        string              `json:"merchantId,omitempty"`
	Status            Status              `json:"status"`
	ContactInfo       *ContactInfo        `json:"contactInfo,omitempty"`
	CompanyInfo       *CompanyInfo        `json:"companyInfo,omitempty"`
	BusinessLocations []*BusinessLocation `json:"businessLocations"`
	DeviceSelection   *DeviceSelection    `json:"deviceSelection,omitempty"`
	Fees              *Fees               `json:"fees,omitempty"`
	AuthorizedPersons []*AuthorizedPerson `json:"authorizedPersons"`
	ActualOwners      []*ActualOwner      `json:"actualOwners"`
	Consents          *Consents           `json:"consents,omitempty"`
}

// NewRecord returns an empty draft for the given contract.
func NewRecord(contractID string) *Record {
	return &Record{
		ContractID:        contractID,
		Status:            StatusDraft,
		BusinessLocations: []*BusinessLocation{},
		AuthorizedPersons: []*AuthorizedPerson{},
		ActualOwners:      []*ActualOwner{},
	}
}

// Editable reports whether the record may still be mutated.
func (r *Record) Editable() bool {
	return r == nil || r.Status == "" || r.Status == StatusDraft
}

// FindAuthorizedPerson returns the index of the person with the given id or -1.
func (r *Record) FindAuthorizedPerson(id string) int {
	if r == nil {
		return -1
	}
	for i, p := range r.AuthorizedPersons {
		if p != nil && p.ID == id {
			return i
		}
	}
	return -1
}

// HasLocationFromContact reports whether the auto-created location exists.
func (r *Record) HasLocationFromContact() bool {
	if r == nil {
		return false
	}
	for _, l := range r.BusinessLocations {
		if l != nil && l.CreatedFromContact {
			return true
		}
	}
	return false
}
