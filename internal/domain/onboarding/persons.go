package onboarding

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type DocumentType string

const (
	DocumentIDCard   DocumentType = "id_card"
	DocumentPassport DocumentType = "passport"
)

const (
	DocumentFront = "front"
	DocumentBack  = "back"
)

// AuthorizedPerson may sign for or represent the company.
type AuthorizedPerson struct {
	ID                   string       `json:"id"`
	Salutation           string       `json:"salutation"`
	FirstName            string       `json:"firstName"`
	LastName             string       `json:"lastName"`
	Email                string       `json:"email"`
	Phone                string       `json:"phone"`
	PhonePrefix          string       `json:"phonePrefix"`
	MaidenName           string       `json:"maidenName"`
	BirthDate            string       `json:"birthDate"`
	BirthNumber          string       `json:"birthNumber"`
	BirthPlace           string       `json:"birthPlace"`
	PermanentAddress     *Address     `json:"permanentAddress,omitempty"`
	Position             string       `json:"position"`
	DocumentType         DocumentType `json:"documentType"`
	DocumentNumber       string       `json:"documentNumber"`
	DocumentValidity     string       `json:"documentValidity"`
	DocumentIssuer       string       `json:"documentIssuer"`
	DocumentCountry      string       `json:"documentCountry"`
	Citizenship          string       `json:"citizenship"`
	IsPoliticallyExposed bool         `json:"isPoliticallyExposed"`
	IsUSCitizen          bool         `json:"isUSCitizen"`
	DocumentFrontURL     string       `json:"documentFrontUrl"`
	DocumentBackURL      string       `json:"documentBackUrl"`
	CreatedFromContact   bool         `json:"createdFromContact"`
	Link                 *SourceLink  `json:"link,omitempty"`
}

// ActualOwner is a beneficial owner; owners carry no email.
type ActualOwner struct {
	ID                   string      `json:"id"`
	FirstName            string      `json:"firstName"`
	LastName             string      `json:"lastName"`
	MaidenName           string      `json:"maidenName"`
	BirthDate            string      `json:"birthDate"`
	BirthNumber          string      `json:"birthNumber"`
	BirthPlace           string      `json:"birthPlace"`
	Citizenship          string      `json:"citizenship"`
	PermanentAddress     *Address    `json:"permanentAddress,omitempty"`
	IsPoliticallyExposed bool        `json:"isPoliticallyExposed"`
	CreatedFromContact   bool        `json:"createdFromContact"`
	Link                 *SourceLink `json:"link,omitempty"`
}

// NewID returns a stable client-side id for a person row.
func NewID() string {
	return uuid.NewString()
}

// ReadyToPersist reports whether the row meets the auto-save minimum.
func (p *AuthorizedPerson) ReadyToPersist() bool {
	return p != nil &&
		strings.TrimSpace(p.ID) != "" &&
		strings.TrimSpace(p.FirstName) != "" &&
		strings.TrimSpace(p.LastName) != "" &&
		strings.TrimSpace(p.Email) != ""
}

func (o *ActualOwner) ReadyToPersist() bool {
	return o != nil &&
		strings.TrimSpace(o.ID) != "" &&
		strings.TrimSpace(o.FirstName) != "" &&
		strings.TrimSpace(o.LastName) != ""
}

type Consents struct {
	GDPRConsent                    bool       `json:"gdprConsent"`
	TermsConsent                   bool       `json:"termsConsent"`
	ElectronicCommunicationConsent bool       `json:"electronicCommunicationConsent"`
	SignatureDate                  *time.Time `json:"signatureDate,omitempty"`
	SigningPersonID                string     `json:"signingPersonId"`
	SignatureURL                   string     `json:"signatureUrl"`
}

// Complete reports whether the mandatory consents are given.
func (c *Consents) Complete() bool {
	return c != nil && c.GDPRConsent && c.TermsConsent
}
