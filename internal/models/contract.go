package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Contract is the onboarding draft header. JSON names equal column names so
// bulk operations can address rows generically.
type Contract struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	MerchantID  *string    `gorm:"type:uuid;index" json:"merchant_id"`
	Status      string     `gorm:"not null;default:'draft';index" json:"status"`
	PartnerID   *uint      `gorm:"index" json:"partner_id"`
	Note        string     `json:"note"`
	SubmittedAt *time.Time `json:"submitted_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ContactInfo struct {
	ContractID  string `gorm:"primaryKey;type:uuid"`
	Salutation  string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	PhonePrefix string
	SalesNote   string
	Roles       pq.StringArray `gorm:"type:text[]"`
	UpdatedAt   time.Time
}

func (ContactInfo) TableName() string { return "contact_info" }

type CompanyInfo struct {
	ContractID                 string `gorm:"primaryKey;type:uuid"`
	ICO                        string `gorm:"column:ico;index"`
	DIC                        string `gorm:"column:dic"`
	CompanyName                string `gorm:"index"`
	RegistryType               string
	IsVATPayer                 bool   `gorm:"column:is_vat_payer"`
	VATNumber                  string `gorm:"column:vat_number"`
	Court                      string
	Section                    string
	InsertNumber               string
	Street                     string
	StreetNumber               string
	City                       string
	ZipCode                    string
	Country                    string
	HasDifferentContactAddress bool
	ContactAddress             datatypes.JSON
	ContactFirstName           string
	ContactLastName            string
	ContactEmail               string
	ContactPhone               string
	ContactPhonePrefix         string
	ContactIsTechnical         bool
	HasContactPerson           bool
	HasAddress                 bool
	UpdatedAt                  time.Time
}

func (CompanyInfo) TableName() string { return "company_info" }

type BusinessLocation struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	ContractID           string `gorm:"type:uuid;index;not null"`
	SortOrder            int
	Name                 string
	HasPOS               bool `gorm:"column:has_pos"`
	Address              datatypes.JSON
	IBAN                 string `gorm:"column:iban"`
	BankAccounts         datatypes.JSON
	ContactName          string
	ContactEmail         string
	ContactPhone         string
	ContactPhonePrefix   string
	HasContactPerson     bool
	BusinessSector       string
	BusinessSubject      string
	MCCCode              string          `gorm:"column:mcc_code"`
	EstimatedTurnover    decimal.Decimal `gorm:"type:numeric(14,2)"`
	MonthlyTurnover      decimal.Decimal `gorm:"type:numeric(14,2)"`
	AverageTransaction   decimal.Decimal `gorm:"type:numeric(14,2)"`
	OpeningHours         string
	OpeningHoursDetailed datatypes.JSON
	Seasonality          string
	SeasonalWeeks        int
	CreatedFromContact   bool
	SyncLink             datatypes.JSON
	UpdatedAt            time.Time
}

type DeviceSelection struct {
	ContractID        string         `gorm:"primaryKey;type:uuid"`
	SelectedSolutions pq.StringArray `gorm:"type:text[]"`
	DynamicCards      datatypes.JSON
	Note              string
	UpdatedAt         time.Time
}

func (DeviceSelection) TableName() string { return "device_selection" }

type Fees struct {
	ContractID        string          `gorm:"primaryKey;type:uuid"`
	RegulatedCards    decimal.Decimal `gorm:"type:numeric(6,3)"`
	UnregulatedCards  decimal.Decimal `gorm:"type:numeric(6,3)"`
	CalculatorResults datatypes.JSON
	UpdatedAt         time.Time
}

type AuthorizedPerson struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	ContractID           string `gorm:"type:uuid;index;not null"`
	Salutation           string
	FirstName            string
	LastName             string
	Email                string
	Phone                string
	PhonePrefix          string
	MaidenName           string
	BirthDate            string
	BirthNumber          string
	BirthPlace           string
	PermanentAddress     datatypes.JSON
	JobPosition          string
	DocumentType         string
	DocumentNumber       string
	DocumentValidity     string
	DocumentIssuer       string
	DocumentCountry      string
	Citizenship          string
	IsPoliticallyExposed bool
	IsUSCitizen          bool   `gorm:"column:is_us_citizen"`
	DocumentFrontURL     string `gorm:"column:document_front_url"`
	DocumentBackURL      string `gorm:"column:document_back_url"`
	CreatedFromContact   bool
	SyncLink             datatypes.JSON
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type ActualOwner struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	ContractID           string `gorm:"type:uuid;index;not null"`
	FirstName            string
	LastName             string
	MaidenName           string
	BirthDate            string
	BirthNumber          string
	BirthPlace           string
	Citizenship          string
	PermanentAddress     datatypes.JSON
	IsPoliticallyExposed bool
	CreatedFromContact   bool
	SyncLink             datatypes.JSON
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

type Consents struct {
	ContractID                     string `gorm:"primaryKey;type:uuid"`
	GDPRConsent                    bool   `gorm:"column:gdpr_consent"`
	TermsConsent                   bool
	ElectronicCommunicationConsent bool
	SignatureDate                  *time.Time
	SigningPersonID                string
	SignatureURL                   string `gorm:"column:signature_url"`
	UpdatedAt                      time.Time
}
