package onboarding

import "github.com/shopspring/decimal"

type Seasonality string

const (
	SeasonalityYearRound Seasonality = "year_round"
	SeasonalitySeasonal  Seasonality = "seasonal"
)

type BankAccount struct {
	IBAN     string `json:"iban"`
	Currency string `json:"currency"`
	IsMain   bool   `json:"isMain"`
}

type OpeningHoursEntry struct {
	Day    string `json:"day"`
	Open   string `json:"open"`
	Close  string `json:"close"`
	IsOpen bool   `json:"isOpen"`
}

// LocationContact is the contact stored on a business location; Name is the
// composed "first last" form.
type LocationContact struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	PhonePrefix string `json:"phonePrefix"`
}

type BusinessLocation struct {
	ID                   string              `json:"id"`
	Name                 string              `json:"name"`
	HasPOS               bool                `json:"hasPOS"`
	Address              *Address            `json:"address,omitempty"`
	IBAN                 string              `json:"iban"`
	BankAccounts         []BankAccount       `json:"bankAccounts"`
	ContactPerson        *LocationContact    `json:"contactPerson,omitempty"`
	BusinessSector       string              `json:"businessSector"`
	BusinessSubject      string              `json:"businessSubject"`
	MCCCode              string              `json:"mccCode"`
	EstimatedTurnover    decimal.Decimal     `json:"estimatedTurnover"`
	MonthlyTurnover      decimal.Decimal     `json:"monthlyTurnover"`
	AverageTransaction   decimal.Decimal     `json:"averageTransaction"`
	OpeningHours         string              `json:"openingHours"`
	OpeningHoursDetailed []OpeningHoursEntry `json:"openingHoursDetailed"`
	Seasonality          Seasonality         `json:"seasonality"`
	SeasonalWeeks        int                 `json:"seasonalWeeks"`
	CreatedFromContact   bool                `json:"createdFromContact"`
	Link                 *SourceLink         `json:"link,omitempty"`
}

// Turnover is the monthly turnover used by the calculator, falling back to
// the estimate when no monthly figure was entered.
func (l *BusinessLocation) Turnover() decimal.Decimal {
	if l == nil {
		return decimal.Zero
	}
	if !l.MonthlyTurnover.IsZero() {
		return l.MonthlyTurnover
	}
	return l.EstimatedTurnover
}
