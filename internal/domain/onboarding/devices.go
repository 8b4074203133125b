package onboarding

import "github.com/shopspring/decimal"

type CardType string

const (
	CardTypeDevice  CardType = "device"
	CardTypeService CardType = "service"
)

// Solution tags selected on the device step.
const (
	SolutionTerminal  = "terminal"
	SolutionPOS       = "pos"
	SolutionEcommerce = "ecommerce"
)

type Addon struct {
	Category       string          `json:"category"`
	Name           string          `json:"name"`
	MonthlyFee     decimal.Decimal `json:"monthlyFee"`
	CompanyCost    decimal.Decimal `json:"companyCost"`
	IsPerDevice    bool            `json:"isPerDevice"`
	CustomQuantity int             `json:"customQuantity"`
}

// Quantity is the addon multiplier, 1 when no custom quantity was entered.
func (a Addon) Quantity() int64 {
	if a.CustomQuantity > 0 {
		return int64(a.CustomQuantity)
	}
	return 1
}

// DeviceCard is one selected product line; services use the same shape.
type DeviceCard struct {
	ID          string          `json:"id"`
	Type        CardType        `json:"type"`
	Category    string          `json:"category"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Count       int             `json:"count"`
	MonthlyFee  decimal.Decimal `json:"monthlyFee"`
	CompanyCost decimal.Decimal `json:"companyCost"`
	Addons      []Addon         `json:"addons"`
}

type DeviceSelection struct {
	SelectedSolutions []string      `json:"selectedSolutions"`
	DynamicCards      []*DeviceCard `json:"dynamicCards"`
	Note              string        `json:"note"`
}

// Fees holds the card-fee inputs (percent rates) and the derived snapshot.
type Fees struct {
	RegulatedCards    decimal.Decimal    `json:"regulatedCards"`
	UnregulatedCards  decimal.Decimal    `json:"unregulatedCards"`
	CalculatorResults *CalculatorResults `json:"calculatorResults,omitempty"`
}

type BreakdownKind string

const (
	BreakdownCard  BreakdownKind = "card"
	BreakdownAddon BreakdownKind = "addon"
)

type BreakdownItem struct {
	Kind     BreakdownKind   `json:"kind"`
	CardName string          `json:"cardName"`
	Name     string          `json:"name"`
	Quantity int64           `json:"quantity"`
	Unit     decimal.Decimal `json:"unit"`
	Total    decimal.Decimal `json:"total"`
}

type CalculatorResults struct {
	MonthlyTurnover          decimal.Decimal `json:"monthlyTurnover"`
	TotalCustomerPayments    decimal.Decimal `json:"totalCustomerPayments"`
	TotalCompanyCosts        decimal.Decimal `json:"totalCompanyCosts"`
	EffectiveRegulated       decimal.Decimal `json:"effectiveRegulated"`
	EffectiveUnregulated     decimal.Decimal `json:"effectiveUnregulated"`
	TransactionMargin        decimal.Decimal `json:"transactionMargin"`
	ServiceMargin            decimal.Decimal `json:"serviceMargin"`
	TotalMonthlyProfit       decimal.Decimal `json:"totalMonthlyProfit"`
	CustomerPaymentBreakdown []BreakdownItem `json:"customerPaymentBreakdown"`
	CompanyCostBreakdown     []BreakdownItem `json:"companyCostBreakdown"`
}
