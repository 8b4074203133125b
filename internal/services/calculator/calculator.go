// Package calculator turns a device/service selection and card-fee inputs
// into the monthly profit breakdown shown on the fees step.
package calculator

import (
	"errors"
	"fmt"

	"paydesk/internal/domain/onboarding"

	"github.com/shopspring/decimal"
)

var ErrInvalidInput = errors.New("invalid calculator input")

// FeeModel blends the regulated/unregulated card rates against turnover.
// RegulatedShare is the fraction of turnover paid with regulated cards;
// the cost rates are the company's own per-class percentage costs.
type FeeModel struct {
	RegulatedShare      decimal.Decimal
	RegulatedCostRate   decimal.Decimal
	UnregulatedCostRate decimal.Decimal
}

// DefaultFeeModel reflects the commercial defaults until product confirms
// the blend per merchant segment.
func DefaultFeeModel() FeeModel {
	return FeeModel{
		RegulatedShare:      decimal.RequireFromString("0.8"),
		RegulatedCostRate:   decimal.RequireFromString("0.3"),
		UnregulatedCostRate: decimal.RequireFromString("1.2"),
	}
}

type Input struct {
	Cards            []*onboarding.DeviceCard
	Locations        []*onboarding.BusinessLocation
	RegulatedCards   decimal.Decimal
	UnregulatedCards decimal.Decimal
}

// InputFromRecord collects the calculator slice of an onboarding record.
func InputFromRecord(rec *onboarding.Record) Input {
	var in Input
	if rec == nil {
		return in
	}
	if rec.DeviceSelection != nil {
		in.Cards = rec.DeviceSelection.DynamicCards
	}
	in.Locations = rec.BusinessLocations
	if rec.Fees != nil {
		in.RegulatedCards = rec.Fees.RegulatedCards
		in.UnregulatedCards = rec.Fees.UnregulatedCards
	}
	return in
}

type Calculator struct {
	model FeeModel
}

func New(model FeeModel) *Calculator {
	return &Calculator{model: model}
}

// Calculate is pure: identical inputs always produce identical results.
// Values are never rounded here; see Round2 for presentation.
func (c *Calculator) Calculate(in Input) (*onboarding.CalculatorResults, error) {
	if err := c.validate(in); err != nil {
		return nil, err
	}

	res := &onboarding.CalculatorResults{
		CustomerPaymentBreakdown: []onboarding.BreakdownItem{},
		CompanyCostBreakdown:     []onboarding.BreakdownItem{},
	}

	for _, l := range in.Locations {
		res.MonthlyTurnover = res.MonthlyTurnover.Add(l.Turnover())
	}

	for _, card := range in.Cards {
		if card == nil {
			continue
		}
		count := cardCount(card)

		payItems := lineItems(card, count, func(fee, _ decimal.Decimal) decimal.Decimal { return fee }, card.MonthlyFee)
		costItems := lineItems(card, count, func(_, cost decimal.Decimal) decimal.Decimal { return cost }, card.CompanyCost)

		for _, it := range payItems {
			res.TotalCustomerPayments = res.TotalCustomerPayments.Add(it.Total)
		}
		for _, it := range costItems {
			res.TotalCompanyCosts = res.TotalCompanyCosts.Add(it.Total)
		}
		res.CustomerPaymentBreakdown = append(res.CustomerPaymentBreakdown, payItems...)
		res.CompanyCostBreakdown = append(res.CompanyCostBreakdown, costItems...)
	}

	regulatedTurnover := res.MonthlyTurnover.Mul(c.model.RegulatedShare)
	unregulatedTurnover := res.MonthlyTurnover.Sub(regulatedTurnover)

	// Rates are percentages; Shift keeps the division by 100 exact.
	res.EffectiveRegulated = regulatedTurnover.Mul(in.RegulatedCards).Shift(-2)
	res.EffectiveUnregulated = unregulatedTurnover.Mul(in.UnregulatedCards).Shift(-2)

	transactionCosts := regulatedTurnover.Mul(c.model.RegulatedCostRate).Shift(-2).
		Add(unregulatedTurnover.Mul(c.model.UnregulatedCostRate).Shift(-2))

	res.TransactionMargin = res.EffectiveRegulated.Add(res.EffectiveUnregulated).Sub(transactionCosts)
	res.ServiceMargin = res.TotalCustomerPayments.Sub(res.TotalCompanyCosts)
	res.TotalMonthlyProfit = res.TransactionMargin.Add(res.ServiceMargin)

	return res, nil
}

// CardTotal is the customer-facing monthly total of a single card.
func CardTotal(card *onboarding.DeviceCard) decimal.Decimal {
	total := decimal.Zero
	for _, it := range lineItems(card, cardCount(card), func(fee, _ decimal.Decimal) decimal.Decimal { return fee }, card.MonthlyFee) {
		total = total.Add(it.Total)
	}
	return total
}

// Round2 rounds a monetary value for display.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

func cardCount(card *onboarding.DeviceCard) int64 {
	if card.Count < 1 {
		return 1
	}
	return int64(card.Count)
}

// lineItems expands a card into its own line plus one line per addon.
// Per-device addons scale with the card count, flat addons do not.
func lineItems(
	card *onboarding.DeviceCard,
	count int64,
	pick func(fee, cost decimal.Decimal) decimal.Decimal,
	unit decimal.Decimal,
) []onboarding.BreakdownItem {
	items := make([]onboarding.BreakdownItem, 0, len(card.Addons)+1)
	items = append(items, onboarding.BreakdownItem{
		Kind:     onboarding.BreakdownCard,
		CardName: card.Name,
		Name:     card.Name,
		Quantity: count,
		Unit:     unit,
		Total:    unit.Mul(decimal.NewFromInt(count)),
	})

	for _, addon := range card.Addons {
		qty := addon.Quantity()
		if addon.IsPerDevice {
			qty *= count
		}
		addonUnit := pick(addon.MonthlyFee, addon.CompanyCost)
		items = append(items, onboarding.BreakdownItem{
			Kind:     onboarding.BreakdownAddon,
			CardName: card.Name,
			Name:     addon.Name,
			Quantity: qty,
			Unit:     addonUnit,
			Total:    addonUnit.Mul(decimal.NewFromInt(qty)),
		})
	}
	return items
}

func (c *Calculator) validate(in Input) error {
	if in.RegulatedCards.IsNegative() || in.UnregulatedCards.IsNegative() {
		return fmt.Errorf("%w: card fee rates must not be negative", ErrInvalidInput)
	}
	if c.model.RegulatedShare.IsNegative() || c.model.RegulatedShare.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: regulated share must be between 0 and 1", ErrInvalidInput)
	}
	for _, l := range in.Locations {
		if l == nil {
			continue
		}
		if l.MonthlyTurnover.IsNegative() || l.EstimatedTurnover.IsNegative() {
			return fmt.Errorf("%w: location %q has negative turnover", ErrInvalidInput, l.Name)
		}
	}
	for _, card := range in.Cards {
		if card == nil {
			continue
		}
		if card.Count < 0 {
			return fmt.Errorf("%w: card %q has negative count", ErrInvalidInput, card.Name)
		}
		if card.MonthlyFee.IsNegative() || card.CompanyCost.IsNegative() {
			return fmt.Errorf("%w: card %q has negative fee or cost", ErrInvalidInput, card.Name)
		}
		for _, a := range card.Addons {
			if a.MonthlyFee.IsNegative() || a.CompanyCost.IsNegative() || a.CustomQuantity < 0 {
				return fmt.Errorf("%w: addon %q on card %q is invalid", ErrInvalidInput, a.Name, card.Name)
			}
		}
	}
	return nil
}
