package handlers

import (
	"errors"

	"paydesk/internal/domain/onboarding"
	apperrors "paydesk/internal/errors"
	"paydesk/internal/services/calculator"
	"paydesk/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CalculatorHandler struct {
	calc *calculator.Calculator
}

func NewCalculatorHandler(calc *calculator.Calculator) *CalculatorHandler {
	return &CalculatorHandler{calc: calc}
}

type calculateRequest struct {
	Cards            []*onboarding.DeviceCard       `json:"cards"`
	Locations        []*onboarding.BusinessLocation `json:"locations"`
	RegulatedCards   decimal.Decimal                `json:"regulatedCards"`
	UnregulatedCards decimal.Decimal                `json:"unregulatedCards"`
}

// calculateResponse adds per-card totals, rounded for display, to the
// unrounded results.
type calculateResponse struct {
	*onboarding.CalculatorResults
	CardTotals []decimal.Decimal `json:"cardTotals"`
}

// Calculate runs the fee calculation without touching any session.
func (h *CalculatorHandler) Calculate(c *fiber.Ctx) error {
	var req calculateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}

	results, err := h.calc.Calculate(calculator.Input{
		Cards:            req.Cards,
		Locations:        req.Locations,
		RegulatedCards:   req.RegulatedCards,
		UnregulatedCards: req.UnregulatedCards,
	})
	if err != nil {
		if errors.Is(err, calculator.ErrInvalidInput) {
			return response.FromError(c, apperrors.WithMessage(apperrors.ErrValidation, err.Error()))
		}
		return response.FromError(c, err)
	}

	out := calculateResponse{CalculatorResults: results, CardTotals: make([]decimal.Decimal, 0, len(req.Cards))}
	for _, card := range req.Cards {
		total := decimal.Zero
		if card != nil {
			total = calculator.CardTotal(card)
		}
		out.CardTotals = append(out.CardTotals, calculator.Round2(total))
	}
	return response.Success(c, "Calculation complete", out)
}
