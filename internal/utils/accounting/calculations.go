package accounting

import (
	"math"

	"github.com/SscSPs/credit_ledger/internal/apperrors"
	"github.com/SscSPs/credit_ledger/internal/core/domain"
	"github.com/shopspring/decimal"
)

// Modifiers are cost adjustments that depend on account state rather than
// on the pricing table.
type Modifiers struct {
	// BurstActive is set when the account is past the burst threshold.
	BurstActive bool
	// BurstRate is the signed multiplier delta: +0.25 for a 25% surcharge,
	// -0.10 for a 10% volume discount.
	BurstRate decimal.Decimal
}

var maxCost = decimal.NewFromInt(math.MaxInt64)

// CalculateCost prices quantity units of an action:
//
//	buckets = ceil(max(1, quantity) / unit_size)
//	raw     = max(base_cost * buckets, minimum_charge)
//	cost    = ceil(raw * (1 - discount_rate))
//	cost    = ceil(cost * (1 + burst_rate))   when the burst modifier is active
//
// and clamps the result to at least 1. It has no side effects.
func CalculateCost(entry domain.PricingEntry, quantity int64, discountRate decimal.Decimal, mods Modifiers) (domain.CostBreakdown, error) {
	if quantity < 1 {
		return domain.CostBreakdown{}, apperrors.NewAppError(apperrors.ErrInvalidQuantity, "quantity must be at least 1", nil).
			WithField("quantity").
			WithDetail("quantity", quantity)
	}
	if discountRate.IsNegative() || discountRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return domain.CostBreakdown{}, apperrors.NewAppError(apperrors.ErrValidation, "discount rate must be in [0, 1)", nil).
			WithField("discount_rate")
	}

	unitSize := max(entry.UnitSize, 1)
	buckets := quantity / unitSize
	if quantity%unitSize != 0 {
		buckets++
	}

	raw := decimal.NewFromInt(entry.BaseCost).Mul(decimal.NewFromInt(buckets))
	afterMinimum := decimal.Max(raw, decimal.NewFromInt(entry.MinimumCharge))
	cost := afterMinimum.Mul(decimal.NewFromInt(1).Sub(discountRate)).Ceil()

	burstRate := decimal.Zero
	if mods.BurstActive && !mods.BurstRate.IsZero() {
		burstRate = mods.BurstRate
		cost = cost.Mul(decimal.NewFromInt(1).Add(burstRate)).Ceil()
	}

	if cost.GreaterThan(maxCost) {
		return domain.CostBreakdown{}, apperrors.NewAppError(apperrors.ErrInvalidQuantity, "quantity too large to price", nil).
			WithField("quantity").
			WithDetail("quantity", quantity)
	}
	final := max(cost.IntPart(), 1)

	return domain.CostBreakdown{
		ActionType:   entry.ActionType,
		Quantity:     quantity,
		Buckets:      buckets,
		Raw:          clampInt(raw),
		AfterMinimum: clampInt(afterMinimum),
		DiscountRate: discountRate,
		BurstRate:    burstRate,
		BurstApplied: mods.BurstActive && !burstRate.IsZero(),
		Cost:         final,
	}, nil
}

// RefreshedMainBalance returns the main balance after a monthly refresh and
// the rollover that produced it.
func RefreshedMainBalance(policy domain.TierPolicy, mainBalance, monthlyRefreshAmount int64) (newMain, rollover int64) {
	rollover = policy.Rollover(mainBalance, monthlyRefreshAmount)
	return rollover + monthlyRefreshAmount, rollover
}

// CreditsForPayment converts a decimal currency amount into credits, rounding
// down so a purchase never grants more than was paid for.
func CreditsForPayment(amount string, creditsPerUnit int64) (int64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidAmount, "payment amount is not a decimal", err).WithField("amount")
	}
	if !value.IsPositive() {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidAmount, "payment amount must be positive", nil).WithField("amount")
	}
	credits := value.Mul(decimal.NewFromInt(creditsPerUnit)).Floor()
	if credits.GreaterThan(maxCost) || credits.IsZero() {
		return 0, apperrors.NewAppError(apperrors.ErrInvalidAmount, "payment amount out of range", nil).WithField("amount")
	}
	return credits.IntPart(), nil
}

func clampInt(d decimal.Decimal) int64 {
	if d.GreaterThan(maxCost) {
		return math.MaxInt64
	}
	return d.IntPart()
}
