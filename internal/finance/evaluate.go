package finance

import (
	"github.com/shopspring/decimal"

	"github.com/scuolahub/finance-service/internal/model"
)

var hundred = decimal.NewFromInt(100)

// EvaluateLimit resolves a spending limit against a project budget and the
// aggregated expense totals.
//
// The base amount is the budget, the total spend, or the remaining budget
// floored at zero. The allowed amount is percentage/100 of the base, rounded
// half-up to 2 decimals. Remaining may go negative to signal an over-limit
// category. Utilization is clamped to 100 and defined as zero whenever the
// allowed amount is zero, so a 0% limit or an exhausted base never divides
// by zero.
func EvaluateLimit(limit model.SpendingLimit, budget decimal.Decimal, totals Totals) model.LimitStatus {
	base := resolveBase(limit.Base, budget, totals.TotalSpent)
	allowed := round2(limit.Percentage.Div(hundred).Mul(base))
	consumed := totals.Spent(limit.Category)

	utilization := decimal.Zero
	if allowed.Sign() > 0 {
		utilization = round2(consumed.Div(allowed).Mul(hundred))
		if utilization.GreaterThan(hundred) {
			utilization = hundred
		}
	}

	return model.LimitStatus{
		Limit:              limit,
		BaseAmount:         base,
		AllowedAmount:      allowed,
		ConsumedAmount:     consumed,
		RemainingAmount:    allowed.Sub(consumed),
		UtilizationPercent: utilization,
	}
}

func resolveBase(base model.LimitBase, budget, totalSpent decimal.Decimal) decimal.Decimal {
	switch base {
	case model.BaseSpent:
		return totalSpent
	case model.BaseRemaining:
		remaining := budget.Sub(totalSpent)
		if remaining.Sign() < 0 {
			return decimal.Zero
		}
		return remaining
	default:
		return budget
	}
}

// round2 rounds half-up to 2 decimal places. All evaluated quantities are
// non-negative, so Round's half-away-from-zero behavior matches half-up.
func round2(value decimal.Decimal) decimal.Decimal {
	return value.Round(2)
}
