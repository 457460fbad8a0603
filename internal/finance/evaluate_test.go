package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/scuolahub/finance-service/internal/model"
)

func limit(category model.ExpenseCategory, base model.LimitBase, percentage string) model.SpendingLimit {
	return model.SpendingLimit{
		Category:   category,
		Base:       base,
		Percentage: decimal.RequireFromString(percentage),
	}
}

func totalsOf(entries map[model.ExpenseCategory]string) Totals {
	totals := Totals{
		TotalSpent: decimal.Zero,
		ByCategory: make(map[model.ExpenseCategory]decimal.Decimal, len(entries)),
	}
	for category, amount := range entries {
		value := decimal.RequireFromString(amount)
		totals.ByCategory[category] = value
		totals.TotalSpent = totals.TotalSpent.Add(value)
	}
	return totals
}

func TestEvaluateLimit(t *testing.T) {
	tests := []struct {
		name        string
		limit       model.SpendingLimit
		budget      string
		spent       map[model.ExpenseCategory]string
		base        string
		allowed     string
		consumed    string
		remaining   string
		utilization string
	}{
		{
			name:        "quarter of budget with overspend clamps utilization",
			limit:       limit(model.CategoryMaterials, model.BaseBudget, "25"),
			budget:      "1000.00",
			spent:       map[model.ExpenseCategory]string{model.CategoryMaterials: "300.00"},
			base:        "1000.00",
			allowed:     "250.00",
			consumed:    "300.00",
			remaining:   "-50.00",
			utilization: "100.00",
		},
		{
			name:        "spent base with nothing spent avoids division by zero",
			limit:       limit(model.CategoryServices, model.BaseSpent, "50"),
			budget:      "1000.00",
			spent:       nil,
			base:        "0.00",
			allowed:     "0.00",
			consumed:    "0.00",
			remaining:   "0.00",
			utilization: "0.00",
		},
		{
			name:        "zero percentage yields zero cap regardless of consumption",
			limit:       limit(model.CategoryMaterials, model.BaseBudget, "0"),
			budget:      "1000.00",
			spent:       map[model.ExpenseCategory]string{model.CategoryMaterials: "400.00"},
			base:        "1000.00",
			allowed:     "0.00",
			consumed:    "400.00",
			remaining:   "-400.00",
			utilization: "0.00",
		},
		{
			name:   "remaining base floors at zero on overspent budget",
			limit:  limit(model.CategoryTraining, model.BaseRemaining, "30"),
			budget: "500.00",
			spent: map[model.ExpenseCategory]string{
				model.CategoryMaterials: "600.00",
			},
			base:        "0.00",
			allowed:     "0.00",
			consumed:    "0.00",
			remaining:   "0.00",
			utilization: "0.00",
		},
		{
			name:   "remaining base uses leftover budget",
			limit:  limit(model.CategoryServices, model.BaseRemaining, "50"),
			budget: "1000.00",
			spent: map[model.ExpenseCategory]string{
				model.CategoryMaterials: "400.00",
				model.CategoryServices:  "100.00",
			},
			base:        "500.00",
			allowed:     "250.00",
			consumed:    "100.00",
			remaining:   "150.00",
			utilization: "40.00",
		},
		{
			name:   "spent base follows total spend across categories",
			limit:  limit(model.CategoryOther, model.BaseSpent, "10"),
			budget: "1000.00",
			spent: map[model.ExpenseCategory]string{
				model.CategoryMaterials: "200.00",
				model.CategoryOther:     "15.00",
			},
			base:        "215.00",
			allowed:     "21.50",
			consumed:    "15.00",
			remaining:   "6.50",
			utilization: "69.77",
		},
		{
			name:        "allowed amount rounds half up",
			limit:       limit(model.CategoryMaterials, model.BaseBudget, "12.5"),
			budget:      "100.10",
			spent:       nil,
			base:        "100.10",
			allowed:     "12.51",
			consumed:    "0.00",
			remaining:   "12.51",
			utilization: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := EvaluateLimit(tt.limit, decimal.RequireFromString(tt.budget), totalsOf(tt.spent))

			assert.Equal(t, tt.base, status.BaseAmount.StringFixed(2), "base amount")
			assert.Equal(t, tt.allowed, status.AllowedAmount.StringFixed(2), "allowed amount")
			assert.Equal(t, tt.consumed, status.ConsumedAmount.StringFixed(2), "consumed amount")
			assert.Equal(t, tt.remaining, status.RemainingAmount.StringFixed(2), "remaining amount")
			assert.Equal(t, tt.utilization, status.UtilizationPercent.StringFixed(2), "utilization")
		})
	}
}

func TestEvaluateLimitOverLimitFlag(t *testing.T) {
	status := EvaluateLimit(
		limit(model.CategoryMaterials, model.BaseBudget, "25"),
		decimal.RequireFromString("1000.00"),
		totalsOf(map[model.ExpenseCategory]string{model.CategoryMaterials: "300.00"}),
	)
	assert.True(t, status.OverLimit())

	within := EvaluateLimit(
		limit(model.CategoryMaterials, model.BaseBudget, "50"),
		decimal.RequireFromString("1000.00"),
		totalsOf(map[model.ExpenseCategory]string{model.CategoryMaterials: "300.00"}),
	)
	assert.False(t, within.OverLimit())
}
