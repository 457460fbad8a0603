// Package finance holds the pure financial core: expense aggregation and
// spending-limit evaluation. Everything here is deterministic, side-effect
// free, and computed in fixed-point decimals.
package finance

import (
	"github.com/shopspring/decimal"

	"github.com/scuolahub/finance-service/internal/model"
)

// Totals is the aggregated view of one project's expense set.
type Totals struct {
	TotalSpent decimal.Decimal
	ByCategory map[model.ExpenseCategory]decimal.Decimal
}

// Spent returns the amount consumed by one category, zero when the category
// has no expenses.
func (t Totals) Spent(category model.ExpenseCategory) decimal.Decimal {
	if t.ByCategory == nil {
		return decimal.Zero
	}
	if v, ok := t.ByCategory[category]; ok {
		return v
	}
	return decimal.Zero
}

// Aggregate sums a project's expenses into a total and per-category totals.
// An empty expense set yields zero totals.
func Aggregate(expenses []model.Expense) Totals {
	totals := Totals{
		TotalSpent: decimal.Zero,
		ByCategory: make(map[model.ExpenseCategory]decimal.Decimal, len(model.Categories)),
	}
	for _, expense := range expenses {
		totals.TotalSpent = totals.TotalSpent.Add(expense.Amount)
		totals.ByCategory[expense.Category] = totals.ByCategory[expense.Category].Add(expense.Amount)
	}
	return totals
}
