package finance

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scuolahub/finance-service/internal/model"
)

func expense(category model.ExpenseCategory, amount string) model.Expense {
	return model.Expense{
		ID:        uuid.New(),
		ProjectID: uuid.New(),
		Category:  category,
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name       string
		expenses   []model.Expense
		total      string
		byCategory map[model.ExpenseCategory]string
	}{
		{
			name:       "empty set yields zero totals",
			expenses:   nil,
			total:      "0.00",
			byCategory: map[model.ExpenseCategory]string{},
		},
		{
			name: "single expense",
			expenses: []model.Expense{
				expense(model.CategoryMaterials, "300.00"),
			},
			total: "300.00",
			byCategory: map[model.ExpenseCategory]string{
				model.CategoryMaterials: "300.00",
			},
		},
		{
			name: "mixed categories",
			expenses: []model.Expense{
				expense(model.CategoryMaterials, "100.50"),
				expense(model.CategoryMaterials, "200.25"),
				expense(model.CategoryServices, "50.00"),
				expense(model.CategoryOther, "0.01"),
			},
			total: "350.76",
			byCategory: map[model.ExpenseCategory]string{
				model.CategoryMaterials: "300.75",
				model.CategoryServices:  "50.00",
				model.CategoryOther:     "0.01",
			},
		},
		{
			name: "cent amounts sum exactly",
			expenses: []model.Expense{
				expense(model.CategoryTraining, "0.10"),
				expense(model.CategoryTraining, "0.20"),
				expense(model.CategoryTraining, "0.30"),
			},
			total: "0.60",
			byCategory: map[model.ExpenseCategory]string{
				model.CategoryTraining: "0.60",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := Aggregate(tt.expenses)

			assert.Equal(t, tt.total, totals.TotalSpent.StringFixed(2))
			for category, expected := range tt.byCategory {
				assert.Equal(t, expected, totals.Spent(category).StringFixed(2), "category %s", category)
			}
		})
	}
}

func TestTotalsSpentAbsentCategory(t *testing.T) {
	totals := Aggregate([]model.Expense{expense(model.CategoryMaterials, "10.00")})

	got := totals.Spent(model.CategoryServices)
	require.True(t, got.IsZero())
}

func TestAggregateDeterministic(t *testing.T) {
	expenses := []model.Expense{
		expense(model.CategoryMaterials, "123.45"),
		expense(model.CategoryServices, "67.89"),
	}

	first := Aggregate(expenses)
	second := Aggregate(expenses)

	assert.True(t, first.TotalSpent.Equal(second.TotalSpent))
	assert.Equal(t, len(first.ByCategory), len(second.ByCategory))
}
