package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ExpenseCategory string

const (
	CategoryMaterials ExpenseCategory = "MATERIALS"
	CategoryServices  ExpenseCategory = "SERVICES"
	CategoryTraining  ExpenseCategory = "TRAINING"
	CategoryOther     ExpenseCategory = "OTHER"
)

// Categories lists the recognized expense categories in display order.
var Categories = []ExpenseCategory{
	CategoryMaterials,
	CategoryServices,
	CategoryTraining,
	CategoryOther,
}

func (c ExpenseCategory) Valid() bool {
	switch c {
	case CategoryMaterials, CategoryServices, CategoryTraining, CategoryOther:
		return true
	}
	return false
}

type Expense struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Date      time.Time
	Vendor    *string
	Category  ExpenseCategory
	Amount    decimal.Decimal
	Document  *string
	Note      *string
	CreatedAt time.Time
}
