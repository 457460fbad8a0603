package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LimitBase selects the reference amount a percentage cap is computed
// against: the project budget, the spend so far, or what is left of the
// budget.
type LimitBase string

const (
	BaseBudget    LimitBase = "BUDGET"
	BaseSpent     LimitBase = "SPENT"
	BaseRemaining LimitBase = "REMAINING"
)

func (b LimitBase) Valid() bool {
	switch b {
	case BaseBudget, BaseSpent, BaseRemaining:
		return true
	}
	return false
}

// SpendingLimit caps one category's spend at a percentage of its base.
// At most one limit exists per (project, category, base); the schema
// enforces this with a unique index.
type SpendingLimit struct {
	ID         uuid.UUID
	ProjectID  uuid.UUID
	Category   ExpenseCategory
	Base       LimitBase
	Percentage decimal.Decimal
	Note       *string
	CreatedAt  time.Time
}
