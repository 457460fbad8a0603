package model

import "github.com/shopspring/decimal"

// LimitStatus is one evaluated spending limit: the resolved base, the cap
// it yields, and how much of the cap the category has consumed.
// RemainingAmount goes negative when the category is over its cap; callers
// surface that, the engine does not clamp it.
type LimitStatus struct {
	Limit              SpendingLimit
	BaseAmount         decimal.Decimal
	AllowedAmount      decimal.Decimal
	ConsumedAmount     decimal.Decimal
	RemainingAmount    decimal.Decimal
	UtilizationPercent decimal.Decimal
}

func (s LimitStatus) OverLimit() bool {
	return s.RemainingAmount.Sign() < 0
}

// ProjectFinancials is the read-side snapshot of a project: KPIs computed
// from the authoritative expense set plus every limit evaluated against it.
type ProjectFinancials struct {
	Project      Project
	TotalSpent   decimal.Decimal
	Remaining    decimal.Decimal
	PercentSpent decimal.Decimal
	ByCategory   map[ExpenseCategory]decimal.Decimal
	Expenses     []Expense
	Limits       []LimitStatus
}

// ProjectSummary is one row of a project listing with its spend KPI.
type ProjectSummary struct {
	Project      Project
	PercentSpent decimal.Decimal
}

// ProjectTotals aggregates budget and spend over a set of projects.
type ProjectTotals struct {
	Budget decimal.Decimal
	Spent  decimal.Decimal
}
