package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Program string

const (
	ProgramPNRR    Program = "PNRR"
	ProgramFESR    Program = "FESR"
	ProgramFSE     Program = "FSE"
	ProgramErasmus Program = "ERASMUS"
	ProgramOther   Program = "ALTRO"
)

type ProjectStatus string

const (
	ProjectStatusDraft  ProjectStatus = "DRAFT"
	ProjectStatusActive ProjectStatus = "ACTIVE"
	ProjectStatusClosed ProjectStatus = "CLOSED"
)

type School struct {
	ID   uuid.UUID
	Name string
	Code *string
}

type Project struct {
	ID        uuid.UUID
	SchoolID  *uuid.UUID
	Title     string
	Program   Program
	Status    ProjectStatus
	StartDate *time.Time
	EndDate   *time.Time
	Budget    decimal.Decimal
	// Spent caches the sum of the project's expenses. It is written only by
	// the transactional expense paths in the repository.
	Spent decimal.Decimal
	CUP   *string
	CIG   *string
}

// Remaining is budget minus cumulative spend; negative when overspent.
func (p Project) Remaining() decimal.Decimal {
	return p.Budget.Sub(p.Spent)
}

// PercentSpent reports spend as a percentage of budget, 0 when there is no
// budget to measure against.
func (p Project) PercentSpent() decimal.Decimal {
	if p.Budget.Sign() <= 0 {
		return decimal.Zero
	}
	return p.Spent.Mul(decimal.NewFromInt(100)).DivRound(p.Budget, 2)
}
