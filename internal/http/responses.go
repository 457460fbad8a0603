package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/scuolahub/finance-service/internal/model"
)

// Money and percentages are rendered as fixed 2-decimal strings so repeated
// reads of an unchanged project are byte-identical.

type schoolResponse struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code,omitempty"`
}

type projectResponse struct {
	ID        string  `json:"id"`
	SchoolID  *string `json:"school_id,omitempty"`
	Title     string  `json:"title"`
	Program   string  `json:"program"`
	Status    string  `json:"status"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
	Budget    string  `json:"budget"`
	Spent     string  `json:"spent"`
	CUP       *string `json:"cup,omitempty"`
	CIG       *string `json:"cig,omitempty"`
}

type expenseResponse struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	Date      string  `json:"date"`
	Vendor    *string `json:"vendor,omitempty"`
	Category  string  `json:"category"`
	Amount    string  `json:"amount"`
	Document  *string `json:"document,omitempty"`
	Note      *string `json:"note,omitempty"`
	CreatedAt string  `json:"created_at"`
}

type limitResponse struct {
	ID         string  `json:"id"`
	ProjectID  string  `json:"project_id"`
	Category   string  `json:"category"`
	Base       string  `json:"base"`
	Percentage string  `json:"percentage"`
	Note       *string `json:"note,omitempty"`
	CreatedAt  string  `json:"created_at"`
}

type limitStatusResponse struct {
	Limit              limitResponse `json:"limit"`
	BaseAmount         string        `json:"base_amount"`
	AllowedAmount      string        `json:"allowed_amount"`
	ConsumedAmount     string        `json:"consumed_amount"`
	RemainingAmount    string        `json:"remaining_amount"`
	UtilizationPercent string        `json:"utilization_percent"`
	OverLimit          bool          `json:"over_limit"`
}

type financialsResponse struct {
	Project      projectResponse       `json:"project"`
	TotalSpent   string                `json:"total_spent"`
	Remaining    string                `json:"remaining"`
	PercentSpent string                `json:"percent_spent"`
	ByCategory   map[string]string     `json:"by_category"`
	Expenses     []expenseResponse     `json:"expenses"`
	Limits       []limitStatusResponse `json:"limits"`
}

type projectSummaryResponse struct {
	projectResponse
	PercentSpent string `json:"percent_spent"`
}

type projectTotalsResponse struct {
	Budget string `json:"budget"`
	Spent  string `json:"spent"`
}

type projectListResponse struct {
	School   *schoolResponse          `json:"school,omitempty"`
	Projects []projectSummaryResponse `json:"projects"`
	Totals   projectTotalsResponse    `json:"totals"`
}

func toProjectResponse(project model.Project) projectResponse {
	return projectResponse{
		ID:        project.ID.String(),
		SchoolID:  uuidString(project.SchoolID),
		Title:     project.Title,
		Program:   string(project.Program),
		Status:    string(project.Status),
		StartDate: dateString(project.StartDate),
		EndDate:   dateString(project.EndDate),
		Budget:    project.Budget.StringFixed(2),
		Spent:     project.Spent.StringFixed(2),
		CUP:       project.CUP,
		CIG:       project.CIG,
	}
}

func toExpenseResponse(expense model.Expense) expenseResponse {
	return expenseResponse{
		ID:        expense.ID.String(),
		ProjectID: expense.ProjectID.String(),
		Date:      expense.Date.Format("2006-01-02"),
		Vendor:    expense.Vendor,
		Category:  string(expense.Category),
		Amount:    expense.Amount.StringFixed(2),
		Document:  expense.Document,
		Note:      expense.Note,
		CreatedAt: expense.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toLimitResponse(limit model.SpendingLimit) limitResponse {
	return limitResponse{
		ID:         limit.ID.String(),
		ProjectID:  limit.ProjectID.String(),
		Category:   string(limit.Category),
		Base:       string(limit.Base),
		Percentage: limit.Percentage.StringFixed(2),
		Note:       limit.Note,
		CreatedAt:  limit.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toFinancialsResponse(financials model.ProjectFinancials) financialsResponse {
	byCategory := make(map[string]string, len(financials.ByCategory))
	for category, amount := range financials.ByCategory {
		byCategory[string(category)] = amount.StringFixed(2)
	}

	expenses := make([]expenseResponse, 0, len(financials.Expenses))
	for _, expense := range financials.Expenses {
		expenses = append(expenses, toExpenseResponse(expense))
	}

	limits := make([]limitStatusResponse, 0, len(financials.Limits))
	for _, status := range financials.Limits {
		limits = append(limits, limitStatusResponse{
			Limit:              toLimitResponse(status.Limit),
			BaseAmount:         status.BaseAmount.StringFixed(2),
			AllowedAmount:      status.AllowedAmount.StringFixed(2),
			ConsumedAmount:     status.ConsumedAmount.StringFixed(2),
			RemainingAmount:    status.RemainingAmount.StringFixed(2),
			UtilizationPercent: status.UtilizationPercent.StringFixed(2),
			OverLimit:          status.OverLimit(),
		})
	}

	return financialsResponse{
		Project:      toProjectResponse(financials.Project),
		TotalSpent:   financials.TotalSpent.StringFixed(2),
		Remaining:    financials.Remaining.StringFixed(2),
		PercentSpent: financials.PercentSpent.StringFixed(2),
		ByCategory:   byCategory,
		Expenses:     expenses,
		Limits:       limits,
	}
}

func toProjectListResponse(projects []model.ProjectSummary, totals model.ProjectTotals) projectListResponse {
	rows := make([]projectSummaryResponse, 0, len(projects))
	for _, summary := range projects {
		rows = append(rows, projectSummaryResponse{
			projectResponse: toProjectResponse(summary.Project),
			PercentSpent:    summary.PercentSpent.StringFixed(2),
		})
	}
	return projectListResponse{
		Projects: rows,
		Totals: projectTotalsResponse{
			Budget: totals.Budget.StringFixed(2),
			Spent:  totals.Spent.StringFixed(2),
		},
	}
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}
