package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/scuolahub/finance-service/internal/finance"
	"github.com/scuolahub/finance-service/internal/model"
	"github.com/scuolahub/finance-service/internal/repository"
)

// ProjectStore is the read side of the project ledger.
type ProjectStore interface {
	GetProject(ctx context.Context, id uuid.UUID) (*model.Project, error)
	GetSchool(ctx context.Context, id uuid.UUID) (*model.School, error)
	ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]model.Project, error)
	ProjectTotals(ctx context.Context, filter repository.ProjectFilter) (model.ProjectTotals, error)
}

// LedgerStore owns expense and spending-limit rows. Its write methods are
// transactional: expense mutations also refresh the owning project's cached
// spend, and either everything commits or nothing does.
type LedgerStore interface {
	ListExpenses(ctx context.Context, projectID uuid.UUID) ([]model.Expense, error)
	GetExpense(ctx context.Context, id uuid.UUID) (*model.Expense, error)
	CreateExpense(ctx context.Context, expense model.Expense) (*model.Expense, error)
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	ListLimits(ctx context.Context, projectID uuid.UUID) ([]model.SpendingLimit, error)
	GetLimit(ctx context.Context, id uuid.UUID) (*model.SpendingLimit, error)
	CreateLimit(ctx context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error)
	UpsertLimit(ctx context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error)
	DeleteLimit(ctx context.Context, id uuid.UUID) error
}

type ExcelGenerator interface {
	Generate(financials model.ProjectFinancials) ([]byte, error)
}

type PDFGenerator interface {
	Generate(financials model.ProjectFinancials) ([]byte, error)
}

type FinanceService struct {
	projects ProjectStore
	ledger   LedgerStore
	excel    ExcelGenerator
	pdf      PDFGenerator
}

func NewFinanceService(projects ProjectStore, ledger LedgerStore, excel ExcelGenerator, pdf PDFGenerator) *FinanceService {
	return &FinanceService{
		projects: projects,
		ledger:   ledger,
		excel:    excel,
		pdf:      pdf,
	}
}

type RecordExpenseInput struct {
	ProjectID uuid.UUID
	Date      time.Time
	Vendor    *string
	Category  model.ExpenseCategory
	Amount    decimal.Decimal
	Document  *string
	Note      *string
	Principal model.Principal
}

// RecordExpense validates and stores one expense. The owning project's
// cached spend is refreshed inside the same store transaction; a failure
// there rolls the insert back and surfaces as ErrRecompute.
func (s *FinanceService) RecordExpense(ctx context.Context, input RecordExpenseInput) (*model.Expense, error) {
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if input.Amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount must not be negative", ErrInvalidAmount)
	}

	date := dateOnly(input.Date)
	if date.IsZero() {
		date = dateOnly(time.Now())
	}

	if _, err := s.visibleProject(ctx, input.ProjectID, input.Principal); err != nil {
		return nil, err
	}

	saved, err := s.ledger.CreateExpense(ctx, model.Expense{
		ProjectID: input.ProjectID,
		Date:      date,
		Vendor:    input.Vendor,
		Category:  input.Category,
		Amount:    input.Amount.Round(2),
		Document:  input.Document,
		Note:      input.Note,
	})
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRecompute, err)
	}
	return saved, nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	expense, err := s.ledger.GetExpense(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.visibleProject(ctx, expense.ProjectID, principal); err != nil {
		return err
	}

	if err := s.ledger.DeleteExpense(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return fmt.Errorf("%w: %v", ErrRecompute, err)
	}
	return nil
}

type LimitInput struct {
	ProjectID  uuid.UUID
	Category   model.ExpenseCategory
	Base       model.LimitBase
	Percentage decimal.Decimal
	Note       *string
	Principal  model.Principal
}

// CreateLimit inserts a new cap and fails with ErrDuplicateLimit when one
// already exists for the (project, category, base) triple.
func (s *FinanceService) CreateLimit(ctx context.Context, input LimitInput) (*model.SpendingLimit, error) {
	limit, err := s.validateLimit(ctx, input)
	if err != nil {
		return nil, err
	}

	saved, err := s.ledger.CreateLimit(ctx, *limit)
	if err != nil {
		if err == repository.ErrDuplicateKey {
			return nil, ErrDuplicateLimit
		}
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return saved, nil
}

// SetLimit sets the cap for a (project, category, base) triple, creating it
// when absent and updating percentage and note in place otherwise.
func (s *FinanceService) SetLimit(ctx context.Context, input LimitInput) (*model.SpendingLimit, error) {
	limit, err := s.validateLimit(ctx, input)
	if err != nil {
		return nil, err
	}

	saved, err := s.ledger.UpsertLimit(ctx, *limit)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return saved, nil
}

func (s *FinanceService) DeleteLimit(ctx context.Context, id uuid.UUID, principal model.Principal) error {
	limit, err := s.ledger.GetLimit(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	if _, err := s.visibleProject(ctx, limit.ProjectID, principal); err != nil {
		return err
	}

	if err := s.ledger.DeleteLimit(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// GetProjectFinancials builds the read-side snapshot: totals aggregated from
// the authoritative expense rows plus every limit evaluated against them.
// It performs no writes.
func (s *FinanceService) GetProjectFinancials(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*model.ProjectFinancials, error) {
	project, err := s.visibleProject(ctx, projectID, principal)
	if err != nil {
		return nil, err
	}

	expenses, err := s.ledger.ListExpenses(ctx, projectID)
	if err != nil {
		return nil, err
	}
	limits, err := s.ledger.ListLimits(ctx, projectID)
	if err != nil {
		return nil, err
	}

	totals := finance.Aggregate(expenses)

	byCategory := make(map[model.ExpenseCategory]decimal.Decimal, len(model.Categories))
	for _, category := range model.Categories {
		byCategory[category] = totals.Spent(category)
	}

	statuses := make([]model.LimitStatus, 0, len(limits))
	for _, limit := range limits {
		statuses = append(statuses, finance.EvaluateLimit(limit, project.Budget, totals))
	}

	percentSpent := decimal.Zero
	if project.Budget.Sign() > 0 {
		percentSpent = totals.TotalSpent.Mul(decimal.NewFromInt(100)).DivRound(project.Budget, 2)
	}

	return &model.ProjectFinancials{
		Project:      *project,
		TotalSpent:   totals.TotalSpent,
		Remaining:    project.Budget.Sub(totals.TotalSpent),
		PercentSpent: percentSpent,
		ByCategory:   byCategory,
		Expenses:     expenses,
		Limits:       statuses,
	}, nil
}

type ProjectListInput struct {
	Query     string
	Program   string
	Status    string
	Principal model.Principal
}

type ProjectList struct {
	Projects []model.ProjectSummary
	Totals   model.ProjectTotals
}

// ListProjects returns the filtered project rows with their spend KPIs plus
// aggregate totals. Staff principals are confined to their own school.
func (s *FinanceService) ListProjects(ctx context.Context, input ProjectListInput) (*ProjectList, error) {
	filter := repository.ProjectFilter{
		Query:   strings.TrimSpace(input.Query),
		Program: strings.TrimSpace(input.Program),
		Status:  strings.TrimSpace(input.Status),
	}
	if !input.Principal.IsAdmin() {
		filter.SchoolID = input.Principal.SchoolID
	}

	projects, err := s.projects.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.projects.ProjectTotals(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summaries = append(summaries, model.ProjectSummary{
			Project:      project,
			PercentSpent: project.PercentSpent(),
		})
	}

	return &ProjectList{Projects: summaries, Totals: totals}, nil
}

type SchoolProjects struct {
	School   model.School
	Projects []model.ProjectSummary
	Totals   model.ProjectTotals
}

func (s *FinanceService) ListProjectsBySchool(ctx context.Context, schoolID uuid.UUID, principal model.Principal) (*SchoolProjects, error) {
	if !principal.IsAdmin() && principal.SchoolID != nil && *principal.SchoolID != schoolID {
		return nil, ErrNotFound
	}

	school, err := s.projects.GetSchool(ctx, schoolID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}

	filter := repository.ProjectFilter{SchoolID: &schoolID}
	projects, err := s.projects.ListProjects(ctx, filter)
	if err != nil {
		return nil, err
	}
	totals, err := s.projects.ProjectTotals(ctx, filter)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ProjectSummary, 0, len(projects))
	for _, project := range projects {
		summaries = append(summaries, model.ProjectSummary{
			Project:      project,
			PercentSpent: project.PercentSpent(),
		})
	}

	return &SchoolProjects{School: *school, Projects: summaries, Totals: totals}, nil
}

type ExportResult struct {
	FileName string
	Content  []byte
}

func (s *FinanceService) ExportFinancials(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	financials, err := s.GetProjectFinancials(ctx, projectID, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.excel.Generate(*financials)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(financials.Project, "xlsx"),
		Content:  content,
	}, nil
}

func (s *FinanceService) ExportFinancialsPDF(ctx context.Context, projectID uuid.UUID, principal model.Principal) (*ExportResult, error) {
	financials, err := s.GetProjectFinancials(ctx, projectID, principal)
	if err != nil {
		return nil, err
	}
	content, err := s.pdf.Generate(*financials)
	if err != nil {
		return nil, err
	}
	return &ExportResult{
		FileName: buildFileName(financials.Project, "pdf"),
		Content:  content,
	}, nil
}

func (s *FinanceService) validateLimit(ctx context.Context, input LimitInput) (*model.SpendingLimit, error) {
	if input.ProjectID == uuid.Nil {
		return nil, fmt.Errorf("%w: project_id is required", ErrInvalidInput)
	}
	if !input.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, input.Category)
	}
	if !input.Base.Valid() {
		return nil, fmt.Errorf("%w: unknown base %q", ErrInvalidInput, input.Base)
	}
	if input.Percentage.Sign() < 0 || input.Percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrInvalidPercentage)
	}

	if _, err := s.visibleProject(ctx, input.ProjectID, input.Principal); err != nil {
		return nil, err
	}

	return &model.SpendingLimit{
		ProjectID:  input.ProjectID,
		Category:   input.Category,
		Base:       input.Base,
		Percentage: input.Percentage.Round(2),
		Note:       input.Note,
	}, nil
}

// visibleProject loads a project and applies school scoping. A project the
// principal may not see reports ErrNotFound rather than leaking existence.
func (s *FinanceService) visibleProject(ctx context.Context, id uuid.UUID, principal model.Principal) (*model.Project, error) {
	project, err := s.projects.GetProject(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !principal.CanAccess(*project) {
		return nil, ErrNotFound
	}
	return project, nil
}

func buildFileName(project model.Project, ext string) string {
	name := sanitizeFileName(project.Title)
	if name == "" {
		name = project.ID.String()
	}
	return fmt.Sprintf("progetto-%s-%s.%s", name, time.Now().Format("20060102"), ext)
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sanitizeFileName(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z':
			result = append(result, r)
		case r >= 'A' && r <= 'Z':
			result = append(result, r)
		case r >= '0' && r <= '9':
			result = append(result, r)
		case r == '-', r == '_':
			result = append(result, r)
		default:
			result = append(result, '-')
		}
	}
	return strings.Trim(string(result), "-")
}
