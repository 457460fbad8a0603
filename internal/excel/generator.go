package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/scuolahub/finance-service/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

var categoryLabels = map[model.ExpenseCategory]string{
	model.CategoryMaterials: "Materiali",
	model.CategoryServices:  "Servizi",
	model.CategoryTraining:  "Formazione",
	model.CategoryOther:     "Altro",
}

var baseLabels = map[model.LimitBase]string{
	model.BaseBudget:    "Budget",
	model.BaseSpent:     "Speso attuale",
	model.BaseRemaining: "Residuo",
}

func (g *Generator) Generate(financials model.ProjectFinancials) ([]byte, error) {
	file := excelize.NewFile()

	summarySheet := "Riepilogo"
	file.SetSheetName("Sheet1", summarySheet)
	if err := g.writeSummary(file, summarySheet, financials); err != nil {
		return nil, err
	}

	expenseSheet := "Spese"
	file.NewSheet(expenseSheet)
	if err := g.writeExpenses(file, expenseSheet, financials.Expenses); err != nil {
		return nil, err
	}

	limitSheet := "Limiti di spesa"
	file.NewSheet(limitSheet)
	if err := g.writeLimits(file, limitSheet, financials.Limits); err != nil {
		return nil, err
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, financials model.ProjectFinancials) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	project := financials.Project
	set("A1", "Progetto")
	set("B1", project.Title)
	set("A2", "Programma")
	set("B2", string(project.Program))
	set("A3", "Stato")
	set("B3", string(project.Status))
	set("A4", "Budget")
	set("B4", project.Budget.StringFixed(2))
	set("A5", "Totale speso")
	set("B5", financials.TotalSpent.StringFixed(2))
	set("A6", "Residuo")
	set("B6", financials.Remaining.StringFixed(2))
	set("A7", "% spesa")
	set("B7", financials.PercentSpent.StringFixed(2))

	tableRow := 9
	set(fmt.Sprintf("A%d", tableRow), "Categoria")
	set(fmt.Sprintf("B%d", tableRow), "Speso")

	for i, category := range model.Categories {
		row := tableRow + 1 + i
		set(fmt.Sprintf("A%d", row), categoryLabels[category])
		set(fmt.Sprintf("B%d", row), financials.ByCategory[category].StringFixed(2))
	}

	_ = file.SetColWidth(sheet, "A", "A", 30)
	_ = file.SetColWidth(sheet, "B", "B", 20)
	return nil
}

func (g *Generator) writeExpenses(file *excelize.File, sheet string, expenses []model.Expense) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Data", "Fornitore", "Categoria", "Importo", "Documento", "Note"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, expense := range expenses {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), formatDate(expense.Date))
		set(fmt.Sprintf("B%d", row), formatString(expense.Vendor))
		set(fmt.Sprintf("C%d", row), categoryLabels[expense.Category])
		set(fmt.Sprintf("D%d", row), expense.Amount.StringFixed(2))
		set(fmt.Sprintf("E%d", row), formatString(expense.Document))
		set(fmt.Sprintf("F%d", row), formatString(expense.Note))
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "B", 32)
	_ = file.SetColWidth(sheet, "C", "C", 14)
	_ = file.SetColWidth(sheet, "D", "D", 12)
	_ = file.SetColWidth(sheet, "E", "F", 32)
	return nil
}

func (g *Generator) writeLimits(file *excelize.File, sheet string, limits []model.LimitStatus) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{
		"Categoria",
		"Base",
		"Percentuale",
		"Importo base",
		"Limite",
		"Consumato",
		"Residuo",
		"Utilizzo %",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}

	for i, status := range limits {
		row := 2 + i
		set(fmt.Sprintf("A%d", row), categoryLabels[status.Limit.Category])
		set(fmt.Sprintf("B%d", row), baseLabels[status.Limit.Base])
		set(fmt.Sprintf("C%d", row), status.Limit.Percentage.StringFixed(2))
		set(fmt.Sprintf("D%d", row), status.BaseAmount.StringFixed(2))
		set(fmt.Sprintf("E%d", row), status.AllowedAmount.StringFixed(2))
		set(fmt.Sprintf("F%d", row), status.ConsumedAmount.StringFixed(2))
		set(fmt.Sprintf("G%d", row), status.RemainingAmount.StringFixed(2))
		set(fmt.Sprintf("H%d", row), status.UtilizationPercent.StringFixed(2))
	}

	_ = file.SetColWidth(sheet, "A", "B", 18)
	_ = file.SetColWidth(sheet, "C", "H", 14)
	return nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
