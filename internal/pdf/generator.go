package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/scuolahub/finance-service/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() (*Generator, error) {
	return &Generator{fontName: "Helvetica"}, nil
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
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	project := financials.Project

	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, "Quadro economico del progetto", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, project.Title, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Programma %s - stato %s", project.Program, project.Status), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Indicatori", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Budget: %s", project.Budget.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Totale speso: %s", financials.TotalSpent.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Residuo: %s", financials.Remaining.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Percentuale spesa: %s%%", financials.PercentSpent.StringFixed(2)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Spesa per categoria", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	headers := []string{"Categoria", "Speso"}
	widths := []float64{90, 45}
	drawTableRow(pdf, g.fontName, headers, widths, true)
	for _, category := range model.Categories {
		row := []string{
			categoryLabels[category],
			financials.ByCategory[category].StringFixed(2),
		}
		drawTableRow(pdf, g.fontName, row, widths, false)
	}
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Limiti di spesa", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	limitHeaders := []string{"Categoria", "Base", "%", "Limite", "Consumato", "Residuo"}
	limitWidths := []float64{32, 32, 18, 32, 32, 32}
	drawTableRow(pdf, g.fontName, limitHeaders, limitWidths, true)
	for _, status := range financials.Limits {
		row := []string{
			categoryLabels[status.Limit.Category],
			baseLabels[status.Limit.Base],
			status.Limit.Percentage.StringFixed(2),
			status.AllowedAmount.StringFixed(2),
			status.ConsumedAmount.StringFixed(2),
			status.RemainingAmount.StringFixed(2),
		}
		drawTableRow(pdf, g.fontName, row, limitWidths, false)
	}

	overLimit := false
	for _, status := range financials.Limits {
		if status.OverLimit() {
			overLimit = true
			break
		}
	}
	if overLimit {
		pdf.Ln(2)
		pdf.SetTextColor(200, 0, 0)
		pdf.MultiCell(0, 6, "Attenzione: una o piu categorie superano il limite di spesa.", "", "L", false)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.Ln(4)
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Generato il %s", time.Now().Format("02.01.2006")), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 10)
	for i, col := range cols {
		align := "L"
		if i > 1 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}
