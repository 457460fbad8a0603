package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/scuolahub/finance-service/internal/http/middleware"
	"github.com/scuolahub/finance-service/internal/model"
	"github.com/scuolahub/finance-service/internal/service"
)

type Handler struct {
	finance *service.FinanceService
	log     zerolog.Logger
}

func NewHandler(finance *service.FinanceService, log zerolog.Logger) *Handler {
	return &Handler{finance: finance, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/projects", h.listProjects)
	protected.GET("/schools/:id/projects", h.listProjectsBySchool)
	protected.GET("/projects/:id/financials", h.getFinancials)
	protected.GET("/projects/:id/financials/export", h.exportFinancials)
	protected.GET("/projects/:id/financials/export/pdf", h.exportFinancialsPDF)
	protected.POST("/projects/:id/expenses", h.recordExpense)
	protected.DELETE("/expenses/:id", h.deleteExpense)
	protected.POST("/projects/:id/limits", h.createLimit)
	protected.PUT("/projects/:id/limits", h.setLimit)
	protected.DELETE("/limits/:id", h.deleteLimit)
}

type recordExpenseRequest struct {
	Date     string  `json:"date"`
	Vendor   *string `json:"vendor"`
	Category string  `json:"category" binding:"required"`
	Amount   string  `json:"amount" binding:"required"`
	Document *string `json:"document"`
	Note     *string `json:"note"`
}

func (h *Handler) recordExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req recordExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid amount"})
		return
	}

	var date time.Time
	if req.Date != "" {
		date, err = parseDate(req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
	}

	expense, err := h.finance.RecordExpense(c.Request.Context(), service.RecordExpenseInput{
		ProjectID: projectID,
		Date:      date,
		Vendor:    req.Vendor,
		Category:  model.ExpenseCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		Amount:    amount,
		Document:  req.Document,
		Note:      req.Note,
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toExpenseResponse(*expense))
}

func (h *Handler) deleteExpense(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid expense id"})
		return
	}

	if err := h.finance.DeleteExpense(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type limitRequest struct {
	Category   string  `json:"category" binding:"required"`
	Base       string  `json:"base" binding:"required"`
	Percentage string  `json:"percentage" binding:"required"`
	Note       *string `json:"note"`
}

func (h *Handler) createLimit(c *gin.Context) {
	h.writeLimit(c, h.finance.CreateLimit, http.StatusCreated)
}

func (h *Handler) setLimit(c *gin.Context) {
	h.writeLimit(c, h.finance.SetLimit, http.StatusOK)
}

func (h *Handler) writeLimit(
	c *gin.Context,
	write func(ctx context.Context, input service.LimitInput) (*model.SpendingLimit, error),
	successStatus int,
) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	var req limitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	percentage, err := decimal.NewFromString(strings.TrimSpace(req.Percentage))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid percentage"})
		return
	}

	limit, err := write(c.Request.Context(), service.LimitInput{
		ProjectID:  projectID,
		Category:   model.ExpenseCategory(strings.ToUpper(strings.TrimSpace(req.Category))),
		Base:       model.LimitBase(strings.ToUpper(strings.TrimSpace(req.Base))),
		Percentage: percentage,
		Note:       req.Note,
		Principal:  principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(successStatus, toLimitResponse(*limit))
}

func (h *Handler) deleteLimit(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit id"})
		return
	}

	if err := h.finance.DeleteLimit(c.Request.Context(), id, principal); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) getFinancials(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	financials, err := h.finance.GetProjectFinancials(c.Request.Context(), projectID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toFinancialsResponse(*financials))
}

func (h *Handler) listProjects(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	list, err := h.finance.ListProjects(c.Request.Context(), service.ProjectListInput{
		Query:     c.Query("q"),
		Program:   c.Query("program"),
		Status:    c.Query("status"),
		Principal: principal,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProjectListResponse(list.Projects, list.Totals))
}

func (h *Handler) listProjectsBySchool(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	schoolID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid school id"})
		return
	}

	result, err := h.finance.ListProjectsBySchool(c.Request.Context(), schoolID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response := toProjectListResponse(result.Projects, result.Totals)
	response.School = &schoolResponse{
		ID:   result.School.ID.String(),
		Name: result.School.Name,
		Code: result.School.Code,
	}
	c.JSON(http.StatusOK, response)
}

func (h *Handler) exportFinancials(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	result, err := h.finance.ExportFinancials(c.Request.Context(), projectID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	const contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentType, result.Content)
}

func (h *Handler) exportFinancialsPDF(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}

	projectID, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project id"})
		return
	}

	result, err := h.finance.ExportFinancialsPDF(c.Request.Context(), projectID, principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, "application/pdf", result.Content)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPercentage),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateLimit):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func parseID(raw string) (uuid.UUID, error) {
	return uuid.Parse(strings.TrimSpace(raw))
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
