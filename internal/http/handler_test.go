package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/scuolahub/finance-service/internal/finance"
	"github.com/scuolahub/finance-service/internal/model"
	"github.com/scuolahub/finance-service/internal/repository"
	"github.com/scuolahub/finance-service/internal/service"
)

// fakeStore backs the handler tests with repository semantics in memory.
type fakeStore struct {
	mu       sync.Mutex
	projects map[uuid.UUID]*model.Project
	expenses []model.Expense
	limits   []model.SpendingLimit
}

func newFakeStore() *fakeStore {
	return &fakeStore{projects: make(map[uuid.UUID]*model.Project)}
}

func (f *fakeStore) addProject(budget string) uuid.UUID {
	id := uuid.New()
	f.projects[id] = &model.Project{
		ID:      id,
		Title:   "Laboratorio STEM",
		Program: model.ProgramPNRR,
		Status:  model.ProjectStatusActive,
		Budget:  decimal.RequireFromString(budget),
		Spent:   decimal.Zero,
	}
	return id
}

func (f *fakeStore) GetProject(_ context.Context, id uuid.UUID) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	project, ok := f.projects[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *project
	return &copied, nil
}

func (f *fakeStore) GetSchool(context.Context, uuid.UUID) (*model.School, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) ListProjects(context.Context, repository.ProjectFilter) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var projects []model.Project
	for _, project := range f.projects {
		projects = append(projects, *project)
	}
	return projects, nil
}

func (f *fakeStore) ProjectTotals(context.Context, repository.ProjectFilter) (model.ProjectTotals, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	totals := model.ProjectTotals{Budget: decimal.Zero, Spent: decimal.Zero}
	for _, project := range f.projects {
		totals.Budget = totals.Budget.Add(project.Budget)
		totals.Spent = totals.Spent.Add(project.Spent)
	}
	return totals, nil
}

func (f *fakeStore) ListExpenses(_ context.Context, projectID uuid.UUID) ([]model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var expenses []model.Expense
	for _, expense := range f.expenses {
		if expense.ProjectID == projectID {
			expenses = append(expenses, expense)
		}
	}
	return expenses, nil
}

func (f *fakeStore) GetExpense(_ context.Context, id uuid.UUID) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, expense := range f.expenses {
		if expense.ID == id {
			copied := expense
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateExpense(_ context.Context, expense model.Expense) (*model.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.projects[expense.ProjectID]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	expense.ID = uuid.New()
	f.expenses = append(f.expenses, expense)
	f.refreshSpent(expense.ProjectID)
	return &expense, nil
}

func (f *fakeStore) DeleteExpense(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, expense := range f.expenses {
		if expense.ID == id {
			f.expenses = append(f.expenses[:i], f.expenses[i+1:]...)
			f.refreshSpent(expense.ProjectID)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeStore) refreshSpent(projectID uuid.UUID) {
	var expenses []model.Expense
	for _, expense := range f.expenses {
		if expense.ProjectID == projectID {
			expenses = append(expenses, expense)
		}
	}
	f.projects[projectID].Spent = finance.Aggregate(expenses).TotalSpent
}

func (f *fakeStore) ListLimits(_ context.Context, projectID uuid.UUID) ([]model.SpendingLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var limits []model.SpendingLimit
	for _, limit := range f.limits {
		if limit.ProjectID == projectID {
			limits = append(limits, limit)
		}
	}
	return limits, nil
}

func (f *fakeStore) GetLimit(_ context.Context, id uuid.UUID) (*model.SpendingLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, limit := range f.limits {
		if limit.ID == id {
			copied := limit
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeStore) CreateLimit(_ context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.limits {
		if existing.ProjectID == limit.ProjectID && existing.Category == limit.Category && existing.Base == limit.Base {
			return nil, repository.ErrDuplicateKey
		}
	}
	limit.ID = uuid.New()
	f.limits = append(f.limits, limit)
	return &limit, nil
}

func (f *fakeStore) UpsertLimit(_ context.Context, limit model.SpendingLimit) (*model.SpendingLimit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.limits {
		if existing.ProjectID == limit.ProjectID && existing.Category == limit.Category && existing.Base == limit.Base {
			f.limits[i].Percentage = limit.Percentage
			f.limits[i].Note = limit.Note
			copied := f.limits[i]
			return &copied, nil
		}
	}
	limit.ID = uuid.New()
	f.limits = append(f.limits, limit)
	return &limit, nil
}

func (f *fakeStore) DeleteLimit(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, limit := range f.limits {
		if limit.ID == id {
			f.limits = append(f.limits[:i], f.limits[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubGenerator struct{}

func (stubGenerator) Generate(model.ProjectFinancials) ([]byte, error) {
	return []byte("export"), nil
}

func newTestRouter(store *fakeStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	svc := service.NewFinanceService(store, store, stubGenerator{}, stubGenerator{})
	handler := NewHandler(svc, zerolog.Nop())

	principal := model.Principal{UserID: uuid.New(), Role: model.RoleAdmin}
	stubAuth := func(c *gin.Context) {
		c.Set("principal", principal)
		c.Next()
	}

	router := gin.New()
	handler.Register(router, stubAuth)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRecordExpenseEndpoint(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)

	recorder := doJSON(t, router, http.MethodPost, "/projects/"+projectID.String()+"/expenses", gin.H{
		"category": "materials",
		"amount":   "300.00",
		"date":     "2026-02-10",
		"vendor":   "Cartoleria Rossi",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "300.00", response["amount"])
	assert.Equal(t, "MATERIALS", response["category"])
	assert.Equal(t, "2026-02-10", response["date"])

	assert.Equal(t, "300.00", store.projects[projectID].Spent.StringFixed(2))
}

func TestRecordExpenseEndpointRejectsBadInput(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)
	path := "/projects/" + projectID.String() + "/expenses"

	tests := []struct {
		name string
		body gin.H
		code int
	}{
		{name: "non-numeric amount", body: gin.H{"category": "MATERIALS", "amount": "abc"}, code: http.StatusBadRequest},
		{name: "negative amount", body: gin.H{"category": "MATERIALS", "amount": "-5.00"}, code: http.StatusBadRequest},
		{name: "unknown category", body: gin.H{"category": "FURNITURE", "amount": "5.00"}, code: http.StatusBadRequest},
		{name: "missing amount", body: gin.H{"category": "MATERIALS"}, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := doJSON(t, router, http.MethodPost, path, tt.body)
			assert.Equal(t, tt.code, recorder.Code)
		})
	}

	assert.Empty(t, store.expenses)
}

func TestRecordExpenseEndpointUnknownProject(t *testing.T) {
	store := newFakeStore()
	router := newTestRouter(store)

	recorder := doJSON(t, router, http.MethodPost, "/projects/"+uuid.NewString()+"/expenses", gin.H{
		"category": "MATERIALS",
		"amount":   "5.00",
	})
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestLimitEndpoints(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)
	path := "/projects/" + projectID.String() + "/limits"

	body := gin.H{"category": "MATERIALS", "base": "BUDGET", "percentage": "25"}

	recorder := doJSON(t, router, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	// second create on the same triple conflicts
	recorder = doJSON(t, router, http.MethodPost, path, body)
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// PUT updates in place
	body["percentage"] = "40"
	recorder = doJSON(t, router, http.MethodPut, path, body)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "40.00", response["percentage"])
	assert.Len(t, store.limits, 1)

	// invalid percentage
	recorder = doJSON(t, router, http.MethodPut, path, gin.H{"category": "MATERIALS", "base": "BUDGET", "percentage": "140"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestGetFinancialsEndpoint(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)

	recorder := doJSON(t, router, http.MethodPost, "/projects/"+projectID.String()+"/expenses", gin.H{
		"category": "MATERIALS",
		"amount":   "300.00",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, "/projects/"+projectID.String()+"/limits", gin.H{
		"category":   "MATERIALS",
		"base":       "BUDGET",
		"percentage": "25",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = doJSON(t, router, http.MethodGet, "/projects/"+projectID.String()+"/financials", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response financialsResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, "300.00", response.TotalSpent)
	assert.Equal(t, "700.00", response.Remaining)
	assert.Equal(t, "300.00", response.ByCategory["MATERIALS"])
	assert.Equal(t, "0.00", response.ByCategory["SERVICES"])
	require.Len(t, response.Limits, 1)
	assert.Equal(t, "250.00", response.Limits[0].AllowedAmount)
	assert.Equal(t, "-50.00", response.Limits[0].RemainingAmount)
	assert.Equal(t, "100.00", response.Limits[0].UtilizationPercent)
	assert.True(t, response.Limits[0].OverLimit)
}

func TestDeleteEndpoints(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)

	recorder := doJSON(t, router, http.MethodPost, "/projects/"+projectID.String()+"/expenses", gin.H{
		"category": "SERVICES",
		"amount":   "50.00",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var created map[string]interface{}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	expenseID := created["id"].(string)

	recorder = doJSON(t, router, http.MethodDelete, "/expenses/"+expenseID, nil)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "0.00", store.projects[projectID].Spent.StringFixed(2))

	recorder = doJSON(t, router, http.MethodDelete, "/expenses/"+expenseID, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	recorder = doJSON(t, router, http.MethodDelete, "/limits/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestExportEndpoint(t *testing.T) {
	store := newFakeStore()
	projectID := store.addProject("1000.00")
	router := newTestRouter(store)

	recorder := doJSON(t, router, http.MethodGet, "/projects/"+projectID.String()+"/financials/export", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), ".xlsx")
	assert.Equal(t, "export", recorder.Body.String())
}
