package handlers

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"budgettracker/models"
	"budgettracker/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateExpense(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 1000)

	e := api.createExpense(t, api.stranger, p.ID, 450)
	assert.Equal(t, p.ID, e.ProjectID)
	assert.Equal(t, "Site vitrine", e.ProjectName)
	assert.Equal(t, api.stranger.ID, e.CreatedByUserID)
	assert.Equal(t, "Stranger", e.CreatedByUserName)
	assert.Equal(t, "stranger@selego.co", e.CreatedByUserEmail)

	checks := api.dispatcher.checks
	require.Len(t, checks, 1)
	assert.Equal(t, p.ID, checks[0].ProjectID)
	assert.Equal(t, queue.ReasonExpenseCreated, checks[0].Reason)
}

func TestCreateExpenseValidation(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 1000)

	tests := []struct {
		name     string
		body     map[string]any
		status   int
		wantCode string
	}{
		{"missing project", map[string]any{"amount": 10}, http.StatusBadRequest, "PROJECT_ID_REQUIRED"},
		{"missing amount", map[string]any{"project_id": p.ID}, http.StatusBadRequest, "VALID_AMOUNT_REQUIRED"},
		{"zero amount", map[string]any{"project_id": p.ID, "amount": 0}, http.StatusBadRequest, "VALID_AMOUNT_REQUIRED"},
		{"negative amount", map[string]any{"project_id": p.ID, "amount": -5}, http.StatusBadRequest, "VALID_AMOUNT_REQUIRED"},
		{"unknown category", map[string]any{"project_id": p.ID, "amount": 5, "category": "Food"}, http.StatusBadRequest, "INVALID_CATEGORY"},
		{"unknown project", map[string]any{"project_id": "nope", "amount": 5}, http.StatusNotFound, "PROJECT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := api.do(t, http.MethodPost, "/expense", tt.body, api.owner)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
	assert.Empty(t, api.dispatcher.reasons())
}

func TestUpdateExpense(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 1000)
	e := api.createExpense(t, api.owner, p.ID, 100)

	rec, resp := api.do(t, http.MethodPut, "/expense/"+e.ID, map[string]any{"category": "Marketing"}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Expense
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, models.CategoryMarketing, got.Category)
	assert.Equal(t, 100.0, got.Amount)
	assert.Equal(t, []queue.Reason{queue.ReasonExpenseCreated}, api.dispatcher.reasons())

	rec, _ = api.do(t, http.MethodPut, "/expense/"+e.ID, map[string]any{"amount": 900}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []queue.Reason{queue.ReasonExpenseCreated, queue.ReasonExpenseUpdated}, api.dispatcher.reasons())

	rec, resp = api.do(t, http.MethodPut, "/expense/"+e.ID, map[string]any{"amount": -1}, api.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALID_AMOUNT_REQUIRED", resp.Code)

	rec, resp = api.do(t, http.MethodPut, "/expense/"+e.ID, map[string]any{"category": "Food"}, api.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CATEGORY", resp.Code)
}

func TestExpenseWritesRequireCreatorOrAdmin(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 1000)
	e := api.createExpense(t, api.owner, p.ID, 100)

	rec, resp := api.do(t, http.MethodPut, "/expense/"+e.ID, map[string]any{"amount": 1}, api.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Code)

	rec, _ = api.do(t, http.MethodDelete, "/expense/"+e.ID, nil, api.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = api.do(t, http.MethodDelete, "/expense/"+e.ID, nil, api.admin)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = api.do(t, http.MethodGet, "/expense/"+e.ID, nil, api.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "EXPENSE_NOT_FOUND", resp.Code)
}

func TestSearchExpenses(t *testing.T) {
	api := newTestAPI(t)
	p1 := api.createProject(t, api.owner, "Site vitrine", 1000)
	p2 := api.createProject(t, api.owner, "Campagne", 1000)
	api.createExpense(t, api.owner, p1.ID, 10)
	api.createExpense(t, api.stranger, p1.ID, 20)
	api.createExpense(t, api.owner, p2.ID, 30)

	var expenses []models.Expense
	_, resp := api.do(t, http.MethodPost, "/expense/search", map[string]any{"project_id": p1.ID}, api.owner)
	require.NoError(t, json.Unmarshal(resp.Data, &expenses))
	require.Len(t, expenses, 2)
	assert.Equal(t, 20.0, expenses[0].Amount, "newest first")

	_, resp = api.do(t, http.MethodPost, "/expense/search", map[string]any{"created_by_user_id": api.owner.ID}, api.owner)
	require.NoError(t, json.Unmarshal(resp.Data, &expenses))
	assert.Len(t, expenses, 2)
}

func TestCategorizeEndpoint(t *testing.T) {
	api := newTestAPI(t)

	rec, resp := api.do(t, http.MethodPost, "/expense/categorize", map[string]any{"description": "Maquettes Figma"}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"category":"Design"}`, string(resp.Data))

	rec, resp = api.do(t, http.MethodPost, "/expense/categorize", map[string]any{"description": "   "}, api.owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "DESCRIPTION_REQUIRED", resp.Code)
}

func TestExportExpenses(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 1000)
	other := api.createProject(t, api.owner, "Autre projet", 1000)
	api.createExpense(t, api.owner, p.ID, 42.5)
	api.createExpense(t, api.owner, other.ID, 7)

	rec, _ := api.do(t, http.MethodGet, "/expense/export?project_id="+p.ID, nil, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "expenses_"+p.ID+".csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Date", "Projet", "Catégorie", "Description", "Montant", "Créé par"}, records[0])
	assert.Equal(t, "Site vitrine", records[1][1])
	assert.Equal(t, "42.5", records[1][4])
	assert.Equal(t, "Owner", records[1][5])

	rec, _ = api.do(t, http.MethodGet, "/expense/export", nil, api.owner)
	records, err = csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 3)

	rec, resp := api.do(t, http.MethodGet, "/expense/export?project_id=missing", nil, api.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", resp.Code)
}
