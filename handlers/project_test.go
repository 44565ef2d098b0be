package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"budgettracker/models"
	"budgettracker/queue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 5000)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, api.owner.ID, p.OwnerID)
	assert.Equal(t, "Owner", p.OwnerName)
	assert.Equal(t, "owner@selego.co", p.OwnerEmail)
	assert.Equal(t, models.StatusActive, p.Status)
	assert.False(t, p.BudgetWarningSent)
	assert.False(t, p.BudgetExceededSent)
}

func TestCreateProjectValidation(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name     string
		body     map[string]any
		wantCode string
	}{
		{"missing name", map[string]any{"budget": 100}, "NAME_REQUIRED"},
		{"blank name", map[string]any{"name": "  ", "budget": 100}, "NAME_REQUIRED"},
		{"missing budget", map[string]any{"name": "X"}, "VALID_BUDGET_REQUIRED"},
		{"negative budget", map[string]any{"name": "X", "budget": -1}, "VALID_BUDGET_REQUIRED"},
		{"unknown status", map[string]any{"name": "X", "budget": 1, "status": "paused"}, "INVALID_STATUS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := api.do(t, http.MethodPost, "/project", tt.body, api.owner)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestCreateProjectAllowsZeroBudget(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Bénévolat", 0)
	assert.Zero(t, p.Budget)
}

func TestGetProject(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 5000)

	rec, resp := api.do(t, http.MethodGet, "/project/"+p.ID, nil, api.stranger)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Project
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Site vitrine", got.Name)

	rec, resp = api.do(t, http.MethodGet, "/project/missing", nil, api.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "PROJECT_NOT_FOUND", resp.Code)
}

func TestSearchProjects(t *testing.T) {
	api := newTestAPI(t)
	api.createProject(t, api.owner, "Refonte Site", 1000)
	api.createProject(t, api.owner, "Campagne SEO", 1000)
	api.createProject(t, api.stranger, "Site mobile", 1000)

	rec, resp := api.do(t, http.MethodPost, "/project/search", map[string]any{"name": "site"}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var projects []models.Project
	require.NoError(t, json.Unmarshal(resp.Data, &projects))
	require.Len(t, projects, 2)
	assert.Equal(t, "Site mobile", projects[0].Name, "newest first")

	_, resp = api.do(t, http.MethodPost, "/project/search", map[string]any{"owner_id": api.owner.ID, "name": "site"}, api.owner)
	require.NoError(t, json.Unmarshal(resp.Data, &projects))
	require.Len(t, projects, 1)
	assert.Equal(t, "Refonte Site", projects[0].Name)

	_, resp = api.do(t, http.MethodPost, "/project/search", map[string]any{"status": "archived"}, api.owner)
	assert.JSONEq(t, `[]`, string(resp.Data))
}

func TestUpdateProject(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 5000)

	rec, resp := api.do(t, http.MethodPut, "/project/"+p.ID, map[string]any{"description": "Nouvelle version"}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Project
	require.NoError(t, json.Unmarshal(resp.Data, &got))
	assert.Equal(t, "Nouvelle version", got.Description)
	assert.Equal(t, "Site vitrine", got.Name)
	assert.Equal(t, 5000.0, got.Budget)
	assert.Empty(t, api.dispatcher.reasons(), "no budget change, no check")

	rec, _ = api.do(t, http.MethodPut, "/project/"+p.ID, map[string]any{"budget": 4000, "status": "completed"}, api.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []queue.Reason{queue.ReasonBudgetUpdated}, api.dispatcher.reasons())

	stored, err := api.store.Projects().FindByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4000.0, stored.Budget)
	assert.Equal(t, models.StatusCompleted, stored.Status)
}

func TestUpdateProjectKeepsNotificationFlags(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 5000)
	ok, err := api.store.Projects().SetNotificationFlags(t.Context(), p.ID,
		models.NotificationFlags{}, models.NotificationFlags{WarningSent: true})
	require.NoError(t, err)
	require.True(t, ok)

	rec, _ := api.do(t, http.MethodPut, "/project/"+p.ID, map[string]any{
		"name":                "Renamed",
		"budget_warning_sent": false,
	}, api.owner)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := api.store.Projects().FindByID(t.Context(), p.ID)
	require.NoError(t, err)
	assert.True(t, stored.BudgetWarningSent)
}

func TestProjectWritesRequireOwnerOrAdmin(t *testing.T) {
	api := newTestAPI(t)
	p := api.createProject(t, api.owner, "Site vitrine", 5000)

	rec, resp := api.do(t, http.MethodPut, "/project/"+p.ID, map[string]any{"name": "Mine"}, api.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Code)

	rec, resp = api.do(t, http.MethodDelete, "/project/"+p.ID, nil, api.stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", resp.Code)

	rec, resp = api.do(t, http.MethodDelete, "/project/"+p.ID, nil, api.admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.OK)
	assert.Nil(t, resp.Data)

	rec, _ = api.do(t, http.MethodGet, "/project/"+p.ID, nil, api.owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
