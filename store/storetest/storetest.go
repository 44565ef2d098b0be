// Package storetest holds behaviour checks every store.Store backend must pass.
package storetest

import (
	"context"
	"testing"

	"budgettracker/models"
	"budgettracker/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("projects", func(t *testing.T) { testProjects(t, newStore(t)) })
	t.Run("project name is matched literally", func(t *testing.T) { testProjectNameLiteral(t, newStore(t)) })
	t.Run("notification flags", func(t *testing.T) { testNotificationFlags(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("members", func(t *testing.T) { testMembers(t, newStore(t)) })
}

func testUsers(t *testing.T, s store.Store) {
	ctx := context.Background()
	users := s.Users()

	u := &models.User{Name: "Jane", Email: " Jane@Selego.co ", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, users.Create(ctx, u))
	require.NotEmpty(t, u.ID)

	got, err := users.FindByEmail(ctx, "jane@selego.co")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "jane@selego.co", got.Email)

	err = users.Create(ctx, &models.User{Name: "Dup", Email: "jane@selego.co", PasswordHash: "x", Role: models.RoleUser})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	got.Name = "Jane Doe"
	require.NoError(t, users.Update(ctx, got))
	reloaded, err := users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", reloaded.Name)

	_, err = users.FindByID(ctx, models.NewID())
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = users.FindByEmail(ctx, "nobody@selego.co")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testProjects(t *testing.T, s store.Store) {
	ctx := context.Background()
	projects := s.Projects()

	first := &models.Project{Name: "Website Redesign", Budget: 1000, OwnerID: "owner-a"}
	second := &models.Project{Name: "Mobile app", Budget: 500, OwnerID: "owner-b", Status: models.StatusArchived}
	third := &models.Project{Name: "Website hosting", Budget: 200, OwnerID: "owner-a"}
	for _, p := range []*models.Project{first, second, third} {
		require.NoError(t, projects.Create(ctx, p))
	}
	assert.Equal(t, models.StatusActive, first.Status)

	all, err := projects.Find(ctx, models.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, third.ID, all[0].ID, "newest first")

	byOwner, err := projects.Find(ctx, models.ProjectFilter{OwnerID: "owner-a"})
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)

	active, err := projects.Find(ctx, models.ProjectFilter{Status: models.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	byName, err := projects.Find(ctx, models.ProjectFilter{Name: "website"})
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	first.Budget = 1500
	first.Status = models.StatusCompleted
	require.NoError(t, projects.Update(ctx, first))
	got, err := projects.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1500.0, got.Budget)
	assert.Equal(t, models.StatusCompleted, got.Status)

	require.NoError(t, projects.Delete(ctx, second.ID))
	_, err = projects.FindByID(ctx, second.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.ErrorIs(t, projects.Delete(ctx, second.ID), store.ErrNotFound)
}

func testProjectNameLiteral(t *testing.T, s store.Store) {
	ctx := context.Background()
	projects := s.Projects()

	for _, name := range []string{"a_b", "axb", "100% done", "1000 units", `C:\tmp`, "C:xtmp"} {
		require.NoError(t, projects.Create(ctx, &models.Project{Name: name, Budget: 1, OwnerID: "owner"}))
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"a_b", []string{"a_b"}},
		{"0%", []string{"100% done"}},
		{`c:\t`, []string{`C:\tmp`}},
		{"%", []string{"100% done"}},
	}
	for _, tt := range tests {
		found, err := projects.Find(ctx, models.ProjectFilter{Name: tt.query})
		require.NoError(t, err)
		var names []string
		for _, p := range found {
			names = append(names, p.Name)
		}
		assert.Equal(t, tt.want, names, tt.query)
	}
}

func testNotificationFlags(t *testing.T, s store.Store) {
	ctx := context.Background()
	projects := s.Projects()

	p := &models.Project{Name: "Flags", Budget: 100, OwnerID: "owner"}
	require.NoError(t, projects.Create(ctx, p))

	none := models.NotificationFlags{}
	warned := models.NotificationFlags{WarningSent: true}
	exceeded := models.NotificationFlags{WarningSent: true, ExceededSent: true}

	ok, err := projects.SetNotificationFlags(ctx, p.ID, none, warned)
	require.NoError(t, err)
	assert.True(t, ok)

	// A second writer still holding the old state loses.
	ok, err = projects.SetNotificationFlags(ctx, p.ID, none, exceeded)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, warned, got.Flags())

	ok, err = projects.SetNotificationFlags(ctx, p.ID, warned, exceeded)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, exceeded, got.Flags())

	// Regular updates made from a stale copy leave the flags alone.
	stale := *p
	stale.Budget = 250
	require.NoError(t, projects.Update(ctx, &stale))
	got, err = projects.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, got.Budget)
	assert.Equal(t, exceeded, got.Flags())

	_, err = projects.SetNotificationFlags(ctx, models.NewID(), none, warned)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func testExpenses(t *testing.T, s store.Store) {
	ctx := context.Background()
	expenses := s.Expenses()

	a := &models.Expense{ProjectID: "p1", Amount: 400, Category: models.CategoryMarketing, CreatedByUserID: "u1"}
	b := &models.Expense{ProjectID: "p1", Amount: 450, Category: models.CategoryDesign, CreatedByUserID: "u2"}
	c := &models.Expense{ProjectID: "p2", Amount: 10, CreatedByUserID: "u1"}
	for _, e := range []*models.Expense{a, b, c} {
		require.NoError(t, expenses.Create(ctx, e))
	}

	byProject, err := expenses.Find(ctx, models.ExpenseFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, byProject, 2)
	assert.Equal(t, b.ID, byProject[0].ID, "newest first")

	byCreator, err := expenses.Find(ctx, models.ExpenseFilter{CreatedByUserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byCreator, 2)

	byCategory, err := expenses.Find(ctx, models.ExpenseFilter{Category: models.CategoryDesign})
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, b.ID, byCategory[0].ID)

	a.Amount = 600
	require.NoError(t, expenses.Update(ctx, a))
	got, err := expenses.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 600.0, got.Amount)

	require.NoError(t, expenses.Delete(ctx, c.ID))
	_, err = expenses.FindByID(ctx, c.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	none, err := expenses.Find(ctx, models.ExpenseFilter{ProjectID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testMembers(t *testing.T, s store.Store) {
	ctx := context.Background()
	members := s.Members()

	m := &models.ProjectMember{ProjectID: "p1", UserID: "u1", Role: models.MemberRoleMember, CanAddExpenses: true}
	require.NoError(t, members.Create(ctx, m))

	err := members.Create(ctx, &models.ProjectMember{ProjectID: "p1", UserID: "u1", Role: models.MemberRoleViewer})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	require.NoError(t, members.Create(ctx, &models.ProjectMember{ProjectID: "p2", UserID: "u1", Role: models.MemberRoleViewer}))

	byUser, err := members.Find(ctx, models.MemberFilter{UserID: "u1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byProject, err := members.Find(ctx, models.MemberFilter{ProjectID: "p1"})
	require.NoError(t, err)
	require.Len(t, byProject, 1)
	assert.True(t, byProject[0].CanAddExpenses)

	m.Role = models.MemberRoleViewer
	m.CanAddExpenses = false
	require.NoError(t, members.Update(ctx, m))
	got, err := members.FindByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MemberRoleViewer, got.Role)
	assert.False(t, got.CanAddExpenses)

	require.NoError(t, members.Delete(ctx, m.ID))
	_, err = members.FindByID(ctx, m.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
