package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanManageProject(t *testing.T) {
	project := &Project{ID: "p1", OwnerID: "owner"}

	tests := []struct {
		name string
		user *User
		want bool
	}{
		{"owner", &User{ID: "owner", Role: RoleUser}, true},
		{"admin", &User{ID: "someone", Role: RoleAdmin}, true},
		{"stranger", &User{ID: "stranger", Role: RoleUser}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.CanManageProject(project))
		})
	}
}

func TestCanManageExpense(t *testing.T) {
	expense := &Expense{ID: "e1", CreatedByUserID: "creator"}

	assert.True(t, (&User{ID: "creator", Role: RoleUser}).CanManageExpense(expense))
	assert.True(t, (&User{ID: "admin", Role: RoleAdmin}).CanManageExpense(expense))
	assert.False(t, (&User{ID: "other", Role: RoleUser}).CanManageExpense(expense))
}

func TestParseCategory(t *testing.T) {
	for _, c := range Categories {
		got, ok := ParseCategory(string(c))
		assert.True(t, ok, c)
		assert.Equal(t, c, got)
	}

	_, ok := ParseCategory("marketing")
	assert.False(t, ok, "matching is case sensitive")
	_, ok = ParseCategory(" Design")
	assert.False(t, ok)
}

func TestStatusAndRoleValidation(t *testing.T) {
	assert.True(t, StatusActive.Valid())
	assert.True(t, StatusArchived.Valid())
	assert.False(t, ProjectStatus("paused").Valid())

	assert.True(t, MemberRoleViewer.Valid())
	assert.False(t, MemberRole("admin").Valid())
}

func TestProjectFlags(t *testing.T) {
	p := &Project{}
	assert.Equal(t, NotificationFlags{}, p.Flags())

	p.SetFlags(NotificationFlags{WarningSent: true, ExceededSent: true})
	assert.True(t, p.BudgetWarningSent)
	assert.True(t, p.BudgetExceededSent)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@selego.co", NormalizeEmail("  Jane@Selego.CO "))
}

func TestBeforeCreateAssignsIDs(t *testing.T) {
	p := &Project{}
	assert.NoError(t, p.BeforeCreate(nil))
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, StatusActive, p.Status)

	u := &User{ID: "fixed"}
	assert.NoError(t, u.BeforeCreate(nil))
	assert.Equal(t, "fixed", u.ID)
}
