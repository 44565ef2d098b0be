package database

import (
	"context"
	"testing"

	"budgettracker/models"
	"budgettracker/store"
	"budgettracker/store/memory"
	"budgettracker/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(DriverSQLite, ":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGormStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return openSQLite(t) })
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open("oracle", "dsn", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported gorm driver")
}

func TestSeedAdmin(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	created, err := SeedAdmin(ctx, s.Users(), "admin@budget.local", "admin123")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := s.Users().FindByEmail(ctx, "admin@budget.local")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin123")))

	created, err = SeedAdmin(ctx, s.Users(), "admin@budget.local", "other")
	require.NoError(t, err)
	assert.False(t, created, "second run is a no-op")
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	summary, err := SeedDemo(ctx, s, "hugo@selego.co", "password123")
	require.NoError(t, err)
	assert.True(t, summary.Created)
	assert.Equal(t, len(demoProjects), summary.Projects)
	assert.Equal(t, 20, summary.Expenses)

	active, err := s.Projects().Find(ctx, models.ProjectFilter{Status: models.StatusActive})
	require.NoError(t, err)
	assert.Len(t, active, 4)

	again, err := SeedDemo(ctx, s, "hugo@selego.co", "password123")
	require.NoError(t, err)
	assert.False(t, again.Created)
}
