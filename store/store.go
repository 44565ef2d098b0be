// Package store declares the persistence contracts shared by the gorm, MongoDB
// and in-memory backends.
package store

import (
	"context"
	"errors"

	"budgettracker/models"
)

var (
	// ErrNotFound is returned when no record matches the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects the write.
	ErrDuplicate = errors.New("duplicate record")
)

type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

type Projects interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id string) (*models.Project, error)
	// Find returns matching projects, newest first.
	Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error)
	// Update writes every field except the notification flags.
	Update(ctx context.Context, p *models.Project) error
	Delete(ctx context.Context, id string) error
	// SetNotificationFlags writes to only when the stored flags still equal
	// from. It reports whether the write happened.
	SetNotificationFlags(ctx context.Context, id string, from, to models.NotificationFlags) (bool, error)
}

type Expenses interface {
	Create(ctx context.Context, e *models.Expense) error
	FindByID(ctx context.Context, id string) (*models.Expense, error)
	// Find returns matching expenses, newest first.
	Find(ctx context.Context, f models.ExpenseFilter) ([]models.Expense, error)
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, id string) error
}

type Members interface {
	Create(ctx context.Context, m *models.ProjectMember) error
	FindByID(ctx context.Context, id string) (*models.ProjectMember, error)
	// Find returns matching members, newest first.
	Find(ctx context.Context, f models.MemberFilter) ([]models.ProjectMember, error)
	Update(ctx context.Context, m *models.ProjectMember) error
	Delete(ctx context.Context, id string) error
}

// Store groups the repositories of one backend.
type Store interface {
	Users() Users
	Projects() Projects
	Expenses() Expenses
	Members() Members
	Close() error
}
