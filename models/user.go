package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type User struct {
	ID           string     `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	CreatedAt    time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" bson:"updated_at"`
	Name         string     `gorm:"not null;size:200" json:"name" bson:"name"`
	Email        string     `gorm:"uniqueIndex;not null;size:200" json:"email" bson:"email"`
	Avatar       string     `gorm:"size:500" json:"avatar,omitempty" bson:"avatar,omitempty"`
	PasswordHash string     `gorm:"not null" json:"-" bson:"password_hash"`
	Role         Role       `gorm:"not null;size:20;default:user" json:"role" bson:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
}

// NewID returns a fresh identifier for any stored record.
func NewID() string {
	return uuid.NewString()
}

// NormalizeEmail lowercases and trims an address before lookup or storage.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = NewID()
	}
	return nil
}

func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageProject reports whether u may edit or delete p and its members.
func (u *User) CanManageProject(p *Project) bool {
	if u.IsAdmin() {
		return true
	}
	return p.OwnerID == u.ID
}

// CanManageExpense reports whether u may edit or delete e.
func (u *User) CanManageExpense(e *Expense) bool {
	if u.IsAdmin() {
		return true
	}
	return e.CreatedByUserID == u.ID
}
