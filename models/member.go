package models

import (
	"time"

	"gorm.io/gorm"
)

type MemberRole string

const (
	MemberRoleOwner  MemberRole = "owner"
	MemberRoleMember MemberRole = "member"
	MemberRoleViewer MemberRole = "viewer"
)

func (r MemberRole) Valid() bool {
	switch r {
	case MemberRoleOwner, MemberRoleMember, MemberRoleViewer:
		return true
	}
	return false
}

// ProjectMember grants a registered user access to a project.
// A user appears at most once per project.
type ProjectMember struct {
	ID              string     `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	CreatedAt       time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" bson:"updated_at"`
	ProjectID       string     `gorm:"not null;size:36;uniqueIndex:idx_project_user" json:"project_id" bson:"project_id"`
	ProjectName     string     `gorm:"size:200" json:"project_name" bson:"project_name"`
	UserID          string     `gorm:"not null;size:36;uniqueIndex:idx_project_user;index" json:"user_id" bson:"user_id"`
	UserName        string     `gorm:"size:200" json:"user_name" bson:"user_name"`
	UserEmail       string     `gorm:"size:200" json:"user_email" bson:"user_email"`
	UserAvatar      string     `gorm:"size:500" json:"user_avatar,omitempty" bson:"user_avatar,omitempty"`
	Role            MemberRole `gorm:"not null;size:20;default:member" json:"role" bson:"role"`
	CanAddExpenses  bool       `json:"can_add_expenses" bson:"can_add_expenses"`
	CanEditProject  bool       `json:"can_edit_project" bson:"can_edit_project"`
	AddedByUserID   string     `gorm:"size:36" json:"added_by_user_id" bson:"added_by_user_id"`
	AddedByUserName string     `gorm:"size:200" json:"added_by_user_name" bson:"added_by_user_name"`
}

func (m *ProjectMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = NewID()
	}
	return nil
}

type MemberFilter struct {
	ProjectID string
	UserID    string
}
