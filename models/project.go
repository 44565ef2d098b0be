package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	StatusActive    ProjectStatus = "active"
	StatusCompleted ProjectStatus = "completed"
	StatusArchived  ProjectStatus = "archived"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type Project struct {
	ID          string        `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at"`
	Name        string        `gorm:"not null;size:200" json:"name" bson:"name"`
	Description string        `gorm:"size:2000" json:"description" bson:"description"`
	Budget      float64       `gorm:"not null;default:0" json:"budget" bson:"budget"`
	OwnerID     string        `gorm:"not null;size:36;index:idx_owner_status" json:"owner_id" bson:"owner_id"`
	OwnerName   string        `gorm:"size:200" json:"owner_name" bson:"owner_name"`
	OwnerEmail  string        `gorm:"size:200" json:"owner_email" bson:"owner_email"`
	Status      ProjectStatus `gorm:"not null;size:20;default:active;index:idx_owner_status" json:"status" bson:"status"`

	// Set once the warning (80%) and exceeded (100%) emails went out.
	BudgetWarningSent  bool `gorm:"not null;default:false" json:"budget_warning_sent" bson:"budget_warning_sent"`
	BudgetExceededSent bool `gorm:"not null;default:false" json:"budget_exceeded_sent" bson:"budget_exceeded_sent"`
}

// NotificationFlags is the latch state of a project's budget alerts.
type NotificationFlags struct {
	WarningSent  bool
	ExceededSent bool
}

func (p *Project) Flags() NotificationFlags {
	return NotificationFlags{WarningSent: p.BudgetWarningSent, ExceededSent: p.BudgetExceededSent}
}

func (p *Project) SetFlags(f NotificationFlags) {
	p.BudgetWarningSent = f.WarningSent
	p.BudgetExceededSent = f.ExceededSent
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	return nil
}

type ProjectFilter struct {
	OwnerID string
	Status  ProjectStatus
	// Case-insensitive substring of the name.
	Name string
}
