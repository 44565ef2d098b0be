package models

import (
	"time"

	"gorm.io/gorm"
)

type Category string

const (
	CategoryMarketing      Category = "Marketing"
	CategoryDevelopment    Category = "Développement"
	CategoryDesign         Category = "Design"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryHR             Category = "RH"
	CategoryOther          Category = "Autre"
)

// Categories lists every accepted label, in prompt order.
var Categories = []Category{
	CategoryMarketing,
	CategoryDevelopment,
	CategoryDesign,
	CategoryInfrastructure,
	CategoryHR,
	CategoryOther,
}

// ParseCategory returns the category exactly matching s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return "", false
}

type Expense struct {
	ID                 string    `gorm:"primaryKey;size:36" json:"_id" bson:"_id"`
	CreatedAt          time.Time `gorm:"index" json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" bson:"updated_at"`
	ProjectID          string    `gorm:"not null;size:36;index" json:"project_id" bson:"project_id"`
	ProjectName        string    `gorm:"size:200" json:"project_name" bson:"project_name"`
	Amount             float64   `gorm:"not null;default:0" json:"amount" bson:"amount"`
	Category           Category  `gorm:"size:50;index" json:"category,omitempty" bson:"category,omitempty"`
	Description        string    `gorm:"size:1000" json:"description" bson:"description"`
	CreatedByUserID    string    `gorm:"not null;size:36;index" json:"created_by_user_id" bson:"created_by_user_id"`
	CreatedByUserName  string    `gorm:"size:200" json:"created_by_user_name" bson:"created_by_user_name"`
	CreatedByUserEmail string    `gorm:"size:200" json:"created_by_user_email" bson:"created_by_user_email"`
}

func (e *Expense) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	return nil
}

type ExpenseFilter struct {
	ProjectID       string
	CreatedByUserID string
	Category        Category
}
