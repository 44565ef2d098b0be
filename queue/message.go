// Package queue hands budget checks off the request path, either to an
// in-process worker pool or through RabbitMQ to a separate worker.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

type Reason string

const (
	ReasonExpenseCreated Reason = "expense_created"
	ReasonExpenseUpdated Reason = "expense_updated"
	ReasonBudgetUpdated  Reason = "budget_updated"
)

// BudgetCheck asks for the notification gate to run on one project. Only the
// id travels; the worker reloads the project and its expenses.
type BudgetCheck struct {
	ProjectID string    `json:"project_id"`
	Reason    Reason    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewBudgetCheck(projectID string, reason Reason) BudgetCheck {
	return BudgetCheck{
		ProjectID: projectID,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

func (m BudgetCheck) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BudgetCheckFromJSON decodes a message and rejects one without a project.
func BudgetCheckFromJSON(data []byte) (BudgetCheck, error) {
	var msg BudgetCheck
	if err := json.Unmarshal(data, &msg); err != nil {
		return BudgetCheck{}, err
	}
	if msg.ProjectID == "" {
		return BudgetCheck{}, errors.New("budget check without project_id")
	}
	return msg, nil
}

// Dispatcher schedules a budget check without waiting for it.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg BudgetCheck) error
}
