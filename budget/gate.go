package budget

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"budgettracker/logging"
	"budgettracker/models"
	"budgettracker/store"
)

type Kind string

const (
	KindNone     Kind = "none"
	KindWarning  Kind = "warning"
	KindExceeded Kind = "exceeded"
)

// Decision is what the gate does for one evaluation: the email to send, if
// any, and the flags to persist once it went out.
type Decision struct {
	Kind Kind
	Next models.NotificationFlags
}

// Decide applies the threshold rule. Flags only move forward: an exceeded
// alert latches both flags, so a later warning-range evaluation stays silent.
func Decide(e Evaluation, flags models.NotificationFlags) Decision {
	switch {
	case e.Percentage >= ExceededThreshold && !flags.ExceededSent:
		return Decision{
			Kind: KindExceeded,
			Next: models.NotificationFlags{WarningSent: true, ExceededSent: true},
		}
	case e.Percentage >= WarningThreshold && e.Percentage < ExceededThreshold && !flags.WarningSent:
		return Decision{
			Kind: KindWarning,
			Next: models.NotificationFlags{WarningSent: true, ExceededSent: flags.ExceededSent},
		}
	default:
		return Decision{Kind: KindNone, Next: flags}
	}
}

// Alert is a threshold-crossing notification for a project owner.
type Alert struct {
	Kind       Kind
	Project    models.Project
	Evaluation Evaluation
}

// ProjectReport is one at-risk line of a digest.
type ProjectReport struct {
	Project    models.Project
	Evaluation Evaluation
	Status     Status
}

// DigestReport lists the at-risk projects of one owner, highest usage first.
type DigestReport struct {
	OwnerID    string
	OwnerName  string
	OwnerEmail string
	Projects   []ProjectReport
}

// Notifier delivers budget emails.
type Notifier interface {
	SendAlert(ctx context.Context, a Alert) error
	SendDigest(ctx context.Context, r DigestReport) error
}

type Gate struct {
	projects store.Projects
	expenses store.Expenses
	notifier Notifier
	locks    keyedMutex
}

func NewGate(s store.Store, n Notifier) *Gate {
	return &Gate{
		projects: s.Projects(),
		expenses: s.Expenses(),
		notifier: n,
	}
}

// Check evaluates projectID and sends at most one alert. Flags are written
// only after the notifier accepted the message; a send failure leaves them
// untouched and is returned.
func (g *Gate) Check(ctx context.Context, projectID string) (Decision, error) {
	unlock := g.locks.Lock(projectID)
	defer unlock()

	log := logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentGate).
		WithField(logging.FieldProjectID, projectID)

	project, err := g.projects.FindByID(ctx, projectID)
	if errors.Is(err, store.ErrNotFound) {
		log.Debug("Project gone before budget check")
		return Decision{Kind: KindNone}, nil
	}
	if err != nil {
		return Decision{}, fmt.Errorf("load project: %w", err)
	}

	expenses, err := g.expenses.Find(ctx, models.ExpenseFilter{ProjectID: projectID})
	if err != nil {
		return Decision{}, fmt.Errorf("load expenses: %w", err)
	}

	eval := EvaluateProject(project, expenses)
	flags := project.Flags()
	decision := Decide(eval, flags)
	log = log.WithField(logging.FieldPercentage, eval.Percentage)

	if decision.Kind == KindNone {
		log.Debug("No budget alert needed")
		return decision, nil
	}

	log = log.WithField(logging.FieldKind, decision.Kind)
	alert := Alert{Kind: decision.Kind, Project: *project, Evaluation: eval}
	if err := g.notifier.SendAlert(ctx, alert); err != nil {
		return decision, fmt.Errorf("send %s alert: %w", decision.Kind, err)
	}

	swapped, err := g.projects.SetNotificationFlags(ctx, projectID, flags, decision.Next)
	if err != nil {
		return decision, fmt.Errorf("persist notification flags: %w", err)
	}
	if !swapped {
		log.Warn("Notification flags changed concurrently, alert may have been sent twice")
		return decision, nil
	}

	log.Info("Budget alert sent")
	return decision, nil
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*refMutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
