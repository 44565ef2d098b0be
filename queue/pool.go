package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"budgettracker/budget"
	"budgettracker/logging"
	"budgettracker/telemetry"

	"github.com/sirupsen/logrus"
)

var (
	ErrQueueFull = errors.New("budget check queue is full")
	ErrClosed    = errors.New("budget check queue is closed")
)

const checkTimeout = 30 * time.Second

// Checker runs the notification gate for a project.
type Checker interface {
	Check(ctx context.Context, projectID string) (budget.Decision, error)
}

// Pool runs budget checks on a fixed number of goroutines fed by a bounded
// queue. Dispatch never blocks: a full queue drops the check.
type Pool struct {
	checker Checker
	log     *logrus.Entry
	tasks   chan BudgetCheck
	wg      sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

func NewPool(checker Checker, workers, size int, log *logrus.Entry) *Pool {
	if workers < 1 {
		workers = 1
	}
	if size < 1 {
		size = 1
	}
	p := &Pool{
		checker: checker,
		log:     log.WithField(logging.FieldComponent, logging.ComponentQueue),
		tasks:   make(chan BudgetCheck, size),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.work(i)
	}
	return p
}

func (p *Pool) Dispatch(ctx context.Context, msg BudgetCheck) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	log := logging.FromContext(ctx).
		WithField(logging.FieldComponent, logging.ComponentQueue).
		WithField(logging.FieldProjectID, msg.ProjectID).
		WithField(logging.FieldReason, msg.Reason)

	if p.closed {
		log.Error("Budget check dropped, queue closed")
		return ErrClosed
	}
	select {
	case p.tasks <- msg:
		return nil
	default:
		log.Error("Budget check dropped, queue full")
		return ErrQueueFull
	}
}

// Close stops accepting checks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	log := p.log.WithField("worker", id)
	for msg := range p.tasks {
		_ = run(context.Background(), p.checker, msg, log)
	}
}

// run executes one check under its own span and timeout. A failure is
// captured with the task's reason and project, then returned.
func run(ctx context.Context, checker Checker, msg BudgetCheck, log *logrus.Entry) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	ctx, span := telemetry.Tracer().Start(ctx, "budget.check")
	defer span.End()

	log = log.
		WithField(logging.FieldProjectID, msg.ProjectID).
		WithField(logging.FieldReason, msg.Reason)
	ctx = logging.WithContext(ctx, log)

	if _, err := checker.Check(ctx, msg.ProjectID); err != nil {
		err = fmt.Errorf("budget check for project %s: %w", msg.ProjectID, err)
		telemetry.Capture(ctx, err, "Budget check failed")
		return err
	}
	return nil
}
