package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"budgettracker/budget"
	"budgettracker/logging"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChecker struct {
	mu      sync.Mutex
	checked []string
	fail    map[string]bool
	release chan struct{}
}

func (f *fakeChecker) Check(_ context.Context, projectID string) (budget.Decision, error) {
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, projectID)
	if f.fail[projectID] {
		return budget.Decision{}, errors.New("mail transport down")
	}
	return budget.Decision{Kind: budget.KindNone}, nil
}

func (f *fakeChecker) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.checked...)
}

func discardEntry() *logrus.Entry {
	return logrus.NewEntry(logging.Discard())
}

func TestBudgetCheckFromJSON(t *testing.T) {
	msg := NewBudgetCheck("p1", ReasonExpenseCreated)
	data, err := msg.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"project_id":"p1"`)
	assert.Contains(t, string(data), `"reason":"expense_created"`)

	got, err := BudgetCheckFromJSON(data)
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ProjectID)

	_, err = BudgetCheckFromJSON([]byte(`{"reason":"expense_created"}`))
	assert.Error(t, err)
	_, err = BudgetCheckFromJSON([]byte(`not json`))
	assert.Error(t, err)
}

func TestPoolRunsChecks(t *testing.T) {
	checker := &fakeChecker{}
	pool := NewPool(checker, 3, 10, discardEntry())

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, pool.Dispatch(context.Background(), NewBudgetCheck(id, ReasonExpenseCreated)))
	}
	pool.Close()

	assert.ElementsMatch(t, []string{"a", "b", "c"}, checker.ids())
}

func TestPoolFailureDoesNotStopWorkers(t *testing.T) {
	logger, hook := test.NewNullLogger()
	checker := &fakeChecker{fail: map[string]bool{"broken": true}}
	pool := NewPool(checker, 1, 10, logrus.NewEntry(logger))

	require.NoError(t, pool.Dispatch(context.Background(), NewBudgetCheck("broken", ReasonExpenseUpdated)))
	require.NoError(t, pool.Dispatch(context.Background(), NewBudgetCheck("fine", ReasonExpenseUpdated)))
	pool.Close()

	assert.Equal(t, []string{"broken", "fine"}, checker.ids())

	var failures []*logrus.Entry
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.ErrorLevel {
			failures = append(failures, e)
		}
	}
	require.Len(t, failures, 1)
	assert.Equal(t, "broken", failures[0].Data[logging.FieldProjectID])
	assert.Equal(t, ReasonExpenseUpdated, failures[0].Data[logging.FieldReason])
}

func TestPoolDropsWhenFull(t *testing.T) {
	checker := &fakeChecker{release: make(chan struct{})}
	pool := NewPool(checker, 1, 1, discardEntry())
	ctx := context.Background()

	require.NoError(t, pool.Dispatch(ctx, NewBudgetCheck("first", ReasonExpenseCreated)))
	// Wait for the worker to pick up "first" so the buffer is empty again.
	require.Eventually(t, func() bool { return len(pool.tasks) == 0 }, time.Second, time.Millisecond)
	require.NoError(t, pool.Dispatch(ctx, NewBudgetCheck("second", ReasonExpenseCreated)))

	err := pool.Dispatch(ctx, NewBudgetCheck("third", ReasonExpenseCreated))
	assert.ErrorIs(t, err, ErrQueueFull)

	close(checker.release)
	pool.Close()
	assert.Equal(t, []string{"first", "second"}, checker.ids())
}

func TestPoolRejectsAfterClose(t *testing.T) {
	pool := NewPool(&fakeChecker{}, 1, 1, discardEntry())
	pool.Close()
	pool.Close()

	err := pool.Dispatch(context.Background(), NewBudgetCheck("late", ReasonBudgetUpdated))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestHandleDelivery(t *testing.T) {
	checker := &fakeChecker{fail: map[string]bool{"broken": true}}
	ctx := context.Background()
	log := discardEntry()

	body, err := NewBudgetCheck("ok", ReasonExpenseCreated).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, outcomeAck, handleDelivery(ctx, checker, body, log))

	body, err = NewBudgetCheck("broken", ReasonExpenseCreated).ToJSON()
	require.NoError(t, err)
	assert.Equal(t, outcomeAck, handleDelivery(ctx, checker, body, log), "failed checks are not redelivered")

	assert.Equal(t, outcomeReject, handleDelivery(ctx, checker, []byte("{"), log))
	assert.Equal(t, []string{"ok", "broken"}, checker.ids())
}
