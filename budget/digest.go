package budget

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"budgettracker/logging"
	"budgettracker/models"
	"budgettracker/store"
	"budgettracker/telemetry"

	"golang.org/x/sync/errgroup"
)

type Digest struct {
	projects    store.Projects
	expenses    store.Expenses
	notifier    Notifier
	concurrency int
}

// NewDigest builds the daily job. concurrency bounds parallel sends; values
// below 1 send sequentially.
func NewDigest(s store.Store, n Notifier, concurrency int) *Digest {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Digest{
		projects:    s.Projects(),
		expenses:    s.Expenses(),
		notifier:    n,
		concurrency: concurrency,
	}
}

type DigestResult struct {
	ActiveProjects int `json:"active_projects"`
	AtRisk         int `json:"at_risk"`
	Owners         int `json:"owners"`
	Sent           int `json:"sent"`
	Failed         int `json:"failed"`
}

// Build evaluates every active project and groups those at or above the
// warning threshold by owner.
func (d *Digest) Build(ctx context.Context) ([]DigestReport, int, error) {
	projects, err := d.projects.Find(ctx, models.ProjectFilter{Status: models.StatusActive})
	if err != nil {
		return nil, 0, fmt.Errorf("load active projects: %w", err)
	}
	if len(projects) == 0 {
		return nil, 0, nil
	}

	expenses, err := d.expenses.Find(ctx, models.ExpenseFilter{})
	if err != nil {
		return nil, 0, fmt.Errorf("load expenses: %w", err)
	}
	byProject := make(map[string][]models.Expense)
	for _, e := range expenses {
		byProject[e.ProjectID] = append(byProject[e.ProjectID], e)
	}

	var reports []DigestReport
	index := make(map[string]int)
	for i := range projects {
		p := projects[i]
		eval := EvaluateProject(&p, byProject[p.ID])
		if eval.Percentage < WarningThreshold {
			continue
		}

		pos, ok := index[p.OwnerID]
		if !ok {
			pos = len(reports)
			index[p.OwnerID] = pos
			reports = append(reports, DigestReport{
				OwnerID:    p.OwnerID,
				OwnerName:  p.OwnerName,
				OwnerEmail: p.OwnerEmail,
			})
		}
		reports[pos].Projects = append(reports[pos].Projects, ProjectReport{
			Project:    p,
			Evaluation: eval,
			Status:     Classify(eval.Percentage),
		})
	}

	for i := range reports {
		items := reports[i].Projects
		sort.SliceStable(items, func(a, b int) bool {
			return items[a].Evaluation.Percentage > items[b].Evaluation.Percentage
		})
	}
	return reports, len(projects), nil
}

// Run builds the digest and sends one email per owner. A failed send is
// logged and counted; it does not stop the others.
func (d *Digest) Run(ctx context.Context) (DigestResult, error) {
	log := logging.FromContext(ctx).WithField(logging.FieldComponent, logging.ComponentDigest)

	reports, active, err := d.Build(ctx)
	if err != nil {
		return DigestResult{}, err
	}

	result := DigestResult{ActiveProjects: active, Owners: len(reports)}
	for _, r := range reports {
		result.AtRisk += len(r.Projects)
	}
	if len(reports) == 0 {
		log.WithField(logging.FieldCount, active).Info("No projects at risk, daily report skipped")
		return result, nil
	}

	var sent, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, r := range reports {
		g.Go(func() error {
			ownerLog := log.
				WithField(logging.FieldOwnerID, r.OwnerID).
				WithField(logging.FieldCount, len(r.Projects))
			if err := d.notifier.SendDigest(gctx, r); err != nil {
				failed.Add(1)
				telemetry.Capture(logging.WithContext(gctx, ownerLog), err, "Daily report not sent")
				return nil
			}
			sent.Add(1)
			ownerLog.Info("Daily report sent")
			return nil
		})
	}
	g.Wait()

	result.Sent = int(sent.Load())
	result.Failed = int(failed.Load())
	log.WithField(logging.FieldCount, result.Sent).
		WithField(logging.FieldAtRisk, result.AtRisk).
		Info("Daily budget report finished")
	return result, nil
}
