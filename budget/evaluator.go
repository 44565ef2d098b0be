// Package budget computes project spending, decides when budget alerts go out
// and builds the daily at-risk digest.
package budget

import (
	"budgettracker/models"

	"github.com/shopspring/decimal"
)

// Thresholds, in percent of the budget.
const (
	WarningThreshold  = 80.0
	ExceededThreshold = 100.0
	ModerateThreshold = 50.0
)

type Evaluation struct {
	Budget       float64
	TotalSpent   float64
	Percentage   float64
	Remaining    float64
	ExpenseCount int
}

// Evaluate sums amounts against budget. Percentage is 0 when budget is not
// positive; Remaining may be negative.
func Evaluate(budget float64, amounts []float64) Evaluation {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(decimal.NewFromFloat(a))
	}

	b := decimal.NewFromFloat(budget)
	pct := decimal.Zero
	if b.IsPositive() {
		pct = total.Div(b).Mul(decimal.NewFromInt(100))
	}

	return Evaluation{
		Budget:       budget,
		TotalSpent:   total.InexactFloat64(),
		Percentage:   pct.InexactFloat64(),
		Remaining:    b.Sub(total).InexactFloat64(),
		ExpenseCount: len(amounts),
	}
}

// EvaluateProject evaluates p against its expenses.
func EvaluateProject(p *models.Project, expenses []models.Expense) Evaluation {
	amounts := make([]float64, len(expenses))
	for i, e := range expenses {
		amounts[i] = e.Amount
	}
	return Evaluate(p.Budget, amounts)
}

// Overspent is how far spending went past the budget, 0 when within it.
func (e Evaluation) Overspent() float64 {
	if e.Remaining < 0 {
		return -e.Remaining
	}
	return 0
}

type Status string

const (
	StatusOver     Status = "over"
	StatusWarning  Status = "warning"
	StatusModerate Status = "moderate"
	StatusOK       Status = "ok"
)

func Classify(percentage float64) Status {
	switch {
	case percentage >= ExceededThreshold:
		return StatusOver
	case percentage >= WarningThreshold:
		return StatusWarning
	case percentage >= ModerateThreshold:
		return StatusModerate
	default:
		return StatusOK
	}
}
