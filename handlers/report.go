package handlers

import (
	"context"
	"net/http"

	"budgettracker/budget"
	"budgettracker/logging"

	"github.com/sirupsen/logrus"
)

// DigestRunner sends the daily budget report.
type DigestRunner interface {
	Run(ctx context.Context) (budget.DigestResult, error)
}

type ReportHandler struct {
	digest DigestRunner
}

func NewReportHandler(digest DigestRunner) *ReportHandler {
	return &ReportHandler{digest: digest}
}

// DailyBudget runs the digest synchronously. Per-owner send failures are
// counted in the result and do not fail the request.
func (h *ReportHandler) DailyBudget(w http.ResponseWriter, r *http.Request) {
	result, err := h.digest.Run(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).WithFields(logrus.Fields{
		logging.FieldComponent: logging.ComponentDigest,
		logging.FieldAtRisk:    result.AtRisk,
		"sent":                 result.Sent,
		"failed":               result.Failed,
	}).Info("Daily budget report triggered")

	writeJSON(w, http.StatusOK, envelope{OK: true, Message: "Daily budget report sent successfully", Data: result})
}
