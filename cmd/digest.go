package cmd

import (
	"fmt"

	"budgettracker/budget"
	"budgettracker/logging"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Send the daily budget report once",
	Long: `Evaluate every active project and email each owner the list of their
projects at or above 80% of budget. Meant to be run from cron.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := baseContext(cmd.Context())
		defer startTelemetry(ctx)()

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		notifier, err := newNotifier()
		if err != nil {
			return err
		}

		result, err := budget.NewDigest(s, notifier, cfg.NotifyWorkers).Run(ctx)
		if err != nil {
			return fmt.Errorf("daily digest: %w", err)
		}

		log.WithFields(logrus.Fields{
			logging.FieldComponent: logging.ComponentDigest,
			"active_projects":      result.ActiveProjects,
			logging.FieldAtRisk:    result.AtRisk,
			"owners":               result.Owners,
			"sent":                 result.Sent,
			"failed":               result.Failed,
		}).Info("Daily digest finished")
		fmt.Fprintf(cmd.OutOrStdout(), "%d active, %d at risk, %d sent, %d failed\n",
			result.ActiveProjects, result.AtRisk, result.Sent, result.Failed)
		return nil
	},
}
