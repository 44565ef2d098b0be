package cmd

import (
	"fmt"

	"budgettracker/database"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	seedEmail    string
	seedPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a demo user with projects and expenses",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := baseContext(cmd.Context())

		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()

		summary, err := database.SeedDemo(ctx, s, seedEmail, seedPassword)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		if !summary.Created {
			log.WithField("email", seedEmail).Info("Demo user already exists, nothing to do")
			return nil
		}

		log.WithFields(logrus.Fields{
			"email":    seedEmail,
			"projects": summary.Projects,
			"expenses": summary.Expenses,
		}).Info("Demo data created")
		fmt.Fprintf(cmd.OutOrStdout(), "Created %d projects and %d expenses (%.2f € spent) for %s\n",
			summary.Projects, summary.Expenses, summary.Spent, seedEmail)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "hugo@selego.co", "Demo user email")
	seedCmd.Flags().StringVar(&seedPassword, "password", "password123", "Demo user password")
}
