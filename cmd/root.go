// Package cmd holds the budgettracker command line: the API server, the
// AMQP worker, the one-shot digest and the demo seeder.
package cmd

import (
	"fmt"
	"os"

	"budgettracker/config"
	"budgettracker/logging"

	"github.com/spf13/cobra"
)

var (
	cfg *config.Config
	// Replaced once the configuration is loaded.
	log = logging.New("info", "text")
)

var rootCmd = &cobra.Command{
	Use:           "budgettracker",
	Short:         "Track project budgets and warn owners before they overspend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		cfg = loaded
		log = logging.New(cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(digestCmd)
	rootCmd.AddCommand(seedCmd)
}

// Execute runs the command named on the command line.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
