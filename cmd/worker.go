package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"budgettracker/budget"
	"budgettracker/queue"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume budget checks from RabbitMQ and send alerts",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.AMQPURL == "" {
			return errors.New("worker requires AMQP_URL")
		}
		ctx, stop := signal.NotifyContext(baseContext(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return work(ctx)
	},
}

func work(ctx context.Context) error {
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

	client, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info("Starting budget worker")
	err = client.Consume(ctx, budget.NewGate(s, notifier))
	if errors.Is(err, context.Canceled) {
		log.Info("Budget worker stopped")
		return nil
	}
	return fmt.Errorf("consume: %w", err)
}
