package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"budgettracker/budget"
	"budgettracker/categorizer"
	"budgettracker/handlers"
	"budgettracker/logging"
	"budgettracker/middleware"
	"budgettracker/queue"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. Budget checks triggered by writes are published to
RabbitMQ when AMQP_URL is set and run by the worker command; otherwise they
run on an in-process worker pool.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(baseContext(cmd.Context()), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
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
	gate := budget.NewGate(s, notifier)
	digest := budget.NewDigest(s, notifier, cfg.NotifyWorkers)

	var dispatcher queue.Dispatcher
	if cfg.AMQPURL != "" {
		client, err := queue.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		defer client.Close()
		dispatcher = client
		log.WithField(logging.FieldQueue, cfg.AMQPQueue).Info("Publishing budget checks to RabbitMQ")
	} else {
		pool := queue.NewPool(gate, cfg.NotifyWorkers, cfg.NotifyQueueSize, logrus.NewEntry(log))
		// Drain queued checks after the server stops accepting requests.
		defer pool.Close()
		dispatcher = pool
		log.WithField("workers", cfg.NotifyWorkers).Info("Running budget checks in process")
	}

	cat, closeCategorizer, err := categorizer.FromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("categorizer: %w", err)
	}
	defer closeCategorizer()

	router := handlers.NewRouter(handlers.Deps{
		Config:      cfg,
		Logger:      log,
		Store:       s,
		Auth:        middleware.NewAuth(cfg.JWTSecret, cfg.JWTExpiration, s.Users()),
		Dispatcher:  dispatcher,
		Categorizer: cat,
		Digest:      digest,
		DeployedAt:  time.Now(),
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithFields(logrus.Fields{
			"port":        cfg.ServerPort,
			"environment": cfg.Environment,
			"database":    cfg.DatabaseDriver,
		}).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
