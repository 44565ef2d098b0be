package cmd

import (
	"context"
	"fmt"

	"budgettracker/database"
	"budgettracker/logging"
	"budgettracker/mail"
	"budgettracker/store"
	"budgettracker/telemetry"

	"github.com/sirupsen/logrus"
)

// baseContext carries the root logger so packages logging via FromContext
// pick up the configured level and format.
func baseContext(ctx context.Context) context.Context {
	return logging.WithContext(ctx, logrus.NewEntry(log))
}

func startTelemetry(ctx context.Context) func() {
	shutdown, err := telemetry.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		log.WithError(err).Warn("Tracing disabled")
	}
	return func() {
		if err := shutdown(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to flush traces")
		}
	}
}

// openStore connects the configured backend and makes sure the admin
// account exists.
func openStore(ctx context.Context) (store.Store, error) {
	s, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DatabaseDriver, err)
	}

	created, err := database.SeedAdmin(ctx, s.Users(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	if created {
		log.WithField("email", cfg.AdminEmail).Info("Created admin account")
	}
	return s, nil
}

func newNotifier() (*mail.Notifier, error) {
	filter, err := mail.NewFilter(cfg.StagingRecipientPattern, cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("recipient filter: %w", err)
	}
	if cfg.BrevoKey == "" {
		log.WithField(logging.FieldComponent, logging.ComponentMail).Warn("BREVO_KEY not set, emails will not be sent")
	}

	brevo := mail.NewBrevo(mail.BrevoOptions{
		APIKey:  cfg.BrevoKey,
		BaseURL: cfg.BrevoBaseURL,
		Sender:  mail.Recipient{Name: cfg.MailSenderName, Email: cfg.MailSenderEmail},
		Filter:  filter,
	})
	return mail.NewNotifier(brevo, mail.NewRenderer(cfg.AppURL)), nil
}
