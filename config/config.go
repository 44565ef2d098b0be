package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	EnvironmentProduction  = "production"
	EnvironmentDevelopment = "development"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMongoDB  = "mongodb"

	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	ServerPort  string `env:"PORT" envDefault:"8080"`
	AppURL      string `env:"APP_URL" envDefault:"http://localhost:3000"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"budgettracker"`

	DatabaseDriver string `env:"DATABASE_DRIVER" envDefault:"postgres"`
	DatabaseURL    string `env:"DATABASE_URL" envDefault:"postgresql://postgres@localhost:5432/budget"`
	MongoDatabase  string `env:"MONGODB_DATABASE" envDefault:"budget"`

	JWTSecret     string        `env:"JWT_SECRET" envDefault:"not-so-secret"`
	JWTExpiration time.Duration `env:"JWT_EXPIRATION" envDefault:"24h"`

	AdminEmail    string `env:"ADMIN_EMAIL" envDefault:"admin@budget.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:"admin123"`

	// Mail
	BrevoKey                string `env:"BREVO_KEY"`
	BrevoBaseURL            string `env:"BREVO_BASE_URL" envDefault:"https://api.brevo.com/v3"`
	MailSenderName          string `env:"MAIL_SENDER_NAME" envDefault:"Budget Tracker"`
	MailSenderEmail         string `env:"MAIL_SENDER_EMAIL" envDefault:"no-reply@budget.local"`
	StagingRecipientPattern string `env:"STAGING_RECIPIENT_PATTERN" envDefault:"selego\\.co"`

	// Categorizer
	CategorizerProvider string `env:"CATEGORIZER_PROVIDER" envDefault:"openrouter"`
	OpenRouterAPIKey    string `env:"OPENROUTER_API_KEY"`
	OpenRouterModel     string `env:"OPENROUTER_MODEL" envDefault:"google/gemini-flash-1.5-8b"`
	OpenRouterBaseURL   string `env:"OPENROUTER_BASE_URL" envDefault:"https://openrouter.ai/api/v1/"`
	GeminiAPIKey        string `env:"GEMINI_API_KEY"`
	GeminiModel         string `env:"GEMINI_MODEL" envDefault:"gemini-1.5-flash"`

	// Notification dispatch
	AMQPURL         string `env:"AMQP_URL"`
	AMQPExchange    string `env:"AMQP_EXCHANGE" envDefault:"budget"`
	AMQPQueue       string `env:"AMQP_QUEUE" envDefault:"budget_checks"`
	NotifyWorkers   int    `env:"NOTIFY_WORKERS" envDefault:"2"`
	NotifyQueueSize int    `env:"NOTIFY_QUEUE_SIZE" envDefault:"256"`

	// Observability
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat    string `env:"LOG_FORMAT" envDefault:"text"`
	OTelEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// IsProduction reports whether outbound mail may reach any recipient.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// CompletionEnabled reports whether the selected categorizer provider has a credential.
func (c *Config) CompletionEnabled() bool {
	switch c.CategorizerProvider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	default:
		return c.OpenRouterAPIKey != ""
	}
}

// Validate returns every configuration problem in a single error.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.ServerPort); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.ServerPort))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DatabaseDriver {
	case DriverPostgres, DriverSQLite, DriverMongoDB:
	default:
		errors = append(errors, fmt.Sprintf("invalid database driver '%s': must be one of %v",
			c.DatabaseDriver, []string{DriverPostgres, DriverSQLite, DriverMongoDB}))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errors = append(errors, "database URL cannot be empty")
	}
	if c.DatabaseDriver == DriverMongoDB && c.MongoDatabase == "" {
		errors = append(errors, "MongoDB database name cannot be empty when using mongodb driver")
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT secret cannot be empty")
	}
	if c.JWTExpiration <= 0 {
		errors = append(errors, fmt.Sprintf("invalid JWT expiration %v: must be positive", c.JWTExpiration))
	}

	if _, err := regexp.Compile(c.StagingRecipientPattern); err != nil {
		errors = append(errors, fmt.Sprintf("invalid staging recipient pattern '%s': %v", c.StagingRecipientPattern, err))
	}

	switch c.CategorizerProvider {
	case ProviderOpenRouter, ProviderGemini:
	default:
		errors = append(errors, fmt.Sprintf("invalid categorizer provider '%s': must be one of %v",
			c.CategorizerProvider, []string{ProviderOpenRouter, ProviderGemini}))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.NotifyWorkers < 1 || c.NotifyWorkers > 64 {
		errors = append(errors, fmt.Sprintf("invalid notify workers %d: must be between 1 and 64", c.NotifyWorkers))
	}
	if c.NotifyQueueSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid notify queue size %d: must be at least 1", c.NotifyQueueSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}
