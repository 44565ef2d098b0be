package database

import (
	"context"
	"fmt"

	"budgettracker/config"
	"budgettracker/database/mongodb"
	"budgettracker/store"
)

// Connect opens the backend selected by cfg.DatabaseDriver.
func Connect(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverMongoDB:
		s, err := mongodb.Open(ctx, cfg.DatabaseURL, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres, config.DriverSQLite:
		s, err := Open(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.LogLevel == "debug")
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
