// This file is used to run job ledger migrations against postgres.
// How to run:
// go run cmd/migrate/main.go              # Run all pending migrations
// go run cmd/migrate/main.go -down        # Rollback all migrations
// go run cmd/migrate/main.go -steps 1     # Run one migration
// go run cmd/migrate/main.go -steps -1    # Rollback one migration
// go run cmd/migrate/main.go -force 1     # Force version 1
package main

import (
	"flag"
	"time"

	"github.com/celestiaorg/peakinvestigator/config"
	"github.com/celestiaorg/peakinvestigator/internal/db"
	"github.com/celestiaorg/peakinvestigator/internal/db/migrations"
	"github.com/celestiaorg/peakinvestigator/internal/logger"
)

func main() {
	logger.InitializeAndConfigure()

	if err := config.LoadDotEnv(); err != nil {
		logger.Fatalf("Error loading .env file: %v", err)
	}

	var (
		dbURLFlag = flag.String("db", "", "Database URL (optional, defaults to DB_* env vars)")
		migPath   = flag.String("path", "file://migrations", "Path to migration files")
		down      = flag.Bool("down", false, "Roll back migrations")
		steps     = flag.Int("steps", 0, "Number of migrations to apply (up or down)")
		force     = flag.Int("force", -1, "Force a specific version")
		retries   = flag.Uint("retries", 5, "Number of connection attempts")
		retryWait = flag.Duration("retry-wait", 3*time.Second, "Wait time between retries")
	)
	flag.Parse()

	// Use command line flag if provided, otherwise use env vars
	dbURL := *dbURLFlag
	if dbURL == "" {
		opts, err := config.LedgerOptions()
		if err != nil {
			logger.Fatalf("Invalid ledger configuration: %v", err)
		}
		if opts.Driver != db.DriverPostgres {
			logger.Fatalf("Migrations manage the postgres ledger; DB_DRIVER is %q", opts.Driver)
		}
		dbURL = db.URL(opts)
	}

	service, err := migrations.NewMigrationService(migrations.Config{
		MigrationsPath: *migPath,
		DatabaseURL:    dbURL,
		RetryAttempts:  *retries,
		RetryDelay:     *retryWait,
	})
	if err != nil {
		logger.Fatalf("Failed to create migration service: %v", err)
	}

	runErr := run(service, *force, *steps, *down)
	if runErr == nil {
		if version, dirty, err := service.Version(); err != nil {
			logger.Warnf("Could not get final version: %v", err)
		} else {
			logger.Infof("Current migration version: %d (dirty: %v)", version, dirty)
		}
	}
	if err := service.Close(); err != nil {
		logger.Warnf("Error closing migration service: %v", err)
	}
	if runErr != nil {
		logger.Fatalf("Migration failed: %v", runErr)
	}
}

func run(service *migrations.MigrationService, force, steps int, down bool) error {
	switch {
	case force >= 0:
		if err := service.Force(force); err != nil {
			return err
		}
		logger.Infof("Successfully forced version to %d", force)
	case steps != 0:
		if err := service.Steps(steps); err != nil {
			return err
		}
		logger.Infof("Successfully applied %d steps", steps)
	case down:
		return service.Down()
	default:
		return service.Up()
	}
	return nil
}
