package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/config"
	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/migrations"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/utils"
)

func main() {
	logger := log.NewLoggerWithJSONOutput()

	config.InitializeEnvFile(logger) // Load envs early for CLI consistency

	args := os.Args[1:]
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	switch args[0] {
	case "migrate":
		direction := "up"
		if len(args) > 1 {
			direction = args[1]
		}
		runMigrations(logger, direction)
		return

	case "generate-domain", "gendomain", "gen-domain":
		GenerateDomain()
		return

	case "help", "-h", "--help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runMigrations(logger *log.Logger, direction string) {
	if direction != "up" && direction != "down" {
		fmt.Fprintf(os.Stderr, "unknown migrate direction: %s\n", direction)
		printUsage()
		os.Exit(1)
	}

	// The SQL migrations target the Postgres deployment. Without a
	// DATABASE_URL the server runs on embedded SQLite, where the schema is
	// ensured at boot and there is nothing for this command to do.
	if utils.GetEnvTrimmed("DATABASE_URL") == "" {
		logger.Error("DATABASE_URL is not set; migrations only apply to the Postgres deployment")
		os.Exit(1)
	}

	if direction == "down" {
		if err := config.ValidateDownMigrationAllowed(config.GetAppEnv()); err != nil {
			logger.Error("Refusing to revert migration", "error", err.Error())
			os.Exit(1)
		}
	}

	db, err := config.NewDatabase(logger, nil)
	if err != nil {
		logger.Error("Failed to connect to database for migration", "error", err.Error())

		os.Exit(1)
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance for migration", "error", err.Error())
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn("Failed to close SQL DB after migration", "error", err.Error())
		}
	}()

	migrationsDir := utils.GetEnvTrimmedOrDefault("MIGRATIONS_DIR", "migrations")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cfg := migrations.Config{Dir: migrationsDir, Logger: logger}

	if direction == "down" {
		if err := migrations.Down(ctx, sqlDB, cfg); err != nil {
			logger.Error("Migration rollback failed", "error", err.Error())
			os.Exit(1)
		}

		logger.Info("Migration rollback completed")
		return
	}

	if err := migrations.Up(ctx, sqlDB, cfg); err != nil {
		logger.Error("Database migration failed", "error", err.Error())
		os.Exit(1)
	}

	logger.Info("Database migrations completed")
}

func printUsage() {
	fmt.Println("Usage: cli <command>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  migrate [up|down]  Apply pending SQL migrations (up, the default) or revert the last one (down)")
	fmt.Println("  generate-domain    Interactively scaffolds a new domain/module (repository, service, controller, factory)")
}
