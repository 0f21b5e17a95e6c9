package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/postgres"
	"github.com/golang-migrate/migrate/v4"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := logger.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	logger.Infow("Connecting to database", "host", cfg.Postgres.Host, "dbname", cfg.Postgres.DBName)

	m, err := postgres.NewMigrator(cfg)
	if err != nil {
		logger.Fatalw("Failed to initialize migrations", "error", err)
	}
	defer func() {
		if sourceErr, dbErr := m.Close(); sourceErr != nil || dbErr != nil {
			logger.Errorw("Failed to close migration resources", "source_error", sourceErr, "db_error", dbErr)
		}
	}()

	switch flag.Arg(0) {
	case "up":
		err = m.Up()
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("No change: database is already up to date")
			return
		}
		if err != nil {
			logger.Fatalw("Failed to run migrations", "error", err)
		}
		logger.Info("Migration completed successfully")

	case "down":
		if err := m.Steps(-1); err != nil {
			logger.Fatalw("Failed to roll back the last migration", "error", err)
		}
		logger.Info("Rolled back the last migration")

	case "goto":
		if flag.NArg() < 2 {
			logger.Fatal("goto requires a version number")
		}
		version, err := strconv.ParseUint(flag.Arg(1), 10, 64)
		if err != nil {
			logger.Fatalw("Invalid version number", "error", err)
		}
		err = m.Migrate(uint(version))
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Infow("No change: database is already at version", "version", version)
			return
		}
		if err != nil {
			logger.Fatalw("Failed to migrate", "version", version, "error", err)
		}
		logger.Infow("Migrated", "version", version)

	case "status":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			logger.Info("No migrations have been applied")
			return
		}
		if err != nil {
			logger.Fatalw("Failed to read migration version", "error", err)
		}
		logger.Infow("Current migration version", "version", version, "dirty", dirty)

	default:
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: migrate [command]")
	fmt.Println("Commands:")
	fmt.Println("  up     - apply all pending migrations")
	fmt.Println("  down   - roll back the last migration")
	fmt.Println("  goto N - migrate to version N")
	fmt.Println("  status - show the current migration version")
}
