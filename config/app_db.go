package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/akashwadhwani35/inbox-party-waitlist/internal/log"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/retry"
	"github.com/akashwadhwani35/inbox-party-waitlist/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type DBConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// NewDatabase opens the waitlist store. A DATABASE_URL selects the pooled
// Postgres backend; without one we fall back to an embedded SQLite file so
// the server runs with zero external services.
func NewDatabase(logger *log.Logger, cfg *DBConfig) (*gorm.DB, error) {
	if cfg == nil {
		cfg = &DBConfig{
			MaxIdleConns:    1,
			MaxOpenConns:    10,
			ConnMaxLifetime: 5 * time.Minute,
		}
	}

	databaseURL := sanitizeEnv(GetValueFromEnvironmentVariable("DATABASE_URL", ""))

	if databaseURL != "" {
		return newPostgresDatabase(logger, databaseURL, cfg)
	}

	return newSQLiteDatabase(logger)
}

func newPostgresDatabase(logger *log.Logger, databaseURL string, cfg *DBConfig) (*gorm.DB, error) {
	logger.Info("Using DATABASE_URL for database connection")

	gdb, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// The database may still be warming up when we start, so the first ping
	// gets a few attempts before we give up.
	backoff := retry.NewExponentialBackoff(&retry.Config{
		MaxAttempts: 5,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Multiplier:  2.0,
	})
	if err := backoff.Execute(sqlDB.Ping); err != nil {
		logger.Error("Database ping failed", "error", err)
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	logger.Info("Database connection established successfully",
		"backend", "postgres",
		"max_open_conns", cfg.MaxOpenConns,
		"max_idle_conns", cfg.MaxIdleConns,
	)
	return gdb, nil
}

func newSQLiteDatabase(logger *log.Logger) (*gorm.DB, error) {
	sqlitePath := utils.GetEnvTrimmedOrDefault("SQLITE_PATH", "waitlist.db")
	logger.Info("DATABASE_URL not set; using embedded SQLite database", "path", sqlitePath)

	gdb, err := gorm.Open(sqlite.Open(sqlitePath), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Error("Failed to open SQLite database", "error", err)
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		logger.Error("Failed to get database instance", "error", err)
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// A single long-lived connection serializes writers, which is how SQLite
	// wants to be used and keeps lock contention out of request handling.
	sqlDB.SetMaxOpenConns(1)

	logger.Info("Database connection established successfully", "backend", "sqlite")
	return gdb, nil
}

func sanitizeEnv(v string) string {
	s := strings.TrimSpace(v)

	if len(s) >= 2 && ((s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'')) {
		s = s[1 : len(s)-1]
	}

	return s
}

func AutoMigrate(logger *log.Logger, db *gorm.DB, models ...interface{}) error {
	if db == nil {
		logger.Error("Cannot migrate: db is empty")
		return fmt.Errorf("cannot migrate: db is empty")
	}

	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Database migration failed", "error", err)
		return fmt.Errorf("auto-migrate failed: %w", err)
	}

	logger.Info("Database migration completed successfully")

	return nil
}

func CloseDatabase(db *gorm.DB, logger *log.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("Failed to get SQL DB instance", "error", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		logger.Error("Failed to close database", "error", err)
	} else {
		logger.Info("Database closed successfully")
	}
}
