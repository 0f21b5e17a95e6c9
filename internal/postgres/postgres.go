package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/internal/logger"
	"github.com/flexprice/grants/internal/sentry"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// DB wraps sqlx.DB with query tracing. Reconciliation never opens a transaction:
// every grant is one atomic statement per table.
type DB struct {
	*sqlx.DB
	logger *logger.Logger
	sentry *sentry.Service
}

// Querier interface defines the database operations used by the repositories
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
}

// NewDB creates a new DB instance
func NewDB(config *config.Configuration, logger *logger.Logger, sentry *sentry.Service) (*DB, error) {
	dsn := config.Postgres.GetDSN()
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if config.Postgres.MaxOpenConns > 0 {
		db.SetMaxOpenConns(config.Postgres.MaxOpenConns)
	}
	if config.Postgres.MaxIdleConns > 0 {
		db.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}
	if config.Postgres.ConnMaxLifetimeMinutes > 0 {
		db.SetConnMaxLifetime(time.Duration(config.Postgres.ConnMaxLifetimeMinutes) * time.Minute)
	}

	return Wrap(db, logger, sentry), nil
}

// Wrap builds a DB around an existing connection, used with sqlmock in tests
func Wrap(db *sqlx.DB, logger *logger.Logger, sentry *sentry.Service) *DB {
	return &DB{DB: db, logger: logger, sentry: sentry}
}

// Close closes the database connection
func (db *DB) Close() {
	if err := db.DB.Close(); err != nil {
		db.logger.Errorw("error closing database", "error", err)
	}
}

// GetQuerier returns the traced base DB
func (db *DB) GetQuerier(ctx context.Context) Querier {
	return NewTracedQuerier(db.DB, db.logger, db.sentry)
}

// Ping checks connectivity, used by the health endpoint
func (db *DB) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}
