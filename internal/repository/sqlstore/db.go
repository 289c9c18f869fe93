package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/andresuchdata/sportstore-dash/backend-go/internal/config"
	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	_ "modernc.org/sqlite"
)

// Supported values of DB_DRIVER.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverSQLite   = "sqlite"
)

// DB is a connection pool with a cap on concurrent queries and a retry
// policy for transient failures.
type DB struct {
	*sqlx.DB
	sem     *semaphore.Weighted
	retries int
	backoff time.Duration
}

// Options tunes a DB beyond the driver and DSN.
type Options struct {
	MaxOpenConns   int
	MaxConcurrency int64
	RetryAttempts  int
	RetryBackoff   time.Duration
}

// NewDB opens a pool from configuration. Each call returns an independent
// pool; callers own its lifetime.
func NewDB(cfg *config.DatabaseConfig) (*DB, error) {
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	return Open(cfg.Driver, dsn, Options{
		MaxOpenConns:   cfg.MaxOpenConns,
		MaxConcurrency: cfg.MaxConcurrency,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBackoff:   time.Duration(cfg.RetryBackoffMS) * time.Millisecond,
	})
}

// Open connects with an explicit driver name and DSN.
func Open(driver, dsn string, opts Options) (*DB, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	maxOpen := opts.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	concurrency := opts.MaxConcurrency
	if concurrency <= 0 {
		concurrency = 10
	}
	retries := opts.RetryAttempts
	if retries <= 0 {
		retries = 1
	}

	return &DB{
		DB:      db,
		sem:     semaphore.NewWeighted(concurrency),
		retries: retries,
		backoff: opts.RetryBackoff,
	}, nil
}

// BuildDSN renders the connection string for the configured driver.
// DATABASE_URL wins when set.
func BuildDSN(cfg *config.DatabaseConfig) (string, error) {
	if cfg.URL != "" {
		return cfg.URL, nil
	}

	switch cfg.Driver {
	case DriverMySQL:
		mc := mysql.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		return mc.FormatDSN(), nil
	case DriverPostgres:
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode), nil
	case DriverPgx:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, cfg.Port),
			Path:     "/" + cfg.DBName,
			RawQuery: url.Values{"sslmode": []string{cfg.SSLMode}}.Encode(),
		}
		return u.String(), nil
	case DriverSQLite:
		return cfg.DBName, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// WithRetry runs fn under the concurrency cap, retrying failed attempts with
// a linear backoff. Context cancellation stops retrying immediately.
func (db *DB) WithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := db.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("could not acquire semaphore: %w", err)
	}
	defer db.sem.Release(1)

	var err error
	for attempt := 1; attempt <= db.retries; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if attempt == db.retries {
			break
		}

		log.Warn().Err(err).Str("op", op).Int("attempt", attempt).Msg("query failed, retrying")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(db.backoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", op, db.retries, err)
}
