package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	appconfig "github.com/GTDGit/repair_api/internal/config"
)

// Retry policy for the initial connection: the database container is often
// still starting when the API boots.
const (
	maxAttempts = 5
	baseDelay   = 500 * time.Millisecond
	maxDelay    = 5 * time.Second
)

// DSN builds the postgres connection string for cfg.
func DSN(cfg *appconfig.DatabaseConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		url.QueryEscape(cfg.User), url.QueryEscape(cfg.Password), cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode,
	)
}

// Connect establishes a PostgreSQL connection using the provided configuration.
// The returned *sqlx.DB has pool settings pre-configured and is pinged before
// returning.
func Connect(cfg *appconfig.DatabaseConfig) (*sqlx.DB, error) {
	if cfg == nil {
		return nil, errors.New("nil database config")
	}
	return ConnectDSN(DSN(cfg))
}

// ConnectDSN opens dsn with the same retry and pool policy as Connect.
func ConnectDSN(dsn string) (*sqlx.DB, error) {
	var db *sqlx.DB
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		db, lastErr = sqlx.Open("postgres", dsn)
		if lastErr != nil {
			sleepWithBackoff(attempt)
			continue
		}

		setPool(db.DB)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()
		if lastErr == nil {
			return db, nil
		}

		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("database ping failed, retrying")
		_ = db.Close()
		sleepWithBackoff(attempt)
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxAttempts, lastErr)
}

// setPool configures the connection pool for the database.
func setPool(db *sql.DB) {
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

// backoff returns base * 2^(attempt-1), capped to maxDelay.
func backoff(attempt int) time.Duration {
	d := baseDelay << (attempt - 1)
	if d > maxDelay {
		d = maxDelay
	}
	return d
}

func sleepWithBackoff(attempt int) {
	time.Sleep(backoff(attempt))
}
