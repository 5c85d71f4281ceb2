package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"visiverse/internal/repository"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

const (
	pingAttempts = 5
	pingBackoff  = 200 * time.Millisecond
)

// InitDB opens the database for driver ("sqlite" or "pgx"), waits for it to
// answer and applies the embedded migrations.
func InitDB(ctx context.Context, driver, dsn string) (*sql.DB, repository.Dialect, error) {
	dialect, err := repository.DialectFor(driver)
	if err != nil {
		return nil, 0, err
	}
	if driver == "postgres" {
		driver = "pgx"
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", driver, err)
	}

	if dialect == repository.SQLite {
		// SQLite is not great with many writers
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		if err := applyPragmas(ctx, db); err != nil {
			_ = db.Close()
			return nil, 0, err
		}
	}

	// Fail fast if the DB cannot be reached, after a few attempts for servers still starting up
	backoff := retry.WithMaxRetries(pingAttempts-1, retry.NewExponential(pingBackoff))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, 0, fmt.Errorf("ping %s: %w", driver, err)
	}

	if err := migrate(ctx, db, dialect); err != nil {
		_ = db.Close()
		return nil, 0, err
	}
	return db, dialect, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("set %s: %w", pragma, err)
		}
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB, dialect repository.Dialect) error {
	gooseDialect, dir := "sqlite3", "migrations/sqlite"
	if dialect == repository.Postgres {
		gooseDialect, dir = "pgx", "migrations/postgres"
	}

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
