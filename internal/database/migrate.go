package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log"
	"sync"

	"github.com/pressly/goose/v3"
)

const MigrationsTable = "schema_migrations"

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var MigrationsFS embed.FS

// goose keeps dialect and base FS in package globals.
var gooseMu sync.Mutex

func MigrationsDir(dialect goose.Dialect) (string, error) {
	switch dialect {
	case goose.DialectPostgres:
		return "migrations/postgres", nil
	case goose.DialectSQLite3:
		return "migrations/sqlite", nil
	default:
		return "", fmt.Errorf("no migrations for dialect %q", dialect)
	}
}

// Migrate applies pending migrations quietly; backends call it on open.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	return run(ctx, db, dialect, goose.NopLogger(), "up")
}

// Run executes a goose command against the embedded migrations and reports
// progress on the standard logger.
func Run(ctx context.Context, db *sql.DB, dialect goose.Dialect, command string, args ...string) error {
	return run(ctx, db, dialect, log.Default(), command, args...)
}

func run(ctx context.Context, db *sql.DB, dialect goose.Dialect, l goose.Logger, command string, args ...string) error {
	dir, err := MigrationsDir(dialect)
	if err != nil {
		return err
	}

	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(MigrationsFS)
	goose.SetLogger(l)
	goose.SetTableName(MigrationsTable)

	if err := goose.SetDialect(string(dialect)); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}

	if err := goose.RunContext(ctx, command, db, dir, args...); err != nil {
		return fmt.Errorf("migration %s failed: %w", command, err)
	}

	return nil
}
