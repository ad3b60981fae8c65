package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"joke-browser/internal/config"
	"joke-browser/internal/database"

	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

var (
	flags  = flag.NewFlagSet("migrator", flag.ExitOnError)
	driver = flags.String("driver", "", "storage driver to migrate (sqlite or postgres); defaults to config")
)

func main() {
	flags.Usage = usage
	flags.Parse(os.Args[1:])
	args := flags.Args()

	if len(args) < 1 {
		flags.Usage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrEmptyBotToken) {
			fmt.Println("Note: bot token not required for migration")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
	}

	storageCfg := config.StorageConfig{
		Driver: config.DriverSQLite,
		SQLite: config.SQLiteConfig{Path: "data/jokes.db"},
	}
	if cfg != nil {
		storageCfg = cfg.Storage
	}
	if *driver != "" {
		storageCfg.Driver = *driver
	}

	var (
		driverName string
		dsn        string
		dialect    goose.Dialect
	)

	switch storageCfg.Driver {
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(storageCfg.SQLite.Path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create sqlite directory: %v\n", err)
			os.Exit(1)
		}
		driverName, dsn, dialect = "sqlite", storageCfg.SQLite.Path, goose.DialectSQLite3
	case config.DriverPostgres:
		driverName, dsn, dialect = "pgx", storageCfg.Postgres.ConnectionString(), goose.DialectPostgres
	default:
		fmt.Fprintf(os.Stderr, "Driver %q has no schema to migrate\n", storageCfg.Driver)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	if err := database.Run(ctx, db, dialect, args[0], args[1:]...); err != nil {
		fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(usagePrefix)
	flags.PrintDefaults()
	fmt.Println(usageCommands)
}

var (
	usagePrefix = `Usage: migrator [OPTIONS] COMMAND

Reads storage settings from CONFIG_PATH (default configs/config.yaml)
and STORAGE_* environment variables.

Options:
`

	usageCommands = `
Commands:
    up                   Migrate the database to the most recent version available
    up-by-one            Migrate the database up by 1
    up-to VERSION        Migrate the database to a specific VERSION
    down                 Roll back the version by 1
    down-to VERSION      Roll back to a specific VERSION
    redo                 Re-run the latest migration
    reset                Roll back all migrations
    status               Dump the migration status
    version              Print the current version
`
)
