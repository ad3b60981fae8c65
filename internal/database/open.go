package database

import (
	"context"
	"fmt"

	"joke-browser/internal/config"
	"joke-browser/internal/storage"
)

// Open returns the storage backend selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (storage.KV, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return storage.NewMemory(), nil
	case config.DriverFile:
		f, err := storage.NewFile(cfg.File.Path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.DriverSQLite:
		s, err := NewSQLite(ctx, cfg.SQLite)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverPostgres:
		p, err := NewPostgres(ctx, cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}
