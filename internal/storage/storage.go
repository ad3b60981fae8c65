// Package storage is the durable key/value boundary the favorites list is
// persisted through. Values are opaque strings and every Set replaces the
// previous value in full.
package storage

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

type KV interface {
	// Get returns ErrNotFound when the key has never been set.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pinger is implemented by backends that hold a live connection.
type Pinger interface {
	Ping(ctx context.Context) error
}
