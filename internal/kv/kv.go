// Package kv stores named blobs for the bot's persisted state.
package kv

import (
	"context"
	"fmt"

	"github.com/drewdunne/updatesbot/internal/config"
)

// Store is a key-value blob store.
type Store interface {
	// Get returns the value for key, or nil with no error if it is unset.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set replaces the value for key.
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open opens the backend named by cfg.
func Open(ctx context.Context, cfg config.StateConfig) (Store, error) {
	switch cfg.Backend {
	case "file":
		return NewFileStore(cfg.Path), nil
	case "sqlite":
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.Backend)
	}
}
