package kv

import (
	"context"
	"fmt"
)

const (
	BackendMemory   = "memory"
	BackendBadger   = "badger"
	BackendPostgres = "postgres"
)

type Options struct {
	Backend     string
	BadgerDir   string
	DatabaseURL string
}

// Open returns the Store selected by opts.Backend.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemStore(), nil
	case BackendBadger, "":
		return OpenBadger(opts.BadgerDir)
	case BackendPostgres:
		if opts.DatabaseURL == "" {
			return nil, fmt.Errorf("kv: %s backend needs a database url", BackendPostgres)
		}
		return OpenPostgres(ctx, opts.DatabaseURL)
	default:
		return nil, fmt.Errorf("kv: unknown backend %q", opts.Backend)
	}
}
