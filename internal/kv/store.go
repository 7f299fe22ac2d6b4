// Package kv is the persistent key-value layer under the record store: a
// flat mapping from string keys to opaque encoded values.
package kv

import (
	"context"
	"errors"
	"io"
)

var ErrUnavailable = errors.New("kv: store unavailable")

// Store is the key-value contract. Set merges the given keys into the
// mapping; Replace swaps the whole mapping in one step so readers never see
// an intermediate state.
type Store interface {
	io.Closer

	GetAll(ctx context.Context) (map[string][]byte, error)
	Set(ctx context.Context, entries map[string][]byte) error
	Remove(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Replace(ctx context.Context, entries map[string][]byte) error
	Ping(ctx context.Context) error
}

func cloneEntries(in map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(in))
	for k, v := range in {
		out[k] = append([]byte(nil), v...)
	}
	return out
}
