package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "link:"

// BadgerStore keeps the mapping in an embedded badger database, one badger
// key per mapping key under badgerPrefix.
type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(filepath.Clean(dir)).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %s: %w", dir, err)
	}
	return &BadgerStore{db: db}, nil
}

// OpenBadgerInMemory is used by tests.
func OpenBadgerInMemory() (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, err
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }

func (s *BadgerStore) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return ErrUnavailable
	}
	return ctx.Err()
}

func (s *BadgerStore) GetAll(ctx context.Context) (map[string][]byte, error) {
	out := map[string][]byte{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		pfx := []byte(badgerPrefix)
		for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			key := string(item.Key()[len(pfx):])
			v, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			out[key] = v
		}
		return nil
	})
	if err != nil {
		return nil, wrapBadger(err)
	}
	return out, nil
}

func (s *BadgerStore) Set(ctx context.Context, entries map[string][]byte) error {
	return wrapBadger(s.db.Update(func(txn *badger.Txn) error {
		for k, v := range entries {
			if err := txn.Set([]byte(badgerPrefix+k), v); err != nil {
				return err
			}
		}
		return nil
	}))
}

func (s *BadgerStore) Remove(ctx context.Context, key string) error {
	return wrapBadger(s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerPrefix + key))
	}))
}

func (s *BadgerStore) Clear(ctx context.Context) error {
	return wrapBadger(s.db.DropPrefix([]byte(badgerPrefix)))
}

// Replace deletes every existing key and writes entries inside one
// transaction. The collections are human-curated lists, far below badger's
// per-transaction limits.
func (s *BadgerStore) Replace(ctx context.Context, entries map[string][]byte) error {
	return wrapBadger(s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)

		pfx := []byte(badgerPrefix)
		var stale [][]byte
		for it.Seek(pfx); it.ValidForPrefix(pfx); it.Next() {
			stale = append(stale, it.Item().KeyCopy(nil))
		}
		it.Close()

		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for k, v := range entries {
			if err := txn.Set([]byte(badgerPrefix+k), v); err != nil {
				return err
			}
		}
		return nil
	}))
}

func wrapBadger(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return err
}
