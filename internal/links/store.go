package links

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"LinkCart/internal/kv"
)

// Store keeps records in a kv.Store under keys "1".."N". Every mutation runs
// read-modify-write under one mutex and persists with a single kv call, so
// two saves can no longer compute the same next key.
type Store struct {
	kv      kv.Store
	policy  Policy
	log     *zap.Logger
	metrics *Metrics

	mu sync.Mutex
}

type Option func(*Store)

func WithPolicy(p Policy) Option { return func(s *Store) { s.policy = p } }

func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

func WithMetrics(m *Metrics) Option { return func(s *Store) { s.metrics = m } }

func NewStore(backend kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     backend,
		policy: PolicyAppend,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s
}

func (s *Store) Policy() Policy { return s.policy }

func (s *Store) Ping(ctx context.Context) error { return s.kv.Ping(ctx) }

// List returns all entries ordered by numeric key.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	return s.load(ctx, "list")
}

// ListAll is List for render paths: a storage failure is logged and shows
// up as an empty collection.
func (s *Store) ListAll(ctx context.Context) []Entry {
	entries, err := s.List(ctx)
	if err != nil {
		s.log.Warn("list records failed, showing empty list", zap.Error(err))
		return []Entry{}
	}
	return entries
}

func (s *Store) Len(ctx context.Context) (int, error) {
	entries, err := s.load(ctx, "len")
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func (s *Store) Get(ctx context.Context, key string) (Record, bool, error) {
	entries, err := s.load(ctx, "get")
	if err != nil {
		return Record{}, false, err
	}
	for _, e := range entries {
		if e.Key == key {
			return e.Record, true, nil
		}
	}
	return Record{}, false, nil
}

// Save stores rec unless a record with the same link and product name is
// already present, in which case it returns ErrDuplicateRecord and changes
// nothing.
func (s *Store) Save(ctx context.Context, rec Record) (Entry, error) {
	if err := rec.validate(); err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, "save")
	if err != nil {
		return Entry{}, err
	}

	for _, e := range entries {
		if e.Record.SameProduct(rec) {
			s.metrics.duplicate()
			return Entry{}, fmt.Errorf("%w: %s (key %s)", ErrDuplicateRecord, describe(rec), e.Key)
		}
	}

	var (
		saved Entry
		next  []Entry
	)
	switch s.policy {
	case PolicyPrepend:
		saved = Entry{Key: "1", Record: rec}
		next = append([]Entry{saved}, renumber(entries, 2)...)
	default:
		saved = Entry{Key: firstFreeKey(entries), Record: rec}
		next = append(entries, saved)
	}

	if err := s.persist(ctx, "save", next); err != nil {
		return Entry{}, err
	}

	s.metrics.saved()
	s.log.Info("record saved",
		zap.String("key", saved.Key),
		zap.String("link", rec.Link),
		zap.String("policy", string(s.policy)),
	)
	return saved, nil
}

// Delete removes key and renumbers the survivors "1".."N-1" keeping their
// order.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, "delete")
	if err != nil {
		return err
	}

	kept := make([]Entry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.Key == key {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("%w: key %q", ErrNotFound, key)
	}

	if err := s.persist(ctx, "delete", renumber(kept, 1)); err != nil {
		return err
	}

	s.metrics.deleted()
	s.log.Info("record deleted", zap.String("key", key), zap.Int("remaining", len(kept)))
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Clear(ctx); err != nil {
		s.metrics.storeError("clear")
		s.log.Error("clear records failed", zap.Error(err))
		return errors.Join(ErrStorageUnavailable, err)
	}

	s.metrics.cleared()
	s.log.Info("records cleared")
	return nil
}

// Drain hands every entry to fn and clears the store once fn returns nil.
// The writer lock is held throughout, so a concurrent Save waits and its
// record survives the clear. An error from fn leaves the store untouched.
func (s *Store) Drain(ctx context.Context, fn func([]Entry) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx, "drain")
	if err != nil {
		return err
	}
	if err := fn(entries); err != nil {
		return err
	}

	if err := s.kv.Clear(ctx); err != nil {
		s.metrics.storeError("drain")
		s.log.Error("clear after drain failed", zap.Error(err))
		return errors.Join(ErrStorageUnavailable, err)
	}

	s.metrics.cleared()
	s.log.Info("records drained", zap.Int("count", len(entries)))
	return nil
}

// Lookup returns the record under key. It satisfies the lookup used for
// $key expansion; storage errors count as a miss.
func (s *Store) Lookup(ctx context.Context) func(key string) (Record, bool) {
	entries := s.ListAll(ctx)
	byKey := make(map[string]Record, len(entries))
	for _, e := range entries {
		byKey[e.Key] = e.Record
	}
	return func(key string) (Record, bool) {
		r, ok := byKey[key]
		return r, ok
	}
}

func (s *Store) load(ctx context.Context, op string) ([]Entry, error) {
	raw, err := s.kv.GetAll(ctx)
	if err != nil {
		s.metrics.storeError(op)
		return nil, errors.Join(ErrStorageUnavailable, err)
	}

	entries := make([]Entry, 0, len(raw))
	for k, v := range raw {
		var rec Record
		if err := json.Unmarshal(v, &rec); err != nil {
			s.metrics.storeError(op)
			return nil, errors.Join(ErrStorageUnavailable, fmt.Errorf("decode record %q: %w", k, err))
		}
		entries = append(entries, Entry{Key: k, Record: rec})
	}
	sortEntries(entries)
	return entries, nil
}

// persist writes the complete mapping in one Replace call.
func (s *Store) persist(ctx context.Context, op string, entries []Entry) error {
	m := make(map[string][]byte, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e.Record)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", e.Key, err)
		}
		m[e.Key] = b
	}

	if err := s.kv.Replace(ctx, m); err != nil {
		s.metrics.storeError(op)
		s.log.Error("persist records failed", zap.String("op", op), zap.Error(err))
		return errors.Join(ErrStorageUnavailable, err)
	}
	return nil
}

func describe(r Record) string {
	if r.ProductName != "" {
		return strconv.Quote(r.ProductName)
	}
	return r.Link
}
