package kv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const (
	pingTimeout  = 1 * time.Second
	queryTimeout = 3 * time.Second
	txTimeout    = 5 * time.Second
)

const schema = `
	CREATE TABLE IF NOT EXISTS linkcart_kv (
		key   TEXT PRIMARY KEY,
		value JSONB NOT NULL
	)
`

type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects through the pgx stdlib driver and creates the
// table on first use.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	s := NewPostgresStore(db)

	if err := s.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := db.ExecContext(ctx, schema)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Close() error { return s.db.Close() }

func (s *PostgresStore) Ping(ctx context.Context) error {
	return wrapPG(withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	}))
}

func (s *PostgresStore) GetAll(ctx context.Context) (map[string][]byte, error) {
	out := map[string][]byte{}

	err := withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM linkcart_kv`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				k string
				v []byte
			)
			if err := rows.Scan(&k, &v); err != nil {
				return err
			}
			out[k] = v
		}
		return rows.Err()
	})
	if err != nil {
		return nil, wrapPG(err)
	}
	return out, nil
}

func (s *PostgresStore) Set(ctx context.Context, entries map[string][]byte) error {
	return wrapPG(s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		return upsertAll(ctx, tx, entries)
	}))
}

func (s *PostgresStore) Remove(ctx context.Context, key string) error {
	return wrapPG(withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM linkcart_kv WHERE key = $1`, key)
		return err
	}))
}

func (s *PostgresStore) Clear(ctx context.Context) error {
	return wrapPG(withTimeout(ctx, queryTimeout, func(ctx context.Context) error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM linkcart_kv`)
		return err
	}))
}

func (s *PostgresStore) Replace(ctx context.Context, entries map[string][]byte) error {
	return wrapPG(s.inTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM linkcart_kv`); err != nil {
			return err
		}
		return upsertAll(ctx, tx, entries)
	}))
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(ctx context.Context, tx *sql.Tx) error) error {
	return withTimeout(ctx, txTimeout, func(ctx context.Context) error {
		tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(ctx, tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

func upsertAll(ctx context.Context, tx *sql.Tx, entries map[string][]byte) error {
	if len(entries) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO linkcart_kv (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for k, v := range entries {
		if _, err := stmt.ExecContext(ctx, k, string(v)); err != nil {
			return err
		}
	}
	return nil
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}

// wrapPG marks connection-level failures as ErrUnavailable. Statement
// errors reported by the server keep their own identity.
func wrapPG(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
