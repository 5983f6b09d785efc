// Package sqlite is a file-backed kv.Store on modernc.org/sqlite, the
// persistent binding used by the CLI between invocations.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/aussiebroadwan/estate/pkg/kv"
	_ "modernc.org/sqlite"
)

const (
	getQuery    = `SELECT value FROM kv_entries WHERE key = ?`
	upsertQuery = `INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
)

type Store struct {
	db  *sql.DB
	dsn string
}

var _ kv.Store = (*Store)(nil)

// NewStore opens the database at dsn. Call ApplyMigrations before first use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A single CLI process writes; serialise access to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn string) (*Store, error) {
	s, err := NewStore(dsn)
	if err != nil {
		return nil, err
	}

	if err := s.ApplyMigrations(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, getQuery, key).Scan(&value)
	if err != nil {
		return "", mapNotFound(err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, upsertQuery, key, value)
	return err
}

// SetMany writes every entry in one transaction.
func (s *Store) SetMany(ctx context.Context, entries map[string]string) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, upsertQuery)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for k, v := range entries {
			if _, err := stmt.ExecContext(ctx, k, v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_entries WHERE key IN (`+placeholders+`)`, args...)
	return err
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return kv.ErrNotFound
	}
	return err
}
