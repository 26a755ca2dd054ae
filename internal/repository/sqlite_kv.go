package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/insession/internal/db"
)

// SQLiteKeyValueRepo implements KeyValueRepo on the session_kv table.
// Upserted rows get a fresh updated_at.
type SQLiteKeyValueRepo struct {
	db  db.DBTX
	uow db.UnitOfWork
}

// NewSQLiteKeyValueRepo creates a repo that reads through conn and runs
// each Batch inside uow. A nil uow runs writes directly on conn, which
// is how the tx-scoped copy inside WithinTx is built.
func NewSQLiteKeyValueRepo(conn db.DBTX, uow db.UnitOfWork) *SQLiteKeyValueRepo {
	return &SQLiteKeyValueRepo{db: conn, uow: uow}
}

func (r *SQLiteKeyValueRepo) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("key %q: %w", key, ErrNotFound)
		}
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, nil
}

// GetMany reads every key with a single SELECT, so a concurrent Apply is
// seen either entirely or not at all.
func (r *SQLiteKeyValueRepo) GetMany(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	rows, err := r.db.QueryContext(ctx,
		`SELECT key, value FROM session_kv WHERE key IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		out[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading keys: %w", err)
	}
	return out, nil
}

func (r *SQLiteKeyValueRepo) Apply(ctx context.Context, b Batch) error {
	if b.empty() {
		return nil
	}
	return r.withinTx(ctx, func(ctx context.Context, tx *SQLiteKeyValueRepo) error {
		now := nowUTC()
		for _, k := range sortedKeys(b.Set) {
			_, err := tx.db.ExecContext(ctx,
				`INSERT INTO session_kv (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				k, b.Set[k], now)
			if err != nil {
				return fmt.Errorf("writing key %q: %w", k, err)
			}
		}
		for _, k := range b.Delete {
			if _, err := tx.db.ExecContext(ctx, `DELETE FROM session_kv WHERE key = ?`, k); err != nil {
				return fmt.Errorf("deleting key %q: %w", k, err)
			}
		}
		return nil
	})
}

func (r *SQLiteKeyValueRepo) SetMany(ctx context.Context, values map[string]string) error {
	return r.Apply(ctx, Batch{Set: values})
}

func (r *SQLiteKeyValueRepo) DeleteMany(ctx context.Context, keys ...string) error {
	return r.Apply(ctx, Batch{Delete: keys})
}

func (r *SQLiteKeyValueRepo) withinTx(ctx context.Context, fn func(ctx context.Context, tx *SQLiteKeyValueRepo) error) error {
	if r.uow == nil {
		return fn(ctx, r)
	}
	return r.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, NewSQLiteKeyValueRepo(tx, nil))
	})
}
