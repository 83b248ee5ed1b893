package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/roomtimer/go/internal/sqlutil"
	"github.com/sqlc-dev/pqtype"
)

// Dialect captures the SQL differences between supported databases.
type Dialect struct {
	Name        string
	ValueType   string
	placeholder func(n int) string
}

var (
	DialectSQLite = Dialect{
		Name:        "sqlite",
		ValueType:   "BLOB",
		placeholder: func(int) string { return "?" },
	}
	DialectPostgres = Dialect{
		Name:        "postgres",
		ValueType:   "JSONB",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
	}
)

// SQLKV stores records in a single kv_records table.
type SQLKV struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

// NewSQLKV wraps an open database. Call Migrate before use.
func NewSQLKV(db *sql.DB, dialect Dialect) *SQLKV {
	return &SQLKV{db: db, dialect: dialect, now: time.Now}
}

// Migrate creates the records table if missing.
func (s *SQLKV) Migrate(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS kv_records (
		record_key TEXT PRIMARY KEY,
		value %s NOT NULL,
		updated_at BIGINT NOT NULL
	)`, s.dialect.ValueType)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to migrate kv_records: %w", err)
	}
	return nil
}

// queries binds statements to either the pool or a transaction.
type queries struct {
	db interface {
		ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
		QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	}
	dialect Dialect
}

func (q *queries) get(ctx context.Context, key string) ([]byte, error) {
	var value pqtype.NullRawMessage
	err := q.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT value FROM kv_records WHERE record_key = %s`, q.dialect.placeholder(1)),
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sqlutil.FromNullRawMessage(value), nil
}

func (q *queries) put(ctx context.Context, key string, value []byte, updatedAt int64) error {
	p := q.dialect.placeholder
	_, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`INSERT INTO kv_records (record_key, value, updated_at) VALUES (%s, %s, %s)
			ON CONFLICT (record_key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			p(1), p(2), p(3)),
		key, sqlutil.ToNullRawMessage(value), updatedAt,
	)
	return err
}

func (q *queries) delete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM kv_records WHERE record_key = %s`, q.dialect.placeholder(1)),
		key,
	)
	return err
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	q := &queries{db: s.db, dialect: s.dialect}
	value, err := q.get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return value, err
}

// Put upserts a record inside a transaction.
func (s *SQLKV) Put(ctx context.Context, key string, value []byte) error {
	updatedAt := s.now().UnixMilli()
	err := sqlutil.Run(ctx, s.db, s.bind, func(q *queries) error {
		return q.put(ctx, key, value, updatedAt)
	})
	if err != nil {
		return fmt.Errorf("failed to put %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Delete(ctx context.Context, key string) error {
	err := sqlutil.Run(ctx, s.db, s.bind, func(q *queries) error {
		return q.delete(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}

func (s *SQLKV) bind(tx *sql.Tx) *queries {
	return &queries{db: tx, dialect: s.dialect}
}
