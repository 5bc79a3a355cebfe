package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/kilianp07/evtariff/core/model"
	"github.com/kilianp07/evtariff/core/pricecache"
)

var _ pricecache.Store = (*SQLiteStore)(nil)

// SQLiteConfig configures the embedded SQLite store.
type SQLiteConfig struct {
	Path string `json:"path"`
}

const sqliteSchema = `CREATE TABLE IF NOT EXISTS cache_entries (
	partition TEXT NOT NULL,
	key       TEXT NOT NULL,
	value     BLOB NOT NULL,
	PRIMARY KEY (partition, key)
)`

// SQLiteStore persists records in a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens the database file and creates the table if needed.
func OpenSQLite(ctx context.Context, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite store: path is required")
	}
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite store: migrate: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, p pricecache.Partition, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_entries WHERE partition = ? AND key = ?`, string(p), key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrNotFound
	}
	return v, err
}

func (s *SQLiteStore) Put(ctx context.Context, p pricecache.Partition, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO cache_entries (partition, key, value) VALUES (?, ?, ?)
		 ON CONFLICT (partition, key) DO UPDATE SET value = excluded.value`,
		string(p), key, value)
	return err
}

func (s *SQLiteStore) Delete(ctx context.Context, p pricecache.Partition, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE partition = ? AND key = ?`, string(p), key)
	return err
}

func (s *SQLiteStore) Keys(ctx context.Context, p pricecache.Partition) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM cache_entries WHERE partition = ? ORDER BY key`, string(p))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, p pricecache.Partition) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cache_entries WHERE partition = ?`, string(p)).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Clear(ctx context.Context, p pricecache.Partition) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE partition = ?`, string(p))
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
