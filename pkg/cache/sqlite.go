package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteFile is the database file name of [SQLiteCache] inside its directory.
const SQLiteFile = "records.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	data BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_expires ON cache_entries(expires_at);
`

// SQLiteCache keeps entries in a single SQLite database. Unlike [FileCache]
// it stays one file however many record windows are cached.
type SQLiteCache struct {
	db   *sql.DB
	path string
}

var _ Cache = (*SQLiteCache)(nil)

// NewSQLiteCache opens or creates the database dir/records.db.
func NewSQLiteCache(dir string) (*SQLiteCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	path := filepath.Join(dir, SQLiteFile)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	// One connection serializes writers; sqlite rejects concurrent ones.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &SQLiteCache{db: db, path: path}, nil
}

// Path returns the database file.
func (c *SQLiteCache) Path() string { return c.path }

func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data    []byte
		expires int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&data, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expires != 0 && time.Now().UnixNano() > expires {
		_ = c.Delete(ctx, key)
		return nil, false, nil
	}
	return data, true, nil
}

func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	var expires int64
	if ttl > 0 {
		expires = time.Now().Add(ttl).UnixNano()
	}
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache_entries (key, data, expires_at) VALUES (?, ?, ?)",
		key, data, expires,
	)
	return err
}

func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	return err
}

// Prune removes expired entries and returns how many were removed.
func (c *SQLiteCache) Prune(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE expires_at != 0 AND expires_at < ?", time.Now().UnixNano(),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Clear removes every entry and returns how many were removed.
func (c *SQLiteCache) Clear(ctx context.Context) (int, error) {
	res, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries")
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (c *SQLiteCache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}
