package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS processed_source_items (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	key         TEXT    NOT NULL UNIQUE,
	title       TEXT    NOT NULL DEFAULT '',
	recorded_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_source_items_recorded_at
	ON processed_source_items (recorded_at);
`

// SQLite is the default file-backed ledger. recorded_at is stored as unix milliseconds.
type SQLite struct {
	db  *sql.DB
	now Clock
}

func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening ledger %s: %w", path, err)
	}
	// One writer connection; concurrent writers wait on busy_timeout instead of failing.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{"PRAGMA busy_timeout = 5000", "PRAGMA journal_mode = WAL"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configuring ledger (%s): %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}

	o := buildOptions(opts)
	return &SQLite{db: db, now: o.now}, nil
}

func (s *SQLite) IsRecorded(ctx context.Context, key string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM processed_source_items WHERE key = ?`, key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking ledger: %w", err)
	}
	return true, nil
}

func (s *SQLite) Record(ctx context.Context, key, title string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO processed_source_items (key, title, recorded_at) VALUES (?, ?, ?)`,
		key, title, s.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("recording %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := s.now().Add(-age).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM processed_source_items WHERE recorded_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning ledger: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("pruning ledger: %w", err)
	}
	return n, nil
}

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM processed_source_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
