package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"basegraph.app/agora/core/db"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS processed_source_items (
	id          BIGSERIAL PRIMARY KEY,
	key         TEXT        NOT NULL UNIQUE,
	title       TEXT        NOT NULL DEFAULT '',
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_processed_source_items_recorded_at
	ON processed_source_items (recorded_at);
`

// Postgres stores the ledger in a shared database so several hosts can run cycles.
type Postgres struct {
	db  *db.DB
	now Clock
}

// NewPostgres takes ownership of database and creates the table if needed.
func NewPostgres(ctx context.Context, database *db.DB, opts ...Option) (*Postgres, error) {
	err := database.WithTx(ctx, func(q db.Querier) error {
		_, err := q.Exec(ctx, postgresSchema)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("creating ledger schema: %w", err)
	}
	o := buildOptions(opts)
	return &Postgres{db: database, now: o.now}, nil
}

func (p *Postgres) IsRecorded(ctx context.Context, key string) (bool, error) {
	var one int
	err := p.db.Pool().QueryRow(ctx, `SELECT 1 FROM processed_source_items WHERE key = $1`, key).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking ledger: %w", err)
	}
	return true, nil
}

func (p *Postgres) Record(ctx context.Context, key, title string) error {
	if key == "" {
		return ErrEmptyKey
	}
	_, err := p.db.Pool().Exec(ctx,
		`INSERT INTO processed_source_items (key, title, recorded_at) VALUES ($1, $2, $3)
		 ON CONFLICT (key) DO NOTHING`,
		key, title, p.now().UTC())
	if err != nil {
		return fmt.Errorf("recording %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	tag, err := p.db.Pool().Exec(ctx,
		`DELETE FROM processed_source_items WHERE recorded_at < $1`, p.now().Add(-age).UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning ledger: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (p *Postgres) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := p.db.Pool().QueryRow(ctx, `SELECT COUNT(*) FROM processed_source_items`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting ledger: %w", err)
	}
	return n, nil
}

func (p *Postgres) Close() error {
	p.db.Close()
	return nil
}
