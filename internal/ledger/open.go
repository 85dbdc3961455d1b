package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/agora/core/config"
	"basegraph.app/agora/core/db"
)

// Open builds the backend named by cfg.Driver.
func Open(ctx context.Context, cfg config.LedgerConfig, opts ...Option) (Ledger, error) {
	switch cfg.Driver {
	case config.LedgerDriverSQLite, "":
		l, err := OpenSQLite(ctx, cfg.Path, opts...)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "ledger opened", "driver", config.LedgerDriverSQLite, "path", cfg.Path)
		return l, nil

	case config.LedgerDriverPostgres:
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("connecting ledger database: %w", err)
		}
		l, err := NewPostgres(ctx, database, opts...)
		if err != nil {
			database.Close()
			return nil, err
		}
		slog.InfoContext(ctx, "ledger opened", "driver", config.LedgerDriverPostgres)
		return l, nil

	case config.LedgerDriverRedis:
		l, err := OpenRedis(ctx, cfg.RedisURL, cfg.RedisPrefix, opts...)
		if err != nil {
			return nil, err
		}
		slog.InfoContext(ctx, "ledger opened", "driver", config.LedgerDriverRedis, "prefix", l.prefix)
		return l, nil

	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", cfg.Driver)
	}
}
