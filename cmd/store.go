package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/influencer"
)

func initStore(ctx context.Context) (influencer.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "roster.db"
		}
		st, err := influencer.NewSQLiteStore(dsn)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: open store")
		}
		return st, nil
	case "postgres":
		st, err := initPostgresStore(ctx)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPostgresStore(ctx context.Context) (*influencer.PostgresStore, error) {
	if cfg.Store.DatabaseURL == "" {
		return nil, eris.New("postgres: store.database_url is required (ROSTER_STORE_DATABASE_URL)")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Store.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse database url")
	}
	if cfg.Store.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Store.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping database")
	}

	zap.L().Debug("postgres: connected", zap.Int32("max_conns", poolCfg.MaxConns))
	return influencer.NewPostgresStore(pool).WithCloser(pool.Close), nil
}
