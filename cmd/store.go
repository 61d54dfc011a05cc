package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/tunitech/specrecon/internal/resilience"
	"github.com/tunitech/specrecon/internal/store"
)

// initStore opens the configured store. Driver "none" yields a nil store.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "none":
		return nil, nil
	case "postgres":
		retry := resilience.DefaultRetryConfig()
		retry.MaxAttempts = cfg.Store.ConnectAttempts
		retry.OnRetry = resilience.RetryLogger("postgres", "connect")
		st, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (*store.PostgresStore, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
		if err != nil {
			return nil, eris.Wrap(err, "init postgres store")
		}
		return st, nil
	case "sqlite":
		st, err := store.NewSQLite(cfg.Store.DSN)
		if err != nil {
			return nil, eris.Wrap(err, "init sqlite store")
		}
		return st, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore opens and migrates the configured store. SQLite migrations are
// retried while another process holds the database lock.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := initStore(ctx)
	if err != nil || st == nil {
		return st, err
	}
	retry := resilience.DefaultRetryConfig()
	retry.OnRetry = resilience.RetryLogger(cfg.Store.Driver, "migrate")
	if err := resilience.Do(ctx, retry, st.Migrate); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
