package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-resolver/internal/store"
)

// initStore builds the Store backend named by cfg.Store.Driver. Both
// backends are pure Go (no cgo), so unlike the teacher's Salesforce-gated
// store init this needs no integration build tag.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "idresolver.db"
		}
		st, err := store.NewSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return st, st.Migrate(ctx)
	case "postgres":
		st, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		return st, st.Migrate(ctx)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
