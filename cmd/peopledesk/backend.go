package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"

	"github.com/peopledesk/peopledesk/internal/config"
	"github.com/peopledesk/peopledesk/internal/dbmigrate"
	"github.com/peopledesk/peopledesk/internal/store"
)

// backend is an opened store plus, for SQL backends, its connection pool.
type backend struct {
	store   store.Store
	db      *sql.DB
	dialect string
}

func (b *backend) Close() error {
	return b.store.Close()
}

// openBackend opens the configured store. The Postgres pool is created
// without connecting so the service can start while the database is down.
func openBackend(ctx context.Context, cfg config.Config) (*backend, error) {
	storeLogger := componentLogger("store")
	switch cfg.Backend {
	case config.BackendPostgres:
		db, err := store.NewPostgresPool(store.PoolConfig{
			DSN:             cfg.DBDSN,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		return &backend{store: store.NewPostgresStore(db, storeLogger), db: db, dialect: dbmigrate.DialectPostgres}, nil
	case config.BackendSQLite:
		db, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return &backend{store: store.NewSQLiteStore(db, storeLogger), db: db, dialect: dbmigrate.DialectSQLite}, nil
	case config.BackendMemory:
		return &backend{store: store.NewMemoryStore(storeLogger)}, nil
	case config.BackendOffline:
		return &backend{store: store.NewOfflineStore()}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// waitForStore pings the store with exponential backoff, giving up after a
// few attempts.
func waitForStore(ctx context.Context, st store.Store, probeTimeout time.Duration, logger zerolog.Logger) error {
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		pingCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()
		return struct{}{}, st.Ping(pingCtx)
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Warn().Err(err).Dur("retry_in", next).Msg("store not reachable yet")
		}),
	)
	return err
}
