package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// Postgres is the dialect for PostgreSQL via lib/pq.
var Postgres = Dialect{Name: "postgres", Placeholder: sq.Dollar}

// PoolConfig configures a database/sql connection pool.
type PoolConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// NewPostgresPool configures a lib/pq connection pool without connecting.
// Connections are made on first use.
func NewPostgresPool(cfg PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	configurePool(db, cfg)
	return db, nil
}

// OpenPostgres opens a lib/pq connection pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, cfg PoolConfig) (*sql.DB, error) {
	db, err := NewPostgresPool(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return db, nil
}

// NewPostgresStore creates a SQLStore with PostgreSQL $1, $2 placeholders.
func NewPostgresStore(db *sql.DB, logger zerolog.Logger) *SQLStore {
	return NewSQLStore(db, Postgres, logger)
}

func configurePool(db *sql.DB, cfg PoolConfig) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// PostgreSQL error codes that mean the query references schema objects the
// database does not have.
var pqSchemaCodes = map[pq.ErrorCode]bool{
	"42P01": true, // undefined_table
	"42703": true, // undefined_column
	"42883": true, // undefined_function
	"42P10": true, // invalid_column_reference
	"42704": true, // undefined_object
}

// PostgreSQL error codes raised when the server is going away.
var pqTransportCodes = map[pq.ErrorCode]bool{
	"57P01": true, // admin_shutdown
	"57P02": true, // crash_shutdown
	"57P03": true, // cannot_connect_now
}

func classifyPostgres(err error) (Kind, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return KindFatal, false
	}
	switch {
	case pqSchemaCodes[pqErr.Code]:
		return KindSchemaMismatch, true
	case pqErr.Code.Class() == "08", pqTransportCodes[pqErr.Code]:
		return KindTransport, true
	}
	return KindFatal, true
}
