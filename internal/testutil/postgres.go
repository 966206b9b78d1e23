// Package testutil provides helpers shared by integration tests.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/peopledesk/peopledesk/internal/dbmigrate"
	"github.com/peopledesk/peopledesk/internal/store"
)

// PostgresImage is the container image used for integration tests.
const PostgresImage = "postgres:16-alpine"

// NewTestPostgres starts a PostgreSQL container, applies the embedded
// migrations and returns a connection pool. The container and pool are
// released when the test finishes.
func NewTestPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ctr, err := postgres.Run(ctx, PostgresImage,
		postgres.WithDatabase("peopledesk"),
		postgres.WithUsername("peopledesk"),
		postgres.WithPassword("peopledesk"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := store.OpenPostgres(ctx, store.PoolConfig{DSN: dsn, MaxOpenConns: 5})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = dbmigrate.Up(db, dbmigrate.DialectPostgres)
	require.NoError(t, err)
	return db
}
