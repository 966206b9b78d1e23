// Package dbmigrate applies the embedded schema migrations that create every
// collection served by peopledesk.
package dbmigrate

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Supported dialects.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Result reports the schema version after a migration run.
type Result struct {
	Version uint
	Dirty   bool
}

// Up applies all pending migrations.
func Up(db *sql.DB, dialect string) (Result, error) {
	m, err := newMigrator(db, dialect)
	if err != nil {
		return Result{}, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{}, fmt.Errorf("applying migrations: %w", err)
	}
	return version(m)
}

// Down reverts all applied migrations.
func Down(db *sql.DB, dialect string) (Result, error) {
	m, err := newMigrator(db, dialect)
	if err != nil {
		return Result{}, err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return Result{}, fmt.Errorf("reverting migrations: %w", err)
	}
	return version(m)
}

// Version reports the current schema version without changing it.
func Version(db *sql.DB, dialect string) (Result, error) {
	m, err := newMigrator(db, dialect)
	if err != nil {
		return Result{}, err
	}
	return version(m)
}

// newMigrator builds a migrator over db. The migrator is not closed: closing
// it would close db, which belongs to the caller.
func newMigrator(db *sql.DB, dialect string) (*migrate.Migrate, error) {
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case DialectPostgres:
		driver, err = migratepostgres.WithInstance(db, &migratepostgres.Config{})
	case DialectSQLite:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{})
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s migration driver: %w", dialect, err)
	}

	src, err := iofs.New(migrationsFS, "migrations/"+dialect)
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		return nil, fmt.Errorf("creating migrator: %w", err)
	}
	return m, nil
}

func version(m *migrate.Migrate) (Result, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("reading migration version: %w", err)
	}
	return Result{Version: v, Dirty: dirty}, nil
}
