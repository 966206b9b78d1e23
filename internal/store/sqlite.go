package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"

	// Registers the pure-Go "sqlite" driver.
	_ "modernc.org/sqlite"
)

// SQLite is the dialect for the embedded modernc.org/sqlite driver. SQLite
// has no ILIKE and its LIKE ignores ASCII case.
var SQLite = Dialect{Name: "sqlite", Placeholder: sq.Question, FoldILike: true}

// OpenSQLite opens a SQLite database file with foreign keys enabled and a
// busy timeout so concurrent writers wait instead of failing.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}
	return db, nil
}

// NewSQLiteStore creates a SQLStore with SQLite ? placeholders.
func NewSQLiteStore(db *sql.DB, logger zerolog.Logger) *SQLStore {
	return NewSQLStore(db, SQLite, logger)
}

var sqliteSchemaMessages = []string{"no such table", "no such column", "no such function", "has no column named"}

func classifySQLiteMessage(msg string) (Kind, bool) {
	for _, m := range sqliteSchemaMessages {
		if strings.Contains(msg, m) {
			return KindSchemaMismatch, true
		}
	}
	if strings.Contains(msg, "database is locked") {
		return KindTransport, true
	}
	return KindFatal, false
}
