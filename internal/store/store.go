// Package store is the boundary between the data layer and a backing store.
//
// Every implementation (SQL, in-memory, offline) satisfies the Store
// interface over schema-less rows addressed by collection name. Failures
// leave this package as *Error values tagged with a Kind, so callers dispatch
// on a closed set of outcomes instead of inspecting driver messages.
package store

import (
	"context"
	"errors"

	"github.com/peopledesk/peopledesk/internal/query"
)

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	// ErrNotFound is returned when no row matches the requested id.
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when an insert reuses an existing id.
	ErrConflict = errors.New("resource conflict")

	// ErrMultipleRows is returned when a single-row lookup matches more than
	// one row.
	ErrMultipleRows = errors.New("multiple rows match id")

	// ErrInvalidIdentifier is returned when a collection or column name is
	// not a plain SQL identifier.
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrMalformedRow is returned when a returned row cannot be decoded.
	ErrMalformedRow = errors.New("malformed row")

	// ErrUnavailable is returned by stores that have no reachable backend.
	ErrUnavailable = errors.New("store unavailable")
)

// Row is one record as a column-to-value map. The store never knows the
// schema of a collection; it only passes rows through.
type Row = map[string]any

// SelectQuery describes a filtered, paginated read of one collection.
type SelectQuery struct {
	Collection string
	// Columns defaults to every column.
	Columns    []string
	Filters    []query.Filter
	Pagination *query.Pagination
}

// Store defines the data access contract. Every method:
//   - Takes context.Context as first argument.
//   - Returns nil or an *Error whose Kind classifies the failure.
type Store interface {
	// Ping checks backend connectivity. Used by the health checker.
	Ping(ctx context.Context) error

	// Select returns the page of rows selected by q and the total number of
	// rows matching its filters.
	Select(ctx context.Context, q SelectQuery) ([]Row, int, error)

	// SelectOne returns the single row with the given id. Zero matches yield
	// ErrNotFound and more than one ErrMultipleRows.
	SelectOne(ctx context.Context, collection, id string) (Row, error)

	// Insert stores row and returns it as persisted.
	Insert(ctx context.Context, collection string, row Row) (Row, error)

	// Update applies patch to the row with the given id and returns the
	// updated row, or ErrNotFound.
	Update(ctx context.Context, collection, id string, patch Row) (Row, error)

	// Delete removes the row with the given id, or returns ErrNotFound.
	Delete(ctx context.Context, collection, id string) error

	// Close releases backend resources.
	Close() error
}

func validateRow(row Row) error {
	for col := range row {
		if !query.ValidIdentifier(col) {
			return invalidIdentifier(col)
		}
	}
	return nil
}
