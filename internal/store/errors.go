package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// Kind classifies a store failure.
type Kind int

const (
	// KindFatal is a failure the caller must surface, such as a constraint
	// violation or permission error.
	KindFatal Kind = iota

	// KindSchemaMismatch means the collection, a column, or a function the
	// query depends on does not exist in the backend.
	KindSchemaMismatch

	// KindTransport means the backend could not be reached or its reply
	// could not be read.
	KindTransport
)

// String returns the metric/log label of the kind.
func (k Kind) String() string {
	switch k {
	case KindSchemaMismatch:
		return "schema_mismatch"
	case KindTransport:
		return "transport"
	default:
		return "fatal"
	}
}

// Recoverable reports whether the failure may be masked with fallback data.
func (k Kind) Recoverable() bool {
	return k == KindSchemaMismatch || k == KindTransport
}

// Error is a classified store failure.
type Error struct {
	Kind       Kind
	Op         string
	Collection string
	Err        error
}

// Error returns the underlying message unchanged so it can be shown to users.
func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Unwrap exposes the underlying error to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds a classified error with an explicit kind.
func NewError(kind Kind, op, collection string, err error) *Error {
	return &Error{Kind: kind, Op: op, Collection: collection, Err: err}
}

// Wrap classifies err and tags it with the operation and collection. A nil
// error stays nil and an *Error passes through unchanged.
func Wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Kind: Classify(err), Op: op, Collection: collection, Err: err}
}

// KindOf returns the kind of a classified error, classifying it if needed.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return Classify(err)
}

// schemaHints are message fragments reported by hosted Postgres gateways when
// a relationship, cached schema, or RPC function is missing.
var schemaHints = []string{"relationship", "schema cache", "function"}

// Classify maps a raw backend error onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindFatal
	}

	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}

	if kind, ok := classifyPostgres(err); ok {
		return kind
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrMultipleRows), errors.Is(err, ErrInvalidIdentifier):
		return KindFatal
	case errors.Is(err, ErrMalformedRow), errors.Is(err, ErrUnavailable):
		return KindTransport
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return KindTransport
	case errors.Is(err, driver.ErrBadConn), errors.Is(err, sql.ErrConnDone):
		return KindTransport
	case errors.Is(err, syscall.ECONNREFUSED), errors.Is(err, syscall.ECONNRESET):
		return KindTransport
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindTransport
	}

	msg := strings.ToLower(err.Error())
	if kind, ok := classifySQLiteMessage(msg); ok {
		return kind
	}
	for _, hint := range schemaHints {
		if strings.Contains(msg, hint) {
			return KindSchemaMismatch
		}
	}
	return KindFatal
}

func invalidIdentifier(name string) error {
	return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
}
