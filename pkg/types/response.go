// Package types defines the public wire types of the peopledesk API.
//
// These types are imported by the data layer, the HTTP server, and the client
// SDK. Record types use snake_case JSON tags because the tags double as the
// column names of the backing tables.
package types

// Response is the envelope every data-layer operation resolves to.
//
// Success is true exactly when Error is empty. When Success is true and Data
// was substituted from sample data, Fallback is set and Count carries the
// length of the substituted collection (0 for single records).
type Response[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error,omitempty"`
	Success bool   `json:"success"`
	Count   *int   `json:"count,omitempty"`

	// Err is the classified cause of a failure, including one masked by
	// fallback data. It is never serialized; the HTTP layer uses it with
	// errors.Is.
	Err error `json:"-"`

	// Fallback reports that Data came from sample data rather than the store.
	Fallback bool `json:"-"`
}

// OK builds a successful envelope without a count.
func OK[T any](data T) Response[T] {
	return Response[T]{Data: data, Success: true}
}

// OKCount builds a successful envelope carrying a count.
func OKCount[T any](data T, count int) Response[T] {
	return Response[T]{Data: data, Success: true, Count: &count}
}

// Fail builds a failed envelope from err. The error message is passed through
// unchanged.
func Fail[T any](err error) Response[T] {
	msg := "unknown error"
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return Response[T]{Error: msg, Err: err}
}

// CountOrZero returns the envelope count, or 0 when none was set.
func (r Response[T]) CountOrZero() int {
	if r.Count == nil {
		return 0
	}
	return *r.Count
}
