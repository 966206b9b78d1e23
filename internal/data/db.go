// Package data is the resilient CRUD layer over a store.Store.
//
// Every operation ends in a types.Response envelope and never returns an
// error or panics. Failures the store classifies as schema mismatch or
// transport are masked with caller-supplied fallback data and reported as
// success; every other failure is reported with the store's message.
package data

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/peopledesk/peopledesk/internal/events"
	"github.com/peopledesk/peopledesk/internal/health"
	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/store"
)

// DB binds a store to the collaborators shared by every Table.
type DB struct {
	store         store.Store
	health        *health.Checker
	metrics       *metrics.Recorder
	publisher     events.Publisher
	subjectPrefix string
	logger        zerolog.Logger
	now           func() time.Time
	ids           *IDGenerator
	timeout       time.Duration
}

// Option configures a DB.
type Option func(*DB)

// WithHealth short-circuits operations to fallback data while the checker
// reports the store as unreachable.
func WithHealth(c *health.Checker) Option {
	return func(db *DB) {
		db.health = c
	}
}

// WithMetrics records operation outcomes.
func WithMetrics(r *metrics.Recorder) Option {
	return func(db *DB) {
		db.metrics = r
	}
}

// WithPublisher publishes a change event after every successful write.
// Subjects are "<prefix>.<collection>.<operation>".
func WithPublisher(p events.Publisher, subjectPrefix string) Option {
	return func(db *DB) {
		db.publisher = p
		db.subjectPrefix = subjectPrefix
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(db *DB) {
		db.logger = logger
	}
}

// WithClock replaces time.Now for timestamps and ids.
func WithClock(now func() time.Time) Option {
	return func(db *DB) {
		db.now = now
	}
}

// WithTimeout bounds every store call. Zero leaves only the caller's
// deadline.
func WithTimeout(d time.Duration) Option {
	return func(db *DB) {
		db.timeout = d
	}
}

// New creates a DB over st.
func New(st store.Store, opts ...Option) *DB {
	db := &DB{
		store:     st,
		publisher: events.Noop{},
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	db.ids = NewIDGenerator(db.now)
	return db
}

// Store returns the underlying store.
func (db *DB) Store() store.Store {
	return db.store
}

// Health returns the health checker, or nil.
func (db *DB) Health() *health.Checker {
	return db.health
}

// Now returns the current time from the configured clock, in UTC.
func (db *DB) Now() time.Time {
	return db.now().UTC()
}

// Timestamp formats t the way the layer stores timestamps: RFC 3339 in UTC
// with fractional seconds.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
