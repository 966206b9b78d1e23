// Package health tracks whether the backing store is reachable.
//
// A Checker probes the store with a bounded timeout and caches the outcome
// for a TTL. Data operations consult it before touching the store and mark it
// down when they hit a transport failure, so an outage is noticed at once and
// recovery is noticed within one TTL.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTTL is how long a probe result is trusted.
	DefaultTTL = 30 * time.Second

	// DefaultProbeTimeout bounds a single probe.
	DefaultProbeTimeout = 2 * time.Second
)

// Pinger is the probe target.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is a snapshot of the checker state.
type Status struct {
	Reachable bool      `json:"reachable"`
	CheckedAt time.Time `json:"checkedAt"`
	LastError string    `json:"lastError,omitempty"`
}

// Checker caches store reachability.
type Checker struct {
	target       Pinger
	ttl          time.Duration
	probeTimeout time.Duration
	now          func() time.Time
	logger       zerolog.Logger

	group singleflight.Group

	mu      sync.RWMutex
	status  Status
	checked bool
}

// Option configures a Checker.
type Option func(*Checker)

// WithTTL sets how long a probe result is trusted.
func WithTTL(ttl time.Duration) Option {
	return func(c *Checker) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithProbeTimeout bounds each probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Checker) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Checker) {
		c.now = now
	}
}

// WithLogger sets the logger for state changes.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Checker) {
		c.logger = logger
	}
}

// NewChecker creates a checker for target. No probe runs until the first call
// to Reachable or Check.
func NewChecker(target Pinger, opts ...Option) *Checker {
	c := &Checker{
		target:       target,
		ttl:          DefaultTTL,
		probeTimeout: DefaultProbeTimeout,
		now:          time.Now,
		logger:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Reachable returns the cached reachability, probing when the cache is empty
// or older than the TTL. Concurrent callers share one probe.
func (c *Checker) Reachable(ctx context.Context) bool {
	c.mu.RLock()
	fresh := c.checked && c.now().Sub(c.status.CheckedAt) < c.ttl
	reachable := c.status.Reachable
	c.mu.RUnlock()
	if fresh {
		return reachable
	}
	return c.Check(ctx).Reachable
}

// Check probes the target now, regardless of the cache.
func (c *Checker) Check(ctx context.Context) Status {
	v, _, _ := c.group.Do("probe", func() (any, error) {
		probeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.probeTimeout)
		defer cancel()

		err := c.target.Ping(probeCtx)
		status := Status{Reachable: err == nil, CheckedAt: c.now()}
		if err != nil {
			status.LastError = err.Error()
		}
		c.set(status)
		return status, nil
	})
	return v.(Status)
}

// MarkUnreachable records a failure observed outside a probe. The store is
// treated as down until the TTL expires and a probe succeeds.
func (c *Checker) MarkUnreachable(err error) {
	status := Status{Reachable: false, CheckedAt: c.now()}
	if err != nil {
		status.LastError = err.Error()
	}
	c.set(status)
}

// Status returns the last recorded state without probing.
func (c *Checker) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status
}

func (c *Checker) set(status Status) {
	c.mu.Lock()
	changed := !c.checked || c.status.Reachable != status.Reachable
	c.status = status
	c.checked = true
	c.mu.Unlock()

	if !changed {
		return
	}
	if status.Reachable {
		c.logger.Info().Msg("store reachable")
	} else {
		c.logger.Warn().Str("error", status.LastError).Msg("store unreachable; serving fallback data")
	}
}
