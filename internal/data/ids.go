package data

import (
	"strconv"
	"sync/atomic"
	"time"
)

// IDGenerator produces "<prefix>_<unix-millis>" ids. Successive ids from one
// generator are strictly increasing even within the same millisecond.
type IDGenerator struct {
	now  func() time.Time
	last atomic.Int64
}

// NewIDGenerator creates a generator reading the given clock.
func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

// Next returns a new id with the given prefix.
func (g *IDGenerator) Next(prefix string) string {
	for {
		last := g.last.Load()
		next := max(g.now().UnixMilli(), last+1)
		if g.last.CompareAndSwap(last, next) {
			return prefix + "_" + strconv.FormatInt(next, 10)
		}
	}
}
