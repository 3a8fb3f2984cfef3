package engine

import (
	"sync/atomic"

	"github.com/roach88/netreplay/internal/ir"
)

// Clock is the replay clock shared by every generator of a run.
//
// It starts at the run's MinTime and moves forward by a fixed increment.
// Only the Runner advances it; Now may be read from any goroutine, so a
// host can display progress while the run loop executes.
type Clock struct {
	now  atomic.Int64
	incr ir.Time
}

// NewClock creates a clock at start that advances by incr.
func NewClock(start, incr ir.Time) *Clock {
	c := &Clock{incr: incr}
	c.now.Store(int64(start))
	return c
}

// Now returns the current replay time.
func (c *Clock) Now() ir.Time {
	return ir.Time(c.now.Load())
}

// Increment returns the fixed step size.
func (c *Clock) Increment() ir.Time {
	return c.incr
}

// Advance moves the clock forward one increment and returns the new time.
func (c *Clock) Advance() ir.Time {
	return ir.Time(c.now.Add(int64(c.incr)))
}
