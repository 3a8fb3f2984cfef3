package engine

import (
	"math"

	"github.com/roach88/netreplay/internal/ir"
)

// Config fixes the time window and step size of one run.
type Config struct {
	// Increment is the global step. It never changes during a run.
	Increment ir.Time

	// MinTime and MaxTime are inclusive.
	MinTime ir.Time
	MaxTime ir.Time
}

// Validate checks Increment > 0 and MinTime <= MaxTime, and that the clock
// can move one increment past MaxTime without overflowing.
func (c Config) Validate() error {
	if c.Increment <= 0 {
		return newRuntimeError(ErrCodeInvalidConfig, "increment must be positive, got %d", c.Increment)
	}
	if c.MinTime > c.MaxTime {
		return newRuntimeError(ErrCodeInvalidConfig, "min time %d after max time %d", c.MinTime, c.MaxTime)
	}
	if c.MaxTime > math.MaxInt64-c.Increment {
		return newRuntimeError(ErrCodeInvalidConfig,
			"max time %d is within one increment (%d) of the largest time", c.MaxTime, c.Increment)
	}
	return nil
}

// Steps returns how many steps a run over c performs, saturating at
// math.MaxInt64.
func (c Config) Steps() int64 {
	if c.Increment <= 0 || c.MinTime > c.MaxTime {
		return 0
	}
	// MaxTime >= MinTime, so the unsigned difference is exact even when
	// the signed one would overflow.
	n := (uint64(c.MaxTime)-uint64(c.MinTime))/uint64(c.Increment) + 1
	if n > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(n)
}

// WithOverrides replaces the fields whose override is non-nil.
func (c Config) WithOverrides(minTime, maxTime, incr *ir.Time) Config {
	if minTime != nil {
		c.MinTime = *minTime
	}
	if maxTime != nil {
		c.MaxTime = *maxTime
	}
	if incr != nil {
		c.Increment = *incr
	}
	return c
}

// DeriveConfig computes a run configuration from the generators, in order.
//
// MinTime is the first known lower bound and MaxTime the first known upper
// bound; a later unknown bound never replaces a known one. Increment is the
// smallest MaxUpdateInterval, so every generator publishes a state at least
// as often as it promises.
func DeriveConfig(gens []Generator) (Config, error) {
	if len(gens) == 0 {
		return Config{}, newRuntimeError(ErrCodeInvalidConfig, "no generators")
	}

	var (
		cfg    Config
		lo, hi ir.Bound
	)
	for _, g := range gens {
		lo = lo.Or(g.MinTime())
		hi = hi.Or(g.MaxTime())

		iv := g.MaxUpdateInterval()
		if iv <= 0 {
			return Config{}, &RuntimeError{
				Code:    ErrCodeInvalidConfig,
				Message: "max update interval must be positive",
				Trace:   g.Name(),
			}
		}
		if cfg.Increment == 0 || iv < cfg.Increment {
			cfg.Increment = iv
		}
	}

	if !lo.Known {
		return Config{}, newRuntimeError(ErrCodeNoBounds, "no generator has a known min time")
	}
	if !hi.Known {
		return Config{}, newRuntimeError(ErrCodeNoBounds, "no generator has a known max time")
	}
	cfg.MinTime, cfg.MaxTime = lo.T, hi.T
	return cfg, nil
}
