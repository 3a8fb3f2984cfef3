package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/netreplay/internal/ir"
)

func TestClock_NewClock(t *testing.T) {
	c := NewClock(5, 10)
	assert.Equal(t, ir.Time(5), c.Now(), "new clock should start at the given time")
	assert.Equal(t, ir.Time(10), c.Increment())
}

func TestClock_Advance(t *testing.T) {
	c := NewClock(0, 5)

	assert.Equal(t, ir.Time(5), c.Advance())
	assert.Equal(t, ir.Time(10), c.Advance())
	assert.Equal(t, ir.Time(15), c.Advance())

	assert.Equal(t, ir.Time(15), c.Now())
}

func TestClock_Now_DoesNotAdvance(t *testing.T) {
	c := NewClock(3, 1)
	c.Advance()

	assert.Equal(t, ir.Time(4), c.Now())
	assert.Equal(t, ir.Time(4), c.Now())
}

func TestClock_ConcurrentReads(t *testing.T) {
	c := NewClock(0, 1)
	const steps = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		last := ir.Time(0)
		for i := 0; i < steps; i++ {
			now := c.Now()
			assert.GreaterOrEqual(t, now, last, "clock must never move backwards")
			last = now
		}
	}()

	for i := 0; i < steps; i++ {
		c.Advance()
	}
	wg.Wait()

	assert.Equal(t, ir.Time(steps), c.Now())
}
