package diagram

import (
	"fmt"
	"time"
)

// Clock is a periodic timing source. Due instant i falls at i*T + offset
// of simulated time; the counter k tracks the next instant not yet
// consumed. A Clock owns the clocked blocks attached to it, in the order
// they were added to the diagram.
type Clock struct {
	name   string
	period time.Duration
	offset time.Duration
	blocks []Block
	k      int
}

// Name returns the clock's name.
func (c *Clock) Name() string { return c.name }

// Period returns T.
func (c *Clock) Period() time.Duration { return c.period }

// Offset returns the phase offset.
func (c *Clock) Offset() time.Duration { return c.offset }

// Blocks returns the owned clocked blocks in attachment order.
func (c *Clock) Blocks() []Block { return c.blocks }

// Count returns the tick counter k, the index of the next due instant.
func (c *Clock) Count() int { return c.k }

// TimeOf returns the simulated time of due instant i.
func (c *Clock) TimeOf(i int) time.Duration {
	return time.Duration(i)*c.period + c.offset
}

// Pending returns how many due instants at or before t have not been
// consumed yet.
func (c *Clock) Pending(t time.Duration) int {
	if t < c.offset {
		return 0
	}
	n := int((t-c.offset)/c.period) - c.k + 1
	if n < 0 {
		return 0
	}
	return n
}

// Advance consumes n due instants.
func (c *Clock) Advance(n int) { c.k += n }

// Rewind resets the tick counter for a fresh run.
func (c *Clock) Rewind() { c.k = 0 }

func (c *Clock) attach(b Block) {
	c.blocks = append(c.blocks, b)
}

func (c *Clock) String() string {
	return fmt.Sprintf("%s (T=%s offset=%s)", c.name, c.period, c.offset)
}
